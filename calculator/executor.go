package calculator

import (
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"platefield/model"
)

// 批量计算的调度器：把 [0, total) 切分为若干任务，分发给固定数量的 worker。
// 每个查询点相互独立，结果写入各自的位置，因此与执行顺序无关。
type Executor struct {
	workers  int
	minBatch int // 少于该数量的查询点直接在当前 goroutine 中计算
}

type task struct {
	start int
	end   int
}

var defaultExecutor = NewExecutor(runtime.NumCPU(), 256)

func NewExecutor(workers, minBatch int) *Executor {
	if workers < 1 {
		workers = 1
	}
	if minBatch < 1 {
		minBatch = 1
	}
	return &Executor{workers: workers, minBatch: minBatch}
}

func (e *Executor) Workers() int {
	return e.workers
}

// 任务切分：每个 worker 的份额再对半分，余数逐个分配
func splitTasks(total, workers int) []task {
	if total <= 0 {
		return nil
	}
	taskLen, remainder := total/workers, total%workers
	tasks := make([]task, 0, workers*2+remainder)

	start := 0
	if taskLen > 0 {
		half1, half2 := taskLen/2, taskLen/2
		if taskLen%2 == 1 {
			half2++
		}
		for start < total-remainder {
			if half1 != 0 {
				tasks = append(tasks, task{start: start, end: start + half1})
				start += half1
			}
			tasks = append(tasks, task{start: start, end: start + half2})
			start += half2
		}
	}
	for i := 0; i < remainder; i++ {
		tasks = append(tasks, task{start: start, end: start + 1})
		start++
	}
	return tasks
}

func (e *Executor) dispatchTask(total int, f func(t task)) time.Duration {
	start := time.Now()
	if total < e.minBatch || e.workers == 1 {
		f(task{start: 0, end: total})
		return time.Since(start)
	}

	tasks := splitTasks(total, e.workers)
	dispatchChan := make(chan task, len(tasks))
	for _, t := range tasks {
		dispatchChan <- t
	}
	close(dispatchChan)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range dispatchChan {
				f(t)
			}
		}()
	}
	wg.Wait()
	return time.Since(start)
}

func (e *Executor) EvaluateMany(f FieldEvaluator, xs, ys, zs []float64) (ex, ey, ez []float64, err error) {
	return e.evaluateMany(f, xs, ys, zs)
}

func (e *Executor) evaluateMany(f FieldEvaluator, xs, ys, zs []float64) (ex, ey, ez []float64, err error) {
	n, err := broadcastLen(len(xs), len(ys), len(zs))
	if err != nil {
		return nil, nil, nil, err
	}
	ex = make([]float64, n)
	ey = make([]float64, n)
	ez = make([]float64, n)
	cost := e.dispatchTask(n, func(t task) {
		for i := t.start; i < t.end; i++ {
			v := f.Field(model.Vec3{X: at(xs, i), Y: at(ys, i), Z: at(zs, i)})
			ex[i], ey[i], ez[i] = v.X, v.Y, v.Z
		}
	})
	log.WithFields(log.Fields{"points": n, "cost": cost}).Debug("批量计算场强")
	return ex, ey, ez, nil
}

func (e *Executor) EvaluatePoints(f FieldEvaluator, points []model.Vec3) []model.Vec3 {
	return e.evaluatePoints(f, points)
}

func (e *Executor) evaluatePoints(f FieldEvaluator, points []model.Vec3) []model.Vec3 {
	out := make([]model.Vec3, len(points))
	cost := e.dispatchTask(len(points), func(t task) {
		for i := t.start; i < t.end; i++ {
			out[i] = f.Field(points[i])
		}
	})
	log.WithFields(log.Fields{"points": len(points), "cost": cost}).Debug("批量计算场强")
	return out
}

// PotentialPoints 按查询点列表批量计算电势
func (e *Executor) PotentialPoints(f FieldEvaluator, points []model.Vec3) []float64 {
	out := make([]float64, len(points))
	e.dispatchTask(len(points), func(t task) {
		for i := t.start; i < t.end; i++ {
			out[i] = f.Potential(points[i])
		}
	})
	return out
}
