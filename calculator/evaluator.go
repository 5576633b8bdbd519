package calculator

import (
	"platefield/model"
)

// FieldEvaluator 场强计算接口，PlateField 与 CompositeField 均实现该接口
type FieldEvaluator interface {
	Field(p model.Vec3) model.Vec3
	Potential(p model.Vec3) float64
	Env() *Env
}

// broadcastLen 一维广播：每个切片长度为 1 或 N，返回 N
func broadcastLen(lens ...int) (int, error) {
	n := 1
	for _, l := range lens {
		switch {
		case l == 0:
			return 0, ErrShapeMismatch
		case l == 1:
		case n == 1:
			n = l
		case l != n:
			return 0, ErrShapeMismatch
		}
	}
	return n, nil
}

func at(s []float64, i int) float64 {
	if len(s) == 1 {
		return s[0]
	}
	return s[i]
}

// EvaluateMany 批量计算场强，xs、ys、zs 按一维广播规则对齐，
// 输出与广播后的长度相同，逐点等于 Field 的结果。
func EvaluateMany(f FieldEvaluator, xs, ys, zs []float64) (ex, ey, ez []float64, err error) {
	return defaultExecutor.evaluateMany(f, xs, ys, zs)
}

// EvaluatePoints 按查询点列表批量计算
func EvaluatePoints(f FieldEvaluator, points []model.Vec3) []model.Vec3 {
	return defaultExecutor.evaluatePoints(f, points)
}
