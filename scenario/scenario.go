package scenario

import (
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"platefield/calculator"
	"platefield/model"
)

// 示例场景：单板、平行板、并排平板、三板

const (
	Single     = "single"
	Parallel   = "parallel"
	SideBySide = "side-by-side"
	ThreePlate = "three-plate"
)

var ErrUnknownScenario = errors.New("scenario: unknown scenario")

type builder func(env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error)

var builders = map[string]builder{
	Single:     buildSingle,
	Parallel:   buildParallel,
	SideBySide: buildSideBySide,
	ThreePlate: buildThreePlate,
}

func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 默认参数：3 m × 3 m 的平板，σ = 1 C/m²
func DefaultParams(cfg calculator.Config) model.PlateParams {
	return model.PlateParams{
		Density:  1,
		Distance: 1,
		Gap:      0.5,
		LengthX:  3,
		LengthY:  3,
		CellsX:   cfg.CellsX,
		CellsY:   cfg.CellsY,
	}
}

// 未设置网格数时使用默认划分
func withDefaultCells(p model.PlateParams) model.PlateParams {
	if p.CellsX == 0 {
		p.CellsX = calculator.DefaultCells
	}
	if p.CellsY == 0 {
		p.CellsY = calculator.DefaultCells
	}
	return p
}

// Build 按名称构建场景
func Build(name string, env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	p = withDefaultCells(p)
	f, err := b(env, p)
	if err != nil {
		return nil, fmt.Errorf("build scenario %s: %w", name, err)
	}
	log.WithFields(log.Fields{
		"scenario": name,
		"density":  p.Density,
		"distance": p.Distance,
		"gap":      p.Gap,
		"lengthX":  p.LengthX,
		"lengthY":  p.LengthY,
		"cellsX":   p.CellsX,
		"cellsY":   p.CellsY,
	}).Info("构建场景")
	return f, nil
}

func buildSingle(env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error) {
	return calculator.BuildPlateField(env, p.Density, p.LengthX, p.LengthY, p.CellsX, p.CellsY)
}

// +σ 在 z = -d/2，-σ 在 z = +d/2
func buildParallel(env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error) {
	return calculator.BuildParallelPlates(env, p.Density, p.Distance, p.LengthX, p.LengthY, p.CellsX, p.CellsY)
}

// 同一平面内 +σ 在左，-σ 在右
func buildSideBySide(env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error) {
	return calculator.BuildSideBySidePlates(env, p.Density, -p.Density, p.Gap, p.LengthX, p.LengthY, p.CellsX, p.CellsY)
}

// z = -d, 0, +d 处三块平板，面密度 σ、-2σ、σ，总电荷为 0
func buildThreePlate(env *calculator.Env, p model.PlateParams) (calculator.FieldEvaluator, error) {
	if !(p.Distance > 0) {
		return nil, &calculator.ConfigurationError{Field: "distance", Value: p.Distance, Err: calculator.ErrInvalidDistance}
	}
	outer, err := calculator.BuildPlateField(env, p.Density, p.LengthX, p.LengthY, p.CellsX, p.CellsY)
	if err != nil {
		return nil, err
	}
	middle, err := calculator.BuildPlateField(env, 2*p.Density, p.LengthX, p.LengthY, p.CellsX, p.CellsY)
	if err != nil {
		return nil, err
	}
	return calculator.NewCompositeField(
		calculator.Constituent{Field: outer, Offset: model.Vec3{Z: -p.Distance}},
		calculator.Constituent{Field: middle, Negate: true},
		calculator.Constituent{Field: outer, Offset: model.Vec3{Z: p.Distance}},
	)
}
