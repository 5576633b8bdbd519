package calculator

import (
	"math"

	"platefield/model"
)

// Constituent 组合场中的一块平板：平板位于 Offset 处，Negate 为 true 时电荷取反
type Constituent struct {
	Field  FieldEvaluator
	Offset model.Vec3
	Negate bool
}

// CompositeField 多块平板的叠加场。
// 各分量按构建顺序逐项相加，相同输入总是得到相同结果；
// 换一种构建顺序只会带来浮点舍入上的差别。
type CompositeField struct {
	parts []Constituent
	env   *Env
}

func NewCompositeField(parts ...Constituent) (*CompositeField, error) {
	if len(parts) == 0 {
		return nil, ErrNoConstituents
	}
	var env *Env
	for i, c := range parts {
		if c.Field == nil {
			return nil, configErr("constituent", i, ErrNoConstituents)
		}
		if env == nil {
			env = c.Field.Env()
			continue
		}
		if !sameConstant(env, c.Field.Env()) {
			return nil, configErr("constituent", i, ErrMixedConstant)
		}
	}
	cp := make([]Constituent, len(parts))
	copy(cp, parts)
	return &CompositeField{parts: cp, env: env}, nil
}

func sameConstant(a, b *Env) bool {
	return a == b || (a != nil && b != nil && a.epsilon0 == b.epsilon0)
}

func (c *CompositeField) Env() *Env {
	return c.env
}

func (c *CompositeField) Constituents() []Constituent {
	cp := make([]Constituent, len(c.parts))
	copy(cp, c.parts)
	return cp
}

// Field 把查询点平移到每块平板的局部坐标系后求和
func (c *CompositeField) Field(q model.Vec3) model.Vec3 {
	var sum model.Vec3
	for _, part := range c.parts {
		v := part.Field.Field(q.Sub(part.Offset))
		if part.Negate {
			v = v.Neg()
		}
		sum = sum.Add(v)
	}
	return sum
}

func (c *CompositeField) Potential(q model.Vec3) float64 {
	var sum float64
	for _, part := range c.parts {
		v := part.Field.Potential(q.Sub(part.Offset))
		if part.Negate {
			v = -v
		}
		sum += v
	}
	return sum
}

// BuildParallelPlates 两块等大反号的平行板，法向为 z。
// +σ 板位于 z = -distance/2，-σ 板位于 z = +distance/2，两板之间场强沿 +z。
func BuildParallelPlates(env *Env, chargeDensity, distance, lengthX, lengthY float64, cellsX, cellsY int) (*CompositeField, error) {
	if !(distance > 0) || math.IsInf(distance, 0) {
		return nil, configErr("distance", distance, ErrInvalidDistance)
	}
	plate, err := BuildPlateField(env, chargeDensity, lengthX, lengthY, cellsX, cellsY)
	if err != nil {
		return nil, err
	}
	return NewCompositeField(
		Constituent{Field: plate, Offset: model.Vec3{Z: -distance / 2}},
		Constituent{Field: plate, Offset: model.Vec3{Z: distance / 2}, Negate: true},
	)
}

// BuildSideBySidePlates 同一平面内沿 x 并排的两块平板，中间留 gap 的空隙
func BuildSideBySidePlates(env *Env, density1, density2, gap, lengthX, lengthY float64, cellsX, cellsY int) (*CompositeField, error) {
	if !(gap >= 0) || math.IsInf(gap, 0) {
		return nil, configErr("gap", gap, ErrInvalidDistance)
	}
	left, err := BuildPlateField(env, density1, lengthX, lengthY, cellsX, cellsY)
	if err != nil {
		return nil, err
	}
	right, err := BuildPlateField(env, density2, lengthX, lengthY, cellsX, cellsY)
	if err != nil {
		return nil, err
	}
	shift := (lengthX + gap) / 2
	return NewCompositeField(
		Constituent{Field: left, Offset: model.Vec3{X: -shift}},
		Constituent{Field: right, Offset: model.Vec3{X: shift}},
	)
}
