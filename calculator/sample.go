package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"platefield/model"
)

// 为可视化准备的采样：沿直线的剖面与坐标平面上的截面

type Profile struct {
	Points []model.Vec3
	Fields []model.Vec3
}

// AxisProfile 在 from 与 to 之间（含端点）等距取 n 个点计算场强
func (e *Executor) AxisProfile(f FieldEvaluator, from, to model.Vec3, n int) (Profile, error) {
	if n < 2 {
		return Profile{}, configErr("n", n, ErrInvalidSamples)
	}
	xs := floats.Span(make([]float64, n), from.X, to.X)
	ys := floats.Span(make([]float64, n), from.Y, to.Y)
	zs := floats.Span(make([]float64, n), from.Z, to.Z)
	points := make([]model.Vec3, n)
	for i := range points {
		points[i] = model.Vec3{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return Profile{Points: points, Fields: e.evaluatePoints(f, points)}, nil
}

type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

func ParsePlane(s string) (Plane, error) {
	switch p := Plane(s); p {
	case PlaneXY, PlaneXZ, PlaneYZ:
		return p, nil
	}
	return "", fmt.Errorf("calculator: unknown plane %q", s)
}

// 平面内坐标 (u, v) 与平面外坐标 w 组成的三维点
func (p Plane) point(u, v, w float64) model.Vec3 {
	switch p {
	case PlaneXZ:
		return model.Vec3{X: u, Y: w, Z: v}
	case PlaneYZ:
		return model.Vec3{X: w, Y: u, Z: v}
	default:
		return model.Vec3{X: u, Y: v, Z: w}
	}
}

// 场强在 (u, v, w) 方向上的分量
func (p Plane) components(f model.Vec3) (eu, ev, ew float64) {
	switch p {
	case PlaneXZ:
		return f.X, f.Z, f.Y
	case PlaneYZ:
		return f.Y, f.Z, f.X
	default:
		return f.X, f.Y, f.Z
	}
}

// Section 截面采样结果，矩阵按 [v][u] 排列
type Section struct {
	Plane     Plane
	U         []float64
	V         []float64
	W         float64
	EU        *mat.Dense
	EV        *mat.Dense
	EW        *mat.Dense
	Magnitude *mat.Dense
}

func (e *Executor) CrossSection(f FieldEvaluator, plane Plane, u0, u1, v0, v1 float64, nu, nv int, w float64) (*Section, error) {
	if nu < 2 {
		return nil, configErr("nu", nu, ErrInvalidSamples)
	}
	if nv < 2 {
		return nil, configErr("nv", nv, ErrInvalidSamples)
	}
	us := floats.Span(make([]float64, nu), u0, u1)
	vs := floats.Span(make([]float64, nv), v0, v1)

	points := make([]model.Vec3, 0, nu*nv)
	for _, v := range vs {
		for _, u := range us {
			points = append(points, plane.point(u, v, w))
		}
	}
	fields := e.evaluatePoints(f, points)

	s := &Section{
		Plane:     plane,
		U:         us,
		V:         vs,
		W:         w,
		EU:        mat.NewDense(nv, nu, nil),
		EV:        mat.NewDense(nv, nu, nil),
		EW:        mat.NewDense(nv, nu, nil),
		Magnitude: mat.NewDense(nv, nu, nil),
	}
	for i, field := range fields {
		r, c := i/nu, i%nu
		eu, ev, ew := plane.components(field)
		s.EU.Set(r, c, eu)
		s.EV.Set(r, c, ev)
		s.EW.Set(r, c, ew)
		s.Magnitude.Set(r, c, field.Norm())
	}
	return s, nil
}

// ReplaceNonFinite 把落在奇点上的结果置 0，并返回这些点的下标
func ReplaceNonFinite(fields []model.Vec3) ([]model.Vec3, []int) {
	clean := make([]model.Vec3, len(fields))
	var singular []int
	for i, v := range fields {
		if !v.IsFinite() {
			singular = append(singular, i)
			continue
		}
		clean[i] = v
	}
	return clean, singular
}
