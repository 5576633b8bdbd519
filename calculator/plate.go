package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"platefield/model"
)

// 默认网格划分
const DefaultCells = 100

// PlateSpec 描述一块均匀带电的矩形平板。平板中心位于局部坐标原点，处于 z = 0 平面，
// 各边与 x、y 轴平行。
type PlateSpec struct {
	ChargeDensity float64
	LengthX       float64
	LengthY       float64
	CellsX        int
	CellsY        int
}

func NewPlateSpec(chargeDensity, lengthX, lengthY float64, cellsX, cellsY int) (PlateSpec, error) {
	s := PlateSpec{
		ChargeDensity: chargeDensity,
		LengthX:       lengthX,
		LengthY:       lengthY,
		CellsX:        cellsX,
		CellsY:        cellsY,
	}
	return s, s.validate()
}

func (s PlateSpec) validate() error {
	if !(s.LengthX > 0) || math.IsInf(s.LengthX, 0) {
		return configErr("lengthX", s.LengthX, ErrInvalidLength)
	}
	if !(s.LengthY > 0) || math.IsInf(s.LengthY, 0) {
		return configErr("lengthY", s.LengthY, ErrInvalidLength)
	}
	if s.CellsX < 1 {
		return configErr("cellsX", s.CellsX, ErrInvalidCells)
	}
	if s.CellsY < 1 {
		return configErr("cellsY", s.CellsY, ErrInvalidCells)
	}
	return nil
}

// ChargeGrid 平板离散后的点电荷网格。
// 网格中心为 Xs × Ys 的笛卡尔积，每个单元的电荷量相同。
type ChargeGrid struct {
	Xs         []float64
	Ys         []float64
	CellCharge float64
}

func newChargeGrid(s PlateSpec) ChargeGrid {
	dx := s.LengthX / float64(s.CellsX)
	dy := s.LengthY / float64(s.CellsY)
	return ChargeGrid{
		Xs:         cellCenters(s.LengthX, s.CellsX),
		Ys:         cellCenters(s.LengthY, s.CellsY),
		CellCharge: s.ChargeDensity * dx * dy,
	}
}

// 在 [-l/2+d/2, l/2-d/2] 上等距取 n 个单元中心
func cellCenters(l float64, n int) []float64 {
	c := make([]float64, n)
	if n == 1 {
		return c
	}
	d := l / float64(n)
	return floats.Span(c, -l/2+d/2, l/2-d/2)
}

func (g ChargeGrid) Cells() int {
	return len(g.Xs) * len(g.Ys)
}

// TotalCharge 所有单元电荷之和，应等于 σ·Lx·Ly
func (g ChargeGrid) TotalCharge() float64 {
	charges := make([]float64, g.Cells())
	for i := range charges {
		charges[i] = g.CellCharge
	}
	return floats.Sum(charges)
}

// PlateField 单块平板的场强计算器，构建后不可变，可并发调用
type PlateField struct {
	spec      PlateSpec
	grid      ChargeGrid
	env       *Env
	preFactor float64 // cellCharge / (4πε₀)，所有单元相同
}

// BuildPlateField 将平板划分为 cellsX × cellsY 个点电荷并返回计算器
func BuildPlateField(env *Env, chargeDensity, lengthX, lengthY float64, cellsX, cellsY int) (*PlateField, error) {
	spec, err := NewPlateSpec(chargeDensity, lengthX, lengthY, cellsX, cellsY)
	if err != nil {
		return nil, err
	}
	return env.Build(spec)
}

func (e *Env) Build(spec PlateSpec) (*PlateField, error) {
	if e == nil {
		return nil, configErr("env", nil, ErrInvalidConstant)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	grid := newChargeGrid(spec)
	return &PlateField{
		spec:      spec,
		grid:      grid,
		env:       e,
		preFactor: grid.CellCharge * e.coulomb,
	}, nil
}

func (p *PlateField) Spec() PlateSpec {
	return p.spec
}

func (p *PlateField) Grid() ChargeGrid {
	return p.grid
}

func (p *PlateField) Env() *Env {
	return p.env
}

// Field 计算查询点（平板局部坐标）处的场强。
// 查询点恰好落在某个单元中心时结果为 Inf 或 NaN，不做特殊处理。
func (p *PlateField) Field(q model.Vec3) model.Vec3 {
	var ex, ey, ez float64
	z2 := q.Z * q.Z
	for _, xc := range p.grid.Xs {
		rx := q.X - xc
		rx2 := rx*rx + z2
		for _, yc := range p.grid.Ys {
			ry := q.Y - yc
			r2 := rx2 + ry*ry
			invR3 := 1 / (r2 * math.Sqrt(r2))
			ex += rx * invR3
			ey += ry * invR3
			ez += q.Z * invR3
		}
	}
	return model.Vec3{X: p.preFactor * ex, Y: p.preFactor * ey, Z: p.preFactor * ez}
}

// Potential 查询点处的电势，奇点处理同 Field
func (p *PlateField) Potential(q model.Vec3) float64 {
	var v float64
	z2 := q.Z * q.Z
	for _, xc := range p.grid.Xs {
		rx := q.X - xc
		rx2 := rx*rx + z2
		for _, yc := range p.grid.Ys {
			ry := q.Y - yc
			v += 1 / math.Sqrt(rx2+ry*ry)
		}
	}
	return p.preFactor * v
}
