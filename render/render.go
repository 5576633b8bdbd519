package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"platefield/calculator"
	"platefield/model"
)

// Series 一条曲线
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// ProfileSeries 取剖面上的某个坐标作横轴、某个场强分量作纵轴
func ProfileSeries(name string, p calculator.Profile, coord, component func(model.Vec3) float64) Series {
	s := Series{Name: name, X: make([]float64, len(p.Points)), Y: make([]float64, len(p.Points))}
	for i := range p.Points {
		s.X[i] = coord(p.Points[i])
		s.Y[i] = component(p.Fields[i])
	}
	return s
}

// AnalyticSeries 在 xs 上计算解析解
func AnalyticSeries(name string, xs []float64, f func(x float64) float64) Series {
	s := Series{Name: name, X: xs, Y: make([]float64, len(xs))}
	for i, x := range xs {
		s.Y[i] = f(x)
	}
	return s
}

func Z(v model.Vec3) float64 { return v.Z }
func X(v model.Vec3) float64 { return v.X }

// 奇点和发散值不画
func (s Series) xys() plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.X))
	for i := range s.X {
		if finite(s.X[i]) && finite(s.Y[i]) {
			pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
		}
	}
	return pts
}

// Lines 把若干曲线画到同一张图上，文件格式由扩展名决定
func Lines(path, title, xLabel, yLabel string, series ...Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	vs := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		pts := s.xys()
		if len(pts) == 0 {
			return fmt.Errorf("render: series %q has no finite points", s.Name)
		}
		vs = append(vs, s.Name, pts)
	}
	if err := plotutil.AddLines(p, vs...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// 截面上 log10|E| 的网格
type sectionGrid struct {
	u, v []float64
	z    [][]float64 // [v][u]
}

func newSectionGrid(s *calculator.Section) (*sectionGrid, error) {
	r, c := s.Magnitude.Dims()
	g := &sectionGrid{u: s.U, v: s.V, z: make([][]float64, r)}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < r; i++ {
		g.z[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			l := math.Log10(s.Magnitude.At(i, j))
			g.z[i][j] = l
			if finite(l) {
				lo = math.Min(lo, l)
				hi = math.Max(hi, l)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("render: section has no finite samples")
	}
	// 奇点处取最大值，零场强处取最小值
	for i := range g.z {
		for j, l := range g.z[i] {
			switch {
			case math.IsInf(l, -1):
				g.z[i][j] = lo
			case !finite(l):
				g.z[i][j] = hi
			}
		}
	}
	return g, nil
}

func (g *sectionGrid) Dims() (c, r int)   { return len(g.u), len(g.v) }
func (g *sectionGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *sectionGrid) X(c int) float64    { return g.u[c] }
func (g *sectionGrid) Y(r int) float64    { return g.v[r] }

// Section 画出截面上 log10|E| 的热力图
func Section(path, title string, s *calculator.Section) error {
	g, err := newSectionGrid(s)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	axes := string(s.Plane)
	p.X.Label.Text = axes[:1]
	p.Y.Label.Text = axes[1:]
	p.Add(plotter.NewHeatMap(g, palette.Heat(12, 1)))
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// WriteCSV 输出剖面数据，奇点按 Go 的格式写成 NaN / +Inf
func WriteCSV(w io.Writer, p calculator.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "ex", "ey", "ez"}); err != nil {
		return err
	}
	for i, pt := range p.Points {
		f := p.Fields[i]
		row := []string{fmtF(pt.X), fmtF(pt.Y), fmtF(pt.Z), fmtF(f.X), fmtF(f.Y), fmtF(f.Z)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
