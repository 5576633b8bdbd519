package model

// 长度单位 m，电荷面密度单位 C/m²，场强单位 V/m

// 带电平板的几何与离散参数，场景构建时使用
type PlateParams struct {
	Density  float64 `json:"density"`  // 面电荷密度 σ
	Distance float64 `json:"distance"` // 平行板间距
	Gap      float64 `json:"gap"`      // 并排平板之间的空隙
	LengthX  float64 `json:"length_x"` // x 方向边长
	LengthY  float64 `json:"length_y"` // y 方向边长
	CellsX   int     `json:"cells_x"`  // x 方向网格数
	CellsY   int     `json:"cells_y"`  // y 方向网格数
}

// 选择场景
type ScenarioReq struct {
	Name   string      `json:"name"`
	Params PlateParams `json:"params"`
}

// 若干查询点上的场强
type FieldRequest struct {
	Scenario string      `json:"scenario"`
	Params   PlateParams `json:"params"`
	Points   []Vec3      `json:"points"`
}

type FieldResponse struct {
	Fields     []Vec3    `json:"fields"`
	Potentials []float64 `json:"potentials"`
	Singular   []int     `json:"singular"` // 落在奇点上的查询点下标，对应的值已置 0
}

// 沿直线采样
type ProfileReq struct {
	From Vec3 `json:"from"`
	To   Vec3 `json:"to"`
	N    int  `json:"n"`
}

type ProfileResult struct {
	Points   []Vec3 `json:"points"`
	Fields   []Vec3 `json:"fields"`
	Singular []int  `json:"singular"`
}

// 坐标平面上的二维截面，Plane 取 "xy"、"xz"、"yz"，W 为第三个坐标
type SectionReq struct {
	Plane string  `json:"plane"`
	U0    float64 `json:"u0"`
	U1    float64 `json:"u1"`
	V0    float64 `json:"v0"`
	V1    float64 `json:"v1"`
	NU    int     `json:"nu"`
	NV    int     `json:"nv"`
	W     float64 `json:"w"`
}

type SectionResult struct {
	Plane     string      `json:"plane"`
	U         []float64   `json:"u"`
	V         []float64   `json:"v"`
	EU        [][]float64 `json:"eu"` // 截面内的两个分量，按 [v][u] 排列
	EV        [][]float64 `json:"ev"`
	Magnitude [][]float64 `json:"magnitude"`
	Singular  [][2]int    `json:"singular"` // [v, u]
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
