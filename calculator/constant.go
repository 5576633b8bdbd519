package calculator

import "math"

// 真空介电常数 ε₀，单位 F/m
const VacuumPermittivity = 8.8541878128e-12

// Env 保存计算所用的 ε₀。进程启动时根据配置创建一次，之后所有平板都用同一个 Env 构建，
// 这样不同平板的计算结果才能相互比较和叠加。
type Env struct {
	epsilon0 float64
	coulomb  float64 // 1 / (4πε₀)
}

func NewEnv(epsilon0 float64) (*Env, error) {
	if !(epsilon0 > 0) || math.IsInf(epsilon0, 0) {
		return nil, configErr("epsilon0", epsilon0, ErrInvalidConstant)
	}
	return &Env{
		epsilon0: epsilon0,
		coulomb:  1 / (4 * math.Pi * epsilon0),
	}, nil
}

// 使用物理真实值的 Env
func VacuumEnv() *Env {
	env, _ := NewEnv(VacuumPermittivity)
	return env
}

func (e *Env) Epsilon0() float64 {
	return e.epsilon0
}

// CoulombConstant 返回 1/(4πε₀)
func (e *Env) CoulombConstant() float64 {
	return e.coulomb
}
