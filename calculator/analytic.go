package calculator

import (
	"math"

	"platefield/model"
)

// 解析极限，用于和离散求和的结果对比

// PointChargeField 位于原点的点电荷 q 在 p 处的场强
func PointChargeField(env *Env, q float64, p model.Vec3) model.Vec3 {
	r := p.Norm()
	return p.Scale(env.coulomb * q / (r * r * r))
}

// InfinitePlateField 位于 z = 0 的无限大平板的场强 σ/(2ε₀)，方向沿法向背离平板
func InfinitePlateField(env *Env, chargeDensity, z float64) float64 {
	if z == 0 {
		return 0
	}
	return math.Copysign(chargeDensity/(2*env.epsilon0), z)
}

// IdealCapacitorField 无限大平行板电容器（+σ 在 -d/2，-σ 在 +d/2）的场强：板间 σ/ε₀，板外为 0
func IdealCapacitorField(env *Env, chargeDensity, distance, z float64) float64 {
	if math.Abs(z) < distance/2 {
		return chargeDensity / env.epsilon0
	}
	return 0
}

// RectanglePlateAxisField 有限矩形平板中心轴线上的精确场强 Ez：
// σ/(πε₀) · arctan(ab / (4|z|·sqrt(z² + a²/4 + b²/4)))
func RectanglePlateAxisField(env *Env, chargeDensity, lengthX, lengthY, z float64) float64 {
	if z == 0 {
		return 0
	}
	az := math.Abs(z)
	r := math.Sqrt(z*z + lengthX*lengthX/4 + lengthY*lengthY/4)
	e := chargeDensity / (math.Pi * env.epsilon0) * math.Atan(lengthX*lengthY/(4*az*r))
	return math.Copysign(e, z)
}
