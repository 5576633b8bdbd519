package calculator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platefield/model"
)

func TestSuperpositionLinearity(t *testing.T) {
	env := VacuumEnv()
	const d = 0.8
	capacitor, err := BuildParallelPlates(env, 2e-6, d, 2, 1.5, 30, 20)
	require.NoError(t, err)
	single, err := BuildPlateField(env, 2e-6, 2, 1.5, 30, 20)
	require.NoError(t, err)

	for _, q := range []model.Vec3{{X: 0.1, Y: 0.2, Z: 0.05}, {X: -3, Y: 1, Z: 2}, {Z: -0.33}} {
		lower := single.Field(q.Sub(model.Vec3{Z: -d / 2}))
		upper := single.Field(q.Sub(model.Vec3{Z: d / 2}))
		assert.Equal(t, lower.Sub(upper), capacitor.Field(q), "at %v", q)

		vl := single.Potential(q.Sub(model.Vec3{Z: -d / 2}))
		vu := single.Potential(q.Sub(model.Vec3{Z: d / 2}))
		assert.Equal(t, vl-vu, capacitor.Potential(q), "at %v", q)
	}
}

func TestCapacitorMidplaneSymmetry(t *testing.T) {
	capacitor, err := BuildParallelPlates(VacuumEnv(), 1e-6, 1, 3, 3, 60, 60)
	require.NoError(t, err)

	for _, z := range []float64{0.1, 0.3, 0.7, 1.5, 6} {
		up := capacitor.Field(model.Vec3{Z: z})
		down := capacitor.Field(model.Vec3{Z: -z})
		scale := up.Norm()

		// 异号平板：轴线上 Ez 关于中面对称，电势反对称
		closeTo(t, up.Z, down.Z, scale, 1e-9, "Ez at z = %v", z)
		closeTo(t, 0, up.X, scale, 1e-9)
		closeTo(t, 0, up.Y, scale, 1e-9)

		vUp := capacitor.Potential(model.Vec3{Z: z})
		vDown := capacitor.Potential(model.Vec3{Z: -z})
		closeTo(t, vUp, -vDown, vUp, 1e-9, "V at z = %v", z)
	}

	// 板间场强指向 -σ 板
	assert.Greater(t, capacitor.Field(model.Vec3{}).Z, 0.0)
}

func TestSameSignPlatesAxisFieldIsOdd(t *testing.T) {
	env := VacuumEnv()
	plate, err := BuildPlateField(env, 1e-6, 2, 2, 40, 40)
	require.NoError(t, err)
	pair, err := NewCompositeField(
		Constituent{Field: plate, Offset: model.Vec3{Z: -0.5}},
		Constituent{Field: plate, Offset: model.Vec3{Z: 0.5}},
	)
	require.NoError(t, err)

	for _, z := range []float64{0.2, 0.9, 3} {
		up := pair.Field(model.Vec3{Z: z}).Z
		down := pair.Field(model.Vec3{Z: -z}).Z
		closeTo(t, up, -down, up, 1e-9, "z = %v", z)
	}
	assert.InDelta(t, 0, pair.Field(model.Vec3{}).Z, 1e-6)
}

func TestParallelPlatesApproachIdealCapacitor(t *testing.T) {
	env := VacuumEnv()
	capacitor, err := BuildParallelPlates(env, 1e-6, 1, 20, 20, 200, 200)
	require.NoError(t, err)

	ideal := IdealCapacitorField(env, 1e-6, 1, 0)
	assert.InEpsilon(t, ideal, capacitor.Field(model.Vec3{}).Z, 0.06)
	// 板外只剩边缘效应
	assert.Less(t, capacitor.Field(model.Vec3{Z: 1.5}).Norm(), 0.1*ideal)
}

func TestSideBySidePlates(t *testing.T) {
	env := VacuumEnv()
	same, err := BuildSideBySidePlates(env, 1e-6, 1e-6, 0.5, 2, 2, 30, 30)
	require.NoError(t, err)
	v := same.Field(model.Vec3{Z: 0.7})
	closeTo(t, 0, v.X, v.Norm(), 1e-9)
	assert.Greater(t, v.Z, 0.0)

	opposite, err := BuildSideBySidePlates(env, 1e-6, -1e-6, 0.5, 2, 2, 30, 30)
	require.NoError(t, err)
	v = opposite.Field(model.Vec3{Z: 0.7})
	closeTo(t, 0, v.Z, v.Norm(), 1e-9)
	// 从正板指向负板
	assert.Greater(t, v.X, 0.0)

	parts := same.Constituents()
	require.Len(t, parts, 2)
	assert.Equal(t, model.Vec3{X: -1.25}, parts[0].Offset)
	assert.Equal(t, model.Vec3{X: 1.25}, parts[1].Offset)
}

func TestCompositeRejectsBadInput(t *testing.T) {
	_, err := NewCompositeField()
	assert.True(t, errors.Is(err, ErrNoConstituents))

	_, err = NewCompositeField(Constituent{})
	assert.True(t, errors.Is(err, ErrNoConstituents))

	a, err := BuildPlateField(VacuumEnv(), 1, 1, 1, 2, 2)
	require.NoError(t, err)
	other, err := NewEnv(1)
	require.NoError(t, err)
	b, err := BuildPlateField(other, 1, 1, 1, 2, 2)
	require.NoError(t, err)

	_, err = NewCompositeField(Constituent{Field: a}, Constituent{Field: b})
	assert.True(t, errors.Is(err, ErrMixedConstant))

	// 不同的 Env 实例，相同的 ε₀ 可以组合
	c, err := BuildPlateField(VacuumEnv(), 1, 1, 1, 2, 2)
	require.NoError(t, err)
	_, err = NewCompositeField(Constituent{Field: a}, Constituent{Field: c})
	assert.NoError(t, err)

	_, err = BuildParallelPlates(VacuumEnv(), 1, 0, 1, 1, 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidDistance))
	_, err = BuildSideBySidePlates(VacuumEnv(), 1, 1, -0.1, 1, 1, 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidDistance))
	_, err = BuildParallelPlates(VacuumEnv(), 1, 1, -1, 1, 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidLength))
}

func TestNestedComposite(t *testing.T) {
	env := VacuumEnv()
	capacitor, err := BuildParallelPlates(env, 1e-6, 1, 2, 2, 20, 20)
	require.NoError(t, err)
	shifted, err := NewCompositeField(Constituent{Field: capacitor, Offset: model.Vec3{X: 5}, Negate: true})
	require.NoError(t, err)

	q := model.Vec3{X: 5.2, Y: 0.1, Z: 0.3}
	assert.Equal(t, capacitor.Field(q.Sub(model.Vec3{X: 5})).Neg(), shifted.Field(q))
}
