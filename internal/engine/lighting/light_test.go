package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

func TestSetDirectionNormalises(t *testing.T) {
	tests := []struct {
		name string
		in   mgl32.Vec3
	}{
		{"axis", mgl32.Vec3{0, 0, 5}},
		{"diagonal", mgl32.Vec3{1, 0.3, -0.6}},
		{"tiny", mgl32.Vec3{1e-3, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			l.SetDirection(tt.in[0], tt.in[1], tt.in[2])
			assert.InDelta(t, 1, l.Direction().Len(), 1e-6)
			assert.InDelta(t, 1, l.Direction().Dot(tt.in.Normalize()), 1e-6)
		})
	}

	l := New()
	before := l.Direction()
	l.SetDirection(0, 0, 0)
	assert.Equal(t, before, l.Direction(), "zero vector ignored")
}

func TestMatricesStayStale(t *testing.T) {
	l := New()
	l.SetPosition(-60, 60, 0, 1)
	l.SetDirection(1, 0.3, -0.6)
	l.GenerateViewMatrixFromDirection()
	l.GenerateProjectionMatrix(0.1, 100)
	view, proj := l.ViewMatrix(), l.ProjectionMatrix()

	l.SetPosition(10, 10, 10, 1)
	l.SetDirection(0, -1, 0.1)
	assert.Equal(t, view, l.ViewMatrix())
	assert.Equal(t, proj, l.ProjectionMatrix())

	l.GenerateViewMatrixFromDirection()
	assert.NotEqual(t, view, l.ViewMatrix())
}

func TestViewMatrixFromDirection(t *testing.T) {
	l := New()
	l.SetPosition(0, 10, 0, 1)
	l.SetDirection(1, 0, 0)
	l.GenerateViewMatrixFromDirection()

	// The eye sits at the origin of view space and looks down -Z.
	eye := mgl32.TransformCoordinate(l.Position3(), l.ViewMatrix())
	assert.InDelta(t, 0, eye.Len(), 1e-4)
	ahead := mgl32.TransformCoordinate(mgl32.Vec3{5, 10, 0}, l.ViewMatrix())
	assert.InDelta(t, -5, ahead[2], 1e-4)

	// Straight down does not produce NaNs.
	l.SetDirection(0, -1, 0)
	l.GenerateViewMatrixFromDirection()
	for _, f := range l.ViewMatrix() {
		assert.False(t, f != f)
	}
}

func TestProjectionMatrix(t *testing.T) {
	l := New()
	l.GenerateProjectionMatrix(1, 100)
	want := mgl32.Perspective(math.Pi/2, 1, 1, 100)
	assert.Equal(t, want, l.ProjectionMatrix())
	assert.InDelta(t, 1, l.ProjectionMatrix().At(0, 0), 1e-6, "90 degree fov")
}

func TestFitShadowToSphere(t *testing.T) {
	l := New()
	l.SetDirection(0, -1, 0.2)
	l.FitShadowToSphere(mgl32.Vec3{0, 0, 0}, 10)
	vp := l.ProjectionMatrix().Mul4(l.ViewMatrix())

	for _, p := range []mgl32.Vec3{{0, 0, 0}, {9, 0, 0}, {0, 9, 0}, {0, -9, 0}, {0, 0, -9}} {
		c := mgl32.TransformCoordinate(p, vp)
		for i := 0; i < 3; i++ {
			assert.LessOrEqual(t, abs(c[i]), float32(1), "point %v axis %d", p, i)
		}
	}
}

func TestTakeCopies(t *testing.T) {
	a := New()
	a.Active = true
	a.Range = 10
	snap := Take([]*Light{a, nil})
	require.Len(t, snap, 1)

	a.Range = 99
	a.Active = false
	assert.Equal(t, float32(10), snap[0].Range)
	assert.True(t, snap[0].Active)
}

func TestPackLayout(t *testing.T) {
	l := New()
	l.Active = true
	l.Range = 300
	l.SpecularPower = 4
	l.SpotCutoff = 1.25
	l.SpotExponent = 2
	l.SetPosition(1, 2, 3, 1)
	l.GenerateProjectionMatrix(0.1, 10)

	w := gpu.NewStd140(BlockSize)
	Take([]*Light{l}).Pack(w)
	data := w.Bytes()
	require.Len(t, data, BlockSize)

	assert.Equal(t, float32(1), gpu.ReadFloat(data, 0))   // diffuse.r
	assert.Equal(t, float32(-1), gpu.ReadFloat(data, 36)) // direction.y
	assert.Equal(t, float32(3), gpu.ReadFloat(data, 88))  // position.z
	assert.Equal(t, uint32(1), gpu.ReadUint(data, 96))    // active
	assert.Equal(t, float32(300), gpu.ReadFloat(data, 100))
	assert.Equal(t, float32(4), gpu.ReadFloat(data, 104))
	assert.Equal(t, float32(1.25), gpu.ReadFloat(data, 108))
	assert.Equal(t, float32(2), gpu.ReadFloat(data, 112))
	assert.Equal(t, l.ProjectionMatrix()[0], gpu.ReadFloat(data, 192))

	// Remaining records are inactive.
	for i := 1; i < MaxLights; i++ {
		assert.Equal(t, uint32(0), gpu.ReadUint(data, i*RecordSize+96))
	}
}

func TestDemoRig(t *testing.T) {
	lights := DemoRig()
	require.Len(t, lights, MaxLights)
	for i, l := range lights {
		assert.True(t, l.Active, "light %d", i)
		assert.InDelta(t, 1, l.Direction().Len(), 1e-6)
	}
	assert.True(t, lights[0].IsSpot())
	assert.InDelta(t, math.Pi/4*1.2, lights[2].SpotCutoff, 1e-6)
	assert.False(t, lights[3].IsSpot())

	UpdateShadowMatrices(lights, 0.1, 500, mgl32.Vec3{}, 50)
	for i, l := range lights {
		assert.NotEqual(t, mgl32.Ident4(), l.ViewMatrix(), "light %d", i)
	}
}

func TestSunDirection(t *testing.T) {
	up := SunDirection(0, 90)
	assert.InDelta(t, 1, up[1], 1e-6)
	d := SunDirection(45, 30)
	assert.InDelta(t, 1, d.Len(), 1e-6)
}
