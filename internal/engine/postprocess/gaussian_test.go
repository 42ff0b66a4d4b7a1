package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/framebuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/gpu/soft"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/notify"
)

type fixture struct {
	dev      *soft.Device
	buffers  *cbuffer.Cache
	reg      *shader.Registry
	textures *texture.Cache
	rec      *notify.Recorder
	main     *framebuffer.RenderTexture
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	f := &fixture{
		dev: soft.New(w, h),
		reg: shader.NewRegistry(),
		rec: &notify.Recorder{},
	}
	f.buffers = cbuffer.New(f.dev)
	f.textures = texture.NewCache(f.dev)

	var err error
	f.main, err = framebuffer.New(f.dev, w, h, 0.1, 100, "target_main")
	require.NoError(t, err)
	require.NoError(t, f.main.Register(f.textures))
	return f
}

func (f *fixture) fill(c [4]float32) {
	f.main.SetRenderTarget(f.dev)
	f.main.ClearRenderTarget(f.dev, c)
	f.dev.ResetEvents()
}

func TestGaussianBlurStages(t *testing.T) {
	f := newFixture(t, 32, 16)
	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 32, 16, 0.1, 100)
	require.NoError(t, err)
	f.fill([4]float32{1, 1, 1, 1})

	require.NoError(t, blur.Apply(f.main))

	var programs []string
	for _, e := range f.dev.Filter(soft.OpDrawFull) {
		programs = append(programs, e.Name)
	}
	assert.Equal(t, []string{shader.NameTexture, shader.NameBlurH, shader.NameBlurV, shader.NameTexture}, programs)

	a, b := blur.Targets()
	var targets []gpu.Target
	for _, e := range f.dev.Filter(soft.OpBindTarget) {
		targets = append(targets, e.Target)
	}
	assert.Equal(t, []gpu.Target{a.Target(), b.Target(), a.Target(), f.main.Target()}, targets)

	depth := f.dev.Filter(soft.OpDepthTest)
	require.Len(t, depth, 2)
	assert.False(t, depth[0].Enabled)
	assert.True(t, depth[1].Enabled)
	assert.True(t, f.dev.DepthTest())
}

func TestGaussianBlurHalfResolution(t *testing.T) {
	f := newFixture(t, 64, 30)
	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 64, 30, 0.1, 100)
	require.NoError(t, err)

	a, b := blur.Targets()
	assert.Equal(t, TargetDownsample0, a.Name())
	assert.Equal(t, TargetDownsample1, b.Name())
	for _, rt := range []*framebuffer.RenderTexture{a, b} {
		assert.Equal(t, 32, rt.Width())
		assert.Equal(t, 15, rt.Height())
		tex, ok := f.textures.Texture(material.Hash(rt.Name()))
		assert.True(t, ok)
		assert.Equal(t, rt.Texture(), tex)
	}

	f.fill([4]float32{0, 0, 0, 1})
	require.NoError(t, blur.Apply(f.main))

	buf, ok := f.buffers.Get(shader.BufferScreenSize)
	require.True(t, ok)
	// The vertical pass runs last among the blur stages.
	assert.Equal(t, float32(15), gpu.ReadFloat(f.dev.BufferData(buf), 0))
}

func TestGaussianBlurKeepsUniformColour(t *testing.T) {
	f := newFixture(t, 24, 24)
	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 24, 24, 0.1, 100)
	require.NoError(t, err)
	f.fill([4]float32{0.2, 0.4, 0.6, 1})

	require.NoError(t, blur.Apply(f.main))

	img := f.dev.Image(f.main.Texture())
	require.NotNil(t, img)
	// Kernel normalisation and resampling may round by one step.
	const tolerance = 2
	want := [4]int{51, 102, 153, 255}
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 4; c++ {
			got := int(img.Pix[i+c])
			if got < want[c]-tolerance || got > want[c]+tolerance {
				t.Fatalf("pixel %d channel %d: got %d, want %d±%d", i/4, c, got, want[c], tolerance)
			}
		}
	}
}

func TestGaussianBlurMissingShader(t *testing.T) {
	f := newFixture(t, 16, 16)
	f.dev.FailPrograms[shader.NameBlurH] = true

	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 16, 16, 0.1, 100)
	require.NoError(t, err)
	require.Len(t, f.rec.Messages, 1)
	assert.Contains(t, f.rec.Messages[0], shader.NameBlurH)

	f.fill([4]float32{1, 0, 0, 1})
	require.NoError(t, blur.Apply(f.main))
	assert.Equal(t, 3, f.dev.Count(soft.OpDrawFull))
	assert.Equal(t, 4, f.dev.Count(soft.OpClear))
}

func TestGaussianBlurResizeAndRelease(t *testing.T) {
	f := newFixture(t, 16, 16)
	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 16, 16, 0.1, 100)
	require.NoError(t, err)

	require.NoError(t, blur.Resize(40, 20))
	a, _ := blur.Targets()
	assert.Equal(t, 20, a.Width())
	assert.Equal(t, 10, a.Height())

	blur.Release()
	_, ok := f.textures.Texture(material.Hash(TargetDownsample0))
	assert.False(t, ok)
	assert.Error(t, blur.Apply(f.main))
	blur.Release()
}

func TestGaussianBlurResizeFailureKeepsTargets(t *testing.T) {
	f := newFixture(t, 16, 16)
	blur, err := NewGaussianBlur(f.dev, f.buffers, f.reg, f.textures, f.rec, 16, 16, 0.1, 100)
	require.NoError(t, err)
	live := f.dev.Live()

	f.dev.FailTargets = true
	assert.Error(t, blur.Resize(40, 20))
	f.dev.FailTargets = false

	a, b := blur.Targets()
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 8, a.Width())
	assert.Equal(t, live, f.dev.Live())
	f.fill([4]float32{1, 1, 1, 1})
	assert.NoError(t, blur.Apply(f.main))
}
