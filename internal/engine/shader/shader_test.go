package shader

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/gpu/soft"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/notify"
)

func build(t *testing.T, dev *soft.Device, buffers *cbuffer.Cache, name string) *Shader {
	t.Helper()
	desc, ok := Lookup(name)
	require.True(t, ok, name)
	s, err := Build(dev, buffers, desc)
	require.NoError(t, err)
	return s
}

type textures map[uint32]gpu.Texture

func (ts textures) Texture(h uint32) (gpu.Texture, bool) {
	tex, ok := ts[h]
	return tex, ok
}

func TestVariantLayouts(t *testing.T) {
	tests := []struct {
		name   string
		layout gpu.VertexLayout
		shadow bool
	}{
		{material.ShaderLight, gpu.LayoutLit, true},
		{material.ShaderNormal, gpu.LayoutFull, true},
		{material.ShaderLightAlphaSpec, gpu.LayoutLit, true},
		{NameDepth, gpu.LayoutPosition, true},
		{NameTexture, gpu.LayoutNone, true},
		{NameBlurH, gpu.LayoutNone, true},
		{NameHelper, gpu.LayoutPosition, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.layout, d.Layout())
			assert.Equal(t, tt.shadow, d.CastsShadow())
		})
	}
}

func TestVariantSources(t *testing.T) {
	d, _ := Lookup(material.ShaderNormalAlphaSpec)
	pd := d.ProgramDesc()
	assert.True(t, strings.HasPrefix(pd.Vertex, "#version 410 core\n"))
	assert.Contains(t, pd.Fragment, "#define NORMAL_MAP")
	assert.Contains(t, pd.Fragment, "#define ALPHA_MAP")
	assert.Contains(t, pd.Fragment, "#define SPECULAR_MAP")

	d, _ = Lookup(material.ShaderLight)
	assert.NotContains(t, d.ProgramDesc().Fragment, "#define NORMAL_MAP")

	h, _ := Lookup(NameBlurH)
	v, _ := Lookup(NameBlurV)
	assert.Contains(t, h.ProgramDesc().Vertex, "#define HORIZONTAL")
	assert.NotContains(t, v.ProgramDesc().Vertex, "#define HORIZONTAL")
	assert.Equal(t, gpu.EffectBlurHorizontal, h.ProgramDesc().Effect)
}

func TestLitTextureSlots(t *testing.T) {
	d, _ := Lookup(material.ShaderNormalAlphaSpec)
	slots := map[string]int{}
	for _, b := range d.ProgramDesc().Textures {
		assert.Equal(t, gpu.StagePixel, b.Stage)
		slots[b.Name] = b.Slot
	}
	assert.Equal(t, map[string]int{
		"diffuseMap": 0, "normalMap": 1, "alphaMap": 2, "specularMap": 3,
		"shadowMap0": 4, "shadowMap1": 5, "shadowMap2": 6, "shadowMap3": 7,
	}, slots)
}

func TestBuildSharesBuffers(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)

	build(t, dev, buffers, material.ShaderLight)
	build(t, dev, buffers, material.ShaderNormal)
	build(t, dev, buffers, NameDepth)
	assert.Equal(t, 2, buffers.Len()) // mvp_buffer, mat_buffer

	build(t, dev, buffers, NameBlurV)
	assert.Equal(t, 3, buffers.Len())

	buf, ok := buffers.Get(BufferMatrices)
	require.True(t, ok)
	desc, _ := dev.BufferDesc(buf)
	assert.Equal(t, 704, desc.Size)
}

func TestSetMaterialParameters(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)
	s := build(t, dev, buffers, material.ShaderNormal)

	m := material.New("wall")
	m.Diffuse = mgl32.Vec3{0.5, 0.25, 1}
	m.Shininess = 8
	m.SetTexture(material.RoleDiffuse, "d.png")
	m.SetTexture(material.RoleBump, "n.png")
	src := textures{material.Hash("d.png"): 11}

	world := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, s.SetMaterialParameters(Transforms{World: world}, m, src))

	assert.Equal(t, gpu.Texture(11), dev.BoundTexture(gpu.StagePixel, SlotDiffuse))
	assert.Equal(t, gpu.NullTexture, dev.BoundTexture(gpu.StagePixel, SlotNormal), "unresolved texture binds null")

	mvp, _ := buffers.Get(BufferMatrices)
	mat, _ := buffers.Get(BufferMaterial)
	assert.Equal(t, mvp, dev.BoundBuffer(gpu.StageVertex, SlotMatrices))
	assert.Equal(t, mat, dev.BoundBuffer(gpu.StagePixel, SlotMaterial))

	data := dev.BufferData(mvp)
	assert.Equal(t, float32(1), gpu.ReadFloat(data, 12*4)) // world[3][0]
	assert.Equal(t, float32(3), gpu.ReadFloat(data, 14*4))

	md := dev.BufferData(mat)
	assert.Equal(t, float32(0.25), gpu.ReadFloat(md, 16+4)) // diffuse.g
	assert.Equal(t, float32(8), gpu.ReadFloat(md, 80))      // shininess
	assert.Equal(t, uint32(2), gpu.ReadUint(md, 92))        // illum
}

func TestSetScreenSize(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)
	s := build(t, dev, buffers, NameBlurH)

	require.NoError(t, s.SetScreenSize(320))
	buf, _ := buffers.Get(BufferScreenSize)
	assert.Equal(t, buf, dev.BoundBuffer(gpu.StageVertex, SlotScreenSize))
	assert.Equal(t, float32(320), gpu.ReadFloat(dev.BufferData(buf), 0))

	// Programs without the block ignore the call.
	lit := build(t, dev, buffers, material.ShaderLight)
	assert.NoError(t, lit.SetScreenSize(10))
}

func TestRegistryAdd(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)
	first := build(t, dev, buffers, material.ShaderLight)
	second := build(t, dev, buffers, material.ShaderLight)

	r := NewRegistry()
	assert.True(t, r.Add("light_shader", first))
	assert.False(t, r.Add("light_shader", second))
	assert.Same(t, first, r.Get("light_shader"))

	assert.False(t, r.Add("", first))
	assert.False(t, r.Add("x", nil))
	assert.Nil(t, r.Get("x"))
	assert.Equal(t, 1, r.Len())
}

func TestCleanupBoundResources(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)
	r := NewRegistry()
	r.Add(material.ShaderLight, build(t, dev, buffers, material.ShaderLight))
	r.Add(NameTexture, build(t, dev, buffers, NameTexture))

	dev.BindTexture(gpu.StagePixel, 0, 5)
	dev.BindTexture(gpu.StagePixel, SlotShadow+2, 6)
	r.CleanupBoundResources()

	for slot := 0; slot < gpu.MaxSlots; slot++ {
		if slot == SlotNormal || slot == SlotAlpha || slot == SlotSpecular {
			continue // not used by either shader
		}
		assert.Equal(t, gpu.NullTexture, dev.BoundTexture(gpu.StagePixel, slot), "slot %d", slot)
	}
}

func TestLoadReportsFailures(t *testing.T) {
	dev := soft.New(4, 4)
	dev.FailPrograms[material.ShaderNormal] = true
	buffers := cbuffer.New(dev)
	r := NewRegistry()
	rec := &notify.Recorder{}

	n := Load(dev, buffers, r, rec, material.ShaderLight, material.ShaderNormal, "no_such_shader")
	assert.Equal(t, 1, n)
	assert.NotNil(t, r.Get(material.ShaderLight))
	assert.Nil(t, r.Get(material.ShaderNormal))
	require.Len(t, rec.Messages, 2)
	assert.Contains(t, rec.Messages[0], material.ShaderNormal)
	assert.Contains(t, rec.Messages[1], "no_such_shader")
}

func TestLoadAllAndClose(t *testing.T) {
	dev := soft.New(4, 4)
	buffers := cbuffer.New(dev)
	r := NewRegistry()

	n := Load(dev, buffers, r, nil)
	assert.Equal(t, len(Variants), n)
	assert.Equal(t, len(Variants), r.Len())

	r.Close()
	buffers.Close()
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, 0, r.Len())
}
