package app

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/forwardfx/internal/config"
	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/debug"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/gpu/soft"
	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/renderer"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/notify"
)

type harness struct {
	dev      *soft.Device
	textures *texture.Cache
	rec      *notify.Recorder
	r        *renderer.Forward
	cfg      *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Renderer.ShadowMapSize = 8
	cfg.Assets.TextureRoot = t.TempDir()

	h := &harness{dev: soft.New(32, 16), rec: &notify.Recorder{}, cfg: cfg}
	buffers := cbuffer.New(h.dev)
	shaders := shader.NewRegistry()
	h.textures = texture.NewCache(h.dev)
	shader.Load(h.dev, buffers, shaders, h.rec)

	var err error
	h.r, err = renderer.NewForward(h.dev, buffers, shaders, h.textures, h.rec, rendererConfig(cfg, 32, 16))
	require.NoError(t, err)
	t.Cleanup(func() {
		h.r.Close()
		h.textures.Close()
		shaders.Close()
		buffers.Close()
	})
	return h
}

func TestSceneLights(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"none", 0, 0},
		{"some", 2, 2},
		{"all", lighting.MaxLights, lighting.MaxLights},
		{"too many", lighting.MaxLights + 3, lighting.MaxLights},
		{"negative", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, sceneLights(tt.n), tt.want)
		})
	}
}

func TestRendererConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.PostProcess = true
	cfg.Renderer.Lights = 2

	rc := rendererConfig(cfg, 640, 480)
	assert.Equal(t, 640, rc.Width)
	assert.Equal(t, 480, rc.Height)
	assert.Equal(t, 2, rc.Lights)
	assert.True(t, rc.PostProcess)
	assert.Equal(t, cfg.Renderer.ClearColor, rc.ClearColor)
	assert.Equal(t, cfg.Renderer.ShadowMapSize, rc.ShadowMapSize)
}

func TestSetupBuiltinScene(t *testing.T) {
	h := newHarness(t)
	lights := sceneLights(h.cfg.Renderer.Lights)

	sc, err := setupScene(h.r, h.dev, h.textures, h.rec, h.cfg, lights)
	bounds := sc.bounds
	require.NoError(t, err)
	assert.Empty(t, h.rec.Messages)

	// Floor spans 200 units; the wall reaches 30 units up.
	assert.InDelta(t, -100, bounds.Min[0], 1e-3)
	assert.InDelta(t, 100, bounds.Max[0], 1e-3)
	assert.InDelta(t, 30, bounds.Max[1], 1e-3)

	gizmos := debug.LightGizmos(lights, 2, 0)
	loose := h.r.Loose()
	assert.Equal(t, 6+len(gizmos), loose.MeshCount())

	shaders := map[string]string{}
	for _, m := range loose.Materials {
		shaders[m.Name] = m.Shader
	}
	assert.Equal(t, material.ShaderLight, shaders["floor"])
	assert.Equal(t, material.ShaderLight, shaders["crate"])
	assert.Equal(t, material.ShaderLightSpec, shaders["ball"])
	assert.Equal(t, material.ShaderNormal, shaders["wall"])
	assert.Equal(t, shader.NameHelper, shaders[debug.GizmoMaterialName])

	// Generated textures are resolvable under their texture root paths.
	for _, name := range []string{floorTexture, crateTexture, bricksTexture, bricksNormal, whiteTexture} {
		_, ok := h.textures.Texture(material.Hash(filepath.Join(h.cfg.Assets.TextureRoot, name)))
		assert.True(t, ok, name)
	}

	err = h.r.Render(renderer.Frame{
		Camera: renderer.CameraView{
			Position: mgl32.Vec3{0, 50, 150},
			View:     mgl32.LookAtV(mgl32.Vec3{0, 50, 150}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		},
		Lights: lighting.Take(lights),
	})
	require.NoError(t, err)
	stats := h.r.Stats()
	assert.Equal(t, 6+len(gizmos), stats.Draws)
	assert.Zero(t, stats.SkippedBuckets)
	assert.Positive(t, stats.ShadowDraws)
}

func TestSetupBuiltinSceneWithoutGizmos(t *testing.T) {
	h := newHarness(t)
	h.cfg.Renderer.ShowLightGizmo = false

	_, err := setupScene(h.r, h.dev, h.textures, h.rec, h.cfg, sceneLights(4))
	require.NoError(t, err)
	assert.Equal(t, 6, h.r.Loose().MeshCount())
}

func TestBuiltinSceneTextureFromRoot(t *testing.T) {
	h := newHarness(t)
	red := imaging.New(2, 2, color.NRGBA{255, 0, 0, 255})
	floor := filepath.Join(h.cfg.Assets.TextureRoot, floorTexture)
	require.NoError(t, imaging.Save(red, floor))

	_, err := setupScene(h.r, h.dev, h.textures, h.rec, h.cfg, nil)
	require.NoError(t, err)

	tex, ok := h.textures.Texture(material.Hash(floor))
	require.True(t, ok)
	img := h.dev.Image(tex)
	require.NotNil(t, img)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(0, 0))
}

func writeQuadGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	doc.Materials = []*gltf.Material{{Name: "Paint"}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "Quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm, gltf.TEXCOORD_0: uv},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Quad", Mesh: gltf.Index(0), Translation: [3]float64{2, 5, 0}}}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestSetupGLTFScene(t *testing.T) {
	h := newHarness(t)
	h.cfg.Assets.Model = writeQuadGLB(t)
	h.cfg.Renderer.ShowLightGizmo = false

	sc, err := setupScene(h.r, h.dev, h.textures, h.rec, h.cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, h.rec.Messages)

	assert.InDelta(t, 2, sc.bounds.Min[0], 1e-5)
	assert.InDelta(t, 3, sc.bounds.Max[0], 1e-5)
	assert.InDelta(t, 6, sc.bounds.Max[1], 1e-5)
	assert.Zero(t, h.r.Loose().MeshCount())

	require.Len(t, sc.models, 1)
	m := sc.models[0]
	require.NotEqual(t, gpu.NullGeometry, m.Geometry())

	live := h.dev.Live()
	sc.release(h.dev)
	assert.Empty(t, sc.models)
	assert.Equal(t, gpu.NullGeometry, m.Geometry())
	assert.Equal(t, live-1, h.dev.Live())
}

func TestSetupGLTFSceneMissingFile(t *testing.T) {
	h := newHarness(t)
	h.cfg.Assets.Model = filepath.Join(t.TempDir(), "missing.glb")

	_, err := setupScene(h.r, h.dev, h.textures, h.rec, h.cfg, nil)
	require.Error(t, err)
	require.Len(t, h.rec.Messages, 1)
	assert.Contains(t, h.rec.Messages[0], "missing.glb")
}

func TestChecker(t *testing.T) {
	a := color.NRGBA{255, 255, 255, 255}
	b := color.NRGBA{0, 0, 0, 255}
	img := checker(8, 2, a, b)

	assert.Equal(t, a, img.NRGBAAt(0, 0))
	assert.Equal(t, b, img.NRGBAAt(4, 0))
	assert.Equal(t, b, img.NRGBAAt(0, 4))
	assert.Equal(t, a, img.NRGBAAt(4, 4))
}
