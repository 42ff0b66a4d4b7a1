package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/framebuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/model"
	"github.com/Faultbox/forwardfx/internal/engine/postprocess"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// Target names.
const (
	TargetMain        = "target_main"
	TargetDepthPrefix = "target_depth_"
)

// Camera block: vec3 position padded to 16 bytes.
const cameraSize = 16

// depthClear is the colour shadow targets are cleared to: the far plane.
var depthClear = [4]float32{1, 1, 1, 1}

// Forward renders shadow maps, then the lit scene into an off-screen target,
// optionally blurs it and finally composites it onto the back buffer.
type Forward struct {
	base
	config Config

	main  *framebuffer.RenderTexture
	depth []*framebuffer.RenderTexture

	blur        postprocess.PostProcess
	postProcess bool

	lights gpu.Buffer
	camera gpu.Buffer
	std    *gpu.Std140

	placeholder *material.Material // shadow pass
	composite   *material.Material // samples the main target

	stats Stats
}

var _ Renderer = (*Forward)(nil)

// NewForward creates the render targets, per-frame buffers and the shaders
// the frame itself needs. Material shaders are expected in shaders already;
// buckets whose shader is missing are skipped.
func NewForward(dev gpu.Device, buffers *cbuffer.Cache, shaders *shader.Registry,
	textures *texture.Cache, n notify.Notifier, cfg Config) (*Forward, error) {
	if cfg.Lights < 0 || cfg.Lights > shader.NumShadowMaps {
		return nil, fmt.Errorf("renderer: %d lights, at most %d supported", cfg.Lights, shader.NumShadowMaps)
	}
	if cfg.ShadowMapSize <= 0 {
		cfg.ShadowMapSize = DefaultConfig().ShadowMapSize
	}

	f := &Forward{
		base:        newBase(dev, buffers, shaders, textures, n),
		config:      cfg,
		postProcess: cfg.PostProcess,
		std:         gpu.NewStd140(lighting.BlockSize),
		placeholder: material.New("shadow_placeholder_material"),
		composite:   material.New("render_target_main_material"),
	}
	f.composite.SetTexture(material.RoleDiffuse, TargetMain)

	shader.Load(dev, buffers, shaders, f.notifier, shader.NameTexture, shader.NameDepth)

	if err := f.createMain(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.Lights; i++ {
		name := fmt.Sprintf("%s%d", TargetDepthPrefix, i)
		rt, err := framebuffer.New(dev, cfg.ShadowMapSize, cfg.ShadowMapSize, cfg.Near, cfg.Far, name)
		if err != nil {
			notify.Failure(f.notifier, "render target", name, err)
			f.Close()
			return nil, err
		}
		if err := rt.Register(textures); err != nil {
			notify.Failure(f.notifier, "render target", name, err)
			rt.Release(dev)
			f.Close()
			return nil, err
		}
		f.depth = append(f.depth, rt)
	}

	f.setupPerFrameBuffers()

	blur, err := postprocess.NewGaussianBlur(dev, buffers, shaders, textures, f.notifier,
		f.main.Width(), f.main.Height(), cfg.Near, cfg.Far)
	if err != nil {
		f.log.Warn("post-processing disabled", zap.Error(err))
	} else {
		f.blur = blur
	}

	f.log.Info("forward renderer created",
		zap.Int("width", f.main.Width()),
		zap.Int("height", f.main.Height()),
		zap.Int("shadow_maps", len(f.depth)),
		zap.Bool("post_process", f.postProcess))
	return f, nil
}

// createMain replaces the main target with a width x height one. On failure
// the current target stays registered and in use.
func (f *Forward) createMain(width, height int) error {
	rt, err := framebuffer.New(f.dev, width, height, f.config.Near, f.config.Far, TargetMain)
	if err != nil {
		notify.Failure(f.notifier, "render target", TargetMain, err)
		return err
	}
	if f.main != nil {
		f.textures.Unregister(f.main.Name())
	}
	if err := rt.Register(f.textures); err != nil {
		notify.Failure(f.notifier, "render target", TargetMain, err)
		rt.Release(f.dev)
		if f.main != nil {
			if err := f.main.Register(f.textures); err != nil {
				f.log.Error("main target lost its name", zap.Error(err))
			}
		}
		return err
	}
	if f.main != nil {
		f.main.Release(f.dev)
	}
	f.main = rt
	return nil
}

// setupPerFrameBuffers creates the lights and camera blocks. A failure is
// reported and leaves the handle null; lit shaders then read unbound blocks.
func (f *Forward) setupPerFrameBuffers() {
	var err error
	if f.lights, err = f.buffers.GetOrCreate(shader.BufferLights, gpu.ConstantDesc(lighting.BlockSize)); err != nil {
		notify.Failure(f.notifier, "constant buffer", shader.BufferLights, err)
	}
	if f.camera, err = f.buffers.GetOrCreate(shader.BufferCamera, gpu.ConstantDesc(cameraSize)); err != nil {
		notify.Failure(f.notifier, "constant buffer", shader.BufferCamera, err)
	}
}

// SetPostProcess turns the blur before composite on or off.
func (f *Forward) SetPostProcess(enabled bool) {
	f.postProcess = enabled
}

// PostProcessEnabled reports whether the blur runs this frame.
func (f *Forward) PostProcessEnabled() bool {
	return f.postProcess && f.blur != nil
}

// MainTarget returns the off-screen target the scene is drawn into.
func (f *Forward) MainTarget() *framebuffer.RenderTexture {
	return f.main
}

// DepthTarget returns the shadow target of light i, or nil.
func (f *Forward) DepthTarget(i int) *framebuffer.RenderTexture {
	if i < 0 || i >= len(f.depth) {
		return nil
	}
	return f.depth[i]
}

// Stats returns counters for the last rendered frame.
func (f *Forward) Stats() Stats {
	return f.stats
}

// Resize recreates the main target and the blur targets. When the main
// target cannot be recreated the old one is kept and the error returned.
// A blur that cannot follow is released and post-processing stops.
func (f *Forward) Resize(width, height int) error {
	if f.closed {
		return ErrClosed
	}
	if err := f.createMain(width, height); err != nil {
		return err
	}
	f.config.Width, f.config.Height = f.main.Width(), f.main.Height()
	if f.blur != nil {
		if err := f.blur.Resize(f.main.Width(), f.main.Height()); err != nil {
			notify.Failure(f.notifier, "render target", postprocess.TargetDownsample0, err)
			f.blur.Release()
			f.blur = nil
		}
	}
	f.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// Render draws one frame. Lights beyond the number of depth targets still
// light the scene but cast no shadows.
func (f *Forward) Render(frame Frame) error {
	if f.closed {
		return ErrClosed
	}
	f.stats = Stats{}

	f.shaders.CleanupBoundResources()
	f.renderShadows(frame.Lights)
	f.renderScene(frame)

	if f.PostProcessEnabled() {
		if err := f.blur.Apply(f.main); err != nil {
			f.log.Warn("post-process failed", zap.Error(err))
		}
	}

	f.renderToBackBuffer()
	return nil
}

// renderShadows draws every shadow-casting bucket into the depth target of
// each active light, using the light's cached view and projection.
func (f *Forward) renderShadows(lights lighting.Snapshot) {
	depth := f.shaders.Get(shader.NameDepth)
	for i, l := range lights {
		if i >= len(f.depth) {
			break
		}
		if !l.Active {
			continue
		}
		rt := f.depth[i]
		rt.SetRenderTarget(f.dev)
		rt.ClearRenderTarget(f.dev, depthClear)
		if depth == nil {
			continue
		}
		depth.Bind()

		t := shader.Transforms{View: l.View, Projection: l.Projection}
		for _, g := range f.groups() {
			f.dev.BindGeometry(g.Geometry())
			for _, b := range g.Batches() {
				s := f.shaders.Get(g.Material(b).Shader)
				if s == nil || !s.CastsShadow() {
					continue
				}
				for _, id := range b.Meshes {
					mesh := g.Mesh(id)
					t.World = mesh.Transform
					if err := depth.SetMaterialParameters(t, f.placeholder, nil); err != nil {
						f.log.Warn("shadow pass upload failed", zap.Error(err))
						return
					}
					depth.Draw(mesh.IndexCount(), mesh.IndexOffset, mesh.VertexOffset)
					f.stats.ShadowDraws++
				}
			}
		}
	}
}

// renderScene draws every bucket into the main target. The program, layout
// and samplers are bound only when a bucket's shader differs from the last.
func (f *Forward) renderScene(frame Frame) {
	f.main.SetRenderTarget(f.dev)
	f.main.ClearRenderTarget(f.dev, f.config.TargetClear)
	f.setFrameParameters(frame)

	t := shader.Transforms{View: frame.Camera.View, Projection: frame.Camera.Projection}
	if t.Projection == (mgl32.Mat4{}) {
		t.Projection = f.main.ProjectionMatrix()
	}
	for i := 0; i < shader.NumShadowMaps && i < len(frame.Lights); i++ {
		t.LightView[i] = frame.Lights[i].View
		t.LightProjection[i] = frame.Lights[i].Projection
	}

	shadowMaps := make([]gpu.Texture, len(f.depth))
	for i, rt := range f.depth {
		shadowMaps[i] = rt.Texture()
	}

	var current *shader.Shader
	for _, g := range f.groups() {
		f.dev.BindGeometry(g.Geometry())
		for _, b := range g.Batches() {
			m := g.Material(b)
			s := f.shaders.Get(m.Shader)
			if s == nil {
				f.stats.SkippedBuckets++
				continue
			}
			if s != current {
				s.Bind()
				s.SetShadowMaps(shadowMaps)
				current = s
				f.stats.ShaderBinds++
			}

			first := g.Mesh(b.Meshes[0])
			t.World = first.Transform
			if err := s.SetMaterialParameters(t, m, f.textures); err != nil {
				f.log.Warn("material upload failed", zap.String("material", m.Name), zap.Error(err))
				continue
			}
			for _, id := range b.Meshes {
				mesh := g.Mesh(id)
				if mesh.Transform != t.World {
					t.World = mesh.Transform
					if err := s.SetTransforms(t); err != nil {
						f.log.Warn("transform upload failed", zap.String("mesh", mesh.Name), zap.Error(err))
						continue
					}
				}
				s.Draw(mesh.IndexCount(), mesh.IndexOffset, mesh.VertexOffset)
				f.stats.Draws++
			}
		}
	}
}

// setFrameParameters uploads the lights and camera blocks and binds them at
// the slots every lit shader shares.
func (f *Forward) setFrameParameters(frame Frame) {
	if f.lights != gpu.NullBuffer {
		f.std.Reset()
		frame.Lights.Pack(f.std)
		if err := f.dev.UpdateBuffer(f.lights, f.std.Bytes()); err != nil {
			f.log.Warn("lights upload failed", zap.Error(err))
		}
		f.dev.BindConstantBuffer(gpu.StagePixel, shader.SlotLights, f.lights)
		f.dev.BindConstantBuffer(gpu.StageVertex, shader.SlotLightsVS, f.lights)
	}

	if f.camera != gpu.NullBuffer {
		f.std.Reset()
		f.std.Vec3(frame.Camera.Position)
		f.std.Align(16)
		if err := f.dev.UpdateBuffer(f.camera, f.std.Bytes()); err != nil {
			f.log.Warn("camera upload failed", zap.Error(err))
		}
		f.dev.BindConstantBuffer(gpu.StageVertex, shader.SlotCamera, f.camera)
	}
}

// renderToBackBuffer blits the main target onto the presentation surface.
func (f *Forward) renderToBackBuffer() {
	f.dev.BindTarget(gpu.BackBuffer, gpu.Viewport{Width: f.config.Width, Height: f.config.Height})
	f.dev.Clear(f.config.ClearColor)
	f.dev.SetDepthTest(false)

	if s := f.shaders.Get(shader.NameTexture); s != nil {
		s.Bind()
		if err := s.SetMaterialParameters(shader.Transforms{}, f.composite, f.textures); err != nil {
			f.log.Warn("composite failed", zap.Error(err))
		} else {
			s.DrawFullscreen()
		}
		f.dev.SetDepthTest(true)
		s.CleanupTextures()
		return
	}
	f.dev.SetDepthTest(true)
}

func (f *Forward) releaseMain() {
	if f.main == nil {
		return
	}
	f.textures.Unregister(f.main.Name())
	f.main.Release(f.dev)
	f.main = nil
}

// Close releases the targets and the renderer's scene geometry. Shared caches
// and added models stay with their owners.
func (f *Forward) Close() {
	if f.closed {
		return
	}
	if f.blur != nil {
		f.blur.Release()
		f.blur = nil
	}
	for i := len(f.depth) - 1; i >= 0; i-- {
		f.textures.Unregister(f.depth[i].Name())
		f.depth[i].Release(f.dev)
	}
	f.depth = nil
	f.releaseMain()
	f.close()
	f.log.Info("forward renderer closed")
}

// SceneBounds returns the box around every drawable mesh.
func (f *Forward) SceneBounds() model.Bounds {
	bounds := model.EmptyBounds()
	for _, g := range f.groups() {
		bounds.Union(g.Bounds())
	}
	return bounds
}
