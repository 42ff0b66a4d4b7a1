package postprocess

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/framebuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// Names of the half-resolution blur targets.
const (
	TargetDownsample0 = "target_downsample0"
	TargetDownsample1 = "target_downsample1"
)

var black = [4]float32{0, 0, 0, 1}

// GaussianBlur blurs a target at half resolution with two separable passes.
type GaussianBlur struct {
	dev      gpu.Device
	shaders  *shader.Registry
	textures *texture.Cache
	log      *zap.Logger

	near, far float32
	a, b      *framebuffer.RenderTexture

	// sources caches one placeholder material per sampled target name.
	sources map[string]*material.Material
}

// NewGaussianBlur creates the blur targets for a width x height source and
// loads the blit and blur shaders into reg if they are missing.
func NewGaussianBlur(dev gpu.Device, buffers *cbuffer.Cache, reg *shader.Registry,
	textures *texture.Cache, n notify.Notifier, width, height int, near, far float32) (*GaussianBlur, error) {
	g := &GaussianBlur{
		dev:      dev,
		shaders:  reg,
		textures: textures,
		log:      logger.Named("postprocess"),
		near:     near,
		far:      far,
		sources:  make(map[string]*material.Material),
	}
	shader.Load(dev, buffers, reg, n, shader.NameTexture, shader.NameBlurH, shader.NameBlurV)

	if err := g.Resize(width, height); err != nil {
		notify.Failure(n, "render target", TargetDownsample0, err)
		return nil, err
	}
	return g, nil
}

// Resize implements PostProcess. The current targets are kept when the new
// ones cannot be created.
func (g *GaussianBlur) Resize(width, height int) error {
	w, h := max(width/2, 1), max(height/2, 1)
	a, err := framebuffer.New(g.dev, w, h, g.near, g.far, TargetDownsample0)
	if err != nil {
		return err
	}
	b, err := framebuffer.New(g.dev, w, h, g.near, g.far, TargetDownsample1)
	if err != nil {
		a.Release(g.dev)
		return err
	}

	g.Release()
	if err := a.Register(g.textures); err != nil {
		a.Release(g.dev)
		b.Release(g.dev)
		return err
	}
	if err := b.Register(g.textures); err != nil {
		g.textures.Unregister(a.Name())
		a.Release(g.dev)
		b.Release(g.dev)
		return err
	}
	g.a, g.b = a, b

	g.log.Debug("blur targets created", zap.Int("width", w), zap.Int("height", h))
	return nil
}

// Targets returns the two intermediate targets.
func (g *GaussianBlur) Targets() (a, b *framebuffer.RenderTexture) {
	return g.a, g.b
}

// Apply implements PostProcess. Depth testing is off for every stage and
// turned back on afterwards.
func (g *GaussianBlur) Apply(target *framebuffer.RenderTexture) error {
	if target == nil {
		return errors.New("gaussian blur: nil target")
	}
	if g.a == nil || g.b == nil {
		return errors.New("gaussian blur: targets released")
	}

	g.dev.SetDepthTest(false)
	defer g.dev.SetDepthTest(true)

	// Downsample, blur along x, blur along y, upsample.
	if err := g.pass(g.a, shader.NameTexture, target.Name(), 0); err != nil {
		return err
	}
	if err := g.pass(g.b, shader.NameBlurH, g.a.Name(), float32(g.a.Width())); err != nil {
		return err
	}
	if err := g.pass(g.a, shader.NameBlurV, g.b.Name(), float32(g.b.Height())); err != nil {
		return err
	}
	return g.pass(target, shader.NameTexture, g.a.Name(), 0)
}

// pass clears dst and draws src into it with the named full-screen shader.
// A missing shader leaves dst cleared.
func (g *GaussianBlur) pass(dst *framebuffer.RenderTexture, name, src string, screenSize float32) error {
	dst.SetRenderTarget(g.dev)
	dst.ClearRenderTarget(g.dev, black)

	s := g.shaders.Get(name)
	if s == nil {
		g.log.Debug("blur stage skipped, shader missing", zap.String("shader", name))
		return nil
	}
	s.Bind()
	if err := s.SetMaterialParameters(shader.Transforms{}, g.source(src), g.textures); err != nil {
		return fmt.Errorf("gaussian blur %s: %w", name, err)
	}
	if err := s.SetScreenSize(screenSize); err != nil {
		return fmt.Errorf("gaussian blur %s: %w", name, err)
	}
	s.DrawFullscreen()
	s.CleanupTextures()
	return nil
}

func (g *GaussianBlur) source(name string) *material.Material {
	m, ok := g.sources[name]
	if !ok {
		m = material.New(name)
		m.SetTexture(material.RoleDiffuse, name)
		g.sources[name] = m
	}
	return m
}

// Release implements PostProcess.
func (g *GaussianBlur) Release() {
	for _, rt := range []*framebuffer.RenderTexture{g.b, g.a} {
		if rt == nil {
			continue
		}
		g.textures.Unregister(rt.Name())
		rt.Release(g.dev)
	}
	g.a, g.b = nil, nil
}

var _ PostProcess = (*GaussianBlur)(nil)
