// Package framebuffer provides named off-screen render targets.
package framebuffer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
)

// ErrNameTaken is returned by Register when the name already resolves to a
// texture.
var ErrNameTaken = errors.New("framebuffer: texture name already registered")

// Registrar makes textures resolvable by name, such as texture.Cache.
type Registrar interface {
	Register(name string, tex gpu.Texture) bool
	Unregister(name string)
}

// RenderTexture is a colour and depth target that can later be sampled by name.
type RenderTexture struct {
	name  string
	hash  uint32
	views gpu.TargetViews

	width, height int
	projection    mgl32.Mat4
	ortho         mgl32.Mat4
}

// New creates a render texture with a perspective projection (fov pi/4) and an
// orthographic projection sized to its resolution.
func New(dev gpu.Resources, width, height int, near, far float32, name string) (*RenderTexture, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	views, err := dev.CreateTarget(gpu.TargetDesc{Name: name, Width: width, Height: height, Depth: true})
	if err != nil {
		return nil, fmt.Errorf("creating render texture %s: %w", name, err)
	}

	aspect := float32(width) / float32(height)
	return &RenderTexture{
		name:       name,
		hash:       material.Hash(name),
		views:      views,
		width:      width,
		height:     height,
		projection: mgl32.Perspective(math.Pi/4, aspect, near, far),
		ortho:      mgl32.Ortho(0, float32(width), 0, float32(height), near, far),
	}, nil
}

// SetRenderTarget binds the target with a viewport covering it.
func (rt *RenderTexture) SetRenderTarget(ctx gpu.Context) {
	ctx.BindTarget(rt.views.Target, rt.Viewport())
}

// ClearRenderTarget clears colour and depth. The target must be bound.
func (rt *RenderTexture) ClearRenderTarget(ctx gpu.Context, c [4]float32) {
	ctx.Clear(c)
}

// Texture returns the colour attachment for sampling.
func (rt *RenderTexture) Texture() gpu.Texture { return rt.views.Color }

// DepthTexture returns the depth attachment.
func (rt *RenderTexture) DepthTexture() gpu.Texture { return rt.views.Depth }

// Target returns the render target handle.
func (rt *RenderTexture) Target() gpu.Target { return rt.views.Target }

// Width returns the width in pixels.
func (rt *RenderTexture) Width() int { return rt.width }

// Height returns the height in pixels.
func (rt *RenderTexture) Height() int { return rt.height }

// Viewport returns the full-target viewport.
func (rt *RenderTexture) Viewport() gpu.Viewport {
	return gpu.Viewport{Width: rt.width, Height: rt.height}
}

// ProjectionMatrix returns the perspective projection for the target's aspect.
func (rt *RenderTexture) ProjectionMatrix() mgl32.Mat4 { return rt.projection }

// OrthoMatrix returns a pixel-space orthographic projection.
func (rt *RenderTexture) OrthoMatrix() mgl32.Mat4 { return rt.ortho }

// Name returns the name materials use to sample the target.
func (rt *RenderTexture) Name() string { return rt.name }

// NameHash returns the hash of Name.
func (rt *RenderTexture) NameHash() uint32 { return rt.hash }

// Register publishes the colour attachment under the target's name.
func (rt *RenderTexture) Register(reg Registrar) error {
	if !reg.Register(rt.name, rt.views.Color) {
		return fmt.Errorf("%w: %q", ErrNameTaken, rt.name)
	}
	return nil
}

// Release deletes the target. Unregister it first if it was registered.
func (rt *RenderTexture) Release(dev gpu.Resources) {
	dev.DeleteTarget(rt.views.Target)
	rt.views = gpu.TargetViews{}
}

// ReadPixels returns the colour attachment as RGBA rows ordered bottom to top.
func (rt *RenderTexture) ReadPixels(ctx gpu.Context) ([]byte, error) {
	return ctx.ReadPixels(rt.views.Target, rt.width, rt.height)
}
