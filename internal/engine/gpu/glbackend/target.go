package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// framebuffer is an off-screen target with a colour texture and optional depth texture.
type framebuffer struct {
	fbo          uint32
	colorTexture uint32
	depthTexture uint32
	width        int32
	height       int32
}

// CreateTarget creates a framebuffer whose attachments can be sampled.
func (d *Device) CreateTarget(desc gpu.TargetDesc) (gpu.TargetViews, error) {
	if desc.Width < 1 || desc.Height < 1 {
		return gpu.TargetViews{}, fmt.Errorf("target %s: invalid size %dx%d", desc.Name, desc.Width, desc.Height)
	}

	fb := &framebuffer{width: int32(desc.Width), height: int32(desc.Height)}
	if err := fb.create(desc.Depth); err != nil {
		return gpu.TargetViews{}, fmt.Errorf("target %s: %w", desc.Name, err)
	}

	t := gpu.Target(fb.fbo)
	d.targets[t] = fb
	d.log.Debug("render target created",
		zap.String("name", desc.Name),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Bool("depth", desc.Depth),
	)
	return gpu.TargetViews{
		Target: t,
		Color:  gpu.Texture(fb.colorTexture),
		Depth:  gpu.Texture(fb.depthTexture),
	}, nil
}

func (fb *framebuffer) create(withDepth bool) error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	// Colour attachment
	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	// Depth attachment as a texture so shadow passes can be sampled later.
	if withDepth {
		gl.GenTextures(1, &fb.depthTexture)
		gl.BindTexture(gl.TEXTURE_2D, fb.depthTexture)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, fb.width, fb.height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

		// Clamp to border with white (1.0) so nothing outside the frustum is shadowed.
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		borderColor := []float32{1.0, 1.0, 1.0, 1.0}
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])

		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, fb.depthTexture, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (fb *framebuffer) destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthTexture != 0 {
		gl.DeleteTextures(1, &fb.depthTexture)
		fb.depthTexture = 0
	}
}

// DeleteTarget releases a framebuffer and its attachments.
func (d *Device) DeleteTarget(t gpu.Target) {
	fb, ok := d.targets[t]
	if !ok {
		return
	}
	fb.destroy()
	delete(d.targets, t)
}
