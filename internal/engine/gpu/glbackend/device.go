// Package glbackend implements gpu.Device on OpenGL 4.1 core.
//
// Constant buffers map to uniform buffer binding points and texture slots map
// to texture units. Vertex-stage slots start after the pixel-stage ones so the
// two stages never share a binding.
package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/logger"
)

// Device is an OpenGL gpu.Device. It must be used from the thread that owns the context.
type Device struct {
	log *zap.Logger

	targets    map[gpu.Target]*framebuffer
	geometries map[gpu.Geometry]*vertexArray

	emptyVAO uint32 // for full-screen triangles
	geometry gpu.Geometry
	layout   gpu.VertexLayout
}

// New initialises the GL function pointers. Call it after the context is current.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		log:        logger.Named("gl"),
		targets:    make(map[gpu.Target]*framebuffer),
		geometries: make(map[gpu.Geometry]*vertexArray),
	}

	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	gl.GenVertexArrays(1, &d.emptyVAO)
	return d, nil
}

// Name implements gpu.Device.
func (d *Device) Name() string {
	return "opengl"
}

// Close releases objects owned by the device itself.
func (d *Device) Close() {
	if d.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &d.emptyVAO)
		d.emptyVAO = 0
	}
}

// bindingPoint maps a stage slot to a uniform buffer binding point.
func bindingPoint(stage gpu.Stage, slot int) uint32 {
	if stage == gpu.StageVertex {
		return uint32(gpu.MaxSlots + slot)
	}
	return uint32(slot)
}

// textureUnit maps a stage slot to a texture unit index.
func textureUnit(stage gpu.Stage, slot int) uint32 {
	return bindingPoint(stage, slot)
}

// BindTarget implements gpu.Context.
func (d *Device) BindTarget(t gpu.Target, vp gpu.Viewport) {
	var fbo uint32
	if fb, ok := d.targets[t]; ok {
		fbo = fb.fbo
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
}

// Clear clears colour and depth of the bound target.
func (d *Device) Clear(c [4]float32) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetDepthTest implements gpu.Context.
func (d *Device) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// UseProgram implements gpu.Context.
func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

// BindConstantBuffer implements gpu.Context.
func (d *Device) BindConstantBuffer(stage gpu.Stage, slot int, b gpu.Buffer) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, bindingPoint(stage, slot), uint32(b))
}

// BindTexture implements gpu.Context. Binding the null texture clears the unit.
func (d *Device) BindTexture(stage gpu.Stage, slot int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + textureUnit(stage, slot))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

// BindSampler implements gpu.Context.
func (d *Device) BindSampler(stage gpu.Stage, slot int, s gpu.Sampler) {
	gl.BindSampler(textureUnit(stage, slot), uint32(s))
}

// DrawIndexed draws from the bound geometry.
func (d *Device) DrawIndexed(indexCount, startIndex, baseVertex int) {
	gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT,
		gl.PtrOffset(startIndex*4), int32(baseVertex))
}

// DrawFullscreen draws one triangle covering the viewport. Vertex positions
// come from gl_VertexID, so no buffers are needed.
func (d *Device) DrawFullscreen() {
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	if va, ok := d.geometries[d.geometry]; ok {
		gl.BindVertexArray(va.vao)
	}
}

// ReadPixels implements gpu.Context.
func (d *Device) ReadPixels(t gpu.Target, width, height int) ([]byte, error) {
	var fbo uint32
	if t != gpu.BackBuffer {
		fb, ok := d.targets[t]
		if !ok {
			return nil, fmt.Errorf("read pixels: unknown target %d", t)
		}
		fbo = fb.fbo
	}
	pixels := make([]byte, width*height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	if err := glError("read pixels"); err != nil {
		return nil, err
	}
	return pixels, nil
}

// glError drains the GL error queue and reports the first error.
func glError(op string) error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	for gl.GetError() != gl.NO_ERROR {
	}
	return fmt.Errorf("%s: GL error 0x%x", op, code)
}
