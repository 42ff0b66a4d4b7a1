package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
)

// Transforms is the content of the matrices block.
type Transforms struct {
	World      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4

	LightView       [NumShadowMaps]mgl32.Mat4
	LightProjection [NumShadowMaps]mgl32.Mat4
}

// PackTransforms writes t in the matrices block layout.
func PackTransforms(w *gpu.Std140, t Transforms) {
	w.Mat4(t.World)
	w.Mat4(t.View)
	w.Mat4(t.Projection)
	for _, m := range t.LightView {
		w.Mat4(m)
	}
	for _, m := range t.LightProjection {
		w.Mat4(m)
	}
}

// PackMaterial writes m in the material block layout.
func PackMaterial(w *gpu.Std140, m *material.Material) {
	w.Vec4(m.Ambient.Vec4(1))
	w.Vec4(m.Diffuse.Vec4(1))
	w.Vec4(m.Specular.Vec4(1))
	w.Vec4(m.Transmittance.Vec4(1))
	w.Vec4(m.Emission.Vec4(1))
	w.Float(m.Shininess)
	w.Float(m.IOR)
	w.Float(m.Dissolve)
	w.Int(m.Illum)
}

// Shader is a linked program plus the constant buffers and samplers it binds.
type Shader struct {
	desc Desc
	dev  gpu.Device

	program gpu.Program
	wrap    gpu.Sampler // material textures
	clamp   gpu.Sampler // shadow maps and full-screen sources

	matrices   gpu.Buffer
	material   gpu.Buffer
	screenSize gpu.Buffer

	std *gpu.Std140
}

// Build compiles desc on dev and takes the constant buffers it needs from buffers.
func Build(dev gpu.Device, buffers *cbuffer.Cache, desc Desc) (*Shader, error) {
	s := &Shader{desc: desc, dev: dev, std: gpu.NewStd140(MatricesSize)}

	var err error
	if desc.usesMatrices() {
		if s.matrices, err = buffers.GetOrCreate(BufferMatrices, gpu.ConstantDesc(MatricesSize)); err != nil {
			return nil, fmt.Errorf("shader %s: %w", desc.Name, err)
		}
	}
	if desc.usesMaterial() {
		if s.material, err = buffers.GetOrCreate(BufferMaterial, gpu.ConstantDesc(MaterialSize)); err != nil {
			return nil, fmt.Errorf("shader %s: %w", desc.Name, err)
		}
	}
	if desc.Kind == KindBlurHorizontal || desc.Kind == KindBlurVertical {
		if s.screenSize, err = buffers.GetOrCreate(BufferScreenSize, gpu.ConstantDesc(ScreenSizeSize)); err != nil {
			return nil, fmt.Errorf("shader %s: %w", desc.Name, err)
		}
	}

	var arena gpu.Arena
	if s.program, err = dev.CreateProgram(desc.ProgramDesc()); err != nil {
		return nil, fmt.Errorf("shader %s: %w", desc.Name, err)
	}
	arena.TrackProgram(dev, s.program)

	if s.wrap, err = dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapRepeat}); err != nil {
		arena.Release()
		return nil, fmt.Errorf("shader %s sampler: %w", desc.Name, err)
	}
	arena.TrackSampler(dev, s.wrap)

	if s.clamp, err = dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapClamp}); err != nil {
		arena.Release()
		return nil, fmt.Errorf("shader %s sampler: %w", desc.Name, err)
	}
	return s, nil
}

// Name returns the registered name of the variant.
func (s *Shader) Name() string { return s.desc.Name }

// Desc returns the variant description.
func (s *Shader) Desc() Desc { return s.desc }

// CastsShadow reports whether meshes drawn by s are rendered into shadow maps.
func (s *Shader) CastsShadow() bool { return s.desc.CastsShadow() }

// Program returns the device program handle.
func (s *Shader) Program() gpu.Program { return s.program }

// Bind makes s the current program and sets its vertex layout and samplers.
func (s *Shader) Bind() {
	s.dev.UseProgram(s.program)
	s.dev.SetVertexLayout(s.desc.Layout())
	for _, b := range s.desc.textures() {
		smp := s.wrap
		if s.desc.fullscreen() || b.Slot >= SlotShadow {
			smp = s.clamp
		}
		s.dev.BindSampler(b.Stage, b.Slot, smp)
	}
}

// SetTransforms uploads t into the matrices block and binds it.
func (s *Shader) SetTransforms(t Transforms) error {
	if s.matrices == gpu.NullBuffer {
		return nil
	}
	s.std.Reset()
	PackTransforms(s.std, t)
	if err := s.dev.UpdateBuffer(s.matrices, s.std.Bytes()); err != nil {
		return fmt.Errorf("shader %s: upload %s: %w", s.desc.Name, BufferMatrices, err)
	}
	s.dev.BindConstantBuffer(gpu.StageVertex, SlotMatrices, s.matrices)
	return nil
}

// SetMaterialParameters uploads transforms and material constants and binds the
// material's textures resolved through src. Unresolved textures bind as null.
func (s *Shader) SetMaterialParameters(t Transforms, m *material.Material, src material.TextureSource) error {
	if err := s.SetTransforms(t); err != nil {
		return err
	}

	if s.material != gpu.NullBuffer {
		s.std.Reset()
		PackMaterial(s.std, m)
		if err := s.dev.UpdateBuffer(s.material, s.std.Bytes()); err != nil {
			return fmt.Errorf("shader %s: upload %s: %w", s.desc.Name, BufferMaterial, err)
		}
		s.dev.BindConstantBuffer(gpu.StagePixel, SlotMaterial, s.material)
	}

	switch s.desc.Kind {
	case KindLit:
		s.bindTexture(SlotDiffuse, m, material.RoleDiffuse, src)
		if s.desc.Features.Has(FeatureNormalMap) {
			s.bindTexture(SlotNormal, m, material.RoleBump, src)
		}
		if s.desc.Features.Has(FeatureAlphaMap) {
			s.bindTexture(SlotAlpha, m, material.RoleAlpha, src)
		}
		if s.desc.Features.Has(FeatureSpecularMap) {
			s.bindTexture(SlotSpecular, m, material.RoleSpecular, src)
		}
	case KindTexture, KindBlurHorizontal, KindBlurVertical:
		s.bindTexture(0, m, material.RoleDiffuse, src)
	}
	return nil
}

func (s *Shader) bindTexture(slot int, m *material.Material, r material.Role, src material.TextureSource) {
	tex := gpu.NullTexture
	if ref := m.Texture(r); ref.Set() && src != nil {
		if t, ok := src.Texture(ref.Hash); ok {
			tex = t
		}
	}
	s.dev.BindTexture(gpu.StagePixel, slot, tex)
}

// SetShadowMaps binds depth target textures at the shadow slots of lit programs.
func (s *Shader) SetShadowMaps(maps []gpu.Texture) {
	if s.desc.Kind != KindLit {
		return
	}
	for i := 0; i < NumShadowMaps; i++ {
		tex := gpu.NullTexture
		if i < len(maps) {
			tex = maps[i]
		}
		s.dev.BindTexture(gpu.StagePixel, SlotShadow+i, tex)
	}
}

// SetScreenSize uploads the blur axis length in pixels.
func (s *Shader) SetScreenSize(size float32) error {
	if s.screenSize == gpu.NullBuffer {
		return nil
	}
	s.std.Reset()
	s.std.Float(size)
	s.std.Align(16)
	if err := s.dev.UpdateBuffer(s.screenSize, s.std.Bytes()); err != nil {
		return fmt.Errorf("shader %s: upload %s: %w", s.desc.Name, BufferScreenSize, err)
	}
	s.dev.BindConstantBuffer(gpu.StageVertex, SlotScreenSize, s.screenSize)
	return nil
}

// Draw issues one indexed draw from the bound geometry.
func (s *Shader) Draw(indexCount, startIndex, baseVertex int) {
	s.dev.DrawIndexed(indexCount, startIndex, baseVertex)
}

// DrawFullscreen draws the viewport-covering triangle.
func (s *Shader) DrawFullscreen() {
	s.dev.DrawFullscreen()
}

// CleanupTextures unbinds every texture slot s uses so targets can be rebound for writing.
func (s *Shader) CleanupTextures() {
	for _, b := range s.desc.textures() {
		s.dev.BindTexture(b.Stage, b.Slot, gpu.NullTexture)
	}
}

// Close releases the program and samplers. Constant buffers belong to the cache.
func (s *Shader) Close() {
	var arena gpu.Arena
	arena.TrackProgram(s.dev, s.program)
	arena.TrackSampler(s.dev, s.wrap)
	arena.TrackSampler(s.dev, s.clamp)
	arena.Release()
	s.program, s.wrap, s.clamp = gpu.NullProgram, gpu.NullSampler, gpu.NullSampler
}
