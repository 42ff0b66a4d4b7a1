// Package shader builds GPU programs from variant descriptions and keeps them in a registry.
//
// A single Shader type covers every program. What it binds and uploads is
// decided by its Kind and Features rather than by per-variant types.
package shader

import (
	"errors"
	"sort"
	"strings"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/shaders"
)

// Features are optional texture inputs of lit shaders.
type Features uint8

const (
	FeatureNormalMap Features = 1 << iota
	FeatureAlphaMap
	FeatureSpecularMap
)

// Has reports whether every feature in x is set.
func (f Features) Has(x Features) bool {
	return f&x == x
}

func (f Features) defines() string {
	var sb strings.Builder
	if f.Has(FeatureNormalMap) {
		sb.WriteString("#define NORMAL_MAP\n")
	}
	if f.Has(FeatureAlphaMap) {
		sb.WriteString("#define ALPHA_MAP\n")
	}
	if f.Has(FeatureSpecularMap) {
		sb.WriteString("#define SPECULAR_MAP\n")
	}
	return sb.String()
}

// Kind is the role of a program in the frame.
type Kind uint8

const (
	KindLit Kind = iota
	KindDepth
	KindTexture
	KindBlurHorizontal
	KindBlurVertical
	KindHelper
)

func (k Kind) String() string {
	switch k {
	case KindLit:
		return "lit"
	case KindDepth:
		return "depth"
	case KindTexture:
		return "texture"
	case KindBlurHorizontal:
		return "blur_h"
	case KindBlurVertical:
		return "blur_v"
	case KindHelper:
		return "helper"
	default:
		return "unknown"
	}
}

// Names of the non-lit programs.
const (
	NameDepth   = "depth_shader"
	NameTexture = "texture_shader"
	NameBlurH   = "gauss_blur_h_shader"
	NameBlurV   = "gauss_blur_v_shader"
	NameHelper  = "geometrybox_shader"
)

// Constant buffer names shared through the cbuffer cache.
const (
	BufferMatrices   = "mvp_buffer"
	BufferCamera     = "scene_cam_buffer"
	BufferLights     = "scene_lights_buffer"
	BufferMaterial   = "mat_buffer"
	BufferScreenSize = "screensize_buffer"
)

// Binding slots. Programs and the renderer both rely on these numbers.
const (
	SlotMatrices   = 0 // vertex
	SlotCamera     = 1 // vertex
	SlotScreenSize = 1 // vertex, blur programs
	SlotLightsVS   = 2 // vertex
	SlotLights     = 0 // pixel
	SlotMaterial   = 1 // pixel

	SlotDiffuse  = 0
	SlotNormal   = 1
	SlotAlpha    = 2
	SlotSpecular = 3
	SlotShadow   = 4 // first of NumShadowMaps pixel texture slots
)

// NumShadowMaps is the number of shadow map slots of lit programs.
const NumShadowMaps = 4

// Block sizes in bytes, std140.
const (
	MatricesSize   = (3 + 2*NumShadowMaps) * 64
	CameraSize     = 16
	MaterialSize   = 5*16 + 16
	ScreenSizeSize = 16
)

// Desc describes one program variant.
type Desc struct {
	Name     string
	Kind     Kind
	Features Features
}

// Variants lists every program the renderer knows by name.
var Variants = map[string]Desc{
	material.ShaderLight:           {Name: material.ShaderLight, Kind: KindLit},
	material.ShaderLightSpec:       {Name: material.ShaderLightSpec, Kind: KindLit, Features: FeatureSpecularMap},
	material.ShaderLightAlpha:      {Name: material.ShaderLightAlpha, Kind: KindLit, Features: FeatureAlphaMap},
	material.ShaderLightAlphaSpec:  {Name: material.ShaderLightAlphaSpec, Kind: KindLit, Features: FeatureAlphaMap | FeatureSpecularMap},
	material.ShaderNormal:          {Name: material.ShaderNormal, Kind: KindLit, Features: FeatureNormalMap},
	material.ShaderNormalAlpha:     {Name: material.ShaderNormalAlpha, Kind: KindLit, Features: FeatureNormalMap | FeatureAlphaMap},
	material.ShaderNormalAlphaSpec: {Name: material.ShaderNormalAlphaSpec, Kind: KindLit, Features: FeatureNormalMap | FeatureAlphaMap | FeatureSpecularMap},
	NameDepth:                      {Name: NameDepth, Kind: KindDepth},
	NameTexture:                    {Name: NameTexture, Kind: KindTexture},
	NameBlurH:                      {Name: NameBlurH, Kind: KindBlurHorizontal},
	NameBlurV:                      {Name: NameBlurV, Kind: KindBlurVertical},
	NameHelper:                     {Name: NameHelper, Kind: KindHelper},
}

// Lookup returns the variant registered under name.
func Lookup(name string) (Desc, bool) {
	d, ok := Variants[name]
	return d, ok
}

// Layout returns the vertex attributes the program reads.
func (d Desc) Layout() gpu.VertexLayout {
	switch d.Kind {
	case KindLit:
		if d.Features.Has(FeatureNormalMap) {
			return gpu.LayoutFull
		}
		return gpu.LayoutLit
	case KindDepth, KindHelper:
		return gpu.LayoutPosition
	default:
		return gpu.LayoutNone
	}
}

// CastsShadow reports whether meshes drawn with this program appear in shadow maps.
func (d Desc) CastsShadow() bool {
	return d.Kind != KindHelper
}

func (d Desc) fullscreen() bool {
	return d.Kind == KindTexture || d.Kind == KindBlurHorizontal || d.Kind == KindBlurVertical
}

func (d Desc) usesMatrices() bool {
	return d.Kind == KindLit || d.Kind == KindDepth || d.Kind == KindHelper
}

func (d Desc) usesMaterial() bool {
	return d.Kind == KindLit || d.Kind == KindHelper
}

// textures lists the pixel texture bindings in slot order.
func (d Desc) textures() []gpu.Binding {
	ps := func(name string, slot int) gpu.Binding {
		return gpu.Binding{Name: name, Stage: gpu.StagePixel, Slot: slot}
	}
	switch d.Kind {
	case KindLit:
		out := []gpu.Binding{ps("diffuseMap", SlotDiffuse)}
		if d.Features.Has(FeatureNormalMap) {
			out = append(out, ps("normalMap", SlotNormal))
		}
		if d.Features.Has(FeatureAlphaMap) {
			out = append(out, ps("alphaMap", SlotAlpha))
		}
		if d.Features.Has(FeatureSpecularMap) {
			out = append(out, ps("specularMap", SlotSpecular))
		}
		for i := 0; i < NumShadowMaps; i++ {
			out = append(out, ps("shadowMap"+string(rune('0'+i)), SlotShadow+i))
		}
		return out
	case KindTexture, KindBlurHorizontal, KindBlurVertical:
		return []gpu.Binding{ps("sourceTexture", 0)}
	default:
		return nil
	}
}

func (d Desc) blocks() []gpu.Binding {
	var out []gpu.Binding
	if d.usesMatrices() {
		out = append(out, gpu.Binding{Name: "Matrices", Stage: gpu.StageVertex, Slot: SlotMatrices})
	}
	if d.usesMaterial() {
		out = append(out, gpu.Binding{Name: "Material", Stage: gpu.StagePixel, Slot: SlotMaterial})
	}
	switch d.Kind {
	case KindLit:
		out = append(out,
			gpu.Binding{Name: "Camera", Stage: gpu.StageVertex, Slot: SlotCamera},
			gpu.Binding{Name: "Lights", Stage: gpu.StagePixel, Slot: SlotLights},
		)
	case KindBlurHorizontal, KindBlurVertical:
		out = append(out, gpu.Binding{Name: "ScreenSize", Stage: gpu.StageVertex, Slot: SlotScreenSize})
	}
	return out
}

func (d Desc) effect() gpu.Effect {
	switch d.Kind {
	case KindTexture:
		return gpu.EffectBlit
	case KindBlurHorizontal:
		return gpu.EffectBlurHorizontal
	case KindBlurVertical:
		return gpu.EffectBlurVertical
	default:
		return gpu.EffectNone
	}
}

// sources assembles the GLSL for the variant.
func (d Desc) sources() (vert, frag string) {
	prefix := shaders.Version + d.Features.defines()
	switch d.Kind {
	case KindLit:
		vert, frag = shaders.LitVertexShader, shaders.LitFragmentShader
	case KindDepth:
		vert, frag = shaders.DepthVertexShader, shaders.DepthFragmentShader
	case KindTexture:
		vert, frag = shaders.FullscreenVertexShader, shaders.TextureFragmentShader
	case KindBlurHorizontal:
		prefix += "#define HORIZONTAL\n"
		vert, frag = shaders.BlurVertexShader, shaders.BlurFragmentShader
	case KindBlurVertical:
		vert, frag = shaders.BlurVertexShader, shaders.BlurFragmentShader
	case KindHelper:
		vert, frag = shaders.HelperVertexShader, shaders.HelperFragmentShader
	}
	prefix += shaders.Blocks
	return prefix + vert, prefix + frag
}

// ProgramDesc returns the device description of the variant.
func (d Desc) ProgramDesc() gpu.ProgramDesc {
	vert, frag := d.sources()
	return gpu.ProgramDesc{
		Name:     d.Name,
		Vertex:   vert,
		Fragment: frag,
		Layout:   d.Layout(),
		Blocks:   d.blocks(),
		Textures: d.textures(),
		Effect:   d.effect(),
	}
}

var errUnknownVariant = errors.New("no such shader variant")

// SortedVariantNames returns the names in Variants in lexical order.
func SortedVariantNames() []string {
	names := make([]string, 0, len(Variants))
	for name := range Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
