// Package gpu defines the graphics device abstraction the engine renders through.
//
// Resource handles are small integers owned by the device that created them.
// The zero value of every handle type is the null handle.
package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle types. Zero is always the null handle.
type (
	Buffer   uint32
	Texture  uint32
	Target   uint32
	Program  uint32
	Sampler  uint32
	Geometry uint32
)

const (
	NullBuffer   Buffer   = 0
	NullTexture  Texture  = 0
	NullProgram  Program  = 0
	NullSampler  Sampler  = 0
	NullGeometry Geometry = 0

	// BackBuffer is the presentation surface.
	BackBuffer Target = 0
)

// Stage selects the pipeline stage a buffer, texture or sampler is bound to.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vs"
	case StagePixel:
		return "ps"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// MaxSlots is the number of binding slots per stage.
const MaxSlots = 8

// Usage describes how often a buffer is written.
type Usage uint8

const (
	UsageDynamic Usage = iota // rewritten every frame
	UsageStatic
)

// BindKind says what a buffer is bound as.
type BindKind uint8

const (
	BindConstant BindKind = iota
	BindVertex
	BindIndex
)

// BufferDesc describes a buffer allocation.
type BufferDesc struct {
	Size  int
	Usage Usage
	Bind  BindKind
}

// ConstantDesc returns a dynamic constant buffer descriptor with size rounded up to 16 bytes.
func ConstantDesc(size int) BufferDesc {
	return BufferDesc{Size: (size + 15) &^ 15, Usage: UsageDynamic, Bind: BindConstant}
}

// Validate reports whether the descriptor can be allocated.
// Constant buffers must be a non-zero multiple of 16 bytes.
func (d BufferDesc) Validate() error {
	if d.Size <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", d.Size)
	}
	if d.Bind == BindConstant && d.Size%16 != 0 {
		return fmt.Errorf("constant buffer size %d is not a multiple of 16", d.Size)
	}
	if d.Bind > BindIndex {
		return fmt.Errorf("unknown bind kind %d", d.Bind)
	}
	return nil
}

// TextureDesc describes an RGBA8 texture.
type TextureDesc struct {
	Width, Height int
	Mipmaps       bool
}

// TargetDesc describes an off-screen render target.
type TargetDesc struct {
	Name          string
	Width, Height int
	Depth         bool
}

// TargetViews groups the handles created for a render target.
type TargetViews struct {
	Target Target  // render-target view
	Color  Texture // shader-resource view of the colour attachment
	Depth  Texture // depth attachment, null when not requested
}

// Viewport is a pixel rectangle.
type Viewport struct {
	X, Y, Width, Height int
}

// VertexLayout is a set of vertex attributes a program consumes.
type VertexLayout uint8

const (
	AttribPosition VertexLayout = 1 << iota
	AttribUV
	AttribNormal
	AttribTangent
)

const (
	LayoutPosition   = AttribPosition
	LayoutPositionUV = AttribPosition | AttribUV
	LayoutLit        = AttribPosition | AttribUV | AttribNormal
	LayoutFull       = AttribPosition | AttribUV | AttribNormal | AttribTangent
	LayoutNone       = VertexLayout(0)
)

// Has reports whether the layout includes attr.
func (l VertexLayout) Has(attr VertexLayout) bool {
	return l&attr == attr
}

// Effect tells CPU backends what a full-screen program does. GPU backends ignore it.
type Effect uint8

const (
	EffectNone Effect = iota
	EffectBlit
	EffectBlurHorizontal
	EffectBlurVertical
)

// Binding maps a named shader resource to a stage slot.
type Binding struct {
	Name  string
	Stage Stage
	Slot  int
}

// ProgramDesc describes a linked program.
type ProgramDesc struct {
	Name     string
	Vertex   string
	Fragment string
	Layout   VertexLayout
	Blocks   []Binding // uniform blocks
	Textures []Binding // sampler uniforms
	Effect   Effect
}

// Filter is a texture filtering mode.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Wrap is a texture addressing mode.
type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// SamplerDesc describes a sampler object.
type SamplerDesc struct {
	Filter Filter
	Wrap   Wrap
}

// Vertex is the interleaved vertex format shared by all meshes.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
}

// VertexSize is the byte stride of Vertex.
const VertexSize = 11 * 4

// Resources creates and releases GPU objects.
type Resources interface {
	CreateBuffer(desc BufferDesc) (Buffer, error)
	UpdateBuffer(b Buffer, data []byte) error
	DeleteBuffer(b Buffer)

	CreateTexture(desc TextureDesc, pixels []byte) (Texture, error)
	DeleteTexture(t Texture)

	CreateTarget(desc TargetDesc) (TargetViews, error)
	DeleteTarget(t Target)

	CreateProgram(desc ProgramDesc) (Program, error)
	DeleteProgram(p Program)

	CreateSampler(desc SamplerDesc) (Sampler, error)
	DeleteSampler(s Sampler)

	CreateGeometry(vertices []Vertex, indices []uint32) (Geometry, error)
	DeleteGeometry(g Geometry)
}

// Context issues state changes and draw calls on the single render timeline.
type Context interface {
	BindTarget(t Target, vp Viewport)
	Clear(color [4]float32)
	SetDepthTest(enabled bool)

	UseProgram(p Program)
	SetVertexLayout(l VertexLayout)
	BindConstantBuffer(stage Stage, slot int, b Buffer)
	BindTexture(stage Stage, slot int, t Texture)
	BindSampler(stage Stage, slot int, s Sampler)
	BindGeometry(g Geometry)

	DrawIndexed(indexCount, startIndex, baseVertex int)
	DrawFullscreen()

	// ReadPixels returns RGBA8 rows of t ordered bottom to top.
	ReadPixels(t Target, width, height int) ([]byte, error)
}

// Device is a graphics device and its immediate context.
type Device interface {
	Resources
	Context
	Name() string
}
