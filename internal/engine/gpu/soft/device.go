// Package soft implements gpu.Device on the CPU.
//
// It records every call so tests can assert on the command stream, and it
// executes full-screen passes (blit and separable blur) on image.NRGBA
// surfaces. Indexed draws are recorded but not rasterised.
package soft

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Op names a recorded call.
type Op string

const (
	OpBindTarget    Op = "BindTarget"
	OpClear         Op = "Clear"
	OpDepthTest     Op = "SetDepthTest"
	OpUseProgram    Op = "UseProgram"
	OpVertexLayout  Op = "SetVertexLayout"
	OpBindBuffer    Op = "BindConstantBuffer"
	OpBindTexture   Op = "BindTexture"
	OpBindSampler   Op = "BindSampler"
	OpBindGeometry  Op = "BindGeometry"
	OpUpdateBuffer  Op = "UpdateBuffer"
	OpDrawIndexed   Op = "DrawIndexed"
	OpDrawFull      Op = "DrawFullscreen"
	OpCreateBuffer  Op = "CreateBuffer"
	OpCreateProgram Op = "CreateProgram"
)

// Event is one recorded call. Only the fields relevant to Op are set.
type Event struct {
	Op       Op
	Target   gpu.Target
	Program  gpu.Program
	Name     string // program name for UseProgram and DrawFullscreen
	Stage    gpu.Stage
	Slot     int
	Buffer   gpu.Buffer
	Texture  gpu.Texture
	Geometry gpu.Geometry
	Layout   gpu.VertexLayout
	Enabled  bool
	Count    int
	Start    int
	Base     int
}

// ErrUnknownHandle is returned for handles this device never created.
var ErrUnknownHandle = errors.New("soft: unknown handle")

type buffer struct {
	desc gpu.BufferDesc
	data []byte
}

type target struct {
	color gpu.Texture
	depth gpu.Texture
}

type geometry struct {
	vertices []gpu.Vertex
	indices  []uint32
}

// Device is a software gpu.Device.
type Device struct {
	next uint32

	buffers    map[gpu.Buffer]*buffer
	textures   map[gpu.Texture]*image.NRGBA
	targets    map[gpu.Target]target
	programs   map[gpu.Program]gpu.ProgramDesc
	samplers   map[gpu.Sampler]gpu.SamplerDesc
	geometries map[gpu.Geometry]geometry

	backBuffer gpu.Texture

	// Bound state
	target    gpu.Target
	viewport  gpu.Viewport
	program   gpu.Program
	layout    gpu.VertexLayout
	geometry  gpu.Geometry
	depthTest bool
	cbuffers  [2][gpu.MaxSlots]gpu.Buffer
	bound     [2][gpu.MaxSlots]gpu.Texture

	events []Event

	// FailBuffers makes CreateBuffer fail, for error-path tests.
	FailBuffers bool
	// FailPrograms lists program names whose creation fails.
	FailPrograms map[string]bool
	// FailTargets makes CreateTarget fail.
	FailTargets bool
	// FailGeometry makes CreateGeometry fail.
	FailGeometry bool
}

// New creates a software device with a back buffer of the given size.
func New(width, height int) *Device {
	d := &Device{
		buffers:      make(map[gpu.Buffer]*buffer),
		textures:     make(map[gpu.Texture]*image.NRGBA),
		targets:      make(map[gpu.Target]target),
		programs:     make(map[gpu.Program]gpu.ProgramDesc),
		samplers:     make(map[gpu.Sampler]gpu.SamplerDesc),
		geometries:   make(map[gpu.Geometry]geometry),
		FailPrograms: make(map[string]bool),
		depthTest:    true,
	}
	d.backBuffer = d.newTexture(width, height)
	d.targets[gpu.BackBuffer] = target{color: d.backBuffer}
	return d
}

// Name implements gpu.Device.
func (d *Device) Name() string {
	return "soft"
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

func (d *Device) record(e Event) {
	d.events = append(d.events, e)
}

func (d *Device) newTexture(width, height int) gpu.Texture {
	t := gpu.Texture(d.id())
	d.textures[t] = image.NewNRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	return t
}

// CreateBuffer implements gpu.Resources.
func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if d.FailBuffers {
		return gpu.NullBuffer, errors.New("soft: buffer allocation disabled")
	}
	if err := desc.Validate(); err != nil {
		return gpu.NullBuffer, err
	}
	b := gpu.Buffer(d.id())
	d.buffers[b] = &buffer{desc: desc, data: make([]byte, desc.Size)}
	d.record(Event{Op: OpCreateBuffer, Buffer: b, Count: desc.Size})
	return b, nil
}

// UpdateBuffer implements gpu.Resources.
func (d *Device) UpdateBuffer(b gpu.Buffer, data []byte) error {
	buf, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("update buffer %d: %w", b, ErrUnknownHandle)
	}
	if len(data) > len(buf.data) {
		return fmt.Errorf("update buffer %d: %d bytes into %d", b, len(data), len(buf.data))
	}
	copy(buf.data, data)
	d.record(Event{Op: OpUpdateBuffer, Buffer: b, Count: len(data)})
	return nil
}

// DeleteBuffer implements gpu.Resources.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	delete(d.buffers, b)
}

// CreateTexture implements gpu.Resources.
func (d *Device) CreateTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpu.NullTexture, fmt.Errorf("soft: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if pixels != nil && len(pixels) != desc.Width*desc.Height*4 {
		return gpu.NullTexture, fmt.Errorf("soft: expected %d bytes of pixels, got %d", desc.Width*desc.Height*4, len(pixels))
	}
	t := d.newTexture(desc.Width, desc.Height)
	copy(d.textures[t].Pix, pixels)
	return t, nil
}

// DeleteTexture implements gpu.Resources.
func (d *Device) DeleteTexture(t gpu.Texture) {
	delete(d.textures, t)
}

// CreateTarget implements gpu.Resources.
func (d *Device) CreateTarget(desc gpu.TargetDesc) (gpu.TargetViews, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpu.TargetViews{}, fmt.Errorf("soft: invalid target size %dx%d", desc.Width, desc.Height)
	}
	if d.FailTargets {
		return gpu.TargetViews{}, errors.New("soft: target creation disabled")
	}
	views := gpu.TargetViews{Color: d.newTexture(desc.Width, desc.Height)}
	if desc.Depth {
		views.Depth = d.newTexture(desc.Width, desc.Height)
	}
	views.Target = gpu.Target(d.id())
	d.targets[views.Target] = target{color: views.Color, depth: views.Depth}
	return views, nil
}

// DeleteTarget implements gpu.Resources.
func (d *Device) DeleteTarget(t gpu.Target) {
	tg, ok := d.targets[t]
	if !ok || t == gpu.BackBuffer {
		return
	}
	delete(d.textures, tg.color)
	delete(d.textures, tg.depth)
	delete(d.targets, t)
}

// CreateProgram implements gpu.Resources.
func (d *Device) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if d.FailPrograms[desc.Name] {
		return gpu.NullProgram, fmt.Errorf("soft: program %q failed to link", desc.Name)
	}
	if desc.Vertex == "" || desc.Fragment == "" {
		return gpu.NullProgram, fmt.Errorf("soft: program %q has no source", desc.Name)
	}
	p := gpu.Program(d.id())
	d.programs[p] = desc
	d.record(Event{Op: OpCreateProgram, Program: p, Name: desc.Name})
	return p, nil
}

// DeleteProgram implements gpu.Resources.
func (d *Device) DeleteProgram(p gpu.Program) {
	delete(d.programs, p)
}

// CreateSampler implements gpu.Resources.
func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s := gpu.Sampler(d.id())
	d.samplers[s] = desc
	return s, nil
}

// DeleteSampler implements gpu.Resources.
func (d *Device) DeleteSampler(s gpu.Sampler) {
	delete(d.samplers, s)
}

// CreateGeometry implements gpu.Resources.
func (d *Device) CreateGeometry(vertices []gpu.Vertex, indices []uint32) (gpu.Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return gpu.NullGeometry, errors.New("soft: empty geometry")
	}
	if d.FailGeometry {
		return gpu.NullGeometry, errors.New("soft: geometry creation disabled")
	}
	g := gpu.Geometry(d.id())
	d.geometries[g] = geometry{
		vertices: append([]gpu.Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}
	return g, nil
}

// DeleteGeometry implements gpu.Resources.
func (d *Device) DeleteGeometry(g gpu.Geometry) {
	delete(d.geometries, g)
}

// BindTarget implements gpu.Context.
func (d *Device) BindTarget(t gpu.Target, vp gpu.Viewport) {
	d.target = t
	d.viewport = vp
	d.record(Event{Op: OpBindTarget, Target: t})
}

// Clear fills the bound target's colour attachment.
func (d *Device) Clear(c [4]float32) {
	d.record(Event{Op: OpClear, Target: d.target})
	img := d.targetImage(d.target)
	if img == nil {
		return
	}
	fill := color.NRGBA{R: unorm(c[0]), G: unorm(c[1]), B: unorm(c[2]), A: unorm(c[3])}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
}

// SetDepthTest implements gpu.Context.
func (d *Device) SetDepthTest(enabled bool) {
	d.depthTest = enabled
	d.record(Event{Op: OpDepthTest, Enabled: enabled})
}

// UseProgram implements gpu.Context.
func (d *Device) UseProgram(p gpu.Program) {
	d.program = p
	d.record(Event{Op: OpUseProgram, Program: p, Name: d.programs[p].Name})
}

// SetVertexLayout implements gpu.Context.
func (d *Device) SetVertexLayout(l gpu.VertexLayout) {
	d.layout = l
	d.record(Event{Op: OpVertexLayout, Layout: l})
}

// BindConstantBuffer implements gpu.Context.
func (d *Device) BindConstantBuffer(stage gpu.Stage, slot int, b gpu.Buffer) {
	if slot >= 0 && slot < gpu.MaxSlots {
		d.cbuffers[stage][slot] = b
	}
	d.record(Event{Op: OpBindBuffer, Stage: stage, Slot: slot, Buffer: b})
}

// BindTexture implements gpu.Context.
func (d *Device) BindTexture(stage gpu.Stage, slot int, t gpu.Texture) {
	if slot >= 0 && slot < gpu.MaxSlots {
		d.bound[stage][slot] = t
	}
	d.record(Event{Op: OpBindTexture, Stage: stage, Slot: slot, Texture: t})
}

// BindSampler implements gpu.Context.
func (d *Device) BindSampler(stage gpu.Stage, slot int, s gpu.Sampler) {
	d.record(Event{Op: OpBindSampler, Stage: stage, Slot: slot})
}

// BindGeometry implements gpu.Context.
func (d *Device) BindGeometry(g gpu.Geometry) {
	d.geometry = g
	d.record(Event{Op: OpBindGeometry, Geometry: g})
}

// DrawIndexed records the draw.
func (d *Device) DrawIndexed(indexCount, startIndex, baseVertex int) {
	d.record(Event{
		Op:       OpDrawIndexed,
		Target:   d.target,
		Program:  d.program,
		Name:     d.programs[d.program].Name,
		Geometry: d.geometry,
		Count:    indexCount,
		Start:    startIndex,
		Base:     baseVertex,
	})
}

// DrawFullscreen runs the bound program's effect over the bound target.
func (d *Device) DrawFullscreen() {
	desc := d.programs[d.program]
	d.record(Event{Op: OpDrawFull, Target: d.target, Program: d.program, Name: desc.Name})

	dst := d.targetImage(d.target)
	src := d.textures[d.bound[gpu.StagePixel][0]]
	if dst == nil || src == nil || src == dst {
		return
	}
	var out image.Image
	switch desc.Effect {
	case gpu.EffectBlit:
		out = src
	case gpu.EffectBlurHorizontal:
		out = blur(src, true)
	case gpu.EffectBlurVertical:
		out = blur(src, false)
	default:
		return
	}
	draw.Draw(dst, dst.Bounds(), resample(out, dst.Bounds().Dx(), dst.Bounds().Dy()), image.Point{}, draw.Src)
}

// ReadPixels returns the target's colour rows bottom to top, like OpenGL.
func (d *Device) ReadPixels(t gpu.Target, width, height int) ([]byte, error) {
	img := d.targetImage(t)
	if img == nil {
		return nil, fmt.Errorf("read pixels from target %d: %w", t, ErrUnknownHandle)
	}
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		return nil, fmt.Errorf("read pixels: target is %dx%d, asked %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), width, height)
	}
	out := make([]byte, width*height*4)
	row := width * 4
	for y := 0; y < height; y++ {
		src := img.Pix[(height-1-y)*img.Stride:]
		copy(out[y*row:(y+1)*row], src[:row])
	}
	return out, nil
}

func (d *Device) targetImage(t gpu.Target) *image.NRGBA {
	tg, ok := d.targets[t]
	if !ok {
		return nil
	}
	return d.textures[tg.color]
}

func unorm(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
