package soft

import (
	"image"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Events returns the recorded command stream.
func (d *Device) Events() []Event {
	return d.events
}

// ResetEvents clears the recorded command stream.
func (d *Device) ResetEvents() {
	d.events = d.events[:0]
}

// Filter returns the recorded events with the given op.
func (d *Device) Filter(op Op) []Event {
	var out []Event
	for _, e := range d.events {
		if e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events with the given op were recorded.
func (d *Device) Count(op Op) int {
	n := 0
	for _, e := range d.events {
		if e.Op == op {
			n++
		}
	}
	return n
}

// Image returns the CPU surface behind a texture.
func (d *Device) Image(t gpu.Texture) *image.NRGBA {
	return d.textures[t]
}

// TargetImage returns the colour surface of a render target.
func (d *Device) TargetImage(t gpu.Target) *image.NRGBA {
	return d.targetImage(t)
}

// BufferData returns the current contents of a buffer.
func (d *Device) BufferData(b gpu.Buffer) []byte {
	if buf, ok := d.buffers[b]; ok {
		return buf.data
	}
	return nil
}

// BufferDesc returns the descriptor a buffer was created with.
func (d *Device) BufferDesc(b gpu.Buffer) (gpu.BufferDesc, bool) {
	buf, ok := d.buffers[b]
	if !ok {
		return gpu.BufferDesc{}, false
	}
	return buf.desc, true
}

// Live returns the number of buffers, textures, programs and samplers still allocated.
// The back buffer is not counted.
func (d *Device) Live() int {
	return len(d.buffers) + len(d.textures) - 1 + len(d.programs) + len(d.samplers) + len(d.geometries)
}

// GeometrySize returns the vertex and index counts of a live geometry.
func (d *Device) GeometrySize(g gpu.Geometry) (vertices, indices int, ok bool) {
	geo, ok := d.geometries[g]
	if !ok {
		return 0, 0, false
	}
	return len(geo.vertices), len(geo.indices), true
}

// BoundTexture returns the texture bound at a stage slot.
func (d *Device) BoundTexture(stage gpu.Stage, slot int) gpu.Texture {
	return d.bound[stage][slot]
}

// BoundBuffer returns the constant buffer bound at a stage slot.
func (d *Device) BoundBuffer(stage gpu.Stage, slot int) gpu.Buffer {
	return d.cbuffers[stage][slot]
}

// DepthTest reports the current depth-test state.
func (d *Device) DepthTest() bool {
	return d.depthTest
}

// Program returns the description of a live program.
func (d *Device) Program(p gpu.Program) (gpu.ProgramDesc, bool) {
	desc, ok := d.programs[p]
	return desc, ok
}
