package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Std140 packs values into a uniform block following GLSL std140 alignment.
type Std140 struct {
	buf []byte
}

// NewStd140 returns a writer with capacity for size bytes.
func NewStd140(size int) *Std140 {
	return &Std140{buf: make([]byte, 0, size)}
}

// Reset empties the writer and keeps its storage.
func (w *Std140) Reset() {
	w.buf = w.buf[:0]
}

// Bytes returns the packed data.
func (w *Std140) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written, including padding.
func (w *Std140) Len() int {
	return len(w.buf)
}

// Align pads with zeros up to the next multiple of n.
func (w *Std140) Align(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Pad appends n zero bytes.
func (w *Std140) Pad(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// Float writes a 4-byte float.
func (w *Std140) Float(f float32) {
	w.Align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
}

// Uint writes a 4-byte unsigned integer.
func (w *Std140) Uint(u uint32) {
	w.Align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, u)
}

// Int writes a 4-byte signed integer.
func (w *Std140) Int(i int32) {
	w.Uint(uint32(i))
}

// Vec3 writes a vec3, aligned to 16 bytes. The following scalar may share its last word.
func (w *Std140) Vec3(v mgl32.Vec3) {
	w.Align(16)
	for _, f := range v {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
	}
}

// Vec4 writes a vec4.
func (w *Std140) Vec4(v mgl32.Vec4) {
	w.Align(16)
	for _, f := range v {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
	}
}

// Mat4 writes a column-major mat4.
func (w *Std140) Mat4(m mgl32.Mat4) {
	w.Align(16)
	for _, f := range m {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
	}
}

// ReadFloat decodes the float at byte offset off. Used by CPU backends and tests.
func ReadFloat(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

// ReadUint decodes the uint32 at byte offset off.
func ReadUint(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off:])
}
