package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// CreateBuffer allocates storage without initial data.
func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if err := desc.Validate(); err != nil {
		return gpu.NullBuffer, err
	}
	// Vertex and index data go through CreateGeometry.
	if desc.Bind != gpu.BindConstant {
		return gpu.NullBuffer, fmt.Errorf("create buffer: bind kind %d must go through CreateGeometry", desc.Bind)
	}
	usage := uint32(gl.DYNAMIC_DRAW)
	if desc.Usage == gpu.UsageStatic {
		usage = gl.STATIC_DRAW
	}

	var b uint32
	gl.GenBuffers(1, &b)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b)
	gl.BufferData(gl.UNIFORM_BUFFER, desc.Size, nil, usage)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	if err := glError("create buffer"); err != nil {
		gl.DeleteBuffers(1, &b)
		return gpu.NullBuffer, err
	}
	return gpu.Buffer(b), nil
}

// UpdateBuffer uploads data to the start of a uniform buffer.
func (d *Device) UpdateBuffer(b gpu.Buffer, data []byte) error {
	if b == gpu.NullBuffer {
		return fmt.Errorf("update buffer: null handle")
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, uint32(b))
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return glError("update buffer")
}

// DeleteBuffer implements gpu.Resources.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	if id != 0 {
		gl.DeleteBuffers(1, &id)
	}
}
