package glbackend

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Attribute locations shared with the GLSL sources.
const (
	locPosition = 0
	locUV       = 1
	locNormal   = 2
	locTangent  = 3
)

type vertexArray struct {
	vao, vbo, ebo uint32
}

// CreateGeometry uploads an interleaved vertex buffer and a uint32 index buffer.
func (d *Device) CreateGeometry(vertices []gpu.Vertex, indices []uint32) (gpu.Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return gpu.NullGeometry, errors.New("create geometry: empty vertex or index data")
	}

	va := &vertexArray{}
	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	gl.GenBuffers(1, &va.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*gpu.VertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &va.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	// Position(3) UV(2) Normal(3) Tangent(3)
	gl.VertexAttribPointer(locPosition, 3, gl.FLOAT, false, gpu.VertexSize, nil)
	gl.VertexAttribPointer(locUV, 2, gl.FLOAT, false, gpu.VertexSize, unsafe.Pointer(uintptr(3*4)))
	gl.VertexAttribPointer(locNormal, 3, gl.FLOAT, false, gpu.VertexSize, unsafe.Pointer(uintptr(5*4)))
	gl.VertexAttribPointer(locTangent, 3, gl.FLOAT, false, gpu.VertexSize, unsafe.Pointer(uintptr(8*4)))
	applyLayout(gpu.LayoutFull)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if err := glError("create geometry"); err != nil {
		va.destroy()
		return gpu.NullGeometry, err
	}

	g := gpu.Geometry(va.vao)
	d.geometries[g] = va
	return g, nil
}

func (va *vertexArray) destroy() {
	if va.vao != 0 {
		gl.DeleteVertexArrays(1, &va.vao)
	}
	if va.vbo != 0 {
		gl.DeleteBuffers(1, &va.vbo)
	}
	if va.ebo != 0 {
		gl.DeleteBuffers(1, &va.ebo)
	}
}

// DeleteGeometry implements gpu.Resources.
func (d *Device) DeleteGeometry(g gpu.Geometry) {
	va, ok := d.geometries[g]
	if !ok {
		return
	}
	va.destroy()
	delete(d.geometries, g)
	if d.geometry == g {
		d.geometry = gpu.NullGeometry
	}
}

// BindGeometry binds the vertex array and re-applies the current layout to it.
func (d *Device) BindGeometry(g gpu.Geometry) {
	d.geometry = g
	va, ok := d.geometries[g]
	if !ok {
		gl.BindVertexArray(0)
		return
	}
	gl.BindVertexArray(va.vao)
	applyLayout(d.layout)
}

// SetVertexLayout enables only the attributes the program reads.
func (d *Device) SetVertexLayout(l gpu.VertexLayout) {
	d.layout = l
	if _, ok := d.geometries[d.geometry]; ok {
		applyLayout(l)
	}
}

func applyLayout(l gpu.VertexLayout) {
	attribs := []struct {
		attr gpu.VertexLayout
		loc  uint32
	}{
		{gpu.AttribPosition, locPosition},
		{gpu.AttribUV, locUV},
		{gpu.AttribNormal, locNormal},
		{gpu.AttribTangent, locTangent},
	}
	for _, a := range attribs {
		if l.Has(a.attr) {
			gl.EnableVertexAttribArray(a.loc)
		} else {
			gl.DisableVertexAttribArray(a.loc)
		}
	}
}
