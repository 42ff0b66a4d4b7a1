package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// faceNormal returns the geometric normal of triangle i from its winding.
func faceNormal(m Mesh, i int) mgl32.Vec3 {
	a := m.Vertices[m.Indices[i*3]].Position
	b := m.Vertices[m.Indices[i*3+1]].Position
	c := m.Vertices[m.Indices[i*3+2]].Position
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func TestPrimitivesWindCounterClockwise(t *testing.T) {
	meshes := []Mesh{
		Box("box", mgl32.Vec3{1, 2, 3}, 0),
		Plane("plane", 4, 4, 1, 0),
		Sphere("sphere", 1, 8, 6, 0),
	}
	for _, m := range meshes {
		t.Run(m.Name, func(t *testing.T) {
			for tri := 0; tri < len(m.Indices)/3; tri++ {
				n := faceNormal(m, tri)
				if n.Len() == 0 || n[0] != n[0] {
					continue // degenerate triangle at a sphere pole
				}
				vn := m.Vertices[m.Indices[tri*3]].Normal
				assert.Greater(t, n.Dot(vn), float32(0), "triangle %d faces inwards", tri)
			}
		})
	}
}

func TestBoxSize(t *testing.T) {
	m := Box("box", mgl32.Vec3{2, 4, 6}, 0)
	assert.Len(t, m.Vertices, 24)
	assert.Len(t, m.Indices, 36)

	b := m.WorldBounds()
	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)
}

func TestComputeTangents(t *testing.T) {
	m := Plane("p", 2, 2, 1, 0)
	for i := range m.Vertices {
		m.Vertices[i].Tangent = mgl32.Vec3{}
	}
	ComputeTangents(&m)
	for i, v := range m.Vertices {
		assert.InDelta(t, 1, v.Tangent.Len(), 1e-5, "vertex %d", i)
		assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), 1e-5, "vertex %d", i)
		assert.InDelta(t, 1, v.Tangent[0], 1e-5, "tangent follows +U")
	}
}

func TestComputeTangentsDegenerateUV(t *testing.T) {
	m := Plane("p", 2, 2, 0, 0) // every UV is zero
	ComputeTangents(&m)
	for _, v := range m.Vertices {
		assert.InDelta(t, 1, v.Tangent.Len(), 1e-5)
		assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), 1e-5)
	}
}
