// Package model holds meshes, their materials and the per-material batches the renderer draws.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Mesh is an indexed triangle list drawn with one material.
type Mesh struct {
	Name       string
	Vertices   []gpu.Vertex
	Indices    []uint32 // relative to the mesh's first vertex
	MaterialID int      // index into the owning model's materials
	Transform  mgl32.Mat4

	// Position inside the model's shared geometry, set by Model.Build.
	VertexOffset int
	IndexOffset  int
}

// IndexCount returns the number of indices drawn for the mesh.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns an inverted box that any point extends.
func EmptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
}

// Valid reports whether the box contains at least one point.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Union grows the box to contain o.
func (b *Bounds) Union(o Bounds) {
	if !o.Valid() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// WorldBounds returns the box around the mesh's vertices after its transform.
func (m *Mesh) WorldBounds() Bounds {
	b := EmptyBounds()
	for _, v := range m.Vertices {
		b.Extend(mgl32.TransformCoordinate(v.Position, m.Transform))
	}
	return b
}
