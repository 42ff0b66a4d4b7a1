package model

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
)

// ErrNotBuilt is returned when a model is used before Build.
var ErrNotBuilt = errors.New("model not built")

// Model is a set of meshes sharing one vertex and index buffer.
// After adding meshes or materials call Rebuild before drawing.
type Model struct {
	Name      string
	Materials []*material.Material

	arena    Arena
	batches  Batches
	bounds   Bounds
	built    bool
	geometry gpu.Geometry
	uploaded int // vertex count of the uploaded geometry
}

// New creates a model from meshes and materials. Call Build before use.
func New(name string, meshes []Mesh, materials []*material.Material) *Model {
	m := &Model{Name: name, Materials: materials}
	for _, mesh := range meshes {
		m.arena.Add(mesh)
	}
	return m
}

// Append adds meshes and materials. Mesh material IDs are relative to the
// given materials and are shifted past the existing ones. The model must be
// rebuilt afterwards.
func (m *Model) Append(meshes []Mesh, materials []*material.Material) []MeshID {
	base := len(m.Materials)
	m.Materials = append(m.Materials, materials...)
	ids := make([]MeshID, 0, len(meshes))
	for _, mesh := range meshes {
		mesh.MaterialID += base
		ids = append(ids, m.arena.Add(mesh))
	}
	m.built = false
	return ids
}

// Build validates material references, lays meshes out in the shared buffers
// and buckets them by material.
func (m *Model) Build() error {
	batches, err := BuildBatches(&m.arena, m.arena.IDs(), m.Materials)
	if err != nil {
		return fmt.Errorf("model %s: %w", m.Name, err)
	}

	vertexOffset, indexOffset := 0, 0
	m.bounds = EmptyBounds()
	for i := 0; i < m.arena.Len(); i++ {
		mesh := m.arena.Get(MeshID(i))
		if mesh.Transform == (mgl32.Mat4{}) {
			mesh.Transform = mgl32.Ident4()
		}
		mesh.VertexOffset = vertexOffset
		mesh.IndexOffset = indexOffset
		vertexOffset += len(mesh.Vertices)
		indexOffset += len(mesh.Indices)
		m.bounds.Union(mesh.WorldBounds())
	}

	m.batches = batches
	m.built = true
	return nil
}

// Truncate drops meshes and materials appended after the model held meshes
// meshes and materials materials. The model must be rebuilt afterwards; the
// uploaded geometry is kept.
// Truncate keeps the first meshes meshes and materials materials, undoing
// later Appends. The model needs a Rebuild afterwards.
func (m *Model) Truncate(meshes, materials int) {
	m.arena.Truncate(meshes)
	if materials >= 0 && materials < len(m.Materials) {
		clear(m.Materials[materials:])
		m.Materials = m.Materials[:materials]
	}
	m.built = false
}

// Rebuild redoes Build after meshes or materials changed.
func (m *Model) Rebuild() error {
	m.built = false
	return m.Build()
}

// Built reports whether the batching index is current.
func (m *Model) Built() bool {
	return m.built
}

// Batches returns the material buckets computed by Build.
func (m *Model) Batches() []Bucket {
	return m.batches.Buckets
}

// Mesh returns a mesh by ID.
func (m *Model) Mesh(id MeshID) *Mesh {
	return m.arena.Get(id)
}

// MeshCount returns the number of meshes.
func (m *Model) MeshCount() int {
	return m.arena.Len()
}

// Material returns the material of a bucket.
func (m *Model) Material(b Bucket) *material.Material {
	return m.Materials[b.Material]
}

// Bounds returns the world-space box of all meshes, valid after Build.
func (m *Model) Bounds() Bounds {
	return m.bounds
}

// Geometry returns the uploaded geometry, or the null handle.
func (m *Model) Geometry() gpu.Geometry {
	return m.geometry
}

// Upload creates the shared geometry on dev, replacing a previous upload.
func (m *Model) Upload(dev gpu.Resources) error {
	if !m.built {
		return fmt.Errorf("model %s: %w", m.Name, ErrNotBuilt)
	}

	var vertices []gpu.Vertex
	var indices []uint32
	for i := 0; i < m.arena.Len(); i++ {
		mesh := m.arena.Get(MeshID(i))
		vertices = append(vertices, mesh.Vertices...)
		indices = append(indices, mesh.Indices...)
	}
	if len(vertices) == 0 {
		return fmt.Errorf("model %s: no geometry", m.Name)
	}

	g, err := dev.CreateGeometry(vertices, indices)
	if err != nil {
		return fmt.Errorf("model %s: %w", m.Name, err)
	}
	m.Release(dev)
	m.geometry = g
	m.uploaded = len(vertices)
	return nil
}

// Release deletes the uploaded geometry.
func (m *Model) Release(dev gpu.Resources) {
	if m.geometry != gpu.NullGeometry {
		dev.DeleteGeometry(m.geometry)
		m.geometry = gpu.NullGeometry
		m.uploaded = 0
	}
}
