package model

import (
	"errors"
	"fmt"

	"github.com/Faultbox/forwardfx/internal/engine/material"
)

// ErrMaterialID is returned when a mesh references a material that does not exist.
var ErrMaterialID = errors.New("mesh material id out of range")

// Bucket groups the meshes that share a material.
type Bucket struct {
	MaterialHash uint32
	Material     int // index of the first material seen with this hash
	Meshes       []MeshID
}

// Batches are buckets in the order their materials were first seen.
type Batches struct {
	Buckets []Bucket
	index   map[uint32]int
}

// BuildBatches buckets ids by the name hash of each mesh's material.
// Materials with equal names share a bucket.
func BuildBatches(arena *Arena, ids []MeshID, materials []*material.Material) (Batches, error) {
	b := Batches{index: make(map[uint32]int)}
	for _, id := range ids {
		if err := b.add(arena, id, materials); err != nil {
			return Batches{}, err
		}
	}
	return b, nil
}

func (b *Batches) add(arena *Arena, id MeshID, materials []*material.Material) error {
	mesh := arena.Get(id)
	if mesh == nil {
		return fmt.Errorf("mesh %d: not in arena", id)
	}
	if mesh.MaterialID < 0 || mesh.MaterialID >= len(materials) || materials[mesh.MaterialID] == nil {
		return fmt.Errorf("mesh %d (%s): %w: %d of %d", id, mesh.Name, ErrMaterialID, mesh.MaterialID, len(materials))
	}

	h := materials[mesh.MaterialID].NameHash
	i, ok := b.index[h]
	if !ok {
		i = len(b.Buckets)
		b.index[h] = i
		b.Buckets = append(b.Buckets, Bucket{MaterialHash: h, Material: mesh.MaterialID})
	}
	b.Buckets[i].Meshes = append(b.Buckets[i].Meshes, id)
	return nil
}

// Len returns the number of buckets.
func (b Batches) Len() int {
	return len(b.Buckets)
}

// MeshCount returns the number of meshes across all buckets.
func (b Batches) MeshCount() int {
	n := 0
	for _, bk := range b.Buckets {
		n += len(bk.Meshes)
	}
	return n
}

// AssignShaders picks a shader for every material that has none.
func AssignShaders(materials []*material.Material) {
	for _, m := range materials {
		if m != nil {
			material.AssignShader(m)
		}
	}
}

// ResolveTexturePaths rewrites every material's texture paths against root.
func ResolveTexturePaths(materials []*material.Material, root string) {
	for _, m := range materials {
		if m != nil {
			m.ResolvePaths(root)
		}
	}
}
