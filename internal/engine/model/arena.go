package model

// MeshID is a stable index of a mesh inside an Arena.
type MeshID int

// Arena stores meshes by value. IDs stay valid while the arena grows.
type Arena struct {
	meshes []Mesh
}

// Add stores m and returns its ID.
func (a *Arena) Add(m Mesh) MeshID {
	a.meshes = append(a.meshes, m)
	return MeshID(len(a.meshes) - 1)
}

// Get returns the mesh for id, or nil when id is out of range.
// The pointer is only valid until the next Add.
func (a *Arena) Get(id MeshID) *Mesh {
	if id < 0 || int(id) >= len(a.meshes) {
		return nil
	}
	return &a.meshes[id]
}

// Len returns the number of stored meshes.
func (a *Arena) Len() int {
	return len(a.meshes)
}

// Truncate drops every mesh with an ID of n or more.
func (a *Arena) Truncate(n int) {
	if n >= 0 && n < len(a.meshes) {
		clear(a.meshes[n:])
		a.meshes = a.meshes[:n]
	}
}

// IDs returns every ID in insertion order.
func (a *Arena) IDs() []MeshID {
	ids := make([]MeshID, len(a.meshes))
	for i := range ids {
		ids[i] = MeshID(i)
	}
	return ids
}
