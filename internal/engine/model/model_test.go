package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/gpu/soft"
	"github.com/Faultbox/forwardfx/internal/engine/material"
)

func materials(names ...string) []*material.Material {
	out := make([]*material.Material, len(names))
	for i, n := range names {
		out[i] = material.New(n)
	}
	return out
}

func TestBuildBatches(t *testing.T) {
	tests := []struct {
		name     string
		meshMats []int
		mats     []string
		buckets  int
	}{
		{"one material", []int{0, 0, 0}, []string{"a"}, 1},
		{"three materials", []int{0, 1, 2, 1, 0}, []string{"a", "b", "c"}, 3},
		{"unused material", []int{1, 1}, []string{"a", "b"}, 1},
		{"same name twice", []int{0, 1}, []string{"stone", "Stone"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var arena Arena
			var ids []MeshID
			for i, mid := range tt.meshMats {
				ids = append(ids, arena.Add(Box(fmt.Sprint(i), mgl32.Vec3{1, 1, 1}, mid)))
			}

			b, err := BuildBatches(&arena, ids, materials(tt.mats...))
			require.NoError(t, err)
			assert.Equal(t, tt.buckets, b.Len())

			seen := map[MeshID]bool{}
			for _, bk := range b.Buckets {
				for _, id := range bk.Meshes {
					assert.False(t, seen[id], "mesh %d in two buckets", id)
					seen[id] = true
				}
			}
			assert.Len(t, seen, len(tt.meshMats))
			assert.Equal(t, len(tt.meshMats), b.MeshCount())
		})
	}
}

func TestBuildBatchesFirstSeenOrder(t *testing.T) {
	var arena Arena
	ids := []MeshID{
		arena.Add(Mesh{MaterialID: 2}),
		arena.Add(Mesh{MaterialID: 0}),
		arena.Add(Mesh{MaterialID: 2}),
	}
	mats := materials("a", "b", "c")
	b, err := BuildBatches(&arena, ids, mats)
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	assert.Equal(t, mats[2].NameHash, b.Buckets[0].MaterialHash)
	assert.Equal(t, []MeshID{0, 2}, b.Buckets[0].Meshes)
	assert.Equal(t, []MeshID{1}, b.Buckets[1].Meshes)
}

func TestBuildInvalidMaterialID(t *testing.T) {
	for _, id := range []int{-1, 2, 10} {
		m := New("bad", []Mesh{Box("box", mgl32.Vec3{1, 1, 1}, id)}, materials("a", "b"))
		err := m.Build()
		assert.True(t, errors.Is(err, ErrMaterialID), "material id %d: %v", id, err)
		assert.False(t, m.Built())
	}
}

func TestModelOffsetsAndUpload(t *testing.T) {
	dev := soft.New(4, 4)
	box := Box("box", mgl32.Vec3{2, 2, 2}, 0)
	plane := Plane("floor", 10, 10, 1, 1)
	m := New("scene", []Mesh{box, plane}, materials("box", "floor"))

	assert.Error(t, m.Upload(dev), "upload before build")
	require.NoError(t, m.Build())

	p := m.Mesh(1)
	assert.Equal(t, 24, p.VertexOffset)
	assert.Equal(t, 36, p.IndexOffset)
	assert.Equal(t, 6, p.IndexCount())

	require.NoError(t, m.Upload(dev))
	first := m.Geometry()
	assert.NotEqual(t, gpu.NullGeometry, first)

	require.NoError(t, m.Upload(dev))
	assert.NotEqual(t, first, m.Geometry())
	assert.Equal(t, 1, dev.Live(), "previous geometry released")

	m.Release(dev)
	assert.Equal(t, 0, dev.Live())
}

func TestModelAppend(t *testing.T) {
	m := New("loose", nil, nil)
	ids := m.Append([]Mesh{Box("a", mgl32.Vec3{1, 1, 1}, 0)}, materials("red"))
	assert.Equal(t, []MeshID{0}, ids)

	ids = m.Append([]Mesh{Box("b", mgl32.Vec3{1, 1, 1}, 0), Box("c", mgl32.Vec3{1, 1, 1}, 1)}, materials("green", "blue"))
	assert.Equal(t, []MeshID{1, 2}, ids)
	assert.False(t, m.Built())

	require.NoError(t, m.Rebuild())
	assert.Equal(t, 1, m.Mesh(1).MaterialID)
	assert.Equal(t, 2, m.Mesh(2).MaterialID)
	assert.Len(t, m.Batches(), 3)
	assert.Equal(t, "blue", m.Material(m.Batches()[2]).Name)
}

func TestModelTruncate(t *testing.T) {
	m := New("loose", nil, nil)
	m.Append([]Mesh{Box("a", mgl32.Vec3{1, 1, 1}, 0)}, materials("red"))
	require.NoError(t, m.Rebuild())

	m.Append([]Mesh{Box("b", mgl32.Vec3{2, 2, 2}, 0)}, materials("green"))
	m.Truncate(1, 1)
	assert.False(t, m.Built())
	assert.Equal(t, 1, m.MeshCount())
	assert.Len(t, m.Materials, 1)
	assert.Nil(t, m.Mesh(1))

	require.NoError(t, m.Rebuild())
	require.Len(t, m.Batches(), 1)
	assert.Equal(t, "red", m.Material(m.Batches()[0]).Name)
	assert.Equal(t, 36, m.Mesh(0).IndexCount())
}

func TestModelUploadFailureKeepsGeometry(t *testing.T) {
	dev := soft.New(1, 1)
	m := New("crate", []Mesh{Box("a", mgl32.Vec3{1, 1, 1}, 0)}, materials("red"))
	require.NoError(t, m.Build())
	require.NoError(t, m.Upload(dev))
	g := m.Geometry()

	dev.FailGeometry = true
	assert.Error(t, m.Upload(dev))
	assert.Equal(t, g, m.Geometry())
	_, indices, ok := dev.GeometrySize(g)
	require.True(t, ok)
	assert.Equal(t, 36, indices)
}

func TestModelBounds(t *testing.T) {
	box := Box("box", mgl32.Vec3{2, 2, 2}, 0)
	box.Transform = mgl32.Translate3D(10, 0, 0)
	m := New("b", []Mesh{box}, materials("a"))
	require.NoError(t, m.Build())

	b := m.Bounds()
	assert.InDelta(t, 9, b.Min[0], 1e-5)
	assert.InDelta(t, 11, b.Max[0], 1e-5)
	assert.InDelta(t, 10, b.Center()[0], 1e-5)
}

func TestBuildDefaultsTransform(t *testing.T) {
	m := New("m", []Mesh{{Vertices: []gpu.Vertex{{}}, Indices: []uint32{0, 0, 0}}}, materials("a"))
	require.NoError(t, m.Build())
	assert.Equal(t, mgl32.Ident4(), m.Mesh(0).Transform)
}

func TestAssignShaders(t *testing.T) {
	plain := material.New("plain")
	plain.SetTexture(material.RoleDiffuse, "d.png")
	bumpy := material.New("bumpy")
	bumpy.SetTexture(material.RoleDiffuse, "d.png")
	bumpy.SetTexture(material.RoleBump, "n.png")

	AssignShaders([]*material.Material{plain, bumpy, nil})
	assert.Equal(t, material.ShaderLight, plain.Shader)
	assert.Equal(t, material.ShaderNormal, bumpy.Shader)
}

func TestResolveTexturePaths(t *testing.T) {
	m := material.New("m")
	m.SetTexture(material.RoleDiffuse, `tex\d.png`)
	ResolveTexturePaths([]*material.Material{m}, "res")
	assert.Equal(t, "res/tex/d.png", m.Texture(material.RoleDiffuse).Path)
}
