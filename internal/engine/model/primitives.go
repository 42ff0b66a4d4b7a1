package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Box returns an axis-aligned box centred on the origin with per-face normals and UVs.
func Box(name string, size mgl32.Vec3, materialID int) Mesh {
	h := size.Mul(0.5)
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	m := Mesh{Name: name, MaterialID: materialID, Transform: mgl32.Ident4()}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			m.Vertices = append(m.Vertices, gpu.Vertex{
				Position: mgl32.Vec3{p[0] * h[0], p[1] * h[1], p[2] * h[2]},
				UV:       mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
				Normal:   f.normal,
				Tangent:  f.u,
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// Plane returns a horizontal quad facing +Y with UVs repeated tile times.
func Plane(name string, width, depth, tile float32, materialID int) Mesh {
	w, d := width/2, depth/2
	n := mgl32.Vec3{0, 1, 0}
	t := mgl32.Vec3{1, 0, 0}
	return Mesh{
		Name: name,
		Vertices: []gpu.Vertex{
			{Position: mgl32.Vec3{-w, 0, d}, UV: mgl32.Vec2{0, tile}, Normal: n, Tangent: t},
			{Position: mgl32.Vec3{w, 0, d}, UV: mgl32.Vec2{tile, tile}, Normal: n, Tangent: t},
			{Position: mgl32.Vec3{w, 0, -d}, UV: mgl32.Vec2{tile, 0}, Normal: n, Tangent: t},
			{Position: mgl32.Vec3{-w, 0, -d}, UV: mgl32.Vec2{0, 0}, Normal: n, Tangent: t},
		},
		Indices:    []uint32{0, 1, 2, 0, 2, 3},
		MaterialID: materialID,
		Transform:  mgl32.Ident4(),
	}
}

// Sphere returns a UV sphere with tangents.
func Sphere(name string, radius float32, segments, rings, materialID int) Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	m := Mesh{Name: name, MaterialID: materialID, Transform: mgl32.Ident4()}
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * math.Pi / float64(rings)
		sinPhi, cosPhi := float32(math.Sin(phi)), float32(math.Cos(phi))
		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2 * math.Pi / float64(segments)
			sinT, cosT := float32(math.Sin(theta)), float32(math.Cos(theta))
			n := mgl32.Vec3{sinPhi * cosT, cosPhi, sinPhi * sinT}
			m.Vertices = append(m.Vertices, gpu.Vertex{
				Position: n.Mul(radius),
				UV:       mgl32.Vec2{float32(seg) / float32(segments), float32(ring) / float32(rings)},
				Normal:   n,
			})
		}
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			cur := uint32(ring*(segments+1) + seg)
			next := cur + uint32(segments+1)
			m.Indices = append(m.Indices, cur, cur+1, next, cur+1, next+1, next)
		}
	}
	ComputeTangents(&m)
	return m
}
