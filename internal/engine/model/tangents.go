package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ComputeTangents fills per-vertex tangents from UV derivatives for normal mapping.
// Triangles with a degenerate UV area are skipped.
func ComputeTangents(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Tangent = mgl32.Vec3{}
	}

	accum := func(i0, i1, i2 uint32) {
		if int(i0) >= len(m.Vertices) || int(i1) >= len(m.Vertices) || int(i2) >= len(m.Vertices) {
			return
		}
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		du1, dv1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		du2, dv2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			return
		}
		r := 1 / denom
		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))

		m.Vertices[i0].Tangent = m.Vertices[i0].Tangent.Add(t)
		m.Vertices[i1].Tangent = m.Vertices[i1].Tangent.Add(t)
		m.Vertices[i2].Tangent = m.Vertices[i2].Tangent.Add(t)
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		accum(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
	}

	// Gram-Schmidt against the normal.
	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := m.Vertices[i].Tangent
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.LenSqr() < 1e-8 {
			if abs(n[0]) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
			}
		}
		m.Vertices[i].Tangent = t.Normalize()
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
