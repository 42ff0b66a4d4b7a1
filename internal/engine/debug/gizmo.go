package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/model"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
)

// GizmoMaterialName names the material shared by every light gizmo.
const GizmoMaterialName = "light_meshes_material"

// GizmoMaterial returns the unlit material light gizmos are drawn with.
func GizmoMaterial() *material.Material {
	m := material.New(GizmoMaterialName)
	m.Diffuse = mgl32.Vec3{1, 1, 0.6}
	m.Emission = mgl32.Vec3{1, 1, 0.6}
	m.Shader = shader.NameHelper
	return m
}

// LightGizmos returns a small box at every positional light. Directional
// lights have no position and get no gizmo. The boxes use materialID.
func LightGizmos(lights []*lighting.Light, size float32, materialID int) []model.Mesh {
	var meshes []model.Mesh
	for _, l := range lights {
		if l == nil || l.Position()[3] == 0 {
			continue
		}
		mesh := model.Box("light_gizmo", mgl32.Vec3{size, size, size}, materialID)
		mesh.Transform = mgl32.Translate3D(l.Position3().Elem())
		meshes = append(meshes, mesh)
	}
	return meshes
}
