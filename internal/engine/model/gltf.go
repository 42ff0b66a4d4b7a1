package model

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/logger"
)

// Import is the content of a glTF file converted to engine types.
type Import struct {
	Meshes    []Mesh
	Materials []*material.Material

	// Images holds textures stored inside the file, keyed by the texture
	// path the materials reference. They must be uploaded by the caller.
	Images map[string]*image.NRGBA
}

// Model builds a model from the import.
func (im *Import) Model(name string) (*Model, error) {
	m := New(name, im.Meshes, im.Materials)
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadGLTF reads a .gltf or .glb file. Every mesh instance placed by the scene
// graph becomes one Mesh with its world transform baked into Transform.
// Materials keep base colour and normal textures; metallic-roughness is
// approximated with Blinn-Phong coefficients.
func LoadGLTF(path string) (*Import, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	l := gltfLoader{
		log:  logger.Named("model"),
		doc:  doc,
		path: path,
		dir:  filepath.Dir(path),
		out:  &Import{Images: make(map[string]*image.NRGBA)},
	}
	l.textures()
	l.materials()
	l.meshes()
	l.nodes()

	if len(l.out.Meshes) == 0 {
		return nil, fmt.Errorf("gltf %q: no triangle meshes", path)
	}
	l.log.Info("glTF loaded",
		zap.String("path", path),
		zap.Int("meshes", len(l.out.Meshes)),
		zap.Int("materials", len(l.out.Materials)),
		zap.Int("embedded_images", len(l.out.Images)),
	)
	return l.out, nil
}

type gltfLoader struct {
	log  *zap.Logger
	doc  *gltf.Document
	path string
	dir  string
	out  *Import

	texPaths   []string // per glTF texture
	prims      [][]Mesh // per glTF mesh
	defaultMat int
}

func (l *gltfLoader) textures() {
	l.texPaths = make([]string, len(l.doc.Textures))
	for i, t := range l.doc.Textures {
		if t.Source == nil || *t.Source >= len(l.doc.Images) {
			continue
		}
		img := l.doc.Images[*t.Source]

		switch {
		case img.BufferView != nil:
			raw, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*img.BufferView])
			if err != nil {
				l.log.Warn("gltf image buffer view", zap.Int("image", *t.Source), zap.Error(err))
				continue
			}
			l.embed(i, *t.Source, raw, img.MimeType)
		case img.IsEmbeddedResource():
			raw, err := img.MarshalData()
			if err != nil {
				l.log.Warn("gltf image data uri", zap.Int("image", *t.Source), zap.Error(err))
				continue
			}
			l.embed(i, *t.Source, raw, img.MimeType)
		case img.URI != "":
			l.texPaths[i] = filepath.ToSlash(filepath.Join(l.dir, img.URI))
		}
	}
}

func (l *gltfLoader) embed(tex, source int, raw []byte, mime string) {
	name := fmt.Sprintf("%s#image%d", filepath.ToSlash(l.path), source)
	if mime == "image/tga" {
		name += ".tga"
	}
	decoded, err := texture.Decode(raw, name)
	if err != nil {
		l.log.Warn("gltf image decode", zap.Int("image", source), zap.Error(err))
		return
	}
	l.out.Images[name] = decoded
	l.texPaths[tex] = name
}

func (l *gltfLoader) texPath(idx int) string {
	if idx < 0 || idx >= len(l.texPaths) {
		return ""
	}
	return l.texPaths[idx]
}

func (l *gltfLoader) materials() {
	for i, gm := range l.doc.Materials {
		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("%s#material%d", filepath.Base(l.path), i)
		}
		m := material.New(name)
		m.Diffuse = mgl32.Vec3{1, 1, 1}
		m.Dissolve = 1
		m.Shininess = 32

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			m.Diffuse = mgl32.Vec3{float32(cf[0]), float32(cf[1]), float32(cf[2])}
			m.Dissolve = float32(cf[3])
			if pbr.BaseColorTexture != nil {
				m.SetTexture(material.RoleDiffuse, l.texPath(pbr.BaseColorTexture.Index))
			}
			roughness := float32(pbr.RoughnessFactorOrDefault())
			metallic := float32(pbr.MetallicFactorOrDefault())
			m.Shininess = (1-roughness)*(1-roughness)*128 + 1
			s := 0.2 + metallic*0.7
			m.Specular = mgl32.Vec3{s, s, s}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			m.SetTexture(material.RoleBump, l.texPath(*gm.NormalTexture.Index))
		}
		e := gm.EmissiveFactor
		m.Emission = mgl32.Vec3{float32(e[0]), float32(e[1]), float32(e[2])}
		m.Ambient = m.Diffuse

		l.out.Materials = append(l.out.Materials, m)
	}
	l.defaultMat = -1
}

// fallbackMaterial returns the index of a plain white material for primitives without one.
func (l *gltfLoader) fallbackMaterial() int {
	if l.defaultMat < 0 {
		m := material.New(filepath.Base(l.path) + "#default")
		m.Diffuse = mgl32.Vec3{0.8, 0.8, 0.8}
		m.Ambient = m.Diffuse
		m.Dissolve = 1
		l.out.Materials = append(l.out.Materials, m)
		l.defaultMat = len(l.out.Materials) - 1
	}
	return l.defaultMat
}

func (l *gltfLoader) meshes() {
	l.prims = make([][]Mesh, len(l.doc.Meshes))
	for mi, gm := range l.doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				l.log.Debug("gltf primitive skipped", zap.Int("mesh", mi), zap.Int("primitive", pi),
					zap.String("reason", "not a triangle list"))
				continue
			}
			mesh, err := l.primitive(gm.Name, pi, prim)
			if err != nil {
				l.log.Warn("gltf primitive", zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
				continue
			}
			l.prims[mi] = append(l.prims[mi], mesh)
		}
	}
}

func (l *gltfLoader) primitive(meshName string, idx int, prim *gltf.Primitive) (Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, idx)
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return Mesh{}, fmt.Errorf("%s: no POSITION attribute", name)
	}
	positions, err := modeler.ReadPosition(l.doc, l.doc.Accessors[posIdx], nil)
	if err != nil {
		return Mesh{}, fmt.Errorf("%s positions: %w", name, err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var tangents [][4]float32
	if i, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(l.doc, l.doc.Accessors[i], nil)
	}
	if i, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(l.doc, l.doc.Accessors[i], nil)
	}
	if i, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, _ = modeler.ReadTangent(l.doc, l.doc.Accessors[i], nil)
	}

	mesh := Mesh{Name: name, Transform: mgl32.Ident4()}
	mesh.Vertices = make([]gpu.Vertex, len(positions))
	for i, p := range positions {
		v := gpu.Vertex{Position: p, Normal: mgl32.Vec3{0, 1, 0}}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		if i < len(tangents) {
			v.Tangent = mgl32.Vec3{tangents[i][0], tangents[i][1], tangents[i][2]}
		}
		mesh.Vertices[i] = v
	}

	if prim.Indices != nil {
		mesh.Indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return Mesh{}, fmt.Errorf("%s indices: %w", name, err)
		}
	} else {
		mesh.Indices = make([]uint32, len(positions))
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}
	if len(mesh.Indices) == 0 {
		return Mesh{}, fmt.Errorf("%s: no triangles", name)
	}
	if len(tangents) < len(positions) {
		ComputeTangents(&mesh)
	}

	if prim.Material != nil && *prim.Material < len(l.out.Materials) {
		mesh.MaterialID = *prim.Material
	} else {
		mesh.MaterialID = l.fallbackMaterial()
	}
	return mesh, nil
}

// nodes places mesh instances. Files without nodes get every mesh once at the origin.
func (l *gltfLoader) nodes() {
	if len(l.doc.Nodes) == 0 {
		for _, prims := range l.prims {
			l.out.Meshes = append(l.out.Meshes, prims...)
		}
		return
	}

	var roots []int
	if l.doc.Scene != nil && *l.doc.Scene < len(l.doc.Scenes) {
		roots = l.doc.Scenes[*l.doc.Scene].Nodes
	} else {
		hasParent := make([]bool, len(l.doc.Nodes))
		for _, n := range l.doc.Nodes {
			for _, c := range n.Children {
				if c < len(hasParent) {
					hasParent[c] = true
				}
			}
		}
		for i := range l.doc.Nodes {
			if !hasParent[i] {
				roots = append(roots, i)
			}
		}
	}

	for _, r := range roots {
		l.visit(r, mgl32.Ident4(), 0)
	}
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

func (l *gltfLoader) visit(idx int, parent mgl32.Mat4, depth int) {
	if idx < 0 || idx >= len(l.doc.Nodes) || depth > maxNodeDepth {
		return
	}
	n := l.doc.Nodes[idx]
	world := parent.Mul4(localMatrix(n))

	if n.Mesh != nil && *n.Mesh < len(l.prims) {
		for _, p := range l.prims[*n.Mesh] {
			p.Transform = world
			l.out.Meshes = append(l.out.Meshes, p)
		}
	}
	for _, c := range n.Children {
		l.visit(c, world, depth+1)
	}
}

func localMatrix(n *gltf.Node) mgl32.Mat4 {
	mat := n.MatrixOrDefault()
	if mat != gltf.DefaultMatrix {
		var m mgl32.Mat4
		for i, f := range mat {
			m[i] = float32(f)
		}
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // x, y, z, w
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}
