// Package material describes surface appearance and picks the shader variant that draws it.
package material

import (
	"hash/crc32"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// Hash returns the lookup key for a material, texture or render target name.
// Names are compared case-insensitively.
func Hash(name string) uint32 {
	if name == "" {
		return 0
	}
	return crc32.ChecksumIEEE([]byte(strings.ToLower(name)))
}

// Role identifies a texture slot of a material.
type Role int

const (
	RoleAmbient Role = iota
	RoleDiffuse
	RoleSpecular
	RoleSpecularHighlight
	RoleBump
	RoleDisplacement
	RoleAlpha

	roleCount
)

var roleNames = [roleCount]string{
	"ambient", "diffuse", "specular", "specular_highlight", "bump", "displacement", "alpha",
}

func (r Role) String() string {
	if r < 0 || r >= roleCount {
		return "unknown"
	}
	return roleNames[r]
}

// TexRef is a texture path and the hash it is looked up by.
type TexRef struct {
	Path string
	Hash uint32
}

// Set reports whether the reference names a texture.
func (t TexRef) Set() bool {
	return t.Path != ""
}

// TextureSource resolves texture hashes to device textures.
type TextureSource interface {
	Texture(hash uint32) (gpu.Texture, bool)
}

// Material holds lighting coefficients, texture references and the shader that draws it.
type Material struct {
	Name     string
	NameHash uint32

	Ambient       mgl32.Vec3
	Diffuse       mgl32.Vec3
	Specular      mgl32.Vec3
	Transmittance mgl32.Vec3
	Emission      mgl32.Vec3
	Shininess     float32
	IOR           float32 // index of refraction
	Dissolve      float32 // 1 opaque, 0 fully transparent
	Illum         int32   // illumination model

	// Shader is the registered shader name. Empty until assigned.
	Shader string

	textures [roleCount]TexRef
}

// New creates a material with default coefficients.
func New(name string) *Material {
	m := &Material{Illum: 2}
	m.SetName(name)
	return m
}

// SetName renames the material and rehashes it.
func (m *Material) SetName(name string) {
	m.Name = name
	m.NameHash = Hash(name)
}

// SetTexture sets the texture path for a role. An empty path clears the role.
func (m *Material) SetTexture(r Role, p string) {
	if r < 0 || r >= roleCount {
		return
	}
	m.textures[r] = TexRef{Path: p, Hash: Hash(p)}
}

// Texture returns the reference for a role.
func (m *Material) Texture(r Role) TexRef {
	if r < 0 || r >= roleCount {
		return TexRef{}
	}
	return m.textures[r]
}

// HasTexture reports whether a role has a texture.
func (m *Material) HasTexture(r Role) bool {
	return m.Texture(r).Set()
}

// ResolvePaths normalises backslashes and prefixes relative texture paths with root.
func (m *Material) ResolvePaths(root string) {
	for r := Role(0); r < roleCount; r++ {
		p := m.textures[r].Path
		if p == "" {
			continue
		}
		p = strings.ReplaceAll(p, `\`, "/")
		if root != "" && !path.IsAbs(p) && !strings.HasPrefix(p, root+"/") {
			p = path.Join(root, p)
		}
		m.SetTexture(r, p)
	}
}

// Clone returns a copy of m.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}
