package material

import (
	"testing"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

func TestHashCaseInsensitive(t *testing.T) {
	if Hash("Brick_Diffuse.PNG") != Hash("brick_diffuse.png") {
		t.Error("hash should ignore case")
	}
	if Hash("a") == Hash("b") {
		t.Error("different names should hash differently")
	}
	if Hash("") != 0 {
		t.Error("empty name should hash to 0")
	}
}

func TestNewDefaults(t *testing.T) {
	m := New("stone")
	if m.NameHash != Hash("stone") {
		t.Errorf("NameHash = %d, want %d", m.NameHash, Hash("stone"))
	}
	if m.Illum != 2 {
		t.Errorf("Illum = %d, want 2", m.Illum)
	}
	if m.Shininess != 0 || m.IOR != 0 || m.Dissolve != 0 {
		t.Error("scalar coefficients should default to zero")
	}
	if m.Shader != "" {
		t.Errorf("Shader = %q, want empty", m.Shader)
	}
}

func TestSetTextureRehashes(t *testing.T) {
	m := New("m")
	m.SetTexture(RoleDiffuse, "a.png")
	first := m.Texture(RoleDiffuse).Hash
	m.SetTexture(RoleDiffuse, "b.png")

	ref := m.Texture(RoleDiffuse)
	if ref.Hash == first {
		t.Error("hash not recomputed after path change")
	}
	if ref.Hash != Hash("b.png") {
		t.Errorf("Hash = %d, want %d", ref.Hash, Hash("b.png"))
	}

	m.SetTexture(RoleDiffuse, "")
	if m.HasTexture(RoleDiffuse) || m.Texture(RoleDiffuse).Hash != 0 {
		t.Error("empty path should clear the role")
	}
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name string
		root string
		in   string
		want string
	}{
		{"relative", "res", `textures\brick.png`, "res/textures/brick.png"},
		{"already rooted", "res", "res/brick.png", "res/brick.png"},
		{"absolute", "res", "/data/brick.png", "/data/brick.png"},
		{"no root", "", `a\b.png`, "a/b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("m")
			m.SetTexture(RoleBump, tt.in)
			m.ResolvePaths(tt.root)
			ref := m.Texture(RoleBump)
			if ref.Path != tt.want {
				t.Errorf("Path = %q, want %q", ref.Path, tt.want)
			}
			if ref.Hash != Hash(tt.want) {
				t.Error("hash does not match resolved path")
			}
		})
	}
}

func TestSelectShader(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  string
	}{
		{"diffuse only", []Role{RoleDiffuse}, ShaderLight},
		{"no textures", nil, ShaderLight},
		{"diffuse spec", []Role{RoleDiffuse, RoleSpecular}, ShaderLightSpec},
		{"diffuse alpha", []Role{RoleDiffuse, RoleAlpha}, ShaderLightAlpha},
		{"diffuse alpha spec", []Role{RoleDiffuse, RoleAlpha, RoleSpecular}, ShaderLightAlphaSpec},
		{"normal", []Role{RoleDiffuse, RoleBump}, ShaderNormal},
		{"normal spec", []Role{RoleDiffuse, RoleBump, RoleSpecular}, ShaderNormal},
		{"normal alpha", []Role{RoleDiffuse, RoleBump, RoleAlpha}, ShaderNormalAlpha},
		{"normal alpha spec", []Role{RoleDiffuse, RoleBump, RoleAlpha, RoleSpecular}, ShaderNormalAlphaSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.name)
			for _, r := range tt.roles {
				m.SetTexture(r, r.String()+".png")
			}
			if got := SelectShader(m); got != tt.want {
				t.Errorf("SelectShader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssignShaderKeepsExplicit(t *testing.T) {
	m := New("gizmo")
	m.Shader = "geometrybox_shader"
	m.SetTexture(RoleBump, "n.png")
	AssignShader(m)
	if m.Shader != "geometrybox_shader" {
		t.Errorf("Shader = %q, want explicit name kept", m.Shader)
	}
}

type mapSource map[uint32]gpu.Texture

func (s mapSource) Texture(h uint32) (gpu.Texture, bool) {
	t, ok := s[h]
	return t, ok
}

func TestTextureResolutionIdempotent(t *testing.T) {
	m := New("m")
	m.SetTexture(RoleDiffuse, "d.png")
	src := mapSource{Hash("d.png"): 7}

	a, okA := src.Texture(m.Texture(RoleDiffuse).Hash)
	b, okB := src.Texture(m.Texture(RoleDiffuse).Hash)
	if !okA || !okB || a != b {
		t.Errorf("resolving twice gave %d/%v and %d/%v", a, okA, b, okB)
	}
}
