package material

// Shader names of the lit variants, in selection priority order.
const (
	ShaderNormalAlphaSpec = "normal_alpha_spec_map_shader"
	ShaderNormalAlpha     = "normal_alpha_map_shader"
	ShaderNormal          = "normal_mapping_shader"
	ShaderLightAlphaSpec  = "light_alpha_spec_map_shader"
	ShaderLightAlpha      = "light_alpha_map_shader"
	ShaderLightSpec       = "light_spec_map_shader"
	ShaderLight           = "light_shader"
)

// SelectShader picks the lit shader variant for the textures a material carries.
// Normal mapping wins over alpha, alpha over specular.
func SelectShader(m *Material) string {
	normal := m.HasTexture(RoleBump)
	alpha := m.HasTexture(RoleAlpha)
	spec := m.HasTexture(RoleSpecular)

	switch {
	case normal && alpha && spec:
		return ShaderNormalAlphaSpec
	case normal && alpha:
		return ShaderNormalAlpha
	case normal:
		return ShaderNormal
	case alpha && spec:
		return ShaderLightAlphaSpec
	case alpha:
		return ShaderLightAlpha
	case spec:
		return ShaderLightSpec
	default:
		return ShaderLight
	}
}

// AssignShader sets m.Shader from its textures unless a shader was chosen explicitly.
func AssignShader(m *Material) {
	if m.Shader == "" {
		m.Shader = SelectShader(m)
	}
}
