// Package shaders provides embedded GLSL shader sources.
//
// Sources have no #version line. shader.Build prepends the version, the
// feature defines and Blocks, in that order.
package shaders

import _ "embed"

// Version is the first line of every assembled source.
const Version = "#version 410 core\n"

// Blocks declares the uniform blocks and the Light struct shared by most programs.
//
//go:embed blocks.glsl
var Blocks string

// LitVertexShader transforms lit geometry and projects it into each light's space.
//
//go:embed lit.vert
var LitVertexShader string

// LitFragmentShader shades up to four lights with optional normal, alpha and specular maps.
//
//go:embed lit.frag
var LitFragmentShader string

// DepthVertexShader is the shadow-pass vertex shader.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader writes normalised depth into the colour attachment.
//
//go:embed depth.frag
var DepthFragmentShader string

// FullscreenVertexShader emits a viewport-covering triangle.
//
//go:embed fullscreen.vert
var FullscreenVertexShader string

// TextureFragmentShader copies sourceTexture.
//
//go:embed texture.frag
var TextureFragmentShader string

// BlurVertexShader computes 9 tap coordinates along one axis. Define HORIZONTAL for x.
//
//go:embed blur.vert
var BlurVertexShader string

// BlurFragmentShader applies the 9-tap Gaussian weights.
//
//go:embed blur.frag
var BlurFragmentShader string

// HelperVertexShader draws unlit debug geometry.
//
//go:embed helper.vert
var HelperVertexShader string

// HelperFragmentShader outputs the material colour.
//
//go:embed helper.frag
var HelperFragmentShader string
