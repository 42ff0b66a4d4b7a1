// Package postprocess applies full-screen effects to a rendered target.
package postprocess

import (
	"github.com/Faultbox/forwardfx/internal/engine/framebuffer"
)

// PostProcess transforms a render target in place.
type PostProcess interface {
	// Apply reads target and writes the processed image back into it.
	Apply(target *framebuffer.RenderTexture) error
	// Resize recreates intermediate targets for a new source resolution.
	Resize(width, height int) error
	// Release frees intermediate targets.
	Release()
}
