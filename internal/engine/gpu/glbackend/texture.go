package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// CreateTexture uploads RGBA8 pixels. A nil slice allocates uninitialised storage.
func (d *Device) CreateTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpu.NullTexture, fmt.Errorf("create texture: invalid size %dx%d", desc.Width, desc.Height)
	}
	if pixels != nil && len(pixels) != desc.Width*desc.Height*4 {
		return gpu.NullTexture, fmt.Errorf("create texture: expected %d bytes, got %d", desc.Width*desc.Height*4, len(pixels))
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	var ptr = gl.Ptr(nil)
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)

	minFilter := int32(gl.LINEAR)
	if desc.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("create texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return gpu.NullTexture, err
	}
	return gpu.Texture(tex), nil
}

// DeleteTexture implements gpu.Resources.
func (d *Device) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	if id != 0 {
		gl.DeleteTextures(1, &id)
	}
}
