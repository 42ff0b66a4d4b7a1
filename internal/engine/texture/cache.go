package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // register BMP with image.Decode

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// ErrNotFound is returned when a texture file does not exist.
var ErrNotFound = errors.New("texture not found")

type entry struct {
	tex   gpu.Texture
	name  string
	owned bool // created by the cache, released on Close
}

// Cache loads each texture once and resolves it by name hash.
// It is owned by the application and passed to whoever needs it.
type Cache struct {
	dev     gpu.Resources
	log     *zap.Logger
	entries map[uint32]entry
	arena   gpu.Arena
}

// NewCache creates an empty cache for dev.
func NewCache(dev gpu.Resources) *Cache {
	return &Cache{
		dev:     dev,
		log:     logger.Named("texture"),
		entries: make(map[uint32]entry),
	}
}

// Texture implements material.TextureSource.
func (c *Cache) Texture(hash uint32) (gpu.Texture, bool) {
	e, ok := c.entries[hash]
	return e.tex, ok
}

// Len returns the number of known textures, including registered render targets.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Load decodes the file at path and uploads it. Loading the same path again
// returns the first texture.
func (c *Cache) Load(path string) (gpu.Texture, error) {
	h := material.Hash(path)
	if e, ok := c.entries[h]; ok {
		return e.tex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gpu.NullTexture, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return gpu.NullTexture, fmt.Errorf("read texture %s: %w", path, err)
	}

	img, err := Decode(data, path)
	if err != nil {
		return gpu.NullTexture, fmt.Errorf("decode texture %s: %w", path, err)
	}

	tex, err := c.Upload(path, img)
	if err != nil {
		return gpu.NullTexture, err
	}
	c.log.Debug("texture loaded", zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return tex, nil
}

// Upload creates a mipmapped texture from img and caches it under name.
// A name already known, loaded or registered, keeps its texture and that
// texture is returned.
func (c *Cache) Upload(name string, img *image.NRGBA) (gpu.Texture, error) {
	h := material.Hash(name)
	if e, ok := c.entries[h]; ok {
		c.log.Debug("texture already cached", zap.String("name", name), zap.String("cached", e.name))
		return e.tex, nil
	}
	desc := gpu.TextureDesc{Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), Mipmaps: true}
	tex, err := c.dev.CreateTexture(desc, img.Pix)
	if err != nil {
		return gpu.NullTexture, fmt.Errorf("create texture %s: %w", name, err)
	}
	c.arena.TrackTexture(c.dev, tex)
	c.entries[h] = entry{tex: tex, name: name, owned: true}
	return tex, nil
}

// Register makes a texture created elsewhere, such as a render target, resolvable by name.
// It returns false when the name is already taken.
func (c *Cache) Register(name string, tex gpu.Texture) bool {
	h := material.Hash(name)
	if _, ok := c.entries[h]; ok || name == "" {
		return false
	}
	c.entries[h] = entry{tex: tex, name: name}
	return true
}

// Unregister removes a texture added with Register. Owned textures are kept.
func (c *Cache) Unregister(name string) {
	h := material.Hash(name)
	if e, ok := c.entries[h]; ok && !e.owned {
		delete(c.entries, h)
	}
}

// LoadMaterial loads every texture role a material names. Failures are reported
// to n and do not stop the remaining roles; the joined error is returned.
func (c *Cache) LoadMaterial(m *material.Material, n notify.Notifier) error {
	var errs []error
	for _, r := range []material.Role{
		material.RoleAmbient, material.RoleDiffuse, material.RoleSpecular,
		material.RoleBump, material.RoleAlpha,
	} {
		ref := m.Texture(r)
		if !ref.Set() {
			continue
		}
		if _, err := c.Load(ref.Path); err != nil {
			c.log.Warn("texture load failed", zap.String("material", m.Name),
				zap.Stringer("role", r), zap.Error(err))
			notify.Failure(n, "texture", ref.Path, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the textures the cache created.
func (c *Cache) Close() {
	c.arena.Release()
	c.entries = make(map[uint32]entry)
}

// Decode decodes image data, choosing TGA by file extension and
// the registered image formats otherwise.
func Decode(data []byte, path string) (*image.NRGBA, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return DecodeTGA(data)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}
