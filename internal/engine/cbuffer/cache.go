// Package cbuffer caches named constant buffers for one device.
//
// A buffer is created on the first GetOrCreate for its name and shared by every
// later caller that asks for the same name.
package cbuffer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/logger"
)

var (
	// ErrEmptyName is returned for an empty buffer name.
	ErrEmptyName = errors.New("cbuffer: empty name")
	// ErrInvalidDesc is returned for descriptors that cannot back a constant buffer.
	ErrInvalidDesc = errors.New("cbuffer: invalid descriptor")
)

type entry struct {
	buf  gpu.Buffer
	desc gpu.BufferDesc
}

// Cache maps buffer names to device buffers. It is not safe for concurrent use.
type Cache struct {
	dev     gpu.Resources
	log     *zap.Logger
	entries map[string]entry
	order   []string
}

// New creates an empty cache for dev.
func New(dev gpu.Resources) *Cache {
	return &Cache{
		dev:     dev,
		log:     logger.Named("cbuffer"),
		entries: make(map[string]entry),
	}
}

// GetOrCreate returns the buffer registered under name, creating it from desc
// if none exists. For an existing name desc is ignored; a differing descriptor
// is logged as a warning.
func (c *Cache) GetOrCreate(name string, desc gpu.BufferDesc) (gpu.Buffer, error) {
	if name == "" {
		return gpu.NullBuffer, ErrEmptyName
	}
	if e, ok := c.entries[name]; ok {
		if e.desc != desc {
			c.log.Warn("constant buffer requested with a different descriptor",
				zap.String("name", name),
				zap.Int("size", e.desc.Size),
				zap.Int("requested_size", desc.Size),
			)
		}
		return e.buf, nil
	}

	if desc.Bind != gpu.BindConstant {
		return gpu.NullBuffer, fmt.Errorf("%w: %s is not a constant buffer", ErrInvalidDesc, name)
	}
	if err := desc.Validate(); err != nil {
		return gpu.NullBuffer, fmt.Errorf("%w: %s: %v", ErrInvalidDesc, name, err)
	}

	buf, err := c.dev.CreateBuffer(desc)
	if err != nil {
		return gpu.NullBuffer, fmt.Errorf("create constant buffer %s: %w", name, err)
	}

	c.entries[name] = entry{buf: buf, desc: desc}
	c.order = append(c.order, name)
	c.log.Debug("constant buffer created", zap.String("name", name), zap.Int("size", desc.Size))
	return buf, nil
}

// Get returns the buffer registered under name.
func (c *Cache) Get(name string) (gpu.Buffer, bool) {
	e, ok := c.entries[name]
	return e.buf, ok
}

// Len returns the number of cached buffers.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Close releases every buffer once, newest first. The cache is empty afterwards.
func (c *Cache) Close() {
	var arena gpu.Arena
	for _, name := range c.order {
		arena.TrackBuffer(c.dev, c.entries[name].buf)
	}
	arena.Release()

	c.entries = make(map[string]entry)
	c.order = nil
}
