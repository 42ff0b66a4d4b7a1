package shader

import (
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// Registry maps shader names to built shaders. Names are never overwritten.
type Registry struct {
	log     *zap.Logger
	shaders map[string]*Shader
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		log:     logger.Named("shader"),
		shaders: make(map[string]*Shader),
	}
}

// Add registers s under name. It returns false for an empty name, a nil
// shader or a name that is already taken; the existing entry is kept.
func (r *Registry) Add(name string, s *Shader) bool {
	if name == "" || s == nil {
		return false
	}
	if _, ok := r.shaders[name]; ok {
		r.log.Debug("shader already registered", zap.String("name", name))
		return false
	}
	r.shaders[name] = s
	r.order = append(r.order, name)
	return true
}

// Get returns the shader registered under name, or nil.
func (r *Registry) Get(name string) *Shader {
	return r.shaders[name]
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered shaders.
func (r *Registry) Len() int {
	return len(r.shaders)
}

// CleanupBoundResources unbinds the texture slots of every registered shader.
func (r *Registry) CleanupBoundResources() {
	for _, name := range r.order {
		r.shaders[name].CleanupTextures()
	}
}

// Close releases every shader, last registered first.
func (r *Registry) Close() {
	for i := len(r.order) - 1; i >= 0; i-- {
		r.shaders[r.order[i]].Close()
	}
	r.shaders = make(map[string]*Shader)
	r.order = nil
}

// Load builds the named variants and registers them. With no names every
// variant in Variants is loaded. Failures are reported to n and logged; the
// number of shaders added is returned.
func Load(dev gpu.Device, buffers *cbuffer.Cache, reg *Registry, n notify.Notifier, names ...string) int {
	if len(names) == 0 {
		names = SortedVariantNames()
	}

	added := 0
	for _, name := range names {
		if reg.Get(name) != nil {
			continue
		}
		desc, ok := Lookup(name)
		if !ok {
			reg.log.Warn("unknown shader variant", zap.String("name", name))
			notify.Failure(n, "shader", name, errUnknownVariant)
			continue
		}
		s, err := Build(dev, buffers, desc)
		if err != nil {
			reg.log.Error("shader build failed", zap.String("name", name), zap.Error(err))
			notify.Failure(n, "shader", name, err)
			continue
		}
		if reg.Add(name, s) {
			added++
		}
	}
	reg.log.Info("shaders loaded", zap.Int("count", added), zap.Int("requested", len(names)))
	return added
}
