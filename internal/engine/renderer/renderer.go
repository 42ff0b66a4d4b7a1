// Package renderer draws batched scenes through a gpu.Device.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/model"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// ErrClosed is returned when a closed renderer is used.
var ErrClosed = errors.New("renderer closed")

// Config holds renderer configuration.
type Config struct {
	Width         int
	Height        int
	Lights        int // depth targets, at most shader.NumShadowMaps
	ShadowMapSize int
	Near          float32
	Far           float32
	PostProcess   bool
	ClearColor    [4]float32 // back buffer
	TargetClear   [4]float32 // main target
}

// DefaultConfig returns the settings of the demo scene.
func DefaultConfig() Config {
	return Config{
		Width:         1280,
		Height:        720,
		Lights:        lighting.MaxLights,
		ShadowMapSize: 1024,
		Near:          0.1,
		Far:           1000,
		ClearColor:    [4]float32{0.39, 0.58, 0.92, 1},
		TargetClear:   [4]float32{0, 0, 0, 1},
	}
}

// CameraView is the camera input for one frame.
type CameraView struct {
	Position   mgl32.Vec3
	View       mgl32.Mat4
	Projection mgl32.Mat4 // zero uses the main target's projection
}

// Frame is everything a renderer reads for one frame.
type Frame struct {
	Camera CameraView
	Lights lighting.Snapshot
}

// Stats counts the work done by the last frame.
type Stats struct {
	ShadowDraws    int
	Draws          int
	ShaderBinds    int
	SkippedBuckets int
}

// Renderer draws the meshes and models added to it.
type Renderer interface {
	AddMeshesAndMaterials(meshes []model.Mesh, materials []*material.Material) ([]model.MeshID, error)
	AddModel(m *model.Model) error
	Render(f Frame) error
	Resize(width, height int) error
	Stats() Stats
	Close()
}

// base holds what every renderer needs: the device, the shared caches and
// the scene split into groups that each own one geometry.
type base struct {
	dev      gpu.Device
	buffers  *cbuffer.Cache
	shaders  *shader.Registry
	textures *texture.Cache
	notifier notify.Notifier
	log      *zap.Logger

	loose  *model.Model
	models []*model.Model
	closed bool
}

func newBase(dev gpu.Device, buffers *cbuffer.Cache, shaders *shader.Registry,
	textures *texture.Cache, n notify.Notifier) base {
	if n == nil {
		n = notify.NewLog()
	}
	return base{
		dev:      dev,
		buffers:  buffers,
		shaders:  shaders,
		textures: textures,
		notifier: n,
		log:      logger.Named("renderer"),
		loose:    model.New("loose", nil, nil),
	}
}

// AddMeshesAndMaterials adds meshes that do not belong to a model. Material
// IDs index materials. The meshes are copied into the renderer's own arena
// and bucketed by material; the returned IDs identify them there.
func (b *base) AddMeshesAndMaterials(meshes []model.Mesh, materials []*material.Material) ([]model.MeshID, error) {
	if b.closed {
		return nil, ErrClosed
	}
	for i := range meshes {
		id := meshes[i].MaterialID
		if id < 0 || id >= len(materials) || materials[id] == nil {
			return nil, fmt.Errorf("mesh %s: %w: %d of %d", meshes[i].Name, model.ErrMaterialID, id, len(materials))
		}
	}
	if len(meshes) == 0 {
		return nil, nil
	}

	model.AssignShaders(materials)
	meshCount, materialCount := b.loose.MeshCount(), len(b.loose.Materials)
	ids := b.loose.Append(meshes, materials)
	if err := b.loose.Rebuild(); err != nil {
		b.rollback(meshCount, materialCount)
		return nil, err
	}
	if err := b.loose.Upload(b.dev); err != nil {
		notify.Failure(b.notifier, "geometry", b.loose.Name, err)
		b.rollback(meshCount, materialCount)
		return nil, err
	}

	b.log.Debug("meshes added",
		zap.Int("meshes", len(meshes)),
		zap.Int("buckets", len(b.loose.Batches())))
	return ids, nil
}

// AddModel registers a model, building and uploading it if needed. The
// renderer draws the model but does not own it.
func (b *base) AddModel(m *model.Model) error {
	if b.closed {
		return ErrClosed
	}
	if m == nil {
		return errors.New("add model: nil model")
	}
	if !m.Built() {
		if err := m.Build(); err != nil {
			return err
		}
	}
	if m.Geometry() == gpu.NullGeometry {
		if err := m.Upload(b.dev); err != nil {
			notify.Failure(b.notifier, "geometry", m.Name, err)
			return err
		}
	}
	b.models = append(b.models, m)

	b.log.Info("model added",
		zap.String("name", m.Name),
		zap.Int("meshes", m.MeshCount()),
		zap.Int("buckets", len(m.Batches())))
	return nil
}

// rollback restores the loose model to its previous mesh and material counts
// so batches match the geometry that is still uploaded.
func (b *base) rollback(meshes, materials int) {
	b.loose.Truncate(meshes, materials)
	if meshes == 0 {
		return
	}
	if err := b.loose.Rebuild(); err != nil {
		b.log.Error("loose meshes rollback failed", zap.Error(err))
	}
}

// Loose returns the model holding meshes added with AddMeshesAndMaterials.
func (b *base) Loose() *model.Model {
	return b.loose
}

// groups returns the drawable models, loose meshes first.
func (b *base) groups() []*model.Model {
	out := make([]*model.Model, 0, len(b.models)+1)
	if b.loose.MeshCount() > 0 && b.loose.Geometry() != gpu.NullGeometry {
		out = append(out, b.loose)
	}
	for _, m := range b.models {
		if m.Built() && m.Geometry() != gpu.NullGeometry {
			out = append(out, m)
		}
	}
	return out
}

func (b *base) close() {
	b.loose.Release(b.dev)
	b.models = nil
	b.closed = true
}
