package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/debug"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/material"
	"github.com/Faultbox/forwardfx/internal/engine/model"
	"github.com/Faultbox/forwardfx/internal/engine/renderer"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// sceneLoader fills a renderer with either a glTF file or the built-in scene.
type sceneLoader struct {
	r        renderer.Renderer
	dev      gpu.Resources
	textures *texture.Cache
	notifier notify.Notifier
	log      *zap.Logger
	root     string // texture root for the built-in scene
}

func newSceneLoader(r renderer.Renderer, dev gpu.Resources, textures *texture.Cache, n notify.Notifier, root string) *sceneLoader {
	return &sceneLoader{r: r, dev: dev, textures: textures, notifier: n, log: logger.Named("scene"), root: root}
}

// loadGLTF uploads the file's embedded images, loads its external textures
// and adds it as one model. The caller owns the returned model.
func (s *sceneLoader) loadGLTF(file string) (*model.Model, error) {
	im, err := model.LoadGLTF(file)
	if err != nil {
		notify.Failure(s.notifier, "model", file, err)
		return nil, err
	}
	for name, img := range im.Images {
		if _, err := s.textures.Upload(name, img); err != nil {
			notify.Failure(s.notifier, "texture", name, err)
		}
	}

	model.AssignShaders(im.Materials)
	for _, m := range im.Materials {
		// Failures are reported per texture and leave the role unbound.
		_ = s.textures.LoadMaterial(m, s.notifier)
	}

	m, err := im.Model(path.Base(file))
	if err != nil {
		return nil, err
	}
	if err := s.r.AddModel(m); err != nil {
		m.Release(s.dev)
		return nil, err
	}
	return m, nil
}

// Built-in scene texture names, relative to the texture root.
const (
	floorTexture  = "floor.png"
	crateTexture  = "crate.png"
	bricksTexture = "bricks.png"
	bricksNormal  = "bricks_normal.png"
	whiteTexture  = "white.png"
)

// loadBuiltin adds a floor, crates, a sphere and a normal-mapped wall. Each
// texture is read from the texture root when present and generated otherwise.
func (s *sceneLoader) loadBuiltin() error {
	fallbacks := map[string]*image.NRGBA{
		floorTexture:  checker(256, 8, color.NRGBA{200, 200, 200, 255}, color.NRGBA{90, 90, 90, 255}),
		crateTexture:  checker(64, 2, color.NRGBA{190, 140, 80, 255}, color.NRGBA{150, 100, 50, 255}),
		bricksTexture: checker(128, 4, color.NRGBA{170, 70, 50, 255}, color.NRGBA{140, 60, 45, 255}),
		bricksNormal:  imaging.New(4, 4, color.NRGBA{128, 128, 255, 255}),
		whiteTexture:  imaging.New(4, 4, color.NRGBA{255, 255, 255, 255}),
	}
	resolved := make(map[string]string, len(fallbacks))
	for name, img := range fallbacks {
		p, err := s.textureOrFallback(name, img)
		if err != nil {
			notify.Failure(s.notifier, "texture", name, err)
		}
		resolved[name] = p
	}

	floor := material.New("floor")
	floor.Diffuse = mgl32.Vec3{1, 1, 1}
	floor.Specular = mgl32.Vec3{0.1, 0.1, 0.1}
	floor.SetTexture(material.RoleDiffuse, resolved[floorTexture])

	crate := material.New("crate")
	crate.Diffuse = mgl32.Vec3{1, 1, 1}
	crate.Specular = mgl32.Vec3{0.3, 0.3, 0.3}
	crate.Shininess = 16
	crate.SetTexture(material.RoleDiffuse, resolved[crateTexture])

	ball := material.New("ball")
	ball.Diffuse = mgl32.Vec3{0.3, 0.5, 0.9}
	ball.Specular = mgl32.Vec3{1, 1, 1}
	ball.Shininess = 64
	ball.SetTexture(material.RoleDiffuse, resolved[whiteTexture])
	ball.SetTexture(material.RoleSpecular, resolved[whiteTexture])

	wall := material.New("wall")
	wall.Diffuse = mgl32.Vec3{1, 1, 1}
	wall.Specular = mgl32.Vec3{0.2, 0.2, 0.2}
	wall.SetTexture(material.RoleDiffuse, resolved[bricksTexture])
	wall.SetTexture(material.RoleBump, resolved[bricksNormal])

	materials := []*material.Material{floor, crate, ball, wall}

	place := func(m model.Mesh, x, y, z float32) model.Mesh {
		m.Transform = mgl32.Translate3D(x, y, z)
		return m
	}
	meshes := []model.Mesh{
		model.Plane("floor", 200, 200, 8, 0),
		place(model.Box("crate", mgl32.Vec3{10, 10, 10}, 1), -20, 5, 10),
		place(model.Box("crate", mgl32.Vec3{10, 10, 10}, 1), 15, 5, -15),
		place(model.Box("crate", mgl32.Vec3{6, 6, 6}, 1), 15, 13, -15),
		place(model.Sphere("ball", 8, 32, 16, 2), 0, 8, 0),
		place(model.Box("wall", mgl32.Vec3{60, 30, 2}, 3), 0, 15, -40),
	}
	_, err := s.r.AddMeshesAndMaterials(meshes, materials)
	return err
}

// textureOrFallback loads name from the texture root, or uploads img under
// that path when the file does not exist. It returns the path materials
// should reference.
func (s *sceneLoader) textureOrFallback(name string, img *image.NRGBA) (string, error) {
	p := name
	if s.root != "" {
		p = path.Join(s.root, name)
	}
	_, err := s.textures.Load(p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, texture.ErrNotFound) {
		s.log.Warn("texture unreadable, using generated", zap.String("path", p), zap.Error(err))
	}
	if _, err := s.textures.Upload(p, img); err != nil {
		return p, fmt.Errorf("upload generated %s: %w", name, err)
	}
	return p, nil
}

// addGizmos adds a helper box at every positional light.
func (s *sceneLoader) addGizmos(lights []*lighting.Light) error {
	meshes := debug.LightGizmos(lights, 2, 0)
	if len(meshes) == 0 {
		return nil
	}
	_, err := s.r.AddMeshesAndMaterials(meshes, []*material.Material{debug.GizmoMaterial()})
	return err
}

// checker returns a size x size image of cells x cells alternating squares.
func checker(size, cells int, a, b color.NRGBA) *image.NRGBA {
	img := imaging.New(size, size, a)
	cell := max(size/cells, 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 1 {
				img.SetNRGBA(x, y, b)
			}
		}
	}
	return img
}
