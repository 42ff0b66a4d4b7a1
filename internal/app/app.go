// Package app wires the window, the device and the forward renderer into the
// interactive viewer.
package app

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/config"
	"github.com/Faultbox/forwardfx/internal/engine/camera"
	"github.com/Faultbox/forwardfx/internal/engine/cbuffer"
	"github.com/Faultbox/forwardfx/internal/engine/debug"
	"github.com/Faultbox/forwardfx/internal/engine/gpu"
	"github.com/Faultbox/forwardfx/internal/engine/gpu/glbackend"
	"github.com/Faultbox/forwardfx/internal/engine/input"
	"github.com/Faultbox/forwardfx/internal/engine/lighting"
	"github.com/Faultbox/forwardfx/internal/engine/model"
	"github.com/Faultbox/forwardfx/internal/engine/renderer"
	"github.com/Faultbox/forwardfx/internal/engine/shader"
	"github.com/Faultbox/forwardfx/internal/engine/texture"
	"github.com/Faultbox/forwardfx/internal/engine/window"
	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
	"github.com/Faultbox/forwardfx/internal/notify/msgbox"
)

const title = "forwardfx"

// moveRate scales keyboard movement to camera steps per second.
const moveRate = 60

// App is the viewer instance.
type App struct {
	config  *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	device   *glbackend.Device
	notifier notify.Notifier
	buffers  *cbuffer.Cache
	shaders  *shader.Registry
	textures *texture.Cache
	renderer *renderer.Forward

	lights []*lighting.Light
	scene  scene
	camera *camera.OrbitCamera
	input  *input.Input
	shots  *debug.ScreenshotCapture

	width, height int
	screenshot    bool
}

// New opens the window, creates the device and renderer and loads the scene.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		config:   cfg,
		log:      logger.Named("app"),
		notifier: msgbox.New(),
	}
	a.log.Info("initializing",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int("lights", cfg.Renderer.Lights),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the window's context to be current.
	a.device, err = glbackend.New()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	a.buffers = cbuffer.New(a.device)
	a.shaders = shader.NewRegistry()
	a.textures = texture.NewCache(a.device)
	loaded := shader.Load(a.device, a.buffers, a.shaders, a.notifier)
	a.log.Info("shaders loaded", zap.Int("count", loaded))

	a.width, a.height = a.window.GetDrawableSize()
	a.renderer, err = renderer.NewForward(a.device, a.buffers, a.shaders, a.textures, a.notifier,
		rendererConfig(cfg, a.width, a.height))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.lights = sceneLights(cfg.Renderer.Lights)
	a.scene, err = setupScene(a.renderer, a.device, a.textures, a.notifier, cfg, a.lights)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}

	a.camera = camera.NewOrbitCamera()
	a.camera.Near, a.camera.Far = cfg.Renderer.Near, cfg.Renderer.Far
	if a.scene.bounds.Valid() {
		a.camera.FitToBounds(a.scene.bounds.Min, a.scene.bounds.Max)
	}

	a.input = input.New()
	a.shots = debug.NewScreenshotCapture(cfg.Renderer.ScreenshotDir, title)

	a.log.Info("initialized", zap.String("device", a.device.Name()))
	return a, nil
}

// rendererConfig maps the application settings onto the renderer's.
func rendererConfig(cfg *config.Config, width, height int) renderer.Config {
	return renderer.Config{
		Width:         width,
		Height:        height,
		Lights:        cfg.Renderer.Lights,
		ShadowMapSize: cfg.Renderer.ShadowMapSize,
		Near:          cfg.Renderer.Near,
		Far:           cfg.Renderer.Far,
		PostProcess:   cfg.Renderer.PostProcess,
		ClearColor:    cfg.Renderer.ClearColor,
		TargetClear:   cfg.Renderer.TargetClear,
	}
}

// sceneLights returns the first n lights of the demo rig.
func sceneLights(n int) []*lighting.Light {
	rig := lighting.DemoRig()
	n = max(0, min(n, len(rig)))
	return rig[:n]
}

// scene is what setupScene loaded.
type scene struct {
	bounds model.Bounds   // drawn meshes without the light gizmos
	models []*model.Model // released by the app, not the renderer
}

func (s *scene) release(dev gpu.Resources) {
	for _, m := range s.models {
		m.Release(dev)
	}
	s.models = nil
}

// setupScene loads the configured model or the built-in scene and adds the
// light gizmos.
func setupScene(r *renderer.Forward, dev gpu.Resources, textures *texture.Cache, n notify.Notifier,
	cfg *config.Config, lights []*lighting.Light) (scene, error) {
	loader := newSceneLoader(r, dev, textures, n, cfg.Assets.TextureRoot)

	var sc scene
	if cfg.Assets.Model != "" {
		m, err := loader.loadGLTF(cfg.Assets.Model)
		if err != nil {
			return scene{}, err
		}
		sc.models = append(sc.models, m)
	} else if err := loader.loadBuiltin(); err != nil {
		return scene{}, err
	}

	// Shadow cameras fit the scene before the gizmos grow it.
	sc.bounds = r.SceneBounds()
	if cfg.Renderer.ShowLightGizmo {
		if err := loader.addGizmos(lights); err != nil {
			sc.release(dev)
			return scene{}, err
		}
	}
	return sc, nil
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		if err := a.handleEvents(); err != nil {
			return err
		}

		a.update(dt)

		if err := a.renderer.Render(a.frame()); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if a.screenshot {
			a.screenshot = false
			a.takeScreenshot()
		}

		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			stats := a.renderer.Stats()
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("draws", stats.Draws),
				zap.Int("shadow_draws", stats.ShadowDraws),
				zap.Int("binds", stats.ShaderBinds),
			)
			a.window.SetTitle(fmt.Sprintf("%s - %d fps", title, frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (a *App) handleEvents() error {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.width, a.height = a.window.GetDrawableSize()
			if err := a.renderer.Resize(a.width, a.height); err != nil {
				return fmt.Errorf("resize: %w", err)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_B:
				a.renderer.SetPostProcess(!a.renderer.PostProcessEnabled())
				a.log.Info("post-process", zap.Bool("enabled", a.renderer.PostProcessEnabled()))
			case sdl.SCANCODE_F11:
				if err := a.window.ToggleFullscreen(); err != nil {
					a.log.Warn("fullscreen toggle failed", zap.Error(err))
				}
			case sdl.SCANCODE_F12:
				a.screenshot = true
			}
		case input.EventMouseMove:
			if a.input.IsButtonDown(sdl.BUTTON_LEFT) {
				a.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			a.camera.HandleZoom(float32(event.DeltaY))
		}
	}
	return nil
}

func (a *App) update(dt float32) {
	step := dt * moveRate
	a.camera.HandleMovement(
		a.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)*step,
		a.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)*step,
		a.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)*step,
	)
	a.camera.Update(dt)

	center, radius := mgl32.Vec3{}, float32(1)
	if b := a.scene.bounds; b.Valid() {
		center = b.Center()
		radius = max(b.Size().Len()/2, 1)
	}
	lighting.UpdateShadowMatrices(a.lights, a.config.Renderer.Near, a.config.Renderer.Far, center, radius)
}

func (a *App) frame() renderer.Frame {
	aspect := float32(a.width) / float32(max(a.height, 1))
	return renderer.Frame{
		Camera: renderer.CameraView{
			Position:   a.camera.Position(),
			View:       a.camera.ViewMatrix(),
			Projection: a.camera.ProjectionMatrix(aspect),
		},
		Lights: lighting.Take(a.lights),
	}
}

func (a *App) takeScreenshot() {
	path, err := a.shots.Capture(a.device, gpu.BackBuffer, a.width, a.height)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases everything in reverse creation order. It is safe on a
// partially constructed App.
func (a *App) Close() {
	a.log.Info("closing")

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.device != nil {
		a.scene.release(a.device)
	}
	if a.textures != nil {
		a.textures.Close()
	}
	if a.shaders != nil {
		a.shaders.Close()
	}
	if a.buffers != nil {
		a.buffers.Close()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
