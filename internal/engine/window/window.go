// Package window owns the SDL2 window and the OpenGL context the device draws into.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/logger"
)

func init() {
	// GL calls must come from the thread that created the context.
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// Window wraps an SDL2 window and its OpenGL 4.1 core context.
type Window struct {
	config     Config
	log        *zap.Logger
	sdlWindow  *sdl.Window
	glContext  sdl.GLContext
	fullscreen bool
}

// glAttributes are applied before the window exists. 4.1 core is the
// highest profile macOS offers.
var glAttributes = []struct {
	attr  sdl.GLattr
	value int
}{
	{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
	{sdl.GL_CONTEXT_MINOR_VERSION, 1},
	{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
	{sdl.GL_DOUBLEBUFFER, 1},
	{sdl.GL_DEPTH_SIZE, 24},
	{sdl.GL_RED_SIZE, 8},
	{sdl.GL_GREEN_SIZE, 8},
	{sdl.GL_BLUE_SIZE, 8},
	{sdl.GL_ALPHA_SIZE, 8},
}

// New initialises SDL2 video, opens the window and makes its GL context current.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config:     cfg,
		log:        logger.Named("window"),
		fullscreen: cfg.Fullscreen,
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}
	for _, a := range glAttributes {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			w.log.Warn("GL attribute rejected", zap.Int("attr", int(a.attr)), zap.Int("value", a.value), zap.Error(err))
		}
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		w.log.Warn("swap interval not applied", zap.Int("interval", interval), zap.Error(err))
	}

	dw, dh := w.GetDrawableSize()
	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("drawable_width", dw),
		zap.Int("drawable_height", dh),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// Close destroys the context and the window and shuts SDL2 down.
func (w *Window) Close() {
	w.log.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
		w.glContext = nil
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
		w.sdlWindow = nil
	}
	sdl.Quit()
}

// SwapBuffers presents the back buffer.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetDrawableSize returns the size of the GL drawable in pixels, which differs
// from the window size on high-DPI displays.
func (w *Window) GetDrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// ToggleFullscreen switches between windowed and desktop fullscreen.
func (w *Window) ToggleFullscreen() error {
	var flags uint32
	if !w.fullscreen {
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if err := w.sdlWindow.SetFullscreen(flags); err != nil {
		return fmt.Errorf("set fullscreen: %w", err)
	}
	w.fullscreen = !w.fullscreen
	return nil
}
