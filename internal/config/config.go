// Package config handles renderer configuration loading and management.
package config

// Config holds all application settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Renderer RendererConfig `yaml:"renderer"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// RendererConfig holds frame pipeline settings.
type RendererConfig struct {
	Lights         int        `yaml:"lights"`          // Number of light slots and depth targets
	ShadowMapSize  int        `yaml:"shadow_map_size"` // Width and height of each depth target
	Near           float32    `yaml:"near"`
	Far            float32    `yaml:"far"`
	PostProcess    bool       `yaml:"post_process"` // Gaussian blur before composite
	ClearColor     [4]float32 `yaml:"clear_color"`  // Back buffer
	TargetClear    [4]float32 `yaml:"target_clear"` // Off-screen targets
	ScreenshotDir  string     `yaml:"screenshot_dir"`
	ShowLightGizmo bool       `yaml:"show_light_gizmo"`
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Model       string `yaml:"model"`        // glTF file; empty renders the built-in scene
	TextureRoot string `yaml:"texture_root"` // Prefix for relative texture paths
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Renderer: RendererConfig{
			Lights:         4,
			ShadowMapSize:  1024,
			Near:           0.1,
			Far:            1000,
			PostProcess:    false,
			ClearColor:     [4]float32{0.39, 0.58, 0.92, 1},
			TargetClear:    [4]float32{0, 0, 0, 1},
			ShowLightGizmo: true,
		},
		Assets: AssetsConfig{
			TextureRoot: "res",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
