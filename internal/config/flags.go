package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagBlur       = flag.Bool("blur", false, "Apply the Gaussian blur post-process")
	flagModel      = flag.String("model", "", "glTF model to render")
	flagScreenshot = flag.String("screenshot", "", "Directory for F12 screenshots")
	flagWrite      = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the -write-config destination, or "".
func WriteConfigPath() string {
	return *flagWrite
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagBlur {
		cfg.Renderer.PostProcess = true
	}
	if *flagModel != "" {
		cfg.Assets.Model = *flagModel
	}
	if *flagScreenshot != "" {
		cfg.Renderer.ScreenshotDir = *flagScreenshot
	}
}
