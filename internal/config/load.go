package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/forwardfx/internal/engine/lighting"
)

// Config file names searched in the working directory, in order.
var localNames = []string{"forwardfx.yaml", fileName}

const fileName = "config.yaml"

// Load builds the configuration from defaults, then the config file, then
// command-line flags, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the renderer cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid resolution %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	r := c.Renderer
	if r.Lights < 0 || r.Lights > lighting.MaxLights {
		errs = append(errs, fmt.Errorf("renderer.lights must be in [0, %d], got %d", lighting.MaxLights, r.Lights))
	}
	if r.ShadowMapSize <= 0 {
		errs = append(errs, fmt.Errorf("renderer.shadow_map_size must be positive, got %d", r.ShadowMapSize))
	}
	if r.Near <= 0 || r.Far <= r.Near {
		errs = append(errs, fmt.Errorf("invalid clip range near=%g far=%g", r.Near, r.Far))
	}
	for name, col := range map[string][4]float32{"clear_color": r.ClearColor, "target_clear": r.TargetClear} {
		for _, v := range col {
			if v < 0 || v > 1 {
				errs = append(errs, fmt.Errorf("renderer.%s components must be in [0, 1], got %v", name, col))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// findConfigFile returns the first config file found in the working
// directory or the user config directory, or "".
func findConfigFile() string {
	candidates := append([]string(nil), localNames...)
	candidates = append(candidates, DefaultPath())

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ForwardFX")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ForwardFX")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "forwardfx")
	}
	return filepath.Join(home, ".config", "forwardfx")
}

// DefaultPath returns the config file location inside ConfigDir.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), fileName)
}

// loadFromFile merges a YAML file over cfg. Unknown keys are an error so
// typos do not silently fall back to defaults. An empty file changes nothing.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
