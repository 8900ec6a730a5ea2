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
)

// EnvConfig names a config file used when no -config flag is given.
const EnvConfig = "SCENE_PERF_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
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

	if err := applyFlags(cfg); err != nil {
		return nil, fmt.Errorf("applying flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with the YAML file at path, without
// flags.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns $SCENE_PERF_CONFIG, ./config.yaml or the file in
// ConfigDir, whichever exists first.
func findConfigFile() string {
	candidates := []string{
		os.Getenv(EnvConfig),
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
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
		return filepath.Join(home, "Library", "Application Support", "ScenePerf")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ScenePerf")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scene-perf")
	}
	return filepath.Join(home, ".config", "scene-perf")
}

// loadFromFile merges the YAML file at path into cfg. Unknown keys are
// rejected so a misspelt setting does not silently keep its default. An
// empty file leaves cfg unchanged.
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

// Validate reports settings no component can run with.
func (c *Config) Validate() error {
	w := c.World
	for i := range w.Min {
		if w.Min[i] >= w.Max[i] {
			return fmt.Errorf("world: min %v must be below max %v", w.Min, w.Max)
		}
	}
	if c.Scene.Objects < 0 {
		return fmt.Errorf("scene: negative object count %d", c.Scene.Objects)
	}
	if c.Scene.Spread <= 0 {
		return fmt.Errorf("scene: spread must be positive, got %v", c.Scene.Spread)
	}
	if c.Performance.MaxObjects < 0 || c.Performance.TargetFPS < 0 {
		return errors.New("performance: max_objects and target_fps must not be negative")
	}
	if h := c.Performance.LODHysteresis; h < 0 || h >= 1 {
		return fmt.Errorf("performance: lod_hysteresis %v outside [0, 1)", h)
	}
	if h := c.Performance.FPSHysteresis; h < 0 || h >= 1 {
		return fmt.Errorf("performance: fps_hysteresis %v outside [0, 1)", h)
	}
	if c.Controller.Interval <= 0 {
		return fmt.Errorf("controller: interval must be positive, got %v", c.Controller.Interval)
	}
	if c.Cache.PressureInterval < 0 {
		return fmt.Errorf("cache: negative pressure_interval %v", c.Cache.PressureInterval)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer: invalid size %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	return nil
}
