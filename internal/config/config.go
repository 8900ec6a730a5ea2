// Package config handles engine and tool configuration loading and management.
package config

import (
	"github.com/Faultbox/scene-perf/internal/engine/memory"
	"github.com/Faultbox/scene-perf/internal/engine/perf"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Config holds all settings.
type Config struct {
	Performance perf.Settings         `yaml:"performance"`
	Controller  perf.ControllerConfig `yaml:"controller"`
	World       WorldConfig           `yaml:"world"`
	Cache       memory.Config         `yaml:"cache"`
	Scene       SceneConfig           `yaml:"scene"`
	Viewer      ViewerConfig          `yaml:"viewer"`
	Logging     LoggingConfig         `yaml:"logging"`
}

// WorldConfig holds the initial spatial index volume.
type WorldConfig struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

// Bounds returns the volume as a box.
func (w WorldConfig) Bounds() math.AABB {
	return math.NewAABB(
		math.V3(w.Min[0], w.Min[1], w.Min[2]),
		math.V3(w.Max[0], w.Max[1], w.Max[2]),
	)
}

// SceneConfig describes the synthetic scene the tools populate.
type SceneConfig struct {
	Objects int     `yaml:"objects"`
	Spread  float32 `yaml:"spread"` // Half-extent of the placement area
	Shapes  int     `yaml:"shapes"` // Distinct primitive shapes
	Colors  int     `yaml:"colors"` // Distinct material colors
	Seed    int64   `yaml:"seed"`
	Model   string  `yaml:"model"` // Optional glTF/GLB file placed instead of primitives
}

// ViewerConfig holds display settings for the interactive viewer.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
	ShowOctree bool `yaml:"show_octree"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Performance: perf.DefaultSettings(),
		Controller:  perf.DefaultControllerConfig(),
		World: WorldConfig{
			Min: [3]float32{-500, -500, -500},
			Max: [3]float32{500, 500, 500},
		},
		Cache: memory.DefaultConfig(),
		Scene: SceneConfig{
			Objects: 500,
			Spread:  250,
			Shapes:  3,
			Colors:  4,
			Seed:    1,
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// SettingsOverrides returns the settings a tier change would otherwise
// reset: a target FPS or object cap that differs from the configured
// level's table entry. Apply it after creating the manager.
func (c *Config) SettingsOverrides() perf.SettingsUpdate {
	var u perf.SettingsUpdate
	tier := perf.ConfigFor(c.Performance.Level)
	if fps := c.Performance.TargetFPS; fps > 0 && fps != tier.TargetFPS {
		u.TargetFPS = &fps
	}
	if n := c.Performance.MaxObjects; n > 0 && n != tier.MaxObjects {
		u.MaxObjects = &n
	}
	return u
}
