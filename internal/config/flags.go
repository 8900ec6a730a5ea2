package config

import (
	"flag"

	"github.com/Faultbox/scene-perf/internal/engine/perf"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLevel      = flag.String("level", "", "Starting performance level (ultra, high, medium, low, potato)")
	flagTargetFPS  = flag.Float64("target-fps", 0, "Target frame rate")
	flagNoAdaptive = flag.Bool("no-adaptive", false, "Disable adaptive quality")
	flagObjects    = flag.Int("objects", 0, "Number of scene objects")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowOctree = true
	}
	if *flagLevel != "" {
		level, err := perf.ParseTier(*flagLevel)
		if err != nil {
			return err
		}
		cfg.Performance.Level = level
		cfg.Performance.TargetFPS = perf.ConfigFor(level).TargetFPS
		cfg.Performance.MaxObjects = perf.ConfigFor(level).MaxObjects
	}
	if *flagTargetFPS > 0 {
		cfg.Performance.TargetFPS = *flagTargetFPS
	}
	if *flagNoAdaptive {
		cfg.Performance.AdaptiveQuality = false
	}
	if *flagObjects > 0 {
		cfg.Scene.Objects = *flagObjects
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	return nil
}
