package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/scene-perf/internal/engine/perf"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test performance defaults
	if cfg.Performance.Level != perf.High {
		t.Errorf("expected level high, got %v", cfg.Performance.Level)
	}
	if !cfg.Performance.EnableLOD || !cfg.Performance.EnableInstancing ||
		!cfg.Performance.EnableFrustumCulling || !cfg.Performance.EnableMemoryManagement {
		t.Error("expected every engine feature enabled by default")
	}
	if !cfg.Performance.AdaptiveQuality {
		t.Error("expected adaptive quality enabled by default")
	}
	if cfg.Performance.MaxObjects != 1000 {
		t.Errorf("expected max objects 1000, got %d", cfg.Performance.MaxObjects)
	}
	if cfg.Performance.TargetFPS != 60 {
		t.Errorf("expected target fps 60, got %v", cfg.Performance.TargetFPS)
	}

	// Test controller defaults
	if cfg.Controller.Interval != 2*time.Second {
		t.Errorf("expected check interval 2s, got %v", cfg.Controller.Interval)
	}

	// Test world defaults
	b := cfg.World.Bounds()
	if b.Min.X != -500 || b.Max.Z != 500 {
		t.Errorf("expected world bounds of +-500, got %+v", b)
	}

	// Test cache defaults
	if cfg.Cache.TextureBudget != 100<<20 {
		t.Errorf("expected texture budget 100MB, got %d", cfg.Cache.TextureBudget)
	}

	// Test viewer defaults
	if cfg.Viewer.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Viewer.Width)
	}
	if cfg.Viewer.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Viewer.Height)
	}
	if cfg.Viewer.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
performance:
  level: low
  enable_instancing: false
  adaptive_quality: false
  target_fps: 30
  lod_hysteresis: 0.1

controller:
  interval: 1s
  downgrade_cooldown: 5s

world:
  min: [-100, -10, -100]
  max: [100, 10, 100]

cache:
  texture_budget: 1048576

scene:
  objects: 42
  model: "assets/tree.glb"

viewer:
  width: 1920
  height: 1080
  fullscreen: true

logging:
  level: "debug"
  log_file: "perf.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Performance.Level != perf.Low {
		t.Errorf("expected level low, got %v", cfg.Performance.Level)
	}
	if cfg.Performance.EnableInstancing {
		t.Error("expected instancing to be disabled")
	}
	if !cfg.Performance.EnableLOD {
		t.Error("expected LOD to keep its default")
	}
	if cfg.Performance.LODHysteresis != 0.1 {
		t.Errorf("expected lod hysteresis 0.1, got %v", cfg.Performance.LODHysteresis)
	}

	if cfg.Controller.Interval != time.Second {
		t.Errorf("expected interval 1s, got %v", cfg.Controller.Interval)
	}
	if cfg.Controller.DowngradeCooldown != 5*time.Second {
		t.Errorf("expected downgrade cooldown 5s, got %v", cfg.Controller.DowngradeCooldown)
	}
	if cfg.Controller.UpgradeCooldown != 15*time.Second {
		t.Errorf("expected upgrade cooldown to keep its default, got %v", cfg.Controller.UpgradeCooldown)
	}

	if b := cfg.World.Bounds(); b.Min.Y != -10 || b.Max.X != 100 {
		t.Errorf("unexpected world bounds %+v", b)
	}
	if cfg.Cache.TextureBudget != 1<<20 {
		t.Errorf("expected texture budget 1MB, got %d", cfg.Cache.TextureBudget)
	}

	if cfg.Scene.Objects != 42 || cfg.Scene.Model != "assets/tree.glb" {
		t.Errorf("unexpected scene config %+v", cfg.Scene)
	}

	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Viewer.Width)
	}
	if !cfg.Viewer.Fullscreen {
		t.Error("expected fullscreen to be true")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "perf.log" {
		t.Errorf("expected log file 'perf.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "viewer:\n  width: not a number\n  invalid syntax here\n"},
		{"unknown level", "performance:\n  level: cinematic\n"},
		{"unknown key", "performance:\n  target_fsp: 30\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			// Try to load - should error
			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Changes the working directory for the duration of the test
	chdir(t, t.TempDir())
	t.Setenv(EnvConfig, "")

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create config.yaml in current directory
	if err := os.WriteFile("config.yaml", []byte("viewer:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Viewer.ShowOctree {
					t.Error("expected octree overlay to be enabled with debug flag")
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "level flag",
			setup: func() {
				*flagLevel = "potato"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Performance.Level != perf.Potato {
					t.Errorf("expected level potato, got %v", cfg.Performance.Level)
				}
				if cfg.Performance.TargetFPS != 20 || cfg.Performance.MaxObjects != 200 {
					t.Errorf("expected potato table values, got %+v", cfg.Performance)
				}
			},
			teardown: func() {
				*flagLevel = ""
			},
		},
		{
			name: "target fps and no-adaptive flags",
			setup: func() {
				*flagTargetFPS = 144
				*flagNoAdaptive = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Performance.TargetFPS != 144 {
					t.Errorf("expected target fps 144, got %v", cfg.Performance.TargetFPS)
				}
				if cfg.Performance.AdaptiveQuality {
					t.Error("expected adaptive quality to be disabled")
				}
			},
			teardown: func() {
				*flagTargetFPS = 0
				*flagNoAdaptive = false
			},
		},
		{
			name: "objects flag",
			setup: func() {
				*flagObjects = 5000
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.Objects != 5000 {
					t.Errorf("expected 5000 objects, got %d", cfg.Scene.Objects)
				}
			},
			teardown: func() {
				*flagObjects = 0
			},
		},
		{
			name: "windowed flag",
			setup: func() {
				*flagWindowed = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() {
				*flagWindowed = false
			},
		},
		{
			name: "fullscreen flag",
			setup: func() {
				*flagFullscreen = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Viewer.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() {
				*flagFullscreen = false
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Viewer.Width)
				}
				if cfg.Viewer.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Viewer.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			if err := applyFlags(cfg); err != nil {
				t.Fatalf("applyFlags: %v", err)
			}

			// Verify
			tt.verify(t, cfg)
		})
	}
}

func TestApplyFlagsInvalidLevel(t *testing.T) {
	*flagLevel = "cinematic"
	defer func() { *flagLevel = "" }()

	if err := applyFlags(Default()); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
viewer:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Viewer.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Viewer.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Viewer.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Performance.Level = perf.Medium
	cfg.Scene.Objects = 77
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Performance.Level != perf.Medium || loaded.Scene.Objects != 77 {
		t.Errorf("round trip lost values: %+v", loaded.Performance)
	}
}

func TestSaveToReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scene:\n  objects: 5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "# scene-perf") {
		t.Errorf("missing header: %q", string(data[:min(len(data), 40)]))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml in dir, got %d entries", len(entries))
	}
}

func TestSettingsOverrides(t *testing.T) {
	cfg := Default()
	cfg.Performance.MaxObjects = perf.ConfigFor(perf.High).MaxObjects
	if u := cfg.SettingsOverrides(); u.TargetFPS != nil || u.MaxObjects != nil {
		t.Error("table values should not be overrides")
	}

	cfg.Performance.TargetFPS = 144
	cfg.Performance.MaxObjects = 300
	u := cfg.SettingsOverrides()
	if u.TargetFPS == nil || *u.TargetFPS != 144 {
		t.Error("expected target fps override")
	}
	if u.MaxObjects == nil || *u.MaxObjects != 300 {
		t.Error("expected max objects override")
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scene:\n  objects: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) { changes <- cfg })
	}()

	// The watcher may not be registered yet; keep writing until it reports.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case cfg := <-changes:
			// A reload can observe the truncated file before the write lands.
			if cfg.Scene.Objects == 2 {
				break wait
			}
		case <-tick.C:
			if err := os.WriteFile(path, []byte("scene:\n  objects: 2\n"), 0644); err != nil {
				t.Fatalf("failed to rewrite config: %v", err)
			}
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestFindConfigFileFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("scene:\n  seed: 9\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(EnvConfig, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Scene.Objects != Default().Scene.Objects {
		t.Error("empty file should keep defaults")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"flat world", func(c *Config) { c.World.Max[1] = c.World.Min[1] }, false},
		{"negative objects", func(c *Config) { c.Scene.Objects = -1 }, false},
		{"zero spread", func(c *Config) { c.Scene.Spread = 0 }, false},
		{"negative fps", func(c *Config) { c.Performance.TargetFPS = -1 }, false},
		{"lod hysteresis", func(c *Config) { c.Performance.LODHysteresis = 1 }, false},
		{"fps hysteresis", func(c *Config) { c.Performance.FPSHysteresis = -0.1 }, false},
		{"zero interval", func(c *Config) { c.Controller.Interval = 0 }, false},
		{"zero width", func(c *Config) { c.Viewer.Width = 0 }, false},
		{"pressure every frame", func(c *Config) { c.Cache.PressureInterval = 0 }, true},
		{"negative pressure interval", func(c *Config) { c.Cache.PressureInterval = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
