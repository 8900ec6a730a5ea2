package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/config"
	"github.com/Faultbox/scene-perf/internal/engine/camera"
	"github.com/Faultbox/scene-perf/internal/engine/debug"
	"github.com/Faultbox/scene-perf/internal/engine/input"
	"github.com/Faultbox/scene-perf/internal/engine/perf"
	"github.com/Faultbox/scene-perf/internal/engine/renderer"
	"github.com/Faultbox/scene-perf/internal/engine/window"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/internal/workload"
	"github.com/Faultbox/scene-perf/pkg/math"
)

const titleInterval = 500 * time.Millisecond

type viewer struct {
	cfg    *config.Config
	log    *zap.Logger
	window *window.Window
	gl     *renderer.Renderer
	input  *input.Input
	camera *camera.OrbitCamera
	mgr    *perf.Manager
	shots  *debug.Snapshots

	bounds     math.AABB
	showOctree bool
	reloads    chan *config.Config
}

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{
		cfg:        cfg,
		log:        logger.Named("perfviewer"),
		input:      input.New(),
		camera:     camera.NewOrbitCamera(),
		shots:      debug.NewSnapshots("snapshots", "perfviewer"),
		showOctree: cfg.Viewer.ShowOctree,
		reloads:    make(chan *config.Config, 1),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Scene Perf",
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	w, h := v.window.GetSize()
	v.gl, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	v.camera.Aspect = float32(w) / float32(max(h, 1))

	settings := cfg.Performance
	if cfg.Performance.AdaptiveQuality {
		device := perf.DeviceProfile{
			Renderer:        renderer.DeviceName(),
			AvailableMemory: uint64(sdl.GetSystemRAM()) << 20,
		}
		rec := perf.Recommend(device)
		v.log.Info("device profile",
			zap.String("renderer", device.Renderer),
			zap.Uint64("memory_mb", device.AvailableMemory>>20),
			zap.Stringer("recommended", rec),
		)
		// Start no higher than the device can take.
		if rec > settings.Level {
			settings.Level = rec
		}
	}

	v.mgr = perf.New(v.gl, v.camera, settings,
		perf.WithWorldBounds(cfg.World.Bounds()),
		perf.WithMemoryConfig(cfg.Cache),
		perf.WithControllerConfig(cfg.Controller),
	)
	if u := cfg.SettingsOverrides(); !u.Empty() {
		v.mgr.UpdateSettings(u)
	}

	if err := v.populate(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func (v *viewer) populate() error {
	objects, err := workload.Objects(v.cfg.Scene)
	if err != nil {
		return err
	}
	workload.Share(v.mgr.Memory(), objects)
	v.bounds = math.EmptyAABB()
	for _, o := range objects {
		if v.mgr.AddObject(o) {
			v.bounds = v.bounds.Union(o.Bounds())
		}
	}
	v.resetCamera()
	v.log.Info("scene ready", zap.Int("objects", v.mgr.Len()), zap.Stringer("level", v.mgr.Tier()))
	return nil
}

func (v *viewer) resetCamera() {
	if v.bounds.IsEmpty() {
		return
	}
	v.camera.FitToBounds(v.bounds)
	// Stay inside the cull distance so the scene does not vanish.
	v.camera.Distance = min(v.camera.Distance, perf.ConfigFor(v.mgr.Tier()).LOD.Cull*0.5)
}

// QueueReload hands a reloaded config to the render thread. It runs on the
// watcher goroutine; only the newest pending config is kept.
func (v *viewer) QueueReload(cfg *config.Config) {
	select {
	case <-v.reloads:
	default:
	}
	v.reloads <- cfg
}

// Run is the main loop. It returns when the window closes or ctx ends.
func (v *viewer) Run(ctx context.Context) error {
	v.log.Info("starting render loop")
	lastTitle := time.Now()
	var frameBudget time.Duration
	if v.cfg.Viewer.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Viewer.FPSLimit)
	}

	for {
		frameStart := time.Now()
		select {
		case <-ctx.Done():
			return nil
		case next := <-v.reloads:
			v.applyConfig(next)
		default:
		}

		if v.input.Update() {
			return nil
		}
		v.handleInput(v.input.Frame())

		v.camera.Far = perf.ConfigFor(v.mgr.Tier()).LOD.Cull
		v.mgr.Update()

		if v.showOctree {
			v.gl.SetDebugBoxes(leafBoxes(v.mgr))
		} else {
			v.gl.SetDebugBoxes(nil)
		}
		v.gl.Render(v.camera.ViewProjection())
		v.window.SwapBuffers()

		if time.Since(lastTitle) >= titleInterval {
			lastTitle = time.Now()
			v.window.SetTitle(title(v.mgr))
		}

		if frameBudget > 0 {
			if spare := frameBudget - time.Since(frameStart); spare > 0 {
				time.Sleep(spare)
			}
		}
	}
}

func (v *viewer) handleInput(f input.Frame) {
	if f.Resized {
		v.gl.Resize(f.Width, f.Height)
		v.camera.Aspect = float32(f.Width) / float32(max(f.Height, 1))
	}
	if f.DragX != 0 || f.DragY != 0 {
		v.camera.HandleDrag(f.DragX, f.DragY)
	}
	if f.Wheel != 0 {
		v.camera.HandleZoom(f.Wheel)
	}
	if f.Move != [3]float32{} {
		v.camera.HandleMovement(f.Move[0], f.Move[1], f.Move[2])
	}

	for _, cmd := range f.Commands {
		switch cmd {
		case input.CommandTogglePerf:
			v.mgr.SetEnabled(!v.mgr.Enabled())
			v.log.Info("engine toggled", zap.Bool("enabled", v.mgr.Enabled()))
		case input.CommandToggleAdaptive:
			on := !v.mgr.Settings().AdaptiveQuality
			v.mgr.UpdateSettings(perf.SettingsUpdate{AdaptiveQuality: &on})
			v.log.Info("adaptive quality toggled", zap.Bool("enabled", on))
		case input.CommandToggleOctree:
			v.showOctree = !v.showOctree
		case input.CommandToggleVSync:
			if err := v.window.SetVSync(!v.window.VSync()); err != nil {
				v.log.Warn("vsync toggle failed", zap.Error(err))
			}
		case input.CommandQualityDown:
			t := v.mgr.Tier().Lower()
			v.mgr.UpdateSettings(perf.SettingsUpdate{Level: &t})
		case input.CommandQualityUp:
			t := v.mgr.Tier().Higher()
			v.mgr.UpdateSettings(perf.SettingsUpdate{Level: &t})
		case input.CommandForceOptimize:
			v.mgr.ForceOptimization()
		case input.CommandSnapshot:
			pixels, w, h := v.gl.ReadPixels()
			path, err := v.shots.Save(pixels, w, h, v.mgr.Tier().String())
			if err != nil {
				v.log.Warn("snapshot failed", zap.Error(err))
				continue
			}
			v.log.Info("snapshot saved", zap.String("path", path))
		case input.CommandResetCamera:
			v.resetCamera()
		case input.CommandSaveConfig:
			v.saveConfig()
		}
	}
}

// applyConfig pushes the edited performance settings into the engine.
// Scene, window and world changes need a restart.
func (v *viewer) applyConfig(next *config.Config) {
	u := perf.Diff(v.cfg.Performance, next.Performance)
	v.cfg.Performance = next.Performance
	v.showOctree = next.Viewer.ShowOctree
	if u.Empty() {
		return
	}
	v.mgr.UpdateSettings(u)
	v.log.Info("performance settings reloaded", zap.Stringer("level", v.mgr.Tier()))
}

// saveConfig persists the engine's current settings, including any tier
// the adaptive controller settled on.
func (v *viewer) saveConfig() {
	path := config.ConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}
	v.cfg.Performance = v.mgr.Settings()
	v.cfg.Viewer.ShowOctree = v.showOctree
	if err := v.cfg.SaveTo(path); err != nil {
		v.log.Warn("saving config failed", zap.String("path", path), zap.Error(err))
		return
	}
	v.log.Info("config saved", zap.String("path", path))
}

func (v *viewer) Close() {
	if v.mgr != nil {
		v.mgr.Dispose()
	}
	if v.gl != nil {
		v.gl.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func leafBoxes(mgr *perf.Manager) []math.AABB {
	leaves := mgr.Index().DebugLeafBounds()
	out := make([]math.AABB, len(leaves))
	for i, l := range leaves {
		out[i] = l.Bounds
	}
	return out
}

// title packs the headline stats into the window title.
func title(mgr *perf.Manager) string {
	s := mgr.Stats()
	parts := []string{
		fmt.Sprintf("Scene Perf | %s | %.0f FPS", s.Level, s.FPS),
		fmt.Sprintf("%d/%d visible", s.VisibleObjects, s.TotalObjects),
		fmt.Sprintf("%d draws", s.DrawCalls),
		fmt.Sprintf("%dk tris", s.RenderedTriangles/1000),
		fmt.Sprintf("inst %d (%s)", s.Instancing.TotalInstances, s.Instancing.Efficiency),
	}
	if !mgr.Enabled() {
		parts[0] += " [engine off]"
	}
	return strings.Join(parts, " | ")
}
