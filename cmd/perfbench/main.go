// perfbench drives the performance engine headless over a synthetic scene.
// Frame times come from a cost model of what the engine leaves in the
// renderer, so tier changes feed back into the next frame.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/config"
	"github.com/Faultbox/scene-perf/internal/engine/camera"
	"github.com/Faultbox/scene-perf/internal/engine/clock"
	"github.com/Faultbox/scene-perf/internal/engine/perf"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/internal/workload"
)

var (
	flagFrames = flag.Int("frames", 3600, "Frames to simulate")
	flagLoad   = flag.Float64("load", 1, "Frame cost multiplier (2 simulates a device twice as slow)")
	flagReport = flag.Duration("report", 5*time.Second, "Simulated time between stats lines")
	flagOrbit  = flag.Float64("orbit", 0.2, "Camera yaw speed in radians per simulated second")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Named("perfbench")

	objects, err := workload.Objects(cfg.Scene)
	if err != nil {
		return err
	}

	rec := scene.NewRecorder()
	clk := clock.NewManual(time.Now())
	// Orbit inside the scatter so every LOD band is populated.
	cam := camera.NewOrbitCamera()
	cam.Distance = max(cfg.Scene.Spread*0.4, cam.MinDistance)

	mgr := perf.New(rec, cam, cfg.Performance,
		perf.WithClock(clk),
		perf.WithWorldBounds(cfg.World.Bounds()),
		perf.WithMemoryConfig(cfg.Cache),
		perf.WithControllerConfig(cfg.Controller),
	)
	defer mgr.Dispose()
	if u := cfg.SettingsOverrides(); !u.Empty() {
		mgr.UpdateSettings(u)
	}

	cached := workload.Share(mgr.Memory(), objects)
	added := 0
	for _, o := range objects {
		if mgr.AddObject(o) {
			added++
		}
	}
	log.Info("scene ready",
		zap.Int("objects", len(objects)),
		zap.Int("tracked", mgr.Len()),
		zap.Int("added", added),
		zap.Int("cached_resources", cached),
		zap.Stringer("level", mgr.Tier()),
	)

	model := workload.DefaultFrameModel()
	model.Load = *flagLoad

	start := clk.Now()
	lastReport := start
	tier := mgr.Tier()
	timeIn := map[perf.Tier]time.Duration{}

	for frame := 0; frame < *flagFrames; frame++ {
		cam.Far = perf.ConfigFor(mgr.Tier()).LOD.Cull
		mgr.Update()

		dt := model.FrameTime(rec.Info())
		clk.Advance(dt)
		cam.RotationY += float32(*flagOrbit * dt.Seconds())
		timeIn[mgr.Tier()] += dt

		if t := mgr.Tier(); t != tier {
			log.Info("tier changed",
				zap.Int("frame", frame),
				zap.Duration("at", clk.Now().Sub(start)),
				zap.Stringer("from", tier),
				zap.Stringer("to", t),
				zap.Int("objects", mgr.Len()),
			)
			tier = t
		}
		if clk.Now().Sub(lastReport) >= *flagReport {
			lastReport = clk.Now()
			report(log, mgr.Stats())
		}
	}

	s := mgr.Stats()
	fmt.Printf("\nSimulated %d frames over %v\n", *flagFrames, clk.Now().Sub(start).Round(time.Millisecond))
	for t := perf.Ultra; t <= perf.Potato; t++ {
		if d := timeIn[t]; d > 0 {
			fmt.Printf("  %-7s %v\n", t, d.Round(time.Millisecond))
		}
	}
	fmt.Printf("Final: %s, %.1f FPS, %d objects (%d visible), %d draw calls, %d triangles\n",
		s.Level, s.FPS, s.TotalObjects, s.VisibleObjects, s.DrawCalls, s.RenderedTriangles)
	for _, line := range mgr.DebugInfo() {
		fmt.Println("  " + line)
	}
	return nil
}

func report(log *zap.Logger, s perf.Stats) {
	log.Info("stats",
		zap.Stringer("level", s.Level),
		zap.Float64("fps", s.FPS),
		zap.Duration("frame_time", s.FrameTime),
		zap.Int("objects", s.TotalObjects),
		zap.Int("visible", s.VisibleObjects),
		zap.Int("culled", s.CulledObjects),
		zap.Int("draw_calls", s.DrawCalls),
		zap.Int("triangles", s.RenderedTriangles),
		zap.Int("instances", s.Instancing.TotalInstances),
		zap.Int("groups", s.Instancing.InstanceGroups),
		zap.Int64("cache_bytes", s.Memory.CacheSize),
	)
}
