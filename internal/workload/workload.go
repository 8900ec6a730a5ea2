// Package workload builds the synthetic scenes the benchmark and viewer
// feed to the performance engine, and models their frame cost.
package workload

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/config"
	"github.com/Faultbox/scene-perf/internal/engine/meshload"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Palette is the color cycle for generated materials.
var Palette = []scene.Color{
	{R: 0.90, G: 0.30, B: 0.25},
	{R: 0.25, G: 0.60, B: 0.90},
	{R: 0.35, G: 0.80, B: 0.40},
	{R: 0.95, G: 0.80, B: 0.30},
	{R: 0.70, G: 0.45, B: 0.85},
	{R: 0.55, G: 0.55, B: 0.55},
}

type shape struct {
	kind scene.Kind
	geom *scene.Geometry
}

func shapes(n int) []shape {
	all := []shape{
		{scene.KindBox, scene.NewBox(2, 2, 2)},
		{scene.KindSphere, scene.NewSphere(1.2, 24, 16)},
		{scene.KindPlane, scene.NewPlane(3, 3)},
	}
	if n < 1 {
		n = 1
	}
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// Objects builds cfg.Objects placements. Objects of the same shape and
// color share geometry and material, so they batch into instanced draws.
// With cfg.Model set each placement is a copy of the glTF model and yields
// one object per model part.
func Objects(cfg config.SceneConfig) ([]*scene.Object, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	if cfg.Model != "" {
		model, err := meshload.Load(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("scene model: %w", err)
		}
		var out []*scene.Object
		for i := 0; i < cfg.Objects; i++ {
			out = append(out, model.Objects(fmt.Sprintf("model-%d", i), placement(rng, cfg.Spread))...)
		}
		logger.Named("workload").Info("scene built from model",
			zap.String("model", cfg.Model),
			zap.Int("copies", cfg.Objects),
			zap.Int("parts", len(model.Parts)),
			zap.Int("objects", len(out)),
		)
		return out, nil
	}

	shp := shapes(cfg.Shapes)
	ncolors := cfg.Colors
	if ncolors < 1 || ncolors > len(Palette) {
		ncolors = len(Palette)
	}
	mats := make([]*scene.Material, ncolors)
	for i := range mats {
		mats[i] = scene.NewStandardMaterial(Palette[i])
	}

	out := make([]*scene.Object, cfg.Objects)
	for i := range out {
		s := shp[rng.Intn(len(shp))]
		m := mats[rng.Intn(len(mats))]
		out[i] = &scene.Object{
			ID:        fmt.Sprintf("%s-%d", s.kind, i),
			Name:      string(s.kind),
			Kind:      s.kind,
			Geometry:  s.geom,
			Material:  m,
			Transform: placement(rng, cfg.Spread),
			Color:     m.Color,
			Visible:   true,
		}
	}
	return out, nil
}

// placement scatters objects over a square of half-extent spread, lifted
// slightly off the ground plane.
func placement(rng *rand.Rand, spread float32) scene.Transform {
	t := scene.IdentityTransform()
	t.Position = math.V3(
		(rng.Float32()*2-1)*spread,
		rng.Float32()*spread*0.1,
		(rng.Float32()*2-1)*spread,
	)
	t.Rotation.Y = rng.Float32() * 2 * math32.Pi
	return t
}
