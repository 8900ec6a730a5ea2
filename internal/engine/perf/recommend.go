package perf

import (
	"math"
	"strings"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

const gib = 1 << 30

// DeviceProfile describes the host. Renderer is the GL_RENDERER string.
// AvailableMemory is in bytes; zero means unknown.
type DeviceProfile struct {
	Renderer        string
	AvailableMemory uint64
}

// EstimateGPUTier classifies a GL renderer string by GPU family. Unknown or
// empty strings are Low.
func EstimateGPUTier(renderer string) Tier {
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(renderer, s) {
				return true
			}
		}
		return false
	}

	switch {
	case has("RTX", "RX 6", "RX 7"):
		return Ultra
	case has("GTX 16", "GTX 20", "RX 5"):
		return High
	case has("GTX 10", "RX 4"):
		return Medium
	case has("Intel") && has("Iris"):
		return Medium
	default:
		return Low
	}
}

// Recommend picks a starting tier for d. Less than 1 GiB of memory costs one
// tier; unknown memory is assumed to be 2 GiB.
func Recommend(d DeviceProfile) Tier {
	t := EstimateGPUTier(d.Renderer)
	mem := d.AvailableMemory
	if mem == 0 {
		mem = 2 * gib
	}
	if mem < gib {
		t = t.Lower()
	}
	return t
}

// ObjectComplexity scores g from 0 to 100 by the log of its triangle count:
// ten triangles score 20, a hundred thousand score 100.
func ObjectComplexity(g *scene.Geometry) float64 {
	if g.Validate() != nil {
		return 0
	}
	faces := g.TriangleCount()
	if faces <= 1 {
		return 0
	}
	return min(100, math.Log10(float64(faces))*20)
}
