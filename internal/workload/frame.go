package workload

import (
	"time"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

// FrameModel estimates GPU frame time from what the renderer holds, so the
// headless benchmark reacts to the engine's own decisions.
type FrameModel struct {
	Base                time.Duration // Fixed cost per frame
	PerDrawCall         time.Duration
	PerMillionTriangles time.Duration
	// Load scales the total; 2 simulates a device twice as slow.
	Load float64
}

// DefaultFrameModel roughly matches a mid-range integrated GPU.
func DefaultFrameModel() FrameModel {
	return FrameModel{
		Base:                4 * time.Millisecond,
		PerDrawCall:         20 * time.Microsecond,
		PerMillionTriangles: 10 * time.Millisecond,
		Load:                1,
	}
}

// FrameTime returns the simulated duration of one frame.
func (m FrameModel) FrameTime(info scene.RenderInfo) time.Duration {
	d := m.Base +
		time.Duration(info.DrawCalls)*m.PerDrawCall +
		time.Duration(float64(m.PerMillionTriangles)*float64(info.Triangles)/1e6)
	if m.Load > 0 {
		d = time.Duration(float64(d) * m.Load)
	}
	return d
}
