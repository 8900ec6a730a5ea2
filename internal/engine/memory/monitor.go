package memory

import (
	"time"

	"github.com/Faultbox/scene-perf/internal/engine/clock"
)

const (
	frameTimeWindow = 120
	fpsWindow       = 60
	fpsInterval     = time.Second

	// WarningFPS and CriticalFPS are absolute floors for the fair and poor
	// levels.
	WarningFPS  = 30
	CriticalFPS = 15

	defaultFPS       = 60
	defaultFrameTime = 16670 * time.Microsecond
	spikeFrameTime   = 33340 * time.Microsecond
)

// Level classifies recent frame rate.
type Level string

const (
	Excellent Level = "excellent"
	Good      Level = "good"
	Fair      Level = "fair"
	Poor      Level = "poor"
	Critical  Level = "critical"
)

// Monitor keeps rolling windows of frame times and once-per-second FPS
// samples.
type Monitor struct {
	// TargetFPS scales the excellent and good cutoffs.
	TargetFPS float64

	clock      clock.Clock
	frameTimes []time.Duration
	fps        []float64
	frames     int
	last       time.Time
	lastSample time.Time
	started    bool
}

// NewMonitor creates a monitor targeting 60 FPS.
func NewMonitor(clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.Real
	}
	return &Monitor{TargetFPS: defaultFPS, clock: clk}
}

// Update records one frame.
func (m *Monitor) Update() {
	now := m.clock.Now()
	if !m.started {
		m.started = true
		m.last, m.lastSample = now, now
		return
	}

	m.frameTimes = append(m.frameTimes, now.Sub(m.last))
	if len(m.frameTimes) > frameTimeWindow {
		m.frameTimes = m.frameTimes[1:]
	}
	m.last = now

	m.frames++
	if elapsed := now.Sub(m.lastSample); elapsed >= fpsInterval {
		m.fps = append(m.fps, float64(m.frames)/elapsed.Seconds())
		if len(m.fps) > fpsWindow {
			m.fps = m.fps[1:]
		}
		m.frames = 0
		m.lastSample = now
	}
}

// CurrentFPS returns the newest FPS sample, or 60 before the first.
func (m *Monitor) CurrentFPS() float64 {
	if len(m.fps) == 0 {
		return defaultFPS
	}
	return m.fps[len(m.fps)-1]
}

// AverageFPS returns the mean of the FPS window, or 60 before the first
// sample.
func (m *Monitor) AverageFPS() float64 {
	if len(m.fps) == 0 {
		return defaultFPS
	}
	var sum float64
	for _, f := range m.fps {
		sum += f
	}
	return sum / float64(len(m.fps))
}

// RecentFPS averages the newest n FPS samples, or 60 before the first.
func (m *Monitor) RecentFPS(n int) float64 {
	if len(m.fps) == 0 {
		return defaultFPS
	}
	if n <= 0 || n > len(m.fps) {
		n = len(m.fps)
	}
	var sum float64
	for _, f := range m.fps[len(m.fps)-n:] {
		sum += f
	}
	return sum / float64(n)
}

// CurrentFrameTime returns the newest frame time.
func (m *Monitor) CurrentFrameTime() time.Duration {
	if len(m.frameTimes) == 0 {
		return defaultFrameTime
	}
	return m.frameTimes[len(m.frameTimes)-1]
}

// AverageFrameTime returns the mean of the frame-time window.
func (m *Monitor) AverageFrameTime() time.Duration {
	if len(m.frameTimes) == 0 {
		return defaultFrameTime
	}
	var sum time.Duration
	for _, d := range m.frameTimes {
		sum += d
	}
	return sum / time.Duration(len(m.frameTimes))
}

// Level classifies AverageFPS: at least 90% of target is excellent, 70%
// good, then the absolute warning and critical floors.
func (m *Monitor) Level() Level {
	avg := m.AverageFPS()
	switch {
	case avg >= m.TargetFPS*0.9:
		return Excellent
	case avg >= m.TargetFPS*0.7:
		return Good
	case avg >= WarningFPS:
		return Fair
	case avg >= CriticalFPS:
		return Poor
	default:
		return Critical
	}
}

// ShouldReduceQuality reports a poor or critical level.
func (m *Monitor) ShouldReduceQuality() bool {
	l := m.Level()
	return l == Poor || l == Critical
}

// FrameTimeSpikes counts frames in the window slower than two 60 FPS frames.
func (m *Monitor) FrameTimeSpikes() int {
	n := 0
	for _, d := range m.frameTimes {
		if d > spikeFrameTime {
			n++
		}
	}
	return n
}

// Reset drops all samples.
func (m *Monitor) Reset() {
	m.frameTimes = m.frameTimes[:0]
	m.fps = m.fps[:0]
	m.frames = 0
	m.started = false
}
