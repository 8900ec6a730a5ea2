// Package lod selects a detail level per object from camera distance and
// swaps the drawn representation when the level changes.
package lod

// Tier is a detail level. Higher values are coarser.
type Tier int

const (
	High Tier = iota
	Medium
	Low
	Culled
)

func (t Tier) String() string {
	switch t {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	case Culled:
		return "culled"
	default:
		return "unknown"
	}
}

// Config holds the distance thresholds. Objects farther than Low are culled.
// Cull is the distance past which a host should stop considering objects at
// all, such as a camera far plane.
type Config struct {
	High   float32 `yaml:"high"`
	Medium float32 `yaml:"medium"`
	Low    float32 `yaml:"low"`
	Cull   float32 `yaml:"cull"`

	// Hysteresis is the fractional dead zone around each threshold. Zero
	// selects tiers strictly.
	Hysteresis float32 `yaml:"hysteresis"`
}

// DefaultConfig returns {20, 50, 100, 200} without hysteresis.
func DefaultConfig() Config {
	return Config{High: 20, Medium: 50, Low: 100, Cull: 200}
}

func (c Config) boundary(t Tier) float32 {
	switch t {
	case High:
		return c.High
	case Medium:
		return c.Medium
	default:
		return c.Low
	}
}

// SelectTier maps distance to a tier with hard cutoffs: d <= High is High,
// d <= Medium is Medium, d <= Low is Low, anything farther is Culled.
func SelectTier(d float32, c Config) Tier {
	switch {
	case d <= c.High:
		return High
	case d <= c.Medium:
		return Medium
	case d <= c.Low:
		return Low
	default:
		return Culled
	}
}

// SelectTierHysteresis keeps current until d crosses one of its thresholds
// by more than band (a fraction of the threshold). Once crossed, the strict
// tier for d is returned.
func SelectTierHysteresis(current Tier, d float32, c Config, band float32) Tier {
	if band <= 0 || current < High || current > Culled {
		return SelectTier(d, c)
	}
	if current < Culled && d > c.boundary(current)*(1+band) {
		return SelectTier(d, c)
	}
	if current > High && d <= c.boundary(current-1)*(1-band) {
		return SelectTier(d, c)
	}
	return current
}

// Select applies the configured selection rule.
func (c Config) Select(current Tier, d float32) Tier {
	if c.Hysteresis > 0 {
		return SelectTierHysteresis(current, d, c, c.Hysteresis)
	}
	return SelectTier(d, c)
}
