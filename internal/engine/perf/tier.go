// Package perf composes the spatial index, LOD, instancing and memory
// subsystems and adapts the quality tier to the measured frame rate.
package perf

import (
	"fmt"

	"github.com/Faultbox/scene-perf/internal/engine/lod"
)

// Tier is a quality tier. Lower values are higher quality.
type Tier int

const (
	Ultra Tier = iota
	High
	Medium
	Low
	Potato
)

var tierNames = [...]string{"ultra", "high", "medium", "low", "potato"}

func (t Tier) String() string {
	if t < Ultra || t > Potato {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if s == name {
			return Tier(i), nil
		}
	}
	return High, fmt.Errorf("unknown performance level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Lower returns the next lower-quality tier, clamped at Potato.
func (t Tier) Lower() Tier {
	return min(t+1, Potato)
}

// Higher returns the next higher-quality tier, clamped at Ultra.
func (t Tier) Higher() Tier {
	return max(t-1, Ultra)
}

// TierConfig is what a tier sets when applied.
type TierConfig struct {
	MaxObjects        int
	TargetFPS         float64
	LOD               lod.Config
	DisableInstancing bool
}

var tierConfigs = [...]TierConfig{
	Ultra:  {MaxObjects: 5000, TargetFPS: 60, LOD: lod.Config{High: 30, Medium: 80, Low: 150, Cull: 300}},
	High:   {MaxObjects: 2000, TargetFPS: 60, LOD: lod.Config{High: 20, Medium: 50, Low: 100, Cull: 200}},
	Medium: {MaxObjects: 1000, TargetFPS: 45, LOD: lod.Config{High: 15, Medium: 40, Low: 80, Cull: 150}},
	Low:    {MaxObjects: 500, TargetFPS: 30, LOD: lod.Config{High: 10, Medium: 25, Low: 50, Cull: 100}},
	Potato: {MaxObjects: 200, TargetFPS: 20, LOD: lod.Config{High: 5, Medium: 15, Low: 30, Cull: 60}, DisableInstancing: true},
}

// ConfigFor returns the configuration of t.
func ConfigFor(t Tier) TierConfig {
	return tierConfigs[min(max(t, Ultra), Potato)]
}

// Guideline limits per tier. They are advisory and not enforced.
var (
	maxTriangles   = [...]int{10_000_000, 5_000_000, 2_000_000, 1_000_000, 500_000}
	maxTextureSize = [...]int{4096, 2048, 1024, 512, 256}
)

// MaxTriangles is the recommended triangle budget for t.
func MaxTriangles(t Tier) int {
	return maxTriangles[min(max(t, Ultra), Potato)]
}

// MaxTextureSize is the recommended largest texture edge for t.
func MaxTextureSize(t Tier) int {
	return maxTextureSize[min(max(t, Ultra), Potato)]
}
