// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scene-perf/pkg/math"
)

// Sun is a directional light given by compass angles in degrees. Azimuth
// rotates around Y starting at +Z; elevation is measured from the horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
	Ambient   float32 // Light reaching faces turned away from the sun, 0..1
}

// DefaultSun is a mid-morning sun from the north-east.
func DefaultSun() Sun {
	return Sun{Azimuth: 45, Elevation: 60, Ambient: 0.35}
}

// Direction returns the unit vector pointing towards the sun.
func (s Sun) Direction() math.Vec3 {
	lon := s.Azimuth * math32.Pi / 180
	lat := s.Elevation * math32.Pi / 180
	return math.V3(
		math32.Cos(lat)*math32.Sin(lon),
		math32.Sin(lat),
		math32.Cos(lat)*math32.Cos(lon),
	)
}
