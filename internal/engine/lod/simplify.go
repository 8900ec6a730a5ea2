package lod

import (
	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

// Detail ratios of the generated variants.
const (
	MediumRatio = 0.5
	LowRatio    = 0.25
)

// Simplify returns a copy of g with about ratio of its vertices, sampled at
// a uniform stride. Indices are dropped. This is vertex decimation, not
// error-bounded simplification; the result only approximates the shape.
func Simplify(g *scene.Geometry, ratio float32) *scene.Geometry {
	out := g.Clone()
	if ratio >= 1 || g.Validate() != nil {
		return out
	}

	n := g.VertexCount()
	target := max(3, int(float32(n)*ratio))
	if target >= n {
		return out
	}

	hasNormals := len(g.Normals) == len(g.Positions)
	hasUVs := len(g.UVs) == n*2

	out.Positions = make([]float32, 0, target*3)
	out.Normals = nil
	out.UVs = nil
	if hasNormals {
		out.Normals = make([]float32, 0, target*3)
	}
	if hasUVs {
		out.UVs = make([]float32, 0, target*2)
	}

	step := float64(n) / float64(target)
	for i := 0; i < target; i++ {
		idx := int(float64(i) * step)
		out.Positions = append(out.Positions, g.Positions[idx*3:idx*3+3]...)
		if hasNormals {
			out.Normals = append(out.Normals, g.Normals[idx*3:idx*3+3]...)
		}
		if hasUVs {
			out.UVs = append(out.UVs, g.UVs[idx*2:idx*2+2]...)
		}
	}
	out.Indices = nil
	return out
}
