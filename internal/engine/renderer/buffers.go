package renderer

import "github.com/Faultbox/scene-perf/internal/engine/scene"

// vertexStride is position + normal, in floats.
const vertexStride = 6

// interleave packs a geometry into position/normal pairs. Missing or short
// normals are left zero, which the fragment shader draws unlit.
func interleave(g *scene.Geometry) []float32 {
	n := g.VertexCount()
	out := make([]float32, n*vertexStride)
	hasNormals := len(g.Normals) >= n*3
	for i := 0; i < n; i++ {
		copy(out[i*vertexStride:], g.Positions[i*3:i*3+3])
		if hasNormals {
			copy(out[i*vertexStride+3:], g.Normals[i*3:i*3+3])
		}
	}
	return out
}

// elementCount is the number of vertices a draw call submits.
func elementCount(g *scene.Geometry) int32 {
	if len(g.Indices) > 0 {
		return int32(len(g.Indices))
	}
	return int32(g.VertexCount())
}

// textureSet collects the distinct textures referenced by live materials.
func textureSet(mats []*scene.Material) map[*scene.Texture]struct{} {
	set := make(map[*scene.Texture]struct{})
	for _, m := range mats {
		if m == nil {
			continue
		}
		for _, t := range m.Textures {
			if t != nil {
				set[t] = struct{}{}
			}
		}
	}
	return set
}
