// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/scene-perf/pkg/math"

// GenerateBBoxWireframeVertices creates line vertices for a wireframe bounding box.
// Returns 24 vertices (12 edges × 2 endpoints), format: [x, y, z] per vertex.
func GenerateBBoxWireframeVertices(minX, minY, minZ, maxX, maxY, maxZ float32) []float32 {
	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// Wireframe returns line-list vertices for every box. Empty boxes are
// skipped. padding shrinks each box so nested octree cells stay apart.
func Wireframe(boxes []math.AABB, padding float32) []float32 {
	out := make([]float32, 0, len(boxes)*BBoxWireframeVertexCount*3)
	for _, b := range boxes {
		if b.IsEmpty() {
			continue
		}
		if s := b.Size(); padding*2 < s.X && padding*2 < s.Y && padding*2 < s.Z {
			b = b.Expand(-padding)
		}
		out = append(out, GenerateBBoxWireframeVertices(
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)...)
	}
	return out
}

// DefaultLeafPadding keeps adjacent leaf outlines from z-fighting.
const DefaultLeafPadding = 0.05
