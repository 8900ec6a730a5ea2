package scene

import (
	"errors"

	"github.com/Faultbox/scene-perf/pkg/math"
)

// ErrNoPositions is reported for geometry without usable position data.
var ErrNoPositions = errors.New("geometry has no position data")

// Geometry holds CPU-side vertex data. Positions are packed xyz triples.
type Geometry struct {
	Name      string
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32

	// GPU is set by the renderer backend. Engine code never reads it.
	GPU any

	bounds    math.AABB
	hasBounds bool
}

// Validate reports ErrNoPositions when the geometry cannot be measured.
func (g *Geometry) Validate() error {
	if g == nil || len(g.Positions) < 3 || len(g.Positions)%3 != 0 {
		return ErrNoPositions
	}
	return nil
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions) / 3
}

// TriangleCount approximates the triangle count from indices, or from
// vertices for non-indexed geometry.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// Vertex returns position i.
func (g *Geometry) Vertex(i int) math.Vec3 {
	return math.Vec3{X: g.Positions[i*3], Y: g.Positions[i*3+1], Z: g.Positions[i*3+2]}
}

// Bounds returns the local-space bounding box, computed once.
func (g *Geometry) Bounds() math.AABB {
	if g.hasBounds {
		return g.bounds
	}
	b := math.EmptyAABB()
	for i := 0; i < g.VertexCount(); i++ {
		b = b.ExpandByPoint(g.Vertex(i))
	}
	if b.IsEmpty() {
		b = math.AABB{}
	}
	g.bounds = b
	g.hasBounds = true
	return b
}

// InvalidateBounds forces the next Bounds call to recompute.
func (g *Geometry) InvalidateBounds() {
	g.hasBounds = false
}

// ByteSize estimates the memory held by the attribute arrays.
func (g *Geometry) ByteSize() int {
	if g == nil {
		return 0
	}
	return 4 * (len(g.Positions) + len(g.Normals) + len(g.UVs) + len(g.Indices))
}

// Clone returns a deep copy without renderer state.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		Name:      g.Name,
		Positions: append([]float32(nil), g.Positions...),
		Normals:   append([]float32(nil), g.Normals...),
		UVs:       append([]float32(nil), g.UVs...),
		Indices:   append([]uint32(nil), g.Indices...),
	}
}
