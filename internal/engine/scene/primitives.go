package scene

import (
	"github.com/chewxy/math32"
)

// NewBox builds an indexed box centred on the origin with per-face normals.
func NewBox(width, height, depth float32) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct {
		n       [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	g := &Geometry{Name: "box"}
	for _, f := range faces {
		base := uint32(g.VertexCount())
		for i, c := range f.corners {
			g.Positions = append(g.Positions, c[0], c[1], c[2])
			g.Normals = append(g.Normals, f.n[0], f.n[1], f.n[2])
			g.UVs = append(g.UVs, uvs[i][0], uvs[i][1])
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// NewPlane builds a quad in the XZ plane facing +Y.
func NewPlane(width, depth float32) *Geometry {
	hx, hz := width/2, depth/2
	return &Geometry{
		Name:      "plane",
		Positions: []float32{-hx, 0, hz, hx, 0, hz, hx, 0, -hz, -hx, 0, -hz},
		Normals:   []float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
		UVs:       []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

// NewSphere builds a UV sphere.
func NewSphere(radius float32, segments, rings int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	g := &Geometry{Name: "sphere"}
	for ring := 0; ring <= rings; ring++ {
		phi := float32(ring) * math32.Pi / float32(rings)
		sinPhi, cosPhi := math32.Sincos(phi)
		for seg := 0; seg <= segments; seg++ {
			theta := float32(seg) * 2 * math32.Pi / float32(segments)
			sinTheta, cosTheta := math32.Sincos(theta)
			nx, ny, nz := sinPhi*cosTheta, cosPhi, sinPhi*sinTheta
			g.Positions = append(g.Positions, nx*radius, ny*radius, nz*radius)
			g.Normals = append(g.Normals, nx, ny, nz)
			g.UVs = append(g.UVs, float32(seg)/float32(segments), float32(ring)/float32(rings))
		}
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)
			g.Indices = append(g.Indices, current, next, current+1, current+1, next, next+1)
		}
	}
	return g
}
