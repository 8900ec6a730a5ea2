package renderer

import (
	"testing"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

func TestInterleave(t *testing.T) {
	g := scene.NewPlane(2, 2)
	out := interleave(g)
	if len(out) != 4*vertexStride {
		t.Fatalf("len = %d, want %d", len(out), 4*vertexStride)
	}
	// First vertex: (-1, 0, 1) facing +Y.
	want := []float32{-1, 0, 1, 0, 1, 0}
	for i, v := range want {
		if out[i] != v {
			t.Errorf("out[%d] = %v, want %v", i, out[i], v)
		}
	}
}

func TestInterleaveWithoutNormals(t *testing.T) {
	g := &scene.Geometry{Positions: []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, Normals: []float32{0, 1}}
	out := interleave(g)
	for i := 0; i < 3; i++ {
		n := out[i*vertexStride+3 : i*vertexStride+6]
		if n[0] != 0 || n[1] != 0 || n[2] != 0 {
			t.Errorf("vertex %d normal = %v, want zero", i, n)
		}
	}
	if out[vertexStride] != 4 {
		t.Errorf("second position x = %v, want 4", out[vertexStride])
	}
}

func TestElementCount(t *testing.T) {
	tests := []struct {
		name string
		g    *scene.Geometry
		want int32
	}{
		{"indexed box", scene.NewBox(1, 1, 1), 36},
		{"triangle soup", &scene.Geometry{Positions: make([]float32, 18)}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := elementCount(tt.g); got != tt.want {
				t.Errorf("elementCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTextureSet(t *testing.T) {
	tex := &scene.Texture{Key: "bark", Width: 64, Height: 64}
	a := scene.NewStandardMaterial(scene.DefaultColor)
	a.Textures = []*scene.Texture{tex}
	b := scene.NewStandardMaterial(scene.DefaultColor)
	b.Textures = []*scene.Texture{tex, nil}

	if got := len(textureSet([]*scene.Material{a, b, nil})); got != 1 {
		t.Errorf("distinct textures = %d, want 1", got)
	}
}
