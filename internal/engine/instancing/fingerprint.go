// Package instancing batches objects with the same geometry shape and
// material into one instanced draw.
package instancing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

// GeometryKey identifies a geometry by vertex count and bounding-box size.
// Different meshes with equal counts and extents share a key.
func GeometryKey(g *scene.Geometry) string {
	size := g.Bounds().Size()
	return fmt.Sprintf("geo_%d_%.2f_%.2f_%.2f", g.VertexCount(), size.X, size.Y, size.Z)
}

// MaterialKey identifies a material by type, color, scalar parameters and
// textures. A nil material keys as the default standard material.
func MaterialKey(m *scene.Material) string {
	if m == nil {
		m = scene.NewStandardMaterial(scene.Color{R: 1, G: 1, B: 1})
	}
	var key string
	switch m.Type {
	case scene.MaterialStandard:
		key = fmt.Sprintf("mat_std_%s_%s_%s", m.Color.Hex(), ftoa(m.Metalness), ftoa(m.Roughness))
	case scene.MaterialBasic:
		key = "mat_basic_" + m.Color.Hex()
	default:
		key = fmt.Sprintf("mat_%s_%s_%s", m.Type, m.Color.Hex(), ftoa(m.Opacity))
	}
	if len(m.Textures) > 0 {
		key += "_tex_" + textureKeys(m.Textures)
	}
	return key
}

// textureKeys names textures by Key, or by identity when they have none.
func textureKeys(texs []*scene.Texture) string {
	names := make([]string, len(texs))
	for i, t := range texs {
		switch {
		case t == nil:
			names[i] = "nil"
		case t.Key != "":
			names[i] = t.Key
		default:
			names[i] = fmt.Sprintf("%p", t)
		}
	}
	return strings.Join(names, ",")
}

// Fingerprint is the group key for a geometry/material pair.
func Fingerprint(g *scene.Geometry, m *scene.Material) string {
	return GeometryKey(g) + "_" + MaterialKey(m)
}

func ftoa(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
