package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// MaterialType identifies the shading model.
type MaterialType string

const (
	MaterialStandard MaterialType = "standard"
	MaterialBasic    MaterialType = "basic"
	MaterialPhong    MaterialType = "phong"
)

// Color is a linear RGB color.
type Color struct {
	R, G, B float32
}

// DefaultColor is used when an object carries no color (0x888888).
var DefaultColor = Color{R: 0x88 / 255.0, G: 0x88 / 255.0, B: 0x88 / 255.0}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
	}, nil
}

// Hex formats the color as lowercase rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Texture describes an image payload by size only.
type Texture struct {
	Key    string
	Width  int
	Height int
	GPU    any
}

// Material holds surface shading properties.
type Material struct {
	Type      MaterialType
	Color     Color
	Metalness float32
	Roughness float32
	Opacity   float32
	Textures  []*Texture
}

// NewStandardMaterial returns an opaque standard material.
func NewStandardMaterial(c Color) *Material {
	return &Material{Type: MaterialStandard, Color: c, Metalness: 0, Roughness: 1, Opacity: 1}
}

// Clone returns a shallow copy sharing texture references.
func (m *Material) Clone() *Material {
	out := *m
	out.Textures = append([]*Texture(nil), m.Textures...)
	return &out
}
