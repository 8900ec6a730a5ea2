package math

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// EmptyAABB returns an inverted box that any Union will overwrite.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABB creates an AABB from two corners, ordering each axis.
func NewAABB(a, b Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// AABBFromCenterSize creates a box centred at c with the given full extents.
func AABBFromCenterSize(c, size Vec3) AABB {
	half := size.Abs().Scale(0.5)
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// IsEmpty reports whether the box is inverted on any axis.
func (b AABB) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Center returns the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Intersects reports whether the two boxes overlap. Touching faces count.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// ContainsBox reports whether o lies entirely inside b.
func (b AABB) ContainsBox(o AABB) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether p lies inside or on b.
func (b AABB) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Union returns the smallest box containing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// ExpandByPoint grows the box to include p.
func (b AABB) ExpandByPoint(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Expand grows the box by d on every side.
func (b AABB) Expand(d float32) AABB {
	return AABB{Min: b.Min.Sub(Splat(d)), Max: b.Max.Add(Splat(d))}
}

// ClosestPoint returns the point of b nearest to p.
func (b AABB) ClosestPoint(p Vec3) Vec3 {
	return p.Max(b.Min).Min(b.Max)
}

// DistanceToPoint returns 0 for points inside the box.
func (b AABB) DistanceToPoint(p Vec3) float32 {
	return b.ClosestPoint(p).Distance(p)
}

// Octant returns child i of the eight equal sub-boxes. Bit 0 selects +X,
// bit 1 +Y and bit 2 +Z.
func (b AABB) Octant(i int) AABB {
	c := b.Center()
	out := AABB{Min: b.Min, Max: c}
	if i&1 != 0 {
		out.Min.X, out.Max.X = c.X, b.Max.X
	}
	if i&2 != 0 {
		out.Min.Y, out.Max.Y = c.Y, b.Max.Y
	}
	if i&4 != 0 {
		out.Min.Z, out.Max.Z = c.Z, b.Max.Z
	}
	return out
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float32
}

// IntersectsBox reports whether the sphere touches the box.
func (s Sphere) IntersectsBox(b AABB) bool {
	return b.DistanceToPoint(s.Center) <= s.Radius
}

// ContainsBox reports whether every corner of b is inside the sphere.
func (s Sphere) ContainsBox(b AABB) bool {
	far := b.Center().Sub(s.Center).Abs().Add(b.Size().Scale(0.5))
	return far.Length() <= s.Radius
}

// BoundingSphere returns the sphere circumscribing the box.
func (b AABB) BoundingSphere() Sphere {
	return Sphere{Center: b.Center(), Radius: b.Size().Length() * 0.5}
}
