// Package culling derives view frustums from the camera and tests bounding
// volumes against them.
package culling

import (
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Plane is the half-space Normal·p + D >= 0. The normal points into the
// frustum.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

func planeFrom(v math.Vec4) Plane {
	n := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Scale(1 / l), D: v[3] / l}
}

// Plane indices.
const (
	Left = iota
	Right
	Bottom
	Top
	Near
	Far
)

// Frustum holds six normalised clip planes.
type Frustum struct {
	Planes [6]Plane
}

// FromMatrix extracts the frustum planes from a view-projection matrix
// (Gribb/Hartmann).
func FromMatrix(vp math.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	add := func(a, b math.Vec4) math.Vec4 {
		return math.Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
	}
	sub := func(a, b math.Vec4) math.Vec4 {
		return math.Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
	}

	var f Frustum
	f.Planes[Left] = planeFrom(add(r3, r0))
	f.Planes[Right] = planeFrom(sub(r3, r0))
	f.Planes[Bottom] = planeFrom(add(r3, r1))
	f.Planes[Top] = planeFrom(sub(r3, r1))
	f.Planes[Near] = planeFrom(add(r3, r2))
	f.Planes[Far] = planeFrom(sub(r3, r2))
	return f
}

// IntersectsBox returns false only if the box is completely outside one
// plane. It tests the corner most aligned with each plane normal.
func (f *Frustum) IntersectsBox(b math.AABB) bool {
	for _, p := range f.Planes {
		v := b.Max
		if p.Normal.X < 0 {
			v.X = b.Min.X
		}
		if p.Normal.Y < 0 {
			v.Y = b.Min.Y
		}
		if p.Normal.Z < 0 {
			v.Z = b.Min.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsBox reports whether the whole box is inside every plane.
func (f *Frustum) ContainsBox(b math.AABB) bool {
	for _, p := range f.Planes {
		v := b.Min
		if p.Normal.X < 0 {
			v.X = b.Max.X
		}
		if p.Normal.Y < 0 {
			v.Y = b.Max.Y
		}
		if p.Normal.Z < 0 {
			v.Z = b.Max.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the sphere touches the frustum.
func (f *Frustum) IntersectsSphere(s math.Sphere) bool {
	for _, p := range f.Planes {
		if p.Distance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether pt is inside the frustum.
func (f *Frustum) ContainsPoint(pt math.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(pt) < 0 {
			return false
		}
	}
	return true
}
