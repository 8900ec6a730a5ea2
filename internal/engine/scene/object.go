// Package scene defines the scene objects handed to the performance engine
// and the renderer and camera it drives.
package scene

import (
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Kind is the primitive an object was created from.
type Kind string

const (
	KindBox      Kind = "box"
	KindSphere   Kind = "sphere"
	KindCylinder Kind = "cylinder"
	KindCone     Kind = "cone"
	KindTorus    Kind = "torus"
	KindPlane    Kind = "plane"
	KindCustom   Kind = "custom"
)

// Transform places an object in world space. Rotation holds XYZ Euler angles
// in radians.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

// IdentityTransform has unit scale at the origin.
func IdentityTransform() Transform {
	return Transform{Scale: math.Splat(1)}
}

// Matrix composes the transform into a model matrix.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Position, t.Rotation, t.Scale)
}

// Object is a reference to an entry in the external scene store. The engine
// applies the host's Updates to it and otherwise only reads it.
type Object struct {
	ID       string
	Name     string
	Kind     Kind
	Geometry *Geometry
	Material *Material
	Transform
	Color   Color
	Visible bool
}

// Bounds returns the world-space bounding box. Objects without measurable
// geometry are treated as a unit cube scaled by the transform.
func (o *Object) Bounds() math.AABB {
	local := math.AABBFromCenterSize(math.Vec3{}, math.Splat(1))
	if o.Geometry.Validate() == nil {
		local = o.Geometry.Bounds()
	}
	return TransformAABB(local, o.Transform.Matrix())
}

// TransformAABB transforms the eight corners of a local box and returns
// their world-space bounds.
func TransformAABB(local math.AABB, m math.Mat4) math.AABB {
	out := math.EmptyAABB()
	for i := 0; i < 8; i++ {
		c := local.Min
		if i&1 != 0 {
			c.X = local.Max.X
		}
		if i&2 != 0 {
			c.Y = local.Max.Y
		}
		if i&4 != 0 {
			c.Z = local.Max.Z
		}
		out = out.ExpandByPoint(m.TransformVec3(c))
	}
	return out
}

// Update is a partial object update. Nil fields are left unchanged.
type Update struct {
	Position *math.Vec3
	Rotation *math.Vec3
	Scale    *math.Vec3
	Color    *Color
	Visible  *bool
	Material *Material
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Position == nil && u.Rotation == nil && u.Scale == nil &&
		u.Color == nil && u.Visible == nil && u.Material == nil
}

// MovesBounds reports whether applying u can change the object's bounds.
func (u Update) MovesBounds() bool {
	return u.Position != nil || u.Rotation != nil || u.Scale != nil
}

// Apply mutates o in place.
func (u Update) Apply(o *Object) {
	if u.Position != nil {
		o.Position = *u.Position
	}
	if u.Rotation != nil {
		o.Rotation = *u.Rotation
	}
	if u.Scale != nil {
		o.Scale = *u.Scale
	}
	if u.Color != nil {
		o.Color = *u.Color
	}
	if u.Visible != nil {
		o.Visible = *u.Visible
	}
	if u.Material != nil {
		o.Material = u.Material
	}
}
