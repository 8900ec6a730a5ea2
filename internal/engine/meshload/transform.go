package meshload

import (
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/scene-perf/pkg/math"
)

// nodeMatrix returns matrix * T * R * S. Nodes set either the matrix or the
// TRS properties; the unset side defaults to identity.
func nodeMatrix(n *gltf.Node) math.Mat4 {
	var m math.Mat4
	for i, v := range n.MatrixOrDefault() {
		m[i] = float32(v)
	}

	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	trs := math.Translate(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul(quatMatrix(n.RotationOrDefault())).
		Mul(math.Scale(float32(s[0]), float32(s[1]), float32(s[2])))
	return m.Mul(trs)
}

// quatMatrix converts a unit quaternion stored as [x, y, z, w].
func quatMatrix(q [4]float64) math.Mat4 {
	x, y, z, w := float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return math.Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// transformDirection applies the upper 3x3 of m and renormalizes.
func transformDirection(m math.Mat4, v math.Vec3) math.Vec3 {
	return math.Vec3{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}.Normalize()
}
