package culling

import (
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Culler caches the frustum of the active camera for the current frame.
// Visibility tests are pure and may be called any number of times.
type Culler struct {
	frustum Frustum
	valid   bool
}

// NewCuller returns a culler with no frustum; everything is visible until
// the first UpdateFrustum.
func NewCuller() *Culler {
	return &Culler{}
}

// UpdateFrustum recomputes the frustum from the camera's view-projection.
func (c *Culler) UpdateFrustum(cam scene.Camera) {
	if cam == nil {
		return
	}
	c.SetMatrix(cam.ViewProjection())
}

// SetMatrix recomputes the frustum from an explicit view-projection matrix.
func (c *Culler) SetMatrix(vp math.Mat4) {
	c.frustum = FromMatrix(vp)
	c.valid = true
}

// Frustum returns the cached frustum and whether one has been computed.
func (c *Culler) Frustum() (*Frustum, bool) {
	return &c.frustum, c.valid
}

// IsBoxVisible tests a world-space box.
func (c *Culler) IsBoxVisible(b math.AABB) bool {
	if !c.valid {
		return true
	}
	return c.frustum.IntersectsBox(b)
}

// IsSphereVisible tests a world-space sphere.
func (c *Culler) IsSphereVisible(s math.Sphere) bool {
	if !c.valid {
		return true
	}
	return c.frustum.IntersectsSphere(s)
}

// IsObjectVisible tests an object's world bounds.
func (c *Culler) IsObjectVisible(o *scene.Object) bool {
	return c.IsBoxVisible(o.Bounds())
}
