// Package camera provides cameras that satisfy scene.Camera.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scene-perf/pkg/math"
)

// Projection holds perspective projection parameters.
type Projection struct {
	FovY   float32 // Vertical field of view (radians)
	Aspect float32 // Width / height
	Near   float32
	Far    float32
}

// DefaultProjection returns a 60 degree projection for a 16:9 viewport.
func DefaultProjection() Projection {
	return Projection{
		FovY:   math32.Pi / 3,
		Aspect: 16.0 / 9.0,
		Near:   0.1,
		Far:    2000,
	}
}

// Matrix returns the projection matrix.
func (p Projection) Matrix() math.Mat4 {
	return math.Perspective(p.FovY, p.Aspect, p.Near, p.Far)
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Projection

	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Projection:      DefaultProjection(),
		Distance:        60.0,
		RotationX:       0.5,
		RotationY:       0.0,
		MinDistance:     2.0,
		MaxDistance:     1500.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinX, cosX := math32.Sincos(c.RotationX)
	sinY, cosY := math32.Sincos(c.RotationY)

	return c.Center.Add(math.Vec3{
		X: c.Distance * cosX * sinY,
		Y: c.Distance * sinX,
		Z: c.Distance * cosX * cosY,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.Projection.Matrix().Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the camera center point based on keyboard input.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	dirX, dirZ := math32.Sincos(c.RotationY)
	rightX, rightZ := dirZ, -dirX

	c.Center.X += (-dirX*forward + rightX*right) * speed
	c.Center.Z += (-dirZ*forward + rightZ*right) * speed
	c.Center.Y += up * speed
}

// FitToBounds adjusts the camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(b math.AABB) {
	c.Center = b.Center()
	radius := b.Size().Length() * 0.5
	c.Distance = clamp(radius/math32.Sin(c.FovY/2), c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0.0
}

// LookAtCamera is a fixed camera looking from Eye at Target.
type LookAtCamera struct {
	Projection
	Eye    math.Vec3
	Target math.Vec3
	Up     math.Vec3
}

// NewLookAtCamera creates a fixed camera with the default projection.
func NewLookAtCamera(eye, target math.Vec3) *LookAtCamera {
	return &LookAtCamera{
		Projection: DefaultProjection(),
		Eye:        eye,
		Target:     target,
		Up:         math.Vec3{Y: 1},
	}
}

// Position returns the eye position.
func (c *LookAtCamera) Position() math.Vec3 {
	return c.Eye
}

// ViewProjection returns projection * view.
func (c *LookAtCamera) ViewProjection() math.Mat4 {
	return c.Projection.Matrix().Mul(math.LookAt(c.Eye, c.Target, c.Up))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
