package scene

import "github.com/Faultbox/scene-perf/pkg/math"

// Mesh is one drawable representation submitted to the renderer.
type Mesh struct {
	Name      string
	Geometry  *Geometry
	Material  *Material
	Transform Transform
	Visible   bool

	GPU any
}

// InstanceBuffer is a batched draw of one geometry/material pair. Matrices
// holds 16 floats per instance and Colors 3.
type InstanceBuffer struct {
	Key      string
	Geometry *Geometry
	Material *Material
	Count    int
	Matrices []float32
	Colors   []float32

	GPU any
}

// RenderInfo mirrors the resource and per-frame counters a renderer exposes.
type RenderInfo struct {
	Geometries int
	Textures   int
	DrawCalls  int
	Triangles  int
}

// Renderer is the external renderer the engine drives. The engine never
// rasterises; it only adds and removes representations and frees the GPU
// resources it owns.
type Renderer interface {
	Add(m *Mesh)
	Remove(m *Mesh)
	DisposeGeometry(g *Geometry)
	UploadInstances(b *InstanceBuffer)
	FreeInstances(b *InstanceBuffer)
	Info() RenderInfo
}

// Camera is the live camera the engine reads each frame.
type Camera interface {
	Position() math.Vec3
	ViewProjection() math.Mat4
}

// Ownership tags whether the engine may dispose a resource.
type Ownership uint8

const (
	// Borrowed resources belong to the scene store and are never disposed.
	Borrowed Ownership = iota
	// Owned resources were created by the engine and are disposed exactly once.
	Owned
)

func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// GeometryRef is a geometry handle tagged with its ownership.
type GeometryRef struct {
	Geometry  *Geometry
	Ownership Ownership
	released  bool
}

// Release disposes an owned geometry through r. It returns true only on the
// call that actually disposed it.
func (ref *GeometryRef) Release(r Renderer) bool {
	if ref.released || ref.Geometry == nil {
		return false
	}
	ref.released = true
	if ref.Ownership != Owned {
		return false
	}
	r.DisposeGeometry(ref.Geometry)
	return true
}

// Released reports whether Release has run.
func (ref *GeometryRef) Released() bool {
	return ref.released
}
