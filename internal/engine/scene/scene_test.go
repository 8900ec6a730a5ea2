package scene

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scene-perf/pkg/math"
)

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name string
		g    *Geometry
		err  error
	}{
		{"nil", nil, ErrNoPositions},
		{"empty", &Geometry{}, ErrNoPositions},
		{"ragged", &Geometry{Positions: []float32{1, 2, 3, 4}}, ErrNoPositions},
		{"box", NewBox(1, 1, 1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestBoxGeometry(t *testing.T) {
	g := NewBox(2, 4, 6)
	if g.VertexCount() != 24 {
		t.Errorf("VertexCount = %d, want 24", g.VertexCount())
	}
	if g.TriangleCount() != 12 {
		t.Errorf("TriangleCount = %d, want 12", g.TriangleCount())
	}
	if size := g.Bounds().Size(); size != (math.Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Bounds size = %v, want 2x4x6", size)
	}
	if g.ByteSize() != 4*(24*3+24*3+24*2+36) {
		t.Errorf("ByteSize = %d", g.ByteSize())
	}
}

func TestSphereGeometryBounds(t *testing.T) {
	g := NewSphere(2, 16, 8)
	size := g.Bounds().Size()
	if math32.Abs(size.Y-4) > 1e-4 || math32.Abs(size.X-4) > 1e-4 {
		t.Errorf("sphere bounds = %v, want ~4 on each axis", size)
	}
}

func TestObjectBoundsFallsBackToUnitCube(t *testing.T) {
	o := &Object{ID: "a", Transform: Transform{Position: math.Vec3{X: 10}, Scale: math.Vec3{X: 2, Y: 2, Z: 2}}}
	b := o.Bounds()
	want := math.NewAABB(math.Vec3{X: 9, Y: -1, Z: -1}, math.Vec3{X: 11, Y: 1, Z: 1})
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
}

func TestObjectBoundsRotated(t *testing.T) {
	o := &Object{
		Geometry:  NewBox(4, 1, 1),
		Transform: Transform{Rotation: math.Vec3{Y: math32.Pi / 2}, Scale: math.Splat(1)},
	}
	size := o.Bounds().Size()
	if math32.Abs(size.Z-4) > 1e-4 || math32.Abs(size.X-1) > 1e-4 {
		t.Errorf("rotated bounds size = %v, want ~(1,1,4)", size)
	}
}

func TestUpdateApply(t *testing.T) {
	o := &Object{ID: "a", Transform: IdentityTransform(), Visible: true}
	pos := math.Vec3{X: 1, Y: 2, Z: 3}
	hidden := false
	u := Update{Position: &pos, Visible: &hidden}

	if u.Empty() || !u.MovesBounds() {
		t.Fatal("update with position should be non-empty and move bounds")
	}
	u.Apply(o)
	if o.Position != pos || o.Visible {
		t.Errorf("Apply left object %+v", o)
	}
	if o.Scale != math.Splat(1) {
		t.Error("Apply touched an unset field")
	}
	if !(Update{}).Empty() {
		t.Error("zero Update should be empty")
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	if err != nil {
		t.Fatalf("ParseHexColor: %v", err)
	}
	if c.Hex() != "ff8000" {
		t.Errorf("Hex = %s, want ff8000", c.Hex())
	}
	if _, err := ParseHexColor("#12"); err == nil {
		t.Error("expected error for short color")
	}
	if DefaultColor.Hex() != "888888" {
		t.Errorf("DefaultColor = %s, want 888888", DefaultColor.Hex())
	}
}

func TestGeometryRefReleaseOnce(t *testing.T) {
	rec := NewRecorder()
	owned := &GeometryRef{Geometry: NewBox(1, 1, 1), Ownership: Owned}
	borrowed := &GeometryRef{Geometry: NewBox(1, 1, 1), Ownership: Borrowed}

	if !owned.Release(rec) {
		t.Error("first release of owned geometry should dispose")
	}
	if owned.Release(rec) {
		t.Error("second release must be a no-op")
	}
	if borrowed.Release(rec) {
		t.Error("borrowed geometry must never be disposed")
	}
	if rec.Disposed[owned.Geometry] != 1 || rec.Disposed[borrowed.Geometry] != 0 {
		t.Errorf("dispose counts = %v", rec.Disposed)
	}
	if len(rec.DoubleDisposals()) != 0 {
		t.Error("no geometry should be disposed twice")
	}
}

func TestRecorderInfo(t *testing.T) {
	rec := NewRecorder()
	box := NewBox(1, 1, 1)
	rec.Add(&Mesh{Geometry: box, Visible: true})
	rec.UploadInstances(&InstanceBuffer{Geometry: box, Count: 3})

	info := rec.Info()
	if info.Geometries != 1 {
		t.Errorf("Geometries = %d, want 1 (shared)", info.Geometries)
	}
	if info.DrawCalls != 2 {
		t.Errorf("DrawCalls = %d, want 2", info.DrawCalls)
	}
	if info.Triangles != 12*4 {
		t.Errorf("Triangles = %d, want 48", info.Triangles)
	}
}
