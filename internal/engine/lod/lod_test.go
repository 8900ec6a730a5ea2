package lod

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/scene-perf/internal/engine/camera"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/pkg/math"
)

func TestSelectTier(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		d    float32
		want Tier
	}{
		{0, High},
		{20, High},
		{20.01, Medium},
		{50, Medium},
		{60, Low},
		{100, Low},
		{100.5, Culled},
		{1e6, Culled},
	}

	for _, tt := range tests {
		if got := SelectTier(tt.d, cfg); got != tt.want {
			t.Errorf("SelectTier(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestSelectTierMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev := High
	for d := float32(0); d < 300; d += 0.5 {
		got := SelectTier(d, cfg)
		if got < prev {
			t.Fatalf("tier went from %v to %v at distance %v", prev, got, d)
		}
		prev = got
	}
}

func TestSelectTierHysteresis(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		current Tier
		d       float32
		want    Tier
	}{
		{"inside dead zone going out", Medium, 52, Medium},
		{"past dead zone going out", Medium, 56, Low},
		{"inside dead zone coming in", Low, 48, Low},
		{"past dead zone coming in", Low, 44, Medium},
		{"jump several tiers", High, 500, Culled},
		{"culled returns when close", Culled, 10, High},
		{"culled stays in dead zone", Culled, 105, Culled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectTierHysteresis(tt.current, tt.d, cfg, 0.1); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// A zero band is the strict rule.
	if got := SelectTierHysteresis(Medium, 52, cfg, 0); got != Low {
		t.Errorf("zero band: got %v, want low", got)
	}
}

func TestSimplify(t *testing.T) {
	box := scene.NewBox(1, 1, 1)

	tests := []struct {
		ratio    float32
		vertices int
	}{
		{1, 24},
		{MediumRatio, 12},
		{LowRatio, 6},
		{0.01, 3},
	}

	for _, tt := range tests {
		g := Simplify(box, tt.ratio)
		if g.VertexCount() != tt.vertices {
			t.Errorf("ratio %v: %d vertices, want %d", tt.ratio, g.VertexCount(), tt.vertices)
		}
		if g == box {
			t.Errorf("ratio %v: Simplify must return a new geometry", tt.ratio)
		}
		if tt.ratio < 1 {
			if len(g.Indices) != 0 {
				t.Errorf("ratio %v: indices should be dropped", tt.ratio)
			}
			if len(g.Normals) != tt.vertices*3 || len(g.UVs) != tt.vertices*2 {
				t.Errorf("ratio %v: attributes not resampled", tt.ratio)
			}
		}
	}

	if box.VertexCount() != 24 || len(box.Indices) != 36 {
		t.Error("source geometry was modified")
	}
}

func TestSimplifyTinyGeometry(t *testing.T) {
	tri := &scene.Geometry{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}}
	if g := Simplify(tri, LowRatio); g.VertexCount() != 3 {
		t.Errorf("triangle simplified to %d vertices", g.VertexCount())
	}
}

func newObject(id string, pos math.Vec3) *scene.Object {
	tr := scene.IdentityTransform()
	tr.Position = pos
	return &scene.Object{
		ID:        id,
		Geometry:  scene.NewBox(1, 1, 1),
		Material:  scene.NewStandardMaterial(scene.DefaultColor),
		Transform: tr,
		Visible:   true,
	}
}

func TestDistanceScenario(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	cam := camera.NewLookAtCamera(math.Vec3{Z: 5}, math.Vec3{})
	m.SetCamera(cam)

	if err := m.AddObject(newObject("a", math.Vec3{})); err != nil {
		t.Fatal(err)
	}

	m.Update()
	if tier, _ := m.Tier("a"); tier != High {
		t.Fatalf("at distance 5 tier = %v, want high", tier)
	}

	cam.Eye = math.Vec3{Z: 60}
	m.Update()
	if tier, _ := m.Tier("a"); tier != Low {
		t.Fatalf("at distance 60 tier = %v, want low", tier)
	}

	active := m.ActiveMesh("a")
	if active == nil || !r.Has(active) || len(r.Meshes) != 1 {
		t.Fatal("exactly the low mesh should be in the renderer")
	}
	if active.Geometry.VertexCount() != 6 {
		t.Errorf("active mesh has %d vertices, want the low variant", active.Geometry.VertexCount())
	}
}

func TestCulledObjectReturns(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	m.AddObject(newObject("a", math.Vec3{}))

	m.UpdateLOD("a", 150)
	if m.ActiveMesh("a") != nil || len(r.Meshes) != 0 {
		t.Fatal("culled object should have no mesh in the renderer")
	}

	if !m.UpdateLOD("a", 10) {
		t.Fatal("tier should change back to high")
	}
	if len(r.Meshes) != 1 {
		t.Errorf("renderer holds %d meshes, want 1", len(r.Meshes))
	}
	if m.UpdateLOD("a", 11) {
		t.Error("same tier should not report a change")
	}
}

func TestRemoveReleasesOwnedVariantsOnce(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	o := newObject("a", math.Vec3{})
	m.AddObject(o)
	m.UpdateLOD("a", 30)

	m.RemoveObject("a")
	m.RemoveObject("a")

	if len(r.Meshes) != 0 {
		t.Errorf("renderer still holds %d meshes", len(r.Meshes))
	}
	if len(r.Disposed) != 2 {
		t.Errorf("disposed %d geometries, want the 2 owned variants", len(r.Disposed))
	}
	if r.Disposed[o.Geometry] != 0 {
		t.Error("borrowed geometry must not be disposed")
	}
	if d := r.DoubleDisposals(); len(d) != 0 {
		t.Errorf("%d geometries disposed twice", len(d))
	}
	if m.Has("a") {
		t.Error("entry should be gone")
	}
}

func TestMalformedGeometrySkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	m.log = zap.New(core)

	o := newObject("bad", math.Vec3{})
	o.Geometry = &scene.Geometry{}

	err := m.AddObject(o)
	if !errors.Is(err, scene.ErrNoPositions) {
		t.Fatalf("err = %v, want ErrNoPositions", err)
	}
	if m.Has("bad") || len(r.Meshes) != 0 {
		t.Error("malformed object should not be tracked")
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestStats(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	m.SetCamera(camera.NewLookAtCamera(math.Vec3{}, math.Vec3{Z: -1}))

	m.AddObject(newObject("near", math.Vec3{Z: -5}))
	m.AddObject(newObject("mid", math.Vec3{Z: -30}))
	m.AddObject(newObject("far", math.Vec3{Z: -80}))
	m.AddObject(newObject("gone", math.Vec3{Z: -300}))
	m.Update()

	s := m.Stats()
	if s.TotalObjects != 4 || s.High != 1 || s.Medium != 1 || s.Low != 1 || s.Culled != 1 {
		t.Errorf("Stats = %+v", s)
	}
	// 12 indexed triangles + 12/3 + 6/3.
	if s.TrianglesRendered != 18 {
		t.Errorf("TrianglesRendered = %d, want 18", s.TrianglesRendered)
	}
	if m.DebugInfo() == "" {
		t.Error("DebugInfo should not be empty")
	}
}

func TestSetVisibleAndTransform(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	m.AddObject(newObject("a", math.Vec3{}))

	m.SetVisible("a", false)
	if m.ActiveMesh("a").Visible {
		t.Error("mesh should be hidden")
	}

	tr := scene.IdentityTransform()
	tr.Position = math.Vec3{X: 7}
	m.UpdateTransform("a", tr)
	m.UpdateLOD("a", 30)
	if got := m.ActiveMesh("a"); got.Transform.Position.X != 7 || got.Visible {
		t.Errorf("swapped mesh should keep transform and visibility, got %+v", got)
	}

	// Unknown ids are ignored.
	m.SetVisible("missing", true)
	m.UpdateTransform("missing", tr)
	m.RemoveObject("missing")
}

func TestDispose(t *testing.T) {
	r := scene.NewRecorder()
	m := NewManager(r, DefaultConfig())
	for _, id := range []string{"a", "b", "c"} {
		m.AddObject(newObject(id, math.Vec3{}))
	}
	m.Dispose()

	if m.Len() != 0 || len(r.Meshes) != 0 {
		t.Error("Dispose should clear everything")
	}
	if len(r.Disposed) != 6 {
		t.Errorf("disposed %d geometries, want 6", len(r.Disposed))
	}
}
