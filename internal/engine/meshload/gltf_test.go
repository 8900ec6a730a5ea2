package meshload

import (
	stdmath "math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// triangleDoc has a red triangle at x=10 with a child copy scaled by two.
func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	doc.Materials = []*gltf.Material{{
		Name: "red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 1},
			MetallicFactor:  gltf.Float(0.5),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Mesh: gltf.Index(0), Translation: [3]float64{10, 0, 0}, Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Scale: [3]float64{2, 2, 2}},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestFromDocument(t *testing.T) {
	model, err := FromDocument(triangleDoc(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if len(model.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(model.Parts))
	}

	root := model.Parts[0].Geometry
	if b := root.Bounds(); b.Min != math.V3(10, 0, 0) || b.Max != math.V3(11, 1, 0) {
		t.Errorf("root bounds = %+v", b)
	}
	if root.TriangleCount() != 1 || len(root.Indices) != 3 {
		t.Errorf("root indices = %v", root.Indices)
	}

	child := model.Parts[1].Geometry
	if b := child.Bounds(); b.Min != math.V3(10, 0, 0) || b.Max != math.V3(12, 2, 0) {
		t.Errorf("child bounds = %+v, want parent translation and own scale", b)
	}

	mat := model.Parts[0].Material
	if mat.Color != (scene.Color{R: 1}) || mat.Metalness != 0.5 || mat.Roughness != 1 || mat.Opacity != 1 {
		t.Errorf("material = %+v", mat)
	}
	if model.Parts[1].Material != mat {
		t.Error("parts using the same material should share it")
	}

	if b := model.Bounds(); b.Min != math.V3(10, 0, 0) || b.Max != math.V3(12, 2, 0) {
		t.Errorf("model bounds = %+v", b)
	}
}

func TestModelObjects(t *testing.T) {
	model, err := FromDocument(triangleDoc(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	tr := scene.IdentityTransform()
	tr.Position = math.V3(0, 0, -5)
	a := model.Objects("tree-a", tr)
	b := model.Objects("tree-b", tr)

	if len(a) != 2 || a[0].ID != "tree-a/0" || a[1].ID != "tree-a/1" {
		t.Fatalf("objects = %v, %v", a[0].ID, a[1].ID)
	}
	if a[0].Geometry != b[0].Geometry || a[0].Material != b[0].Material {
		t.Error("copies should share geometry and material")
	}
	if !a[0].Visible || a[0].Kind != scene.KindCustom || a[0].Position != tr.Position {
		t.Errorf("object = %+v", a[0])
	}
}

func TestPrimitiveWithoutPositionsSkipped(t *testing.T) {
	doc := triangleDoc()
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, &gltf.Primitive{
		Attributes: map[string]int{},
	})

	model, err := FromDocument(doc, "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if len(model.Parts) != 2 {
		t.Errorf("got %d parts, want the 2 readable ones", len(model.Parts))
	}

	doc.Meshes[0].Primitives = doc.Meshes[0].Primitives[1:]
	if _, err := FromDocument(doc, ""); err == nil {
		t.Error("expected error for a document without readable primitives")
	}
}

func TestLoadBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.glb")
	if err := gltf.SaveBinary(triangleDoc(), path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	model, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(model.Parts) != 2 {
		t.Errorf("got %d parts, want 2", len(model.Parts))
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestQuatMatrix(t *testing.T) {
	// 90 degrees about Y maps +X to -Z.
	s := stdmath.Sin(stdmath.Pi / 4)
	m := quatMatrix([4]float64{0, s, 0, stdmath.Cos(stdmath.Pi / 4)})
	got := m.TransformVec3(math.V3(1, 0, 0))

	const eps = 1e-6
	if stdmath.Abs(float64(got.X)) > eps || stdmath.Abs(float64(got.Y)) > eps || stdmath.Abs(float64(got.Z+1)) > eps {
		t.Errorf("rotated = %+v, want (0, 0, -1)", got)
	}

	if id := quatMatrix([4]float64{0, 0, 0, 1}); id != math.Identity() {
		t.Errorf("identity quaternion = %v", id)
	}
}
