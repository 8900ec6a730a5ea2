// Package meshload imports glTF 2.0 files (.gltf and .glb) as engine
// geometry and materials.
package meshload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Part is one mesh primitive with node transforms baked into its vertices.
type Part struct {
	Name     string
	Geometry *scene.Geometry
	Material *scene.Material
}

// Model is the flattened content of a glTF scene.
type Model struct {
	Parts    []Part
	Textures []*scene.Texture
}

// Bounds returns the model-space bounds of all parts.
func (m *Model) Bounds() math.AABB {
	b := math.EmptyAABB()
	for _, p := range m.Parts {
		b = b.Union(p.Geometry.Bounds())
	}
	return b
}

// Objects places one copy of the model. Each part becomes an object with id
// "<prefix>/<index>". Copies share geometry and materials, so identical parts
// of different copies batch together.
func (m *Model) Objects(prefix string, t scene.Transform) []*scene.Object {
	out := make([]*scene.Object, len(m.Parts))
	for i, p := range m.Parts {
		out[i] = &scene.Object{
			ID:        fmt.Sprintf("%s/%d", prefix, i),
			Name:      p.Name,
			Kind:      scene.KindCustom,
			Geometry:  p.Geometry,
			Material:  p.Material,
			Transform: t,
			Visible:   true,
		}
	}
	return out
}

// Load opens a .gltf or .glb file.
func Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return FromDocument(doc, filepath.Dir(path))
}

// FromDocument converts a decoded document. dir resolves external image
// URIs. Primitives that cannot be read are skipped with a warning.
func FromDocument(doc *gltf.Document, dir string) (*Model, error) {
	log := logger.Named("meshload")
	model := &Model{}

	textures := make([]*scene.Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		tex, err := readTexture(doc, doc.Images[*gt.Source], *gt.Source, dir)
		if err != nil {
			log.Warn("skipping texture", zap.Int("index", i), zap.Error(err))
			continue
		}
		textures[i] = tex
		model.Textures = append(model.Textures, tex)
	}

	materials := make([]*scene.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		materials[i] = convertMaterial(gm, textures)
	}

	var visit func(idx int, parent math.Mat4)
	visit = func(idx int, parent math.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return
		}
		gn := doc.Nodes[idx]
		world := parent.Mul(nodeMatrix(gn))

		if gn.Mesh != nil && *gn.Mesh < len(doc.Meshes) {
			gm := doc.Meshes[*gn.Mesh]
			for pi, prim := range gm.Primitives {
				g, err := readPrimitive(doc, prim, world)
				if err != nil {
					log.Warn("skipping primitive",
						zap.String("mesh", gm.Name), zap.Int("primitive", pi), zap.Error(err))
					continue
				}
				g.Name = primitiveName(gm.Name, *gn.Mesh, pi)

				mat := scene.NewStandardMaterial(scene.Color{R: 1, G: 1, B: 1})
				if prim.Material != nil && *prim.Material < len(materials) {
					mat = materials[*prim.Material]
				}
				model.Parts = append(model.Parts, Part{Name: g.Name, Geometry: g, Material: mat})
			}
		}
		for _, c := range gn.Children {
			visit(c, world)
		}
	}
	for _, root := range rootNodes(doc) {
		visit(root, math.Identity())
	}

	if len(model.Parts) == 0 {
		return nil, fmt.Errorf("gltf: no readable mesh primitives")
	}
	return model, nil
}

func primitiveName(mesh string, meshIdx, primIdx int) string {
	if mesh == "" {
		return fmt.Sprintf("mesh_%d_p%d", meshIdx, primIdx)
	}
	return fmt.Sprintf("%s_p%d", mesh, primIdx)
}

// rootNodes returns the default scene's nodes, or every parentless node when
// the document names no scene.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) == 1 {
		return doc.Scenes[0].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, world math.Mat4) (*scene.Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, scene.ErrNoPositions
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, scene.ErrNoPositions
	}

	g := &scene.Geometry{Positions: make([]float32, 0, len(positions)*3)}
	for _, p := range positions {
		v := world.TransformVec3(math.V3(p[0], p[1], p[2]))
		g.Positions = append(g.Positions, v.X, v.Y, v.Z)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil); err == nil && len(normals) == len(positions) {
			g.Normals = make([]float32, 0, len(normals)*3)
			for _, n := range normals {
				v := transformDirection(world, math.V3(n[0], n[1], n[2]))
				g.Normals = append(g.Normals, v.X, v.Y, v.Z)
			}
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err == nil && len(uvs) == len(positions) {
			g.UVs = make([]float32, 0, len(uvs)*2)
			for _, uv := range uvs {
				g.UVs = append(g.UVs, uv[0], uv[1])
			}
		}
	}

	if prim.Indices != nil {
		g.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	return g, nil
}

func convertMaterial(gm *gltf.Material, textures []*scene.Texture) *scene.Material {
	mat := scene.NewStandardMaterial(scene.Color{R: 1, G: 1, B: 1})
	pbr := gm.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}

	cf := pbr.BaseColorFactorOrDefault()
	mat.Color = scene.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2])}
	mat.Opacity = float32(cf[3])
	mat.Metalness = float32(pbr.MetallicFactorOrDefault())
	mat.Roughness = float32(pbr.RoughnessFactorOrDefault())

	if pbr.BaseColorTexture != nil {
		if idx := pbr.BaseColorTexture.Index; idx < len(textures) && textures[idx] != nil {
			mat.Textures = append(mat.Textures, textures[idx])
		}
	}
	return mat
}

// readTexture reads only the image header; pixels are not kept.
func readTexture(doc *gltf.Document, img *gltf.Image, idx int, dir string) (*scene.Texture, error) {
	key := img.Name
	var data []byte
	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("image %d bufferview: %w", idx, err)
		}
		data = raw
	case img.URI != "" && !img.IsEmbeddedResource():
		raw, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", idx, err)
		}
		data = raw
		if key == "" {
			key = img.URI
		}
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("image %d data uri: %w", idx, err)
		}
		data = raw
	default:
		return nil, fmt.Errorf("image %d has no data", idx)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image %d decode: %w", idx, err)
	}
	if key == "" {
		key = fmt.Sprintf("gltf_img_%d", idx)
	}
	return &scene.Texture{Key: key, Width: cfg.Width, Height: cfg.Height}, nil
}
