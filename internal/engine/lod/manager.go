package lod

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
)

// Stats counts objects per tier after the last Update.
type Stats struct {
	TotalObjects      int
	High              int
	Medium            int
	Low               int
	Culled            int
	TrianglesRendered int
}

// entry is the per-object LOD state. variants[High] borrows the scene's
// geometry; the coarser variants are owned and released on removal.
type entry struct {
	obj      *scene.Object
	variants [3]*scene.GeometryRef
	meshes   [3]*scene.Mesh
	tier     Tier
	visible  bool
	active   *scene.Mesh // Mesh currently added to the renderer
}

// Manager tracks LOD entries and keeps the renderer showing the variant that
// matches each object's distance to the camera.
type Manager struct {
	renderer scene.Renderer
	camera   scene.Camera
	config   Config
	entries  map[string]*entry
	stats    Stats
	log      *zap.Logger
}

// NewManager creates a manager drawing into r.
func NewManager(r scene.Renderer, cfg Config) *Manager {
	return &Manager{
		renderer: r,
		config:   cfg,
		entries:  make(map[string]*entry),
		log:      logger.Named("lod"),
	}
}

// SetCamera sets the camera used by Update.
func (m *Manager) SetCamera(cam scene.Camera) {
	m.camera = cam
}

// AddObject generates the medium and low variants of o's geometry and shows
// the high variant. Geometry without positions is rejected with a warning.
// Adding an id again replaces the previous entry.
func (m *Manager) AddObject(o *scene.Object) error {
	if err := o.Geometry.Validate(); err != nil {
		m.log.Warn("skipping object with malformed geometry",
			zap.String("id", o.ID), zap.Error(err))
		return fmt.Errorf("lod variants for %q: %w", o.ID, err)
	}

	m.RemoveObject(o.ID)

	e := &entry{obj: o, tier: High, visible: o.Visible}
	e.variants[High] = &scene.GeometryRef{Geometry: o.Geometry, Ownership: scene.Borrowed}
	e.variants[Medium] = &scene.GeometryRef{Geometry: Simplify(o.Geometry, MediumRatio), Ownership: scene.Owned}
	e.variants[Low] = &scene.GeometryRef{Geometry: Simplify(o.Geometry, LowRatio), Ownership: scene.Owned}

	for t := High; t <= Low; t++ {
		e.meshes[t] = &scene.Mesh{
			Name:      fmt.Sprintf("%s_LOD_%s", o.ID, t),
			Geometry:  e.variants[t].Geometry,
			Material:  o.Material,
			Transform: o.Transform,
			Visible:   e.visible,
		}
	}

	m.entries[o.ID] = e
	m.activate(e)
	return nil
}

// RemoveObject takes the object's mesh out of the renderer and releases the
// owned variants. Unknown ids are ignored.
func (m *Manager) RemoveObject(id string) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	m.deactivate(e)
	m.release(e)
	delete(m.entries, id)
}

func (m *Manager) release(e *entry) {
	for _, ref := range e.variants {
		ref.Release(m.renderer)
	}
}

func (m *Manager) activate(e *entry) {
	if e.tier == Culled {
		return
	}
	mesh := e.meshes[e.tier]
	mesh.Visible = e.visible
	m.renderer.Add(mesh)
	e.active = mesh
}

func (m *Manager) deactivate(e *entry) {
	if e.active != nil {
		m.renderer.Remove(e.active)
		e.active = nil
	}
}

// UpdateLOD selects the tier for distance d and swaps the representation if
// it changed. It reports whether the tier changed.
func (m *Manager) UpdateLOD(id string, d float32) bool {
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	next := m.config.Select(e.tier, d)
	if next == e.tier {
		return false
	}
	m.deactivate(e)
	e.tier = next
	m.activate(e)
	return true
}

// Update re-evaluates every object against the camera position.
func (m *Manager) Update() {
	m.stats = Stats{TotalObjects: len(m.entries)}
	if m.camera == nil {
		for _, e := range m.entries {
			m.count(e)
		}
		return
	}

	eye := m.camera.Position()
	for id, e := range m.entries {
		m.UpdateLOD(id, eye.Distance(e.obj.Position))
		m.count(e)
	}
}

func (m *Manager) count(e *entry) {
	switch e.tier {
	case High:
		m.stats.High++
	case Medium:
		m.stats.Medium++
	case Low:
		m.stats.Low++
	case Culled:
		m.stats.Culled++
		return
	}
	m.stats.TrianglesRendered += e.meshes[e.tier].Geometry.TriangleCount()
}

// UpdateTransform copies t to every variant mesh of id.
func (m *Manager) UpdateTransform(id string, t scene.Transform) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	for _, mesh := range e.meshes {
		mesh.Transform = t
	}
}

// UpdateMaterial points every variant mesh of id at mat.
func (m *Manager) UpdateMaterial(id string, mat *scene.Material) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	for _, mesh := range e.meshes {
		mesh.Material = mat
	}
}

// SetVisible shows or hides id. Culled objects stay hidden.
func (m *Manager) SetVisible(id string, visible bool) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	e.visible = visible
	for _, mesh := range e.meshes {
		mesh.Visible = visible && e.tier != Culled
	}
}

// Tier returns the current tier of id.
func (m *Manager) Tier(id string) (Tier, bool) {
	e, ok := m.entries[id]
	if !ok {
		return Culled, false
	}
	return e.tier, true
}

// ActiveMesh returns the mesh currently in the renderer for id, or nil.
func (m *Manager) ActiveMesh(id string) *scene.Mesh {
	if e, ok := m.entries[id]; ok {
		return e.active
	}
	return nil
}

// Has reports whether id is tracked.
func (m *Manager) Has(id string) bool {
	_, ok := m.entries[id]
	return ok
}

// Len returns the number of tracked objects.
func (m *Manager) Len() int {
	return len(m.entries)
}

// UpdateConfig replaces the thresholds. Tiers are re-selected on the next
// Update.
func (m *Manager) UpdateConfig(cfg Config) {
	m.config = cfg
}

// Config returns the active thresholds.
func (m *Manager) Config() Config {
	return m.config
}

// Stats returns the counts from the last Update.
func (m *Manager) Stats() Stats {
	return m.stats
}

// DebugInfo returns a one-line summary.
func (m *Manager) DebugInfo() string {
	s := m.stats
	return fmt.Sprintf("LOD Stats: %d objects | H:%d M:%d L:%d C:%d | %d triangles",
		s.TotalObjects, s.High, s.Medium, s.Low, s.Culled, s.TrianglesRendered)
}

// Dispose removes every mesh from the renderer and releases all owned
// variants.
func (m *Manager) Dispose() {
	for id, e := range m.entries {
		m.deactivate(e)
		m.release(e)
		delete(m.entries, id)
	}
	m.stats = Stats{}
}
