package instancing

import (
	"slices"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

// Instance is the per-object data of a group member.
type Instance struct {
	ID        string
	Transform scene.Transform
	Color     scene.Color
	Visible   bool
}

// Group holds every instance sharing one fingerprint and the buffer drawn
// for the visible ones.
type Group struct {
	Key      string
	Geometry *scene.Geometry
	Material *scene.Material

	instances map[string]*Instance
	order     []string
	buffer    *scene.InstanceBuffer
	dirty     bool
}

func newGroup(key string, g *scene.Geometry, m *scene.Material) *Group {
	return &Group{
		Key:       key,
		Geometry:  g,
		Material:  m,
		instances: make(map[string]*Instance),
		dirty:     true,
	}
}

func (g *Group) add(in *Instance) {
	if _, ok := g.instances[in.ID]; !ok {
		g.order = append(g.order, in.ID)
	}
	g.instances[in.ID] = in
	g.dirty = true
}

func (g *Group) remove(id string) bool {
	if _, ok := g.instances[id]; !ok {
		return false
	}
	delete(g.instances, id)
	if i := slices.Index(g.order, id); i >= 0 {
		g.order = slices.Delete(g.order, i, i+1)
	}
	g.dirty = true
	return true
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.instances)
}

// VisibleCount returns the number of visible members.
func (g *Group) VisibleCount() int {
	n := 0
	for _, in := range g.instances {
		if in.Visible {
			n++
		}
	}
	return n
}

// Dirty reports whether the buffer is stale.
func (g *Group) Dirty() bool {
	return g.dirty
}

// Buffer returns the uploaded buffer, or nil when nothing is drawn.
func (g *Group) Buffer() *scene.InstanceBuffer {
	return g.buffer
}

// rebuild writes the visible instances into a buffer sized to them and
// uploads it. Groups with nothing visible free their buffer.
func (g *Group) rebuild(r scene.Renderer) {
	if !g.dirty {
		return
	}
	g.dirty = false

	visible := make([]*Instance, 0, len(g.order))
	for _, id := range g.order {
		if in := g.instances[id]; in.Visible {
			visible = append(visible, in)
		}
	}

	if len(visible) == 0 {
		g.free(r)
		return
	}

	if g.buffer == nil || g.buffer.Count != len(visible) {
		g.free(r)
		g.buffer = &scene.InstanceBuffer{
			Key:      g.Key,
			Geometry: g.Geometry,
			Material: g.Material,
			Count:    len(visible),
			Matrices: make([]float32, 16*len(visible)),
			Colors:   make([]float32, 3*len(visible)),
		}
	}

	for i, in := range visible {
		m := in.Transform.Matrix()
		copy(g.buffer.Matrices[i*16:], m[:])
		g.buffer.Colors[i*3] = in.Color.R
		g.buffer.Colors[i*3+1] = in.Color.G
		g.buffer.Colors[i*3+2] = in.Color.B
	}
	r.UploadInstances(g.buffer)
}

func (g *Group) free(r scene.Renderer) {
	if g.buffer != nil {
		r.FreeInstances(g.buffer)
		g.buffer = nil
	}
}
