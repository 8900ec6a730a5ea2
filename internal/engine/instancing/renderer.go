package instancing

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
)

// Stats is a snapshot of the last Update.
type Stats struct {
	TotalInstances    int
	ActiveGroups      int
	DrawCalls         int
	TrianglesRendered int
}

// Rating classifies the average group size.
type Rating string

const (
	Poor      Rating = "Poor"
	Fair      Rating = "Fair"
	Good      Rating = "Good"
	Excellent Rating = "Excellent"
)

// Efficiency describes how well objects batch. It is diagnostic only.
type Efficiency struct {
	GroupCount           int
	AvgInstancesPerGroup float64
	Rating               Rating
}

// Renderer groups objects by fingerprint and uploads one instance buffer per
// group with visible members. Mutations only mark groups dirty; buffers are
// rebuilt by Update.
type Renderer struct {
	renderer scene.Renderer
	groups   map[string]*Group
	members  map[string]*Group // object id -> group
	stats    Stats
	log      *zap.Logger
}

// NewRenderer creates an instancing renderer drawing into r.
func NewRenderer(r scene.Renderer) *Renderer {
	return &Renderer{
		renderer: r,
		groups:   make(map[string]*Group),
		members:  make(map[string]*Group),
		log:      logger.Named("instancing"),
	}
}

func instanceColor(o *scene.Object) scene.Color {
	if o.Color != (scene.Color{}) {
		return o.Color
	}
	if o.Material != nil {
		return o.Material.Color
	}
	return scene.DefaultColor
}

// AddObject adds o to the group matching its fingerprint, creating the group
// on first use. Objects without measurable geometry are rejected.
func (r *Renderer) AddObject(o *scene.Object) error {
	if err := o.Geometry.Validate(); err != nil {
		return fmt.Errorf("instance %q: %w", o.ID, err)
	}
	r.RemoveObject(o.ID)

	key := Fingerprint(o.Geometry, o.Material)
	g, ok := r.groups[key]
	if !ok {
		g = newGroup(key, o.Geometry, o.Material)
		r.groups[key] = g
		r.log.Debug("instance group created", zap.String("key", key))
	}
	g.add(&Instance{
		ID:        o.ID,
		Transform: o.Transform,
		Color:     instanceColor(o),
		Visible:   o.Visible,
	})
	r.members[o.ID] = g
	return nil
}

// RemoveObject drops id from its group. A group left empty frees its buffer
// and is discarded. It reports whether id was a member.
func (r *Renderer) RemoveObject(id string) bool {
	g, ok := r.members[id]
	if !ok {
		return false
	}
	delete(r.members, id)
	g.remove(id)
	if g.Len() == 0 {
		g.free(r.renderer)
		delete(r.groups, g.Key)
		r.log.Debug("instance group released", zap.String("key", g.Key))
	}
	return true
}

// UpdateObject applies a partial update to id and marks its group dirty. A
// material change moves the instance to the matching group. Unknown ids are
// ignored.
func (r *Renderer) UpdateObject(id string, u scene.Update) {
	g, ok := r.members[id]
	if !ok || u.Empty() {
		return
	}
	in := g.instances[id]

	if u.Position != nil {
		in.Transform.Position = *u.Position
	}
	if u.Rotation != nil {
		in.Transform.Rotation = *u.Rotation
	}
	if u.Scale != nil {
		in.Transform.Scale = *u.Scale
	}
	if u.Color != nil {
		in.Color = *u.Color
	}
	if u.Visible != nil {
		in.Visible = *u.Visible
	}
	g.dirty = true

	if u.Material != nil {
		key := Fingerprint(g.Geometry, u.Material)
		switch {
		case key != g.Key:
			r.RemoveObject(id)
			ng, ok := r.groups[key]
			if !ok {
				ng = newGroup(key, g.Geometry, u.Material)
				r.groups[key] = ng
			}
			ng.add(in)
			r.members[id] = ng
		case g.Len() == 1 && g.Material != u.Material:
			// Sole member: draw with the object's current material.
			g.Material = u.Material
			if g.buffer != nil {
				g.buffer.Material = u.Material
			}
		}
	}
}

// SetVisible shows or hides id in its group's buffer. The group is only
// marked dirty when the flag changes. Unknown ids are ignored.
func (r *Renderer) SetVisible(id string, visible bool) {
	g, ok := r.members[id]
	if !ok {
		return
	}
	if in := g.instances[id]; in.Visible != visible {
		in.Visible = visible
		g.dirty = true
	}
}

// Visible reports whether id is drawn from its group's buffer.
func (r *Renderer) Visible(id string) bool {
	g, ok := r.members[id]
	return ok && g.instances[id].Visible
}

// Update rebuilds dirty groups and refreshes statistics.
func (r *Renderer) Update() {
	r.stats = Stats{}
	for _, g := range r.groups {
		g.rebuild(r.renderer)

		r.stats.TotalInstances += g.Len()
		if n := g.VisibleCount(); n > 0 {
			r.stats.ActiveGroups++
			r.stats.DrawCalls++
			r.stats.TrianglesRendered += g.Geometry.TriangleCount() * n
		}
	}
}

// GroupOf returns the group holding id.
func (r *Renderer) GroupOf(id string) (*Group, bool) {
	g, ok := r.members[id]
	return g, ok
}

// GroupCount returns the number of live groups.
func (r *Renderer) GroupCount() int {
	return len(r.groups)
}

// Has reports whether id is a member of any group.
func (r *Renderer) Has(id string) bool {
	_, ok := r.members[id]
	return ok
}

// Efficiency classifies the average number of instances per group: at least
// 10 is Excellent, 5 Good, 2 Fair, anything less Poor.
func (r *Renderer) Efficiency() Efficiency {
	e := Efficiency{GroupCount: len(r.groups), Rating: Poor}
	if e.GroupCount == 0 {
		return e
	}
	avg := float64(len(r.members)) / float64(e.GroupCount)
	e.AvgInstancesPerGroup = math.Round(avg*100) / 100

	switch {
	case avg >= 10:
		e.Rating = Excellent
	case avg >= 5:
		e.Rating = Good
	case avg >= 2:
		e.Rating = Fair
	}
	return e
}

// Stats returns the statistics of the last Update.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// DebugInfo returns a one-line summary.
func (r *Renderer) DebugInfo() string {
	e := r.Efficiency()
	return fmt.Sprintf("Instancing: %d instances in %d groups | Avg: %.2f/group (%s) | Draw calls: %d",
		len(r.members), e.GroupCount, e.AvgInstancesPerGroup, e.Rating, r.stats.DrawCalls)
}

// Dispose frees every buffer and forgets all groups. Geometries and
// materials belong to the scene and are left alone.
func (r *Renderer) Dispose() {
	for _, g := range r.groups {
		g.free(r.renderer)
	}
	r.groups = make(map[string]*Group)
	r.members = make(map[string]*Group)
	r.stats = Stats{}
}
