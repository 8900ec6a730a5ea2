package spatial

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scene-perf/internal/engine/culling"
	"github.com/Faultbox/scene-perf/internal/engine/picking"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Stats is a snapshot of the last frustum query.
type Stats struct {
	TotalObjects   int
	VisibleObjects int
	CulledObjects  int
	OctreeNodes    int
	QueryTime      time.Duration
}

// Index is an octree over a fixed world volume. Query results are unordered
// and may repeat an object that straddles leaf boundaries; use Dedupe when
// each object must appear once.
type Index struct {
	world math.AABB
	root  *node
	stats Stats
}

// NewIndex creates an empty index covering world.
func NewIndex(world math.AABB) *Index {
	return &Index{world: world, root: newNode(world, 0)}
}

// WorldBounds returns the indexed volume.
func (x *Index) WorldBounds() math.AABB {
	return x.world
}

// Insert adds o using its current world bounds. Objects entirely outside the
// world volume are ignored and Insert returns false.
func (x *Index) Insert(o *scene.Object) bool {
	it := &item{obj: o, bounds: o.Bounds()}
	if !x.world.Intersects(it.bounds) {
		return false
	}
	x.root.insert(it)
	return true
}

// Remove deletes id from every leaf holding it. It reports whether any leaf
// changed. Emptied nodes are kept.
func (x *Index) Remove(id string) bool {
	return x.root.remove(id)
}

// QueryBox returns objects whose bounds intersect box.
func (x *Index) QueryBox(box math.AABB) []*scene.Object {
	return x.root.queryBox(box, nil)
}

// QuerySphere returns objects whose bounds intersect the sphere.
func (x *Index) QuerySphere(center math.Vec3, radius float32) []*scene.Object {
	return x.root.querySphere(math.Sphere{Center: center, Radius: radius}, nil)
}

// QueryFrustum returns objects whose bounds intersect f and records query
// statistics.
func (x *Index) QueryFrustum(f *culling.Frustum) []*scene.Object {
	start := time.Now()
	out := x.root.queryFrustum(f, nil)

	x.stats.QueryTime = time.Since(start)
	x.stats.VisibleObjects = len(out)
	x.refreshStats()
	return out
}

func (x *Index) refreshStats() {
	ns := x.root.stats()
	x.stats.TotalObjects = ns.TotalObjects
	x.stats.CulledObjects = max(0, x.stats.TotalObjects-x.stats.VisibleObjects)
	x.stats.OctreeNodes = ns.TotalNodes
}

// FindNearest returns the object whose position is closest to p within
// maxDistance, or nil.
func (x *Index) FindNearest(p math.Vec3, maxDistance float32) *scene.Object {
	var nearest *scene.Object
	best := maxDistance
	for _, o := range x.QuerySphere(p, maxDistance) {
		if d := p.Distance(o.Position); d < best {
			nearest, best = o, d
		}
	}
	return nearest
}

// RaycastCandidates returns the objects near the ray, for exact testing by
// the caller. The ray is sampled with spheres; the result holds each object
// once in order of first contact.
func (x *Index) RaycastCandidates(ray picking.Ray, maxDistance float32) []*scene.Object {
	// Nothing lies beyond the far side of the world.
	limit := ray.Origin.Distance(x.world.Center()) + x.world.Size().Length()
	if maxDistance <= 0 || maxDistance > limit {
		maxDistance = limit
	}
	step := math32.Min(10, maxDistance/10)
	if step <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []*scene.Object
	for t := float32(0); t <= maxDistance; t += step {
		for _, o := range x.QuerySphere(ray.At(t), step) {
			if _, ok := seen[o.ID]; ok {
				continue
			}
			seen[o.ID] = struct{}{}
			out = append(out, o)
		}
	}
	return out
}

// Objects returns every indexed object once.
func (x *Index) Objects() []*scene.Object {
	var out []*scene.Object
	seen := make(map[string]struct{})
	x.root.walk(func(n *node) {
		for id, it := range n.objects {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, it.obj)
			}
		}
	})
	return out
}

// Rebuild discards the tree and inserts objects into a fresh root.
func (x *Index) Rebuild(objects []*scene.Object) {
	x.root = newNode(x.world, 0)
	for _, o := range objects {
		x.Insert(o)
	}
}

// ExpandWorldBounds grows the indexed volume to include b and rebuilds the
// tree from the objects it already holds.
func (x *Index) ExpandWorldBounds(b math.AABB) {
	if x.world.ContainsBox(b) {
		return
	}
	objects := x.Objects()
	x.world = x.world.Union(b)
	x.Rebuild(objects)
}

// Clear removes everything.
func (x *Index) Clear() {
	x.root = newNode(x.world, 0)
	x.stats = Stats{}
}

// NodeStats walks the tree.
func (x *Index) NodeStats() NodeStats {
	return x.root.stats()
}

// Stats returns the statistics of the last frustum query.
func (x *Index) Stats() Stats {
	return x.stats
}

// DebugInfo returns a one-line summary.
func (x *Index) DebugInfo() string {
	ns := x.root.stats()
	return fmt.Sprintf("Spatial: %d/%d visible | Octree: %d nodes, depth %d | Query: %.2fms",
		x.stats.VisibleObjects, x.stats.TotalObjects, ns.TotalNodes, ns.MaxDepth,
		float64(x.stats.QueryTime.Microseconds())/1000)
}

// LeafBounds is a non-empty leaf for debug overlays.
type LeafBounds struct {
	Bounds math.AABB
	Depth  int
}

// DebugLeafBounds returns the bounds of every leaf holding objects.
func (x *Index) DebugLeafBounds() []LeafBounds {
	var out []LeafBounds
	x.root.walk(func(n *node) {
		if n.leaf && len(n.objects) > 0 {
			out = append(out, LeafBounds{Bounds: n.bounds, Depth: n.level})
		}
	})
	return out
}

// Dedupe returns objs with repeated ids removed, keeping first occurrences.
func Dedupe(objs []*scene.Object) []*scene.Object {
	if len(objs) < 2 {
		return objs
	}
	seen := make(map[string]struct{}, len(objs))
	out := make([]*scene.Object, 0, len(objs))
	for _, o := range objs {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}
