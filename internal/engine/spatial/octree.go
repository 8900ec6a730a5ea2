// Package spatial implements the octree index used to prune visibility and
// proximity queries.
package spatial

import (
	"github.com/Faultbox/scene-perf/internal/engine/culling"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/pkg/math"
)

const (
	// MaxObjects is the leaf size that triggers subdivision.
	MaxObjects = 10
	// MaxLevels bounds the depth of the tree. The root is level 0.
	MaxLevels = 8
)

// item is an indexed object with its bounds at insertion time. The same item
// is shared by every leaf it overlaps.
type item struct {
	obj    *scene.Object
	bounds math.AABB
}

// node is one octree cell. Objects live only in leaves; a node never merges
// back after subdividing.
type node struct {
	bounds   math.AABB
	center   math.Vec3
	size     float32 // Diagonal length
	level    int
	children [8]*node
	objects  map[string]*item
	leaf     bool
}

func newNode(bounds math.AABB, level int) *node {
	return &node{
		bounds:  bounds,
		center:  bounds.Center(),
		size:    bounds.Size().Length(),
		level:   level,
		objects: make(map[string]*item),
		leaf:    true,
	}
}

func (n *node) insert(it *item) {
	if !n.bounds.Intersects(it.bounds) {
		return
	}

	if !n.leaf {
		for _, c := range n.children {
			c.insert(it)
		}
		return
	}

	n.objects[it.obj.ID] = it
	if len(n.objects) > MaxObjects && n.level < MaxLevels {
		n.subdivide()
	}
}

// subdivide splits the leaf into eight octants and pushes its objects down.
// Objects overlapping several octants are inserted into each.
func (n *node) subdivide() {
	for i := range n.children {
		n.children[i] = newNode(n.bounds.Octant(i), n.level+1)
	}
	n.leaf = false

	objects := n.objects
	n.objects = make(map[string]*item)
	for _, it := range objects {
		for _, c := range n.children {
			c.insert(it)
		}
	}
}

func (n *node) remove(id string) bool {
	if n.leaf {
		if _, ok := n.objects[id]; !ok {
			return false
		}
		delete(n.objects, id)
		return true
	}

	removed := false
	for _, c := range n.children {
		if c.remove(id) {
			removed = true
		}
	}
	return removed
}

func (n *node) queryBox(box math.AABB, out []*scene.Object) []*scene.Object {
	if !n.bounds.Intersects(box) {
		return out
	}
	if n.leaf {
		for _, it := range n.objects {
			if box.Intersects(it.bounds) {
				out = append(out, it.obj)
			}
		}
		return out
	}
	for _, c := range n.children {
		out = c.queryBox(box, out)
	}
	return out
}

func (n *node) querySphere(s math.Sphere, out []*scene.Object) []*scene.Object {
	if !s.IntersectsBox(n.bounds) {
		return out
	}
	if n.leaf {
		for _, it := range n.objects {
			if s.IntersectsBox(it.bounds) {
				out = append(out, it.obj)
			}
		}
		return out
	}
	for _, c := range n.children {
		out = c.querySphere(s, out)
	}
	return out
}

func (n *node) queryFrustum(f *culling.Frustum, out []*scene.Object) []*scene.Object {
	if !f.IntersectsBox(n.bounds) {
		return out
	}
	if n.leaf {
		for _, it := range n.objects {
			if f.IntersectsBox(it.bounds) {
				out = append(out, it.obj)
			}
		}
		return out
	}
	for _, c := range n.children {
		out = c.queryFrustum(f, out)
	}
	return out
}

// NodeStats summarises the tree shape. TotalObjects counts leaf entries, so
// an object stored in several leaves is counted once per leaf.
type NodeStats struct {
	TotalNodes   int
	LeafNodes    int
	TotalObjects int
	MaxDepth     int
}

func (n *node) stats() NodeStats {
	st := NodeStats{TotalNodes: 1, TotalObjects: len(n.objects), MaxDepth: n.level}
	if n.leaf {
		st.LeafNodes = 1
		return st
	}
	for _, c := range n.children {
		cs := c.stats()
		st.TotalNodes += cs.TotalNodes
		st.LeafNodes += cs.LeafNodes
		st.TotalObjects += cs.TotalObjects
		st.MaxDepth = max(st.MaxDepth, cs.MaxDepth)
	}
	return st
}

func (n *node) walk(fn func(*node)) {
	fn(n)
	if n.leaf {
		return
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}
