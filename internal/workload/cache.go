package workload

import (
	"github.com/Faultbox/scene-perf/internal/engine/instancing"
	"github.com/Faultbox/scene-perf/internal/engine/memory"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
)

// Share fetches each object's geometry and material through the memory
// manager's caches and points the object at the cached copy, so equal
// resources are held once and a rebuilt scene reuses what is cached.
// Textures are cached alongside. It returns how many entries were added;
// lookups that find an entry count as cache hits.
//
// Call Share before handing the objects to the performance manager.
func Share(mem *memory.Manager, objs []*scene.Object) int {
	added := 0
	for _, o := range objs {
		if o.Geometry.Validate() == nil {
			g, hit := mem.ShareGeometry(geometryKey(o.Geometry), o.Geometry)
			o.Geometry = g
			if !hit {
				added++
			}
		}
		if o.Material == nil {
			continue
		}
		mat, hit := mem.ShareMaterial(instancing.MaterialKey(o.Material), o.Material)
		o.Material = mat
		if !hit {
			added++
		}
		for _, t := range mat.Textures {
			if t == nil {
				continue
			}
			if _, ok := mem.CachedTexture(t.Key); !ok {
				mem.CacheTexture(t.Key, t)
				added++
			}
		}
	}
	return added
}

// geometryKey narrows the instancing key by name, since geometries sharing
// counts and extents may still differ in shape.
func geometryKey(g *scene.Geometry) string {
	return instancing.GeometryKey(g) + "/" + g.Name
}
