package culling

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Options configures a culling System.
type Options struct {
	UseBoundingSphere bool    `yaml:"use_bounding_sphere"` // Sphere test (faster) instead of box test
	DistanceCulling   bool    `yaml:"distance_culling"`
	MaxDistance       float32 `yaml:"max_distance"`
	OcclusionCulling  bool    `yaml:"occlusion_culling"` // Not implemented
}

// DefaultOptions returns sphere tests with distance culling at 500 units.
func DefaultOptions() Options {
	return Options{
		UseBoundingSphere: true,
		DistanceCulling:   true,
		MaxDistance:       500,
	}
}

// SystemStats is a snapshot of the last System.Update.
type SystemStats struct {
	TotalObjects     int
	VisibleObjects   int
	CulledObjects    int
	FrustumChecks    int
	AverageCheckTime time.Duration
}

type cullable struct {
	obj      *scene.Object
	box      math.AABB
	sphere   math.Sphere
	visible  bool
	distance float32
}

// System tracks objects and decides each frame which ones the camera can see
// from the frustum and distance. It never writes to the objects; hosts learn
// about changes through OnChange or IsVisible.
type System struct {
	opts     Options
	culler   Culler
	objects  map[string]*cullable
	onChange func(o *scene.Object, visible bool)
	stats    SystemStats
	log      *zap.Logger
}

// NewSystem creates a culling system.
func NewSystem(opts Options) *System {
	return &System{
		opts:    opts,
		objects: make(map[string]*cullable),
		log:     logger.Named("culling"),
	}
}

// Add starts tracking o. Objects start visible.
func (s *System) Add(o *scene.Object) {
	c := &cullable{obj: o, visible: true}
	c.refresh()
	s.objects[o.ID] = c
}

// Remove stops tracking id.
func (s *System) Remove(id string) {
	delete(s.objects, id)
}

// OnChange registers fn to run whenever an object's computed visibility
// flips. It replaces any previous callback.
func (s *System) OnChange(fn func(o *scene.Object, visible bool)) {
	s.onChange = fn
}

// UpdateTransform recomputes the cached bounds of id after it moved.
func (s *System) UpdateTransform(id string) {
	if c, ok := s.objects[id]; ok {
		c.refresh()
	}
}

func (c *cullable) refresh() {
	c.box = c.obj.Bounds()
	c.sphere = c.box.BoundingSphere()
}

// Update tests every tracked object against the camera.
func (s *System) Update(cam scene.Camera) {
	s.culler.UpdateFrustum(cam)
	s.update(cam, func(c *cullable) bool {
		if s.opts.UseBoundingSphere {
			return s.culler.IsSphereVisible(c.sphere)
		}
		return s.culler.IsBoxVisible(c.box)
	})
}

// UpdateCandidates is Update with the frustum test replaced by membership in
// candidates, the result of a broad-phase query such as an octree frustum
// search. Distance culling still applies.
func (s *System) UpdateCandidates(cam scene.Camera, candidates []*scene.Object) {
	in := make(map[string]struct{}, len(candidates))
	for _, o := range candidates {
		in[o.ID] = struct{}{}
	}
	s.update(cam, func(c *cullable) bool {
		_, ok := in[c.obj.ID]
		return ok
	})
}

func (s *System) update(cam scene.Camera, inFrustum func(*cullable) bool) {
	start := time.Now()

	var eye math.Vec3
	if cam != nil {
		eye = cam.Position()
	}

	s.stats.TotalObjects = len(s.objects)
	s.stats.VisibleObjects = 0
	s.stats.CulledObjects = 0
	s.stats.FrustumChecks = 0

	for _, c := range s.objects {
		visible := true

		if s.opts.DistanceCulling {
			c.distance = c.sphere.Center.Distance(eye)
			if c.distance-c.sphere.Radius > s.opts.MaxDistance {
				visible = false
			}
		}

		if visible {
			s.stats.FrustumChecks++
			visible = inFrustum(c)
		}

		if visible != c.visible {
			c.visible = visible
			if s.onChange != nil {
				s.onChange(c.obj, visible)
			}
		}

		if visible {
			s.stats.VisibleObjects++
		} else {
			s.stats.CulledObjects++
		}
	}

	elapsed := time.Since(start)
	s.stats.AverageCheckTime = time.Duration(float64(s.stats.AverageCheckTime)*0.9 + float64(elapsed)*0.1)
}

// Occlude runs occlusion queries. Occlusion culling is not implemented; the
// call only logs when enabled.
func (s *System) Occlude() {
	if !s.opts.OcclusionCulling {
		return
	}
	s.log.Warn("occlusion culling is not implemented")
}

// UpdateOptions replaces the options.
func (s *System) UpdateOptions(opts Options) {
	s.opts = opts
}

// Options returns the current options.
func (s *System) Options() Options {
	return s.opts
}

// IsVisible reports the last computed visibility of id.
func (s *System) IsVisible(id string) bool {
	c, ok := s.objects[id]
	return ok && c.visible
}

// Stats returns a copy of the last update's statistics.
func (s *System) Stats() SystemStats {
	return s.stats
}

// DebugInfo returns a one-line summary.
func (s *System) DebugInfo() string {
	ratio := 0.0
	if s.stats.TotalObjects > 0 {
		ratio = float64(s.stats.CulledObjects) / float64(s.stats.TotalObjects) * 100
	}
	return fmt.Sprintf("Frustum Culling: %d/%d visible | %.1f%% culled | %.2fms",
		s.stats.VisibleObjects, s.stats.TotalObjects, ratio,
		float64(s.stats.AverageCheckTime.Microseconds())/1000)
}

// Dispose forgets all tracked objects.
func (s *System) Dispose() {
	s.objects = make(map[string]*cullable)
}
