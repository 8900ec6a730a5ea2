package perf

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/clock"
	"github.com/Faultbox/scene-perf/internal/engine/culling"
	"github.com/Faultbox/scene-perf/internal/engine/instancing"
	"github.com/Faultbox/scene-perf/internal/engine/lod"
	"github.com/Faultbox/scene-perf/internal/engine/memory"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/engine/spatial"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// DefaultWorldBounds is the initial indexed volume. Objects outside it grow
// the index.
var DefaultWorldBounds = math.AABB{Min: math.Splat(-500), Max: math.Splat(500)}

// InstancingStats summarises batching.
type InstancingStats struct {
	TotalInstances int
	InstanceGroups int
	Efficiency     instancing.Rating
}

// Stats is a read-only snapshot of the engine.
type Stats struct {
	FPS       float64
	FrameTime time.Duration
	Level     Tier

	TotalObjects      int
	VisibleObjects    int
	CulledObjects     int
	RenderedTriangles int
	DrawCalls         int

	LOD        lod.Stats
	Instancing InstancingStats
	Memory     memory.Info
	Spatial    spatial.Stats
}

// Manager tracks scene objects and drives the spatial index, LOD, instancing
// and memory subsystems. It adapts the quality tier to the frame rate.
//
// Every object has exactly one representation drawn at a time: its instance
// group while it is at full detail, its LOD mesh at coarser tiers, or a plain
// mesh of its own geometry when neither subsystem is active. Objects outside
// the camera frustum or hidden by the host are drawn by none.
//
// Manager is not safe for concurrent use. Update is meant to be called once
// per rendered frame from the render loop.
type Manager struct {
	renderer scene.Renderer
	camera   scene.Camera
	clock    clock.Clock
	log      *zap.Logger

	settings Settings
	active   TierConfig
	enabled  bool
	lodOn    bool
	instOn   bool

	objects map[string]*scene.Object
	plain   map[string]*scene.Mesh // fallback representations
	drawn   int

	world  math.AABB
	index  *spatial.Index
	culler *culling.Culler
	cull   *culling.System
	lod    *lod.Manager
	inst   *instancing.Renderer
	memory *memory.Manager

	memCfg  memory.Config
	memOpts []memory.Option

	ctrlCfg   ControllerConfig
	ctrl      ControllerState
	lastCheck time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock for frame timing and the controller interval.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger replaces the "perf" named logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithWorldBounds sets the initial indexed volume.
func WithWorldBounds(b math.AABB) Option {
	return func(m *Manager) { m.world = b }
}

// WithHeapProbe replaces the runtime heap probe used for pressure detection.
func WithHeapProbe(p memory.HeapProbe) Option {
	return func(m *Manager) { m.memOpts = append(m.memOpts, memory.WithHeapProbe(p)) }
}

// WithMemoryConfig sets cache budgets and pressure thresholds.
func WithMemoryConfig(cfg memory.Config) Option {
	return func(m *Manager) { m.memCfg = cfg }
}

// WithControllerConfig tunes the adaptive controller. Its Hysteresis is
// replaced by Settings.FPSHysteresis.
func WithControllerConfig(cfg ControllerConfig) Option {
	return func(m *Manager) { m.ctrlCfg = cfg }
}

// New creates a manager drawing into r and measuring distances from cam.
// The settings' level is applied immediately.
func New(r scene.Renderer, cam scene.Camera, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		renderer: r,
		camera:   cam,
		clock:    clock.Real,
		log:      logger.Named("perf"),
		settings: settings,
		enabled:  true,
		objects:  make(map[string]*scene.Object),
		plain:    make(map[string]*scene.Mesh),
		world:    DefaultWorldBounds,
		memCfg:   memory.DefaultConfig(),
		ctrlCfg:  DefaultControllerConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.index = spatial.NewIndex(m.world)
	m.culler = culling.NewCuller()
	m.cull = culling.NewSystem(culling.Options{DistanceCulling: true, MaxDistance: ConfigFor(settings.Level).LOD.Cull})
	m.lod = lod.NewManager(r, lod.DefaultConfig())
	m.lod.SetCamera(cam)
	m.inst = instancing.NewRenderer(r)
	m.memory = memory.NewManager(r, m.memCfg, append(m.memOpts, memory.WithClock(m.clock))...)
	m.memory.OnMemoryPressure(m.handleMemoryPressure)

	m.lastCheck = m.clock.Now()
	m.ApplyPerformanceLevel(settings.Level)
	m.log.Info("performance manager initialized", zap.Stringer("level", m.settings.Level))
	return m
}

// SetCamera replaces the camera.
func (m *Manager) SetCamera(cam scene.Camera) {
	m.camera = cam
	m.lod.SetCamera(cam)
}

// AddObject starts tracking o. Objects whose geometry has no positions are
// skipped with a warning and AddObject reports false. Adding a tracked id
// replaces it. The object cap is enforced afterwards, which may evict o
// itself if it is the farthest from the camera.
func (m *Manager) AddObject(o *scene.Object) bool {
	if err := o.Geometry.Validate(); err != nil {
		m.log.Warn("skipping object with malformed geometry",
			zap.String("id", o.ID), zap.Error(err))
		return false
	}
	if _, ok := m.objects[o.ID]; ok {
		m.RemoveObject(o.ID)
	}
	m.objects[o.ID] = o
	if m.enabled {
		m.indexObject(o)
		m.cull.Add(o)
		if m.lodOn {
			m.addLOD(o)
		}
		if m.instOn {
			m.addInstance(o)
		}
	}
	m.route(o)
	m.enforceObjectLimit(m.settings.MaxObjects)
	return true
}

func (m *Manager) indexObject(o *scene.Object) {
	if m.index.Insert(o) {
		return
	}
	b := o.Bounds()
	lo, hi := b.Min.Array(), b.Max.Array()
	m.log.Debug("object outside world bounds, expanding index",
		zap.String("id", o.ID),
		zap.Float32s("min", lo[:]),
		zap.Float32s("max", hi[:]))
	m.index.ExpandWorldBounds(b)
	m.index.Insert(o)
}

func (m *Manager) addLOD(o *scene.Object) {
	if err := m.lod.AddObject(o); err != nil {
		m.log.Debug("lod add failed", zap.Error(err))
	}
}

func (m *Manager) addInstance(o *scene.Object) {
	if err := m.inst.AddObject(o); err != nil {
		m.log.Debug("instancing add failed", zap.Error(err))
	}
}

// RemoveObject stops tracking id. Unknown ids are ignored.
func (m *Manager) RemoveObject(id string) {
	if _, ok := m.objects[id]; !ok {
		return
	}
	delete(m.objects, id)
	m.index.Remove(id)
	m.cull.Remove(id)
	m.lod.RemoveObject(id)
	m.inst.RemoveObject(id)
	m.dropPlain(id)
}

// UpdateObject applies u to the tracked object and forwards it to the
// subsystems. Unknown ids are ignored.
func (m *Manager) UpdateObject(id string, u scene.Update) {
	o, ok := m.objects[id]
	if !ok || u.Empty() {
		return
	}
	u.Apply(o)
	if m.enabled {
		if u.MovesBounds() {
			m.index.Remove(id)
			m.indexObject(o)
			m.cull.UpdateTransform(id)
			m.lod.UpdateTransform(id, o.Transform)
		}
		if u.Material != nil {
			m.lod.UpdateMaterial(id, o.Material)
		}
		// Drawn visibility is decided by route.
		iu := u
		iu.Visible = nil
		m.inst.UpdateObject(id, iu)
	}
	m.route(o)
}

// Update runs one frame: LOD selection, visibility from GetVisibleObjects
// and distance, routing each object to one representation, instance buffer
// rebuilds, memory monitoring and, every check interval, the adaptive
// controller. Call it before the renderer draws the frame.
func (m *Manager) Update() {
	if !m.enabled {
		m.routeAll()
		return
	}
	if m.camera != nil {
		m.culler.UpdateFrustum(m.camera)
	}

	if m.lodOn {
		m.lod.Update()
	}
	if m.settings.EnableFrustumCulling {
		m.cull.UpdateCandidates(m.camera, m.GetVisibleObjects())
	}
	m.routeAll()
	if m.instOn {
		m.inst.Update()
	}
	if m.settings.EnableMemoryManagement {
		m.memory.Update()
	} else {
		m.memory.Monitor().Update()
	}
	if m.settings.AdaptiveQuality {
		m.adapt()
	}
}

func (m *Manager) adapt() {
	now := m.clock.Now()
	if now.Sub(m.lastCheck) < m.ctrlCfg.Interval {
		return
	}
	m.lastCheck = now

	// Average over the samples taken since the previous check.
	n := max(int(m.ctrlCfg.Interval/time.Second), 1)
	fps := m.memory.Monitor().RecentFPS(n)

	cfg := m.ctrlCfg
	cfg.Hysteresis = m.settings.FPSHysteresis
	m.ctrl.Tier = m.settings.Level

	next, action := Step(cfg, m.ctrl, fps, m.settings.TargetFPS)
	m.ctrl = next
	if action == Hold {
		return
	}
	m.log.Info("adaptive quality "+action.String(),
		zap.Stringer("from", m.settings.Level),
		zap.Stringer("to", next.Tier),
		zap.Float64("fps", fps),
		zap.Float64("target_fps", m.settings.TargetFPS))
	m.ApplyPerformanceLevel(next.Tier)
}

// route hands o to exactly one representation and shows or hides it. It
// reports whether o is drawn.
func (m *Manager) route(o *scene.Object) bool {
	shown := o.Visible
	if m.enabled && m.settings.EnableFrustumCulling {
		shown = shown && m.cull.IsVisible(o.ID)
	}

	tier := lod.High
	if t, ok := m.lod.Tier(o.ID); ok && m.lodOn {
		tier = t
	}
	batched := m.enabled && m.instOn && m.inst.Has(o.ID) && tier == lod.High
	detailed := m.enabled && m.lodOn && m.lod.Has(o.ID)

	m.inst.SetVisible(o.ID, shown && batched)
	m.lod.SetVisible(o.ID, shown && detailed && !batched)
	if batched || detailed {
		m.dropPlain(o.ID)
		return shown && (batched || tier != lod.Culled)
	}

	mesh, ok := m.plain[o.ID]
	if !ok {
		mesh = &scene.Mesh{Name: o.ID, Geometry: o.Geometry}
		m.plain[o.ID] = mesh
		m.renderer.Add(mesh)
	}
	mesh.Material = o.Material
	mesh.Transform = o.Transform
	mesh.Visible = shown
	return shown
}

func (m *Manager) routeAll() {
	m.drawn = 0
	for _, o := range m.objects {
		if m.route(o) {
			m.drawn++
		}
	}
}

func (m *Manager) dropPlain(id string) {
	if mesh, ok := m.plain[id]; ok {
		m.renderer.Remove(mesh)
		delete(m.plain, id)
	}
}

// GetVisibleObjects returns the tracked objects inside the camera frustum,
// each once. With frustum culling disabled, or before a camera is known, it
// returns every tracked object. The result is ordered by id when culling is
// off and by octree traversal otherwise.
func (m *Manager) GetVisibleObjects() []*scene.Object {
	if !m.enabled || !m.settings.EnableFrustumCulling {
		return m.allObjects()
	}
	if m.camera != nil {
		m.culler.UpdateFrustum(m.camera)
	}
	f, ok := m.culler.Frustum()
	if !ok {
		return m.allObjects()
	}
	return spatial.Dedupe(m.index.QueryFrustum(f))
}

func (m *Manager) allObjects() []*scene.Object {
	out := make([]*scene.Object, 0, len(m.objects))
	for _, o := range m.objects {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b *scene.Object) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ApplyPerformanceLevel switches to tier t: LOD thresholds, target FPS and
// object cap follow the tier table, and the cap is enforced at once.
func (m *Manager) ApplyPerformanceLevel(t Tier) {
	t = min(max(t, Ultra), Potato)
	cfg := ConfigFor(t)

	m.active = cfg
	m.settings.Level = t
	m.settings.MaxObjects = cfg.MaxObjects
	m.settings.TargetFPS = cfg.TargetFPS
	m.ctrl.Tier = t

	lc := cfg.LOD
	lc.Hysteresis = m.settings.LODHysteresis
	m.lod.UpdateConfig(lc)
	m.cull.UpdateOptions(culling.Options{DistanceCulling: true, MaxDistance: cfg.LOD.Cull})
	m.memory.Monitor().TargetFPS = cfg.TargetFPS

	m.sync()
	m.enforceObjectLimit(cfg.MaxObjects)
	m.log.Debug("performance level applied",
		zap.Stringer("level", t),
		zap.Int("max_objects", cfg.MaxObjects),
		zap.Float64("target_fps", cfg.TargetFPS),
		zap.Bool("instancing", m.instOn))
}

// sync adds or withdraws the LOD and instancing representations so they
// match the settings and the active tier.
func (m *Manager) sync() {
	wantLOD := m.enabled && m.settings.EnableLOD
	if wantLOD != m.lodOn {
		m.lodOn = wantLOD
		if wantLOD {
			for _, o := range m.allObjects() {
				m.addLOD(o)
			}
		} else {
			m.lod.Dispose()
		}
	}

	wantInst := m.enabled && m.settings.EnableInstancing && !m.active.DisableInstancing
	if wantInst != m.instOn {
		m.instOn = wantInst
		if wantInst {
			for _, o := range m.allObjects() {
				m.addInstance(o)
			}
		} else {
			m.inst.Dispose()
		}
	}

	m.routeAll()
}

func (m *Manager) handleMemoryPressure() {
	if m.settings.Level != Potato {
		m.log.Warn("memory pressure, forcing lowest quality",
			zap.Stringer("from", m.settings.Level))
		m.ApplyPerformanceLevel(Potato)
	}
	m.ctrl.ConsecutiveLow = 0
	m.enforceObjectLimit(m.settings.MaxObjects / 2)
}

// enforceObjectLimit removes the objects farthest from the camera until at
// most limit remain. Equal distances are broken by id.
func (m *Manager) enforceObjectLimit(limit int) {
	excess := len(m.objects) - limit
	if limit <= 0 || excess <= 0 {
		return
	}

	var eye math.Vec3
	if m.camera != nil {
		eye = m.camera.Position()
	}
	type ranked struct {
		id string
		d  float32
	}
	list := make([]ranked, 0, len(m.objects))
	for id, o := range m.objects {
		list = append(list, ranked{id, eye.Distance(o.Position)})
	}
	slices.SortFunc(list, func(a, b ranked) int {
		if c := cmp.Compare(b.d, a.d); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	m.log.Info("enforcing object limit",
		zap.Int("objects", len(m.objects)), zap.Int("limit", limit))
	for _, r := range list[:excess] {
		m.RemoveObject(r.id)
	}
}

// Stats returns a snapshot. It has no side effects.
func (m *Manager) Stats() Stats {
	info := m.memory.Info()
	ls := m.lod.Stats()
	eff := m.inst.Efficiency()

	s := Stats{
		FPS:               info.FPS,
		FrameTime:         info.FrameTime,
		Level:             m.settings.Level,
		TotalObjects:      len(m.objects),
		VisibleObjects:    m.drawn,
		CulledObjects:     len(m.objects) - m.drawn,
		RenderedTriangles: info.Triangles,
		DrawCalls:         info.DrawCalls,
		LOD:               ls,
		Instancing: InstancingStats{
			TotalInstances: m.inst.Stats().TotalInstances,
			InstanceGroups: eff.GroupCount,
			Efficiency:     eff.Rating,
		},
		Memory:  info,
		Spatial: m.index.Stats(),
	}
	return s
}

// DebugInfo returns one line per subsystem.
func (m *Manager) DebugInfo() []string {
	s := m.Stats()
	return []string{
		fmt.Sprintf("Performance: %s | %.0f FPS (target %.0f) | %d objects, cap %d",
			s.Level, s.FPS, m.settings.TargetFPS, s.TotalObjects, m.settings.MaxObjects),
		m.lod.DebugInfo(),
		m.inst.DebugInfo(),
		m.cull.DebugInfo(),
		m.memory.DebugInfo(),
		m.index.DebugInfo(),
	}
}

// SetEnabled turns the engine on or off. While off, objects are only
// tracked; the subsystems are emptied and rebuilt when it is turned back on.
func (m *Manager) SetEnabled(enabled bool) {
	if enabled == m.enabled {
		return
	}
	m.enabled = enabled
	if enabled {
		all := m.allObjects()
		m.index.Rebuild(all)
		for _, o := range all {
			m.cull.Add(o)
		}
	} else {
		m.index.Clear()
		m.cull.Dispose()
	}
	m.sync()
	m.log.Info("performance manager toggled", zap.Bool("enabled", enabled))
}

// Enabled reports whether the engine is on.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// UpdateSettings merges u into the settings. A level in u is applied as by
// ApplyPerformanceLevel and overrides MaxObjects and TargetFPS.
func (m *Manager) UpdateSettings(u SettingsUpdate) {
	m.settings = u.apply(m.settings)

	if u.LODHysteresis != nil {
		lc := m.lod.Config()
		lc.Hysteresis = m.settings.LODHysteresis
		m.lod.UpdateConfig(lc)
	}
	if u.TargetFPS != nil {
		m.memory.Monitor().TargetFPS = m.settings.TargetFPS
	}
	if u.Level != nil {
		m.ApplyPerformanceLevel(*u.Level)
		return
	}
	m.sync()
	m.enforceObjectLimit(m.settings.MaxObjects)
}

// ForceOptimization empties the caches, rebuilds the spatial index and
// drops one tier.
func (m *Manager) ForceOptimization() {
	m.log.Info("forced optimization", zap.Stringer("level", m.settings.Level))
	m.memory.ForceCleanup()
	m.index.Rebuild(m.allObjects())

	m.ctrl.ConsecutiveLow = 0
	if m.settings.Level == Potato {
		return
	}
	m.ApplyPerformanceLevel(m.settings.Level.Lower())
	m.ctrl.Cooldown = m.ctrlCfg.DowngradeCooldown
	m.ctrl.LastAction = Downgrade
}

// Dispose releases every engine-owned resource and forgets all objects.
// Scene geometry and materials are left alone.
func (m *Manager) Dispose() {
	m.lod.Dispose()
	m.inst.Dispose()
	m.memory.Dispose()
	m.index.Clear()
	m.cull.Dispose()
	for id := range m.plain {
		m.dropPlain(id)
	}
	m.objects = make(map[string]*scene.Object)
	m.drawn = 0
	m.lodOn, m.instOn = false, false
	m.enabled = false
}

// Settings returns the current settings.
func (m *Manager) Settings() Settings {
	return m.settings
}

// Tier returns the active tier.
func (m *Manager) Tier() Tier {
	return m.settings.Level
}

// ControllerState returns the adaptive controller's state.
func (m *Manager) ControllerState() ControllerState {
	return m.ctrl
}

// Len returns the number of tracked objects.
func (m *Manager) Len() int {
	return len(m.objects)
}

// Has reports whether id is tracked.
func (m *Manager) Has(id string) bool {
	_, ok := m.objects[id]
	return ok
}

// Index returns the spatial index for queries such as picking.
func (m *Manager) Index() *spatial.Index {
	return m.index
}

// Memory returns the memory manager and its caches.
func (m *Manager) Memory() *memory.Manager {
	return m.memory
}

// LOD returns the LOD manager.
func (m *Manager) LOD() *lod.Manager {
	return m.lod
}

// Instancing returns the instancing renderer.
func (m *Manager) Instancing() *instancing.Renderer {
	return m.inst
}
