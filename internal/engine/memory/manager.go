package memory

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/clock"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/logger"
)

const mb = 1 << 20

// Config holds cache budgets and pressure thresholds.
type Config struct {
	GeometryBudget int64   `yaml:"geometry_budget"`
	MaterialBudget int64   `yaml:"material_budget"`
	TextureBudget  int64   `yaml:"texture_budget"`
	MaxGeometries  int     `yaml:"max_geometries"`
	MaxTextures    int     `yaml:"max_textures"`
	HeapRatio      float64 `yaml:"heap_ratio"`

	// PressureInterval spaces out pressure checks made by Update. Zero
	// checks every frame.
	PressureInterval time.Duration `yaml:"pressure_interval"`
}

// DefaultConfig returns 50/20/100 MB budgets, 1000 geometries, 500 textures,
// an 80% heap ratio and a pressure check every 5s.
func DefaultConfig() Config {
	return Config{
		GeometryBudget:   50 * mb,
		MaterialBudget:   20 * mb,
		TextureBudget:    100 * mb,
		MaxGeometries:    1000,
		MaxTextures:      500,
		HeapRatio:        0.8,
		PressureInterval: 5 * time.Second,
	}
}

// Info is a snapshot of resource usage.
type Info struct {
	Geometries int
	Textures   int
	DrawCalls  int
	Triangles  int

	HeapUsed  uint64
	HeapLimit uint64

	FPS       float64
	FrameTime time.Duration

	CacheHits   int
	CacheMisses int
	CacheSize   int64
}

// Manager owns the resource caches and the frame monitor.
type Manager struct {
	cfg      Config
	renderer scene.Renderer
	clock    clock.Clock
	heap     HeapProbe

	geometries *LRUCache[*scene.Geometry]
	materials  *LRUCache[*scene.Material]
	textures   *LRUCache[*scene.Texture]
	monitor    *Monitor

	callbacks []func()
	pressured bool
	checked   bool
	lastCheck time.Time
	gc        func()
	log       *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for frame timing and cache access times.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithHeapProbe replaces the runtime heap probe.
func WithHeapProbe(p HeapProbe) Option {
	return func(m *Manager) { m.heap = p }
}

// NewManager creates a manager reading resource counts from r.
func NewManager(r scene.Renderer, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		renderer: r,
		clock:    clock.Real,
		heap:     RuntimeHeap{},
		gc:       runtime.GC,
		log:      logger.Named("memory"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.geometries = NewLRUCache[*scene.Geometry](cfg.GeometryBudget, m.clock)
	m.geometries.OnEvict = func(_ string, g *scene.Geometry) {
		m.renderer.DisposeGeometry(g)
	}
	m.materials = NewLRUCache[*scene.Material](cfg.MaterialBudget, m.clock)
	m.textures = NewLRUCache[*scene.Texture](cfg.TextureBudget, m.clock)
	m.monitor = NewMonitor(m.clock)
	return m
}

// CacheGeometry stores a copy of g. The copy is owned by the cache and
// disposed when evicted.
func (m *Manager) CacheGeometry(key string, g *scene.Geometry) {
	m.geometries.Set(key, g.Clone(), EstimateGeometrySize(g))
}

// CachedGeometry returns a cached geometry.
func (m *Manager) CachedGeometry(key string) (*scene.Geometry, bool) {
	return m.geometries.Get(key)
}

// ShareGeometry returns the geometry cached under key. On a miss it caches
// a copy of g first and returns that copy, so every caller asking for key
// holds the same geometry. hit reports whether key was already cached.
func (m *Manager) ShareGeometry(key string, g *scene.Geometry) (shared *scene.Geometry, hit bool) {
	if c, ok := m.geometries.Get(key); ok {
		return c, true
	}
	c := g.Clone()
	m.geometries.Set(key, c, EstimateGeometrySize(g))
	return c, false
}

// ShareMaterial is ShareGeometry for materials.
func (m *Manager) ShareMaterial(key string, mat *scene.Material) (shared *scene.Material, hit bool) {
	if c, ok := m.materials.Get(key); ok {
		return c, true
	}
	c := mat.Clone()
	m.materials.Set(key, c, EstimateMaterialSize(mat))
	return c, false
}

// CacheMaterial stores a copy of mat.
func (m *Manager) CacheMaterial(key string, mat *scene.Material) {
	m.materials.Set(key, mat.Clone(), EstimateMaterialSize(mat))
}

// CachedMaterial returns a cached material.
func (m *Manager) CachedMaterial(key string) (*scene.Material, bool) {
	return m.materials.Get(key)
}

// CacheTexture stores a copy of tex.
func (m *Manager) CacheTexture(key string, tex *scene.Texture) {
	cp := *tex
	m.textures.Set(key, &cp, EstimateTextureSize(tex))
}

// CachedTexture returns a cached texture.
func (m *Manager) CachedTexture(key string) (*scene.Texture, bool) {
	return m.textures.Get(key)
}

// OnMemoryPressure registers fn to run whenever pressure is handled.
func (m *Manager) OnMemoryPressure(fn func()) {
	m.callbacks = append(m.callbacks, fn)
}

// Update records a frame. On the first call and then once per
// PressureInterval it also checks for memory pressure and handles it. It
// reports whether pressure was handled.
func (m *Manager) Update() bool {
	m.monitor.Update()

	now := m.clock.Now()
	if m.checked && now.Sub(m.lastCheck) < m.cfg.PressureInterval {
		return false
	}
	m.checked = true
	m.lastCheck = now

	if !m.IsMemoryPressureHigh() {
		if m.pressured {
			m.log.Info("memory pressure cleared")
		}
		m.pressured = false
		return false
	}
	m.HandleMemoryPressure()
	return true
}

// IsMemoryPressureHigh reports heap usage above the configured ratio, too
// many renderer geometries or textures, or a poor frame rate.
func (m *Manager) IsMemoryPressureHigh() bool {
	if m.heapPressure() {
		return true
	}
	info := m.renderer.Info()
	if info.Geometries > m.cfg.MaxGeometries || info.Textures > m.cfg.MaxTextures {
		return true
	}
	return m.monitor.ShouldReduceQuality()
}

func (m *Manager) heapPressure() bool {
	used, limit, ok := m.heap.HeapUsage()
	return ok && limit > 0 && float64(used)/float64(limit) > m.cfg.HeapRatio
}

// HandleMemoryPressure empties the geometry and material caches, evicts the
// older half of the texture cache and runs the registered callbacks.
func (m *Manager) HandleMemoryPressure() {
	if !m.pressured {
		info := m.renderer.Info()
		m.log.Warn("high memory pressure, releasing cached resources",
			zap.Int("geometries", info.Geometries),
			zap.Int("textures", info.Textures),
			zap.String("level", string(m.monitor.Level())))
	}
	m.pressured = true

	m.geometries.Clear()
	m.materials.Clear()
	m.textures.EvictOldest(m.textures.Len() / 2)

	if m.heapPressure() {
		m.gc()
	}

	for _, fn := range m.callbacks {
		fn()
	}
}

// Info collects renderer, heap, frame and cache figures.
func (m *Manager) Info() Info {
	ri := m.renderer.Info()
	used, limit, _ := m.heap.HeapUsage()
	g, mt, t := m.geometries.Stats(), m.materials.Stats(), m.textures.Stats()

	return Info{
		Geometries:  ri.Geometries,
		Textures:    ri.Textures,
		DrawCalls:   ri.DrawCalls,
		Triangles:   ri.Triangles,
		HeapUsed:    used,
		HeapLimit:   limit,
		FPS:         m.monitor.CurrentFPS(),
		FrameTime:   m.monitor.CurrentFrameTime(),
		CacheHits:   g.Hits + mt.Hits + t.Hits,
		CacheMisses: g.Misses + mt.Misses + t.Misses,
		CacheSize:   g.Size + mt.Size + t.Size,
	}
}

// ForceCleanup empties every cache.
func (m *Manager) ForceCleanup() {
	m.geometries.Clear()
	m.materials.Clear()
	m.textures.Clear()
}

// Monitor returns the frame monitor.
func (m *Manager) Monitor() *Monitor {
	return m.monitor
}

// GeometryCache returns the geometry cache.
func (m *Manager) GeometryCache() *LRUCache[*scene.Geometry] {
	return m.geometries
}

// MaterialCache returns the material cache.
func (m *Manager) MaterialCache() *LRUCache[*scene.Material] {
	return m.materials
}

// TextureCache returns the texture cache.
func (m *Manager) TextureCache() *LRUCache[*scene.Texture] {
	return m.textures
}

// DebugInfo returns a one-line summary.
func (m *Manager) DebugInfo() string {
	info := m.Info()
	return fmt.Sprintf("Memory: %dMB heap | %d geo, %d tex | Performance: %s (%.0f FPS)",
		info.HeapUsed/mb, info.Geometries, info.Textures, m.monitor.Level(), info.FPS)
}

// Dispose empties the caches and drops callbacks.
func (m *Manager) Dispose() {
	m.ForceCleanup()
	m.callbacks = nil
}

// EstimateGeometrySize returns the bytes held by the attribute arrays.
func EstimateGeometrySize(g *scene.Geometry) int64 {
	return int64(g.ByteSize())
}

// EstimateMaterialSize is a fixed 1 KiB plus the textures it references.
func EstimateMaterialSize(mat *scene.Material) int64 {
	size := int64(1024)
	for _, t := range mat.Textures {
		size += EstimateTextureSize(t)
	}
	return size
}

// EstimateTextureSize assumes RGBA8 with a third extra for mipmaps. Unknown
// dimensions count as 256.
func EstimateTextureSize(t *scene.Texture) int64 {
	if t == nil {
		return 1024
	}
	w, h := t.Width, t.Height
	if w <= 0 {
		w = 256
	}
	if h <= 0 {
		h = 256
	}
	return int64(float64(w*h*4) * 1.33)
}
