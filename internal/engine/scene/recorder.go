package scene

// Recorder is an in-memory Renderer. It keeps what a real renderer would
// hold and counts every call, so tests and headless runs can observe the
// engine.
type Recorder struct {
	Meshes   map[*Mesh]struct{}
	Buffers  map[*InstanceBuffer]struct{}
	Disposed map[*Geometry]int

	Adds     int
	Removes  int
	Uploads  int
	Frees    int
	Textures int

	// ExtraGeometries is added to Info().Geometries to simulate resources
	// held outside the engine.
	ExtraGeometries int

	nextHandle uint32
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Meshes:   make(map[*Mesh]struct{}),
		Buffers:  make(map[*InstanceBuffer]struct{}),
		Disposed: make(map[*Geometry]int),
	}
}

func (r *Recorder) Add(m *Mesh) {
	r.Adds++
	r.Meshes[m] = struct{}{}
}

func (r *Recorder) Remove(m *Mesh) {
	if _, ok := r.Meshes[m]; !ok {
		return
	}
	r.Removes++
	delete(r.Meshes, m)
}

func (r *Recorder) DisposeGeometry(g *Geometry) {
	r.Disposed[g]++
}

func (r *Recorder) UploadInstances(b *InstanceBuffer) {
	r.Uploads++
	if b.GPU == nil {
		r.nextHandle++
		b.GPU = r.nextHandle
	}
	r.Buffers[b] = struct{}{}
}

func (r *Recorder) FreeInstances(b *InstanceBuffer) {
	if _, ok := r.Buffers[b]; !ok {
		return
	}
	r.Frees++
	b.GPU = nil
	delete(r.Buffers, b)
}

func (r *Recorder) Info() RenderInfo {
	info := RenderInfo{Textures: r.Textures}
	geoms := make(map[*Geometry]struct{})
	for m := range r.Meshes {
		geoms[m.Geometry] = struct{}{}
		if m.Visible {
			info.DrawCalls++
			info.Triangles += m.Geometry.TriangleCount()
		}
	}
	for b := range r.Buffers {
		geoms[b.Geometry] = struct{}{}
		info.DrawCalls++
		info.Triangles += b.Geometry.TriangleCount() * b.Count
	}
	info.Geometries = len(geoms) + r.ExtraGeometries
	return info
}

// Has reports whether m is currently in the scene.
func (r *Recorder) Has(m *Mesh) bool {
	_, ok := r.Meshes[m]
	return ok
}

// DoubleDisposals returns geometries disposed more than once.
func (r *Recorder) DoubleDisposals() []*Geometry {
	var out []*Geometry
	for g, n := range r.Disposed {
		if n > 1 {
			out = append(out, g)
		}
	}
	return out
}
