// Package renderer is the OpenGL 4.1 backend for scene.Renderer. Meshes are
// drawn one call each; instance buffers are drawn with glDrawElementsInstanced.
//
// All methods must be called from the thread that owns the GL context.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scene-perf/internal/engine/debug"
	"github.com/Faultbox/scene-perf/internal/engine/lighting"
	"github.com/Faultbox/scene-perf/internal/engine/scene"
	"github.com/Faultbox/scene-perf/internal/engine/shader"
	"github.com/Faultbox/scene-perf/internal/logger"
	"github.com/Faultbox/scene-perf/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

type gpuGeometry struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

type gpuInstances struct {
	vao       uint32
	matrixVBO uint32
	colorVBO  uint32
	geometry  *gpuGeometry
}

// Renderer draws the meshes and instance buffers the engine submits.
type Renderer struct {
	config Config
	log    *zap.Logger

	program    *shader.Program
	uViewProj  int32
	uModel     int32
	uColor     int32
	uInstanced int32
	uUnlit     int32
	uOpacity   int32
	uLightDir  int32
	uAmbient   int32

	sun lighting.Sun

	meshes     map[*scene.Mesh]struct{}
	buffers    map[*scene.InstanceBuffer]struct{}
	geometries map[*scene.Geometry]*gpuGeometry

	lineVAO, lineVBO uint32
	lineCount        int32

	frame scene.RenderInfo
}

var _ scene.Renderer = (*Renderer)(nil)

// New creates a renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:     cfg,
		log:        logger.Named("renderer"),
		meshes:     make(map[*scene.Mesh]struct{}),
		buffers:    make(map[*scene.InstanceBuffer]struct{}),
		geometries: make(map[*scene.Geometry]*gpuGeometry),
		sun:        lighting.DefaultSun(),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", DeviceName()),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	program, err := shader.Compile(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program = program
	r.uViewProj = program.MustUniform("uViewProj")
	r.uModel = program.Uniform("uModel")
	r.uColor = program.Uniform("uColor")
	r.uInstanced = program.Uniform("uInstanced")
	r.uUnlit = program.Uniform("uUnlit")
	r.uOpacity = program.Uniform("uOpacity")
	r.uLightDir = program.Uniform("uLightDir")
	r.uAmbient = program.Uniform("uAmbient")

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointerWithOffset(attrPosition, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(attrPosition)
	gl.BindVertexArray(0)

	return r, nil
}

// DeviceName returns GL_RENDERER. Requires a current context.
func DeviceName() string {
	return gl.GoStr(gl.GetString(gl.RENDERER))
}

// Close frees every GPU resource the renderer still holds.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for b := range r.buffers {
		r.FreeInstances(b)
	}
	for g := range r.geometries {
		r.DisposeGeometry(g)
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// SetSun changes the directional light.
func (r *Renderer) SetSun(s lighting.Sun) {
	r.sun = s
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

func (r *Renderer) Add(m *scene.Mesh) {
	r.meshes[m] = struct{}{}
	r.upload(m.Geometry)
}

func (r *Renderer) Remove(m *scene.Mesh) {
	delete(r.meshes, m)
}

// DisposeGeometry deletes the geometry's vertex arrays. Instance buffers
// still drawing it are freed first.
func (r *Renderer) DisposeGeometry(g *scene.Geometry) {
	gg, ok := r.geometries[g]
	if !ok {
		return
	}
	// Buffers stay registered and are uploaded again on the next Render.
	for b := range r.buffers {
		if b.Geometry == g {
			releaseInstances(b)
		}
	}
	gl.DeleteVertexArrays(1, &gg.vao)
	gl.DeleteBuffers(1, &gg.vbo)
	if gg.indexed {
		gl.DeleteBuffers(1, &gg.ebo)
	}
	delete(r.geometries, g)
	g.GPU = nil
}

// UploadInstances creates or refills the buffer's per-instance attributes.
func (r *Renderer) UploadInstances(b *scene.InstanceBuffer) {
	gg := r.upload(b.Geometry)
	if gg == nil || b.Count == 0 {
		return
	}

	gi, _ := b.GPU.(*gpuInstances)
	if gi == nil {
		gi = &gpuInstances{geometry: gg}
		gl.GenVertexArrays(1, &gi.vao)
		gl.GenBuffers(1, &gi.matrixVBO)
		gl.GenBuffers(1, &gi.colorVBO)

		gl.BindVertexArray(gi.vao)
		bindVertexLayout(gg)

		gl.BindBuffer(gl.ARRAY_BUFFER, gi.colorVBO)
		gl.VertexAttribPointerWithOffset(attrColor, 3, gl.FLOAT, false, 3*4, 0)
		gl.EnableVertexAttribArray(attrColor)
		gl.VertexAttribDivisor(attrColor, 1)

		gl.BindBuffer(gl.ARRAY_BUFFER, gi.matrixVBO)
		for col := uint32(0); col < 4; col++ {
			gl.VertexAttribPointerWithOffset(attrModel+col, 4, gl.FLOAT, false, 16*4, uintptr(col*16))
			gl.EnableVertexAttribArray(attrModel + col)
			gl.VertexAttribDivisor(attrModel+col, 1)
		}
		gl.BindVertexArray(0)
		b.GPU = gi
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, gi.matrixVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.Matrices)*4, unsafe.Pointer(&b.Matrices[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, gi.colorVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.Colors)*4, unsafe.Pointer(&b.Colors[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.buffers[b] = struct{}{}
}

func (r *Renderer) FreeInstances(b *scene.InstanceBuffer) {
	if _, ok := r.buffers[b]; !ok {
		return
	}
	delete(r.buffers, b)
	releaseInstances(b)
}

func releaseInstances(b *scene.InstanceBuffer) {
	if gi, ok := b.GPU.(*gpuInstances); ok {
		gl.DeleteVertexArrays(1, &gi.vao)
		gl.DeleteBuffers(1, &gi.matrixVBO)
		gl.DeleteBuffers(1, &gi.colorVBO)
	}
	b.GPU = nil
}

// Info reports live resources and the counters of the last Render.
func (r *Renderer) Info() scene.RenderInfo {
	mats := make([]*scene.Material, 0, len(r.meshes)+len(r.buffers))
	for m := range r.meshes {
		mats = append(mats, m.Material)
	}
	for b := range r.buffers {
		mats = append(mats, b.Material)
	}
	info := r.frame
	info.Geometries = len(r.geometries)
	info.Textures = len(textureSet(mats))
	return info
}

// SetDebugBoxes replaces the wireframe boxes drawn after the scene.
func (r *Renderer) SetDebugBoxes(boxes []math.AABB) {
	verts := debug.Wireframe(boxes, debug.DefaultLeafPadding)
	r.lineCount = int32(len(verts) / 3)
	if r.lineCount == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Render clears the frame and draws every visible mesh and instance buffer.
func (r *Renderer) Render(viewProj math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.program.Use()
	gl.UniformMatrix4fv(r.uViewProj, 1, false, viewProj.Ptr())
	gl.Uniform1i(r.uUnlit, 0)
	dir := r.sun.Direction()
	gl.Uniform3f(r.uLightDir, dir.X, dir.Y, dir.Z)
	gl.Uniform1f(r.uAmbient, r.sun.Ambient)

	r.frame = scene.RenderInfo{}

	gl.Uniform1i(r.uInstanced, 0)
	for m := range r.meshes {
		if !m.Visible {
			continue
		}
		gg := r.upload(m.Geometry)
		if gg == nil {
			continue
		}
		model := m.Transform.Matrix()
		gl.UniformMatrix4fv(r.uModel, 1, false, model.Ptr())
		r.setMaterial(m.Material)
		gl.BindVertexArray(gg.vao)
		r.draw(gg, 0)
		r.frame.Triangles += m.Geometry.TriangleCount()
	}

	gl.Uniform1i(r.uInstanced, 1)
	for b := range r.buffers {
		if b.Count == 0 {
			continue
		}
		if b.GPU == nil {
			r.UploadInstances(b)
		}
		gi, ok := b.GPU.(*gpuInstances)
		if !ok {
			continue
		}
		r.setMaterial(b.Material)
		gl.BindVertexArray(gi.vao)
		r.draw(gi.geometry, int32(b.Count))
		r.frame.Triangles += b.Geometry.TriangleCount() * b.Count
	}

	if r.lineCount > 0 {
		ident := math.Identity()
		gl.Uniform1i(r.uInstanced, 0)
		gl.Uniform1i(r.uUnlit, 1)
		gl.UniformMatrix4fv(r.uModel, 1, false, ident.Ptr())
		gl.Uniform3f(r.uColor, 0.2, 1.0, 0.3)
		gl.Uniform1f(r.uOpacity, 1)
		gl.BindVertexArray(r.lineVAO)
		gl.DrawArrays(gl.LINES, 0, r.lineCount)
		r.frame.DrawCalls++
	}
	gl.BindVertexArray(0)
}

func (r *Renderer) setMaterial(m *scene.Material) {
	c, opacity := scene.DefaultColor, float32(1)
	if m != nil {
		c, opacity = m.Color, m.Opacity
	}
	gl.Uniform3f(r.uColor, c.R, c.G, c.B)
	gl.Uniform1f(r.uOpacity, opacity)
}

// draw issues one call. instances 0 is a plain draw.
func (r *Renderer) draw(gg *gpuGeometry, instances int32) {
	switch {
	case gg.indexed && instances > 0:
		gl.DrawElementsInstanced(gl.TRIANGLES, gg.count, gl.UNSIGNED_INT, nil, instances)
	case gg.indexed:
		gl.DrawElements(gl.TRIANGLES, gg.count, gl.UNSIGNED_INT, nil)
	case instances > 0:
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, gg.count, instances)
	default:
		gl.DrawArrays(gl.TRIANGLES, 0, gg.count)
	}
	r.frame.DrawCalls++
}

// upload creates the geometry's vertex array on first use.
func (r *Renderer) upload(g *scene.Geometry) *gpuGeometry {
	if gg, ok := r.geometries[g]; ok {
		return gg
	}
	if g.Validate() != nil {
		return nil
	}

	verts := interleave(g)
	gg := &gpuGeometry{count: elementCount(g), indexed: len(g.Indices) > 0}

	gl.GenVertexArrays(1, &gg.vao)
	gl.BindVertexArray(gg.vao)

	gl.GenBuffers(1, &gg.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gg.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)

	if gg.indexed {
		gl.GenBuffers(1, &gg.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gg.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, unsafe.Pointer(&g.Indices[0]), gl.STATIC_DRAW)
	}
	bindVertexLayout(gg)
	gl.BindVertexArray(0)

	r.geometries[g] = gg
	g.GPU = gg
	r.log.Debug("geometry uploaded",
		zap.String("name", g.Name),
		zap.Int("vertices", g.VertexCount()),
		zap.Uint32("vao", gg.vao),
	)
	return gg
}

// bindVertexLayout points the bound vertex array at gg's buffers.
func bindVertexLayout(gg *gpuGeometry) {
	gl.BindBuffer(gl.ARRAY_BUFFER, gg.vbo)
	gl.VertexAttribPointerWithOffset(attrPosition, 3, gl.FLOAT, false, vertexStride*4, 0)
	gl.EnableVertexAttribArray(attrPosition)
	gl.VertexAttribPointerWithOffset(attrNormal, 3, gl.FLOAT, false, vertexStride*4, 3*4)
	gl.EnableVertexAttribArray(attrNormal)
	if gg.indexed {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gg.ebo)
	}
}

// ReadPixels returns the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}
