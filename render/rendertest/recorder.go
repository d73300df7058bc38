// Package rendertest provides a RenderAPI that records calls instead of
// talking to a GPU.
package rendertest

import (
	"fmt"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/render"
	"forward-engine/resource"
)

// Draw is one recorded draw call with the state it was issued under.
type Draw struct {
	Program   string
	Mesh      string
	Model     math.Mat4
	Color     core.Color
	Blending  bool
	Cull      resource.CullMode
	Texture   string
	Instances int
	Packed    []math.Mat4
	Uniforms  map[string]any
}

// Recorder implements render.RenderAPI and resource.Releaser.
type Recorder struct {
	Calls []string
	draws []Draw

	viewport   core.Viewport
	clearColor core.Color
	depthTest  bool
	polygon    render.PolygonMode
	cull       resource.CullMode
	blending   bool
	blendSrc   resource.BlendFactor
	blendDst   resource.BlendFactor
	target     *render.RenderTarget
	texture    *resource.Texture
	current    *Program

	Released []string
}

var (
	_ render.RenderAPI  = (*Recorder)(nil)
	_ resource.Releaser = (*Recorder)(nil)
)

func New() *Recorder { return &Recorder{} }

func (r *Recorder) call(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

// Draws returns the draw calls recorded so far.
func (r *Recorder) Draws() []Draw { return r.draws }

// Reset forgets recorded calls; bound state is kept.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.draws = nil
	r.Released = nil
}

func (r *Recorder) Viewport() core.Viewport         { return r.viewport }
func (r *Recorder) ClearedWith() core.Color         { return r.clearColor }
func (r *Recorder) Target() *render.RenderTarget    { return r.target }
func (r *Recorder) PolygonMode() render.PolygonMode { return r.polygon }

func (r *Recorder) SetViewport(x, y, w, h int) {
	r.viewport = core.Viewport{X: x, Y: y, Width: w, Height: h}
	r.call("viewport %d %d %d %d", x, y, w, h)
}

func (r *Recorder) Clear() { r.call("clear") }

func (r *Recorder) ClearColor(c core.Color) {
	r.clearColor = c
	r.call("clearcolor")
}

func (r *Recorder) SetDepthTestEnabled(on bool)         { r.depthTest = on }
func (r *Recorder) SetPolygonMode(m render.PolygonMode) { r.polygon = m }
func (r *Recorder) SetCullingMode(m resource.CullMode)  { r.cull = m }
func (r *Recorder) SetBlendingEnabled(on bool)          { r.blending = on }

func (r *Recorder) SetBlendingFunc(src, dst resource.BlendFactor) {
	r.blendSrc, r.blendDst = src, dst
}

func (r *Recorder) BindDefaultFramebuffer() {
	r.target = nil
	r.call("framebuffer default")
}

func (r *Recorder) BindFramebuffer(t *render.RenderTarget) {
	r.target = t
	r.call("framebuffer %d", t.ID)
}

func (r *Recorder) BindTexture(unit int, tex *resource.Texture) {
	r.texture = tex
}

func (r *Recorder) record(mesh *resource.Mesh, instances int, packed []math.Mat4) {
	d := Draw{
		Mesh:      mesh.Name,
		Blending:  r.blending,
		Cull:      r.cull,
		Instances: instances,
		Packed:    packed,
	}
	if p := r.current; p != nil {
		d.Program = p.Name
		d.Model = p.model
		d.Uniforms = make(map[string]any, len(p.uniforms))
		for k, v := range p.uniforms {
			d.Uniforms[k] = v
		}
		if c, ok := p.uniforms[render.UniformColor].(core.Color); ok {
			d.Color = c
		}
		if p.Binding.Textured() && r.texture != nil {
			d.Texture = r.texture.Name
		}
	}
	r.draws = append(r.draws, d)
	r.call("draw %s", mesh.Name)
}

func (r *Recorder) DrawMesh(mesh *resource.Mesh) { r.record(mesh, 0, nil) }

func (r *Recorder) DrawMeshInstanced(mesh *resource.Mesh, inst *resource.InstancedMesh, count int) {
	r.record(mesh, count, append([]math.Mat4(nil), inst.Packed[:count]...))
}

func (r *Recorder) ReleaseMesh(m *resource.Mesh) {
	r.Released = append(r.Released, "mesh:"+m.Name)
}

func (r *Recorder) ReleaseTexture(t *resource.Texture) {
	r.Released = append(r.Released, "texture:"+t.Name)
}

func (r *Recorder) ReleaseInstancedMesh(*resource.InstancedMesh) {
	r.Released = append(r.Released, "instanced")
}

// Program is a GPUProgram that remembers the uniforms set on it.
type Program struct {
	Name    string
	Binding render.Binding

	rec      *Recorder
	model    math.Mat4
	uniforms map[string]any
}

// Program returns a recording program bound to r.
func (r *Recorder) Program(name string, b render.Binding) *Program {
	return &Program{Name: name, Binding: b, rec: r, uniforms: make(map[string]any)}
}

func (p *Program) Use() {
	p.rec.current = p
	p.rec.call("use %s", p.Name)
}

func (p *Program) SetUniformVar(name string, v any) { p.uniforms[name] = v }
func (p *Program) SetTransformVar(m math.Mat4)      { p.model = m }

// Uniform returns the last value set for name.
func (p *Program) Uniform(name string) any { return p.uniforms[name] }

// RegisterAll fills progs with a recording program for every mesh type and
// binding, named "<mesh>/<binding>".
func (r *Recorder) RegisterAll(progs *render.Programs) {
	for _, mt := range []resource.MeshType{resource.MeshQuad, resource.MeshSprite, resource.MeshCube, resource.MeshModel} {
		for _, b := range render.AllBindings {
			progs.Register(mt, b, r.Program(mt.String()+"/"+b.String(), b))
		}
	}
}
