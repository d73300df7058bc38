// Package opengl is the OpenGL 4.1 core RenderAPI backend. Every call must
// be made on the goroutine that owns the GL context.
package opengl

import (
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/render"
	"forward-engine/resource"
)

// gpuMesh holds the buffer objects for an uploaded mesh.
type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// instanceBuffer streams packed instance matrices. Capacity is in instances.
type instanceBuffer struct {
	vbo uint32
	cap int
	buf []float32
}

// instanceAttrib is the first of the four vec4 locations of a_model.
const instanceAttrib = 4

// Backend implements render.RenderAPI and resource.Releaser.
type Backend struct {
	meshes    map[*resource.Mesh]*gpuMesh
	instanced map[*resource.InstancedMesh]*instanceBuffer
	targets   map[uint32]*renderTarget
	programs  []*Program
}

var (
	_ render.RenderAPI  = (*Backend)(nil)
	_ resource.Releaser = (*Backend)(nil)
)

// New loads the GL function pointers for the current context.
func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "gl init")
	}
	core.Logger().Info("opengl ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Backend{
		meshes:    make(map[*resource.Mesh]*gpuMesh),
		instanced: make(map[*resource.InstancedMesh]*instanceBuffer),
		targets:   make(map[uint32]*renderTarget),
	}, nil
}

func (b *Backend) SetViewport(x, y, w, h int) {
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
}

func (b *Backend) Clear() {
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (b *Backend) ClearColor(c core.Color) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
}

func (b *Backend) SetDepthTestEnabled(on bool) {
	if on {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (b *Backend) SetPolygonMode(m render.PolygonMode) {
	if m == render.PolygonLine {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (b *Backend) SetCullingMode(m resource.CullMode) {
	switch m {
	case resource.CullNone:
		gl.Disable(gl.CULL_FACE)
	case resource.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (b *Backend) SetBlendingEnabled(on bool) {
	if on {
		gl.Enable(gl.BLEND)
		// Blended draws test against depth but leave it untouched.
		gl.DepthMask(false)
	} else {
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}
}

var blendFactors = map[resource.BlendFactor]uint32{
	resource.BlendZero:             gl.ZERO,
	resource.BlendOne:              gl.ONE,
	resource.BlendSrcAlpha:         gl.SRC_ALPHA,
	resource.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	resource.BlendDstColor:         gl.DST_COLOR,
	resource.BlendOneMinusDstColor: gl.ONE_MINUS_DST_COLOR,
}

func (b *Backend) SetBlendingFunc(src, dst resource.BlendFactor) {
	gl.BlendFunc(blendFactors[src], blendFactors[dst])
}

func (b *Backend) BindDefaultFramebuffer() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (b *Backend) BindFramebuffer(t *render.RenderTarget) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.ID)
}

// BindTexture uploads tex on first use.
func (b *Backend) BindTexture(unit int, tex *resource.Texture) {
	if tex.BackendID == 0 {
		if err := uploadTexture(tex); err != nil {
			core.Logger().Error("texture upload", "texture", tex.Name, "err", err)
			return
		}
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex.BackendID)
}

func (b *Backend) DrawMesh(mesh *resource.Mesh) {
	gpu := b.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	gl.BindVertexArray(gpu.vao)
	gl.DrawElements(gl.TRIANGLES, gpu.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// DrawMeshInstanced streams the first count packed matrices of inst into its
// instance buffer and draws mesh once per matrix.
func (b *Backend) DrawMeshInstanced(mesh *resource.Mesh, inst *resource.InstancedMesh, count int) {
	if count == 0 {
		return
	}
	gpu := b.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	ib := b.instanceBufferFor(inst)
	ib.upload(inst.Packed[:count])

	gl.BindVertexArray(gpu.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, ib.vbo)
	const stride = int32(16 * 4)
	for i := uint32(0); i < 4; i++ {
		gl.EnableVertexAttribArray(instanceAttrib + i)
		gl.VertexAttribPointer(instanceAttrib+i, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(i)*16))
		gl.VertexAttribDivisor(instanceAttrib+i, 1)
	}
	gl.DrawElementsInstanced(gl.TRIANGLES, gpu.indexCount, gl.UNSIGNED_INT, nil, int32(count))
	// The VAO is shared with non-instanced draws of the same mesh.
	for i := uint32(0); i < 4; i++ {
		gl.DisableVertexAttribArray(instanceAttrib + i)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (b *Backend) instanceBufferFor(inst *resource.InstancedMesh) *instanceBuffer {
	if ib, ok := b.instanced[inst]; ok {
		return ib
	}
	ib := &instanceBuffer{}
	gl.GenBuffers(1, &ib.vbo)
	b.instanced[inst] = ib
	inst.GPUData = ib
	return ib
}

func (ib *instanceBuffer) upload(ms []math.Mat4) {
	ib.buf = ib.buf[:0]
	for i := range ms {
		f := ms[i].Flatten()
		ib.buf = append(ib.buf, f[:]...)
	}
	size := len(ib.buf) * 4
	gl.BindBuffer(gl.ARRAY_BUFFER, ib.vbo)
	if len(ms) > ib.cap {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(ib.buf), gl.DYNAMIC_DRAW)
		ib.cap = len(ms)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(ib.buf))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (b *Backend) ensureUploaded(mesh *resource.Mesh) *gpuMesh {
	if gpu, ok := b.meshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil
	}

	var v resource.Vertex
	stride := int32(unsafe.Sizeof(v))
	gpu := &gpuMesh{indexCount: int32(len(mesh.Indices))}

	gl.GenVertexArrays(1, &gpu.vao)
	gl.GenBuffers(1, &gpu.vbo)
	gl.GenBuffers(1, &gpu.ebo)
	gl.BindVertexArray(gpu.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	b.meshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

func (b *Backend) ReleaseMesh(mesh *resource.Mesh) {
	gpu, ok := b.meshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.vao)
	gl.DeleteBuffers(1, &gpu.vbo)
	gl.DeleteBuffers(1, &gpu.ebo)
	delete(b.meshes, mesh)
	mesh.GPUData = nil
}

func (b *Backend) ReleaseInstancedMesh(inst *resource.InstancedMesh) {
	ib, ok := b.instanced[inst]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &ib.vbo)
	delete(b.instanced, inst)
	inst.GPUData = nil
}

func (b *Backend) ReleaseTexture(tex *resource.Texture) {
	deleteTexture(tex)
}

// Destroy frees everything the backend still holds.
func (b *Backend) Destroy() {
	for m := range b.meshes {
		b.ReleaseMesh(m)
	}
	for inst := range b.instanced {
		b.ReleaseInstancedMesh(inst)
	}
	for _, t := range b.targets {
		t.free()
	}
	clear(b.targets)
	for _, p := range b.programs {
		p.Delete()
	}
	b.programs = nil
}
