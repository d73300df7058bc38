// Package render turns submitted scene content into draw calls. A Renderer
// collects nodes into per-id RenderQueues during the scene traversal, then
// Present binds state and issues draws through a RenderAPI backend.
package render

import (
	"strconv"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
)

type PolygonMode int

const (
	PolygonFill PolygonMode = iota
	PolygonLine
)

// RenderTarget is an offscreen framebuffer created by the backend.
type RenderTarget struct {
	ID            uint32
	Width, Height int
}

// RenderAPI is the stateful GPU surface the renderer drives. State set
// through it persists until overwritten; the renderer sets everything a
// draw depends on before issuing it.
type RenderAPI interface {
	SetViewport(x, y, width, height int)
	Clear()
	ClearColor(c core.Color)
	SetDepthTestEnabled(enabled bool)
	SetPolygonMode(mode PolygonMode)
	SetCullingMode(mode resource.CullMode)
	SetBlendingEnabled(enabled bool)
	SetBlendingFunc(src, dst resource.BlendFactor)
	BindDefaultFramebuffer()
	BindFramebuffer(target *RenderTarget)
	BindTexture(unit int, tex *resource.Texture)
	DrawMesh(mesh *resource.Mesh)
	DrawMeshInstanced(mesh *resource.Mesh, inst *resource.InstancedMesh, count int)
}

// GPUProgram is a linked shader program. SetUniformVar accepts float32,
// int32, bool, math.Vec2/Vec3/Vec4, core.Color and math.Mat4 values.
// SetTransformVar sets the model matrix.
type GPUProgram interface {
	Use()
	SetUniformVar(name string, value any)
	SetTransformVar(m math.Mat4)
}

// Uniform names shared with the backend's shaders.
const (
	UniformViewProj   = "u_viewProj"
	UniformColor      = "u_color"
	UniformTexture    = "u_texture"
	UniformUVOffset   = "u_uvOffset"
	UniformUVScale    = "u_uvScale"
	UniformAmbient    = "u_ambient"
	UniformCameraPos  = "u_cameraPos"
	UniformSpecular   = "u_specular"
	UniformShininess  = "u_shininess"
	UniformLightCount = "u_lightCount"
)

// MaxLights is the number of lights a lit program receives per draw.
const MaxLights = 8

// LightUniform returns the name of field of light i, e.g. u_lights[2].diffuse.
func LightUniform(i int, field string) string {
	return "u_lights[" + strconv.Itoa(i) + "]." + field
}
