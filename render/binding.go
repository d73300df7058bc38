package render

import (
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
)

// Binding selects how uniforms are uploaded for a draw.
type Binding uint8

const (
	UnlitUntextured Binding = iota
	LitUntextured
	UnlitTextured
	LitTextured
	UnlitUntexturedInstanced
	LitUntexturedInstanced
	UnlitTexturedInstanced
	LitTexturedInstanced
)

const (
	bindLit       Binding = 1 << 0
	bindTextured  Binding = 1 << 1
	bindInstanced Binding = 1 << 2
)

var bindingNames = [...]string{
	"unlit", "lit", "unlit-textured", "lit-textured",
	"unlit-instanced", "lit-instanced", "unlit-textured-instanced", "lit-textured-instanced",
}

func (b Binding) String() string {
	if int(b) < len(bindingNames) {
		return bindingNames[b]
	}
	return "invalid"
}

func (b Binding) Lit() bool       { return b&bindLit != 0 }
func (b Binding) Textured() bool  { return b&bindTextured != 0 }
func (b Binding) Instanced() bool { return b&bindInstanced != 0 }

// AllBindings lists every variant, for backends building a full program set.
var AllBindings = []Binding{
	UnlitUntextured, LitUntextured, UnlitTextured, LitTextured,
	UnlitUntexturedInstanced, LitUntexturedInstanced, UnlitTexturedInstanced, LitTexturedInstanced,
}

// BindingFor picks the variant for a material.
func BindingFor(mat *resource.Material, instanced bool) Binding {
	var b Binding
	if mat.Lit {
		b |= bindLit
	}
	if mat.Textured() {
		b |= bindTextured
	}
	if instanced {
		b |= bindInstanced
	}
	return b
}

type lightEntry struct {
	light    resource.Light
	position math.Vec3
}

// frameUniforms are the per-frame values every program in a queue receives.
type frameUniforms struct {
	viewProj  math.Mat4
	cameraPos math.Vec3
	ambient   core.Color
	lights    []lightEntry
}

// nodeUniforms are the per-draw values. For instanced draws model is unused
// and the uv frame comes from the batch controller.
type nodeUniforms struct {
	model    math.Mat4
	color    core.Color
	uvOffset math.Vec2
	uvScale  math.Vec2
}

func bindFrameUniforms(prog GPUProgram, b Binding, f *frameUniforms) {
	prog.SetUniformVar(UniformViewProj, f.viewProj)
	switch b {
	case UnlitUntextured, UnlitTextured, UnlitUntexturedInstanced, UnlitTexturedInstanced:
	case LitUntextured, LitTextured, LitUntexturedInstanced, LitTexturedInstanced:
		prog.SetUniformVar(UniformAmbient, f.ambient)
		prog.SetUniformVar(UniformCameraPos, f.cameraPos)
		n := min(len(f.lights), MaxLights)
		prog.SetUniformVar(UniformLightCount, int32(n))
		for i := 0; i < n; i++ {
			bindLight(prog, i, &f.lights[i])
		}
	}
}

func bindLight(prog GPUProgram, i int, e *lightEntry) {
	l := &e.light
	prog.SetUniformVar(LightUniform(i, "type"), int32(l.Type))
	prog.SetUniformVar(LightUniform(i, "position"), e.position)
	prog.SetUniformVar(LightUniform(i, "direction"), l.Direction)
	prog.SetUniformVar(LightUniform(i, "attenuation"), math.Vec3{X: l.Constant, Y: l.Linear, Z: l.Quadratic})
	prog.SetUniformVar(LightUniform(i, "ambient"), l.Ambient)
	prog.SetUniformVar(LightUniform(i, "diffuse"), l.Diffuse)
	prog.SetUniformVar(LightUniform(i, "specular"), l.Specular)
}

func bindNodeUniforms(prog GPUProgram, b Binding, mat *resource.Material, n *nodeUniforms) {
	prog.SetUniformVar(UniformColor, n.color)
	switch b {
	case UnlitUntextured, LitUntextured:
		prog.SetTransformVar(n.model)
	case UnlitTextured, LitTextured:
		bindTextureUniforms(prog, n)
		prog.SetTransformVar(n.model)
	case UnlitUntexturedInstanced, LitUntexturedInstanced:
	case UnlitTexturedInstanced, LitTexturedInstanced:
		bindTextureUniforms(prog, n)
	}
	if b.Lit() {
		prog.SetUniformVar(UniformSpecular, mat.Specular)
		prog.SetUniformVar(UniformShininess, mat.Shininess)
	}
}

func bindTextureUniforms(prog GPUProgram, n *nodeUniforms) {
	prog.SetUniformVar(UniformTexture, int32(0))
	prog.SetUniformVar(UniformUVOffset, n.uvOffset)
	prog.SetUniformVar(UniformUVScale, n.uvScale)
}
