package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/render"
	"forward-engine/resource"
)

// Program is a linked GLSL program implementing render.GPUProgram. Uniform
// locations are looked up once and cached by name.
type Program struct {
	ID      uint32
	Binding render.Binding

	locs map[string]int32
}

var _ render.GPUProgram = (*Program)(nil)

// LoadProgram compiles and links a program from vertex and fragment source.
func LoadProgram(vertSrc, fragSrc string) (*Program, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer gl.DeleteShader(frag)

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(id, logLen, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, errors.Errorf("link failed: %v", log)
	}
	return &Program{ID: id, locs: make(map[string]int32)}, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, errors.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (p *Program) Use() { gl.UseProgram(p.ID) }

func (p *Program) Delete() {
	gl.DeleteProgram(p.ID)
	p.ID = 0
}

func (p *Program) location(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.locs[name] = loc
	return loc
}

// SetUniformVar uploads v to the named uniform of the bound program.
// Uniforms the shader does not declare are ignored.
func (p *Program) SetUniformVar(name string, v any) {
	loc := p.location(name)
	if loc < 0 {
		return
	}
	switch v := v.(type) {
	case float32:
		gl.Uniform1f(loc, v)
	case int32:
		gl.Uniform1i(loc, v)
	case int:
		gl.Uniform1i(loc, int32(v))
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.Uniform1i(loc, i)
	case math.Vec2:
		mv := mgl32.Vec2{v.X, v.Y}
		gl.Uniform2fv(loc, 1, &mv[0])
	case math.Vec3:
		mv := mgl32.Vec3{v.X, v.Y, v.Z}
		gl.Uniform3fv(loc, 1, &mv[0])
	case math.Vec4:
		mv := mgl32.Vec4{v.X, v.Y, v.Z, v.W}
		gl.Uniform4fv(loc, 1, &mv[0])
	case core.Color:
		mv := mgl32.Vec4{v.R, v.G, v.B, v.A}
		gl.Uniform4fv(loc, 1, &mv[0])
	case math.Mat4:
		mm := mgl32.Mat4(v.Flatten())
		gl.UniformMatrix4fv(loc, 1, false, &mm[0])
	default:
		core.Logger().Warn("unsupported uniform type", "uniform", name, "type", fmt.Sprintf("%T", v))
	}
}

func (p *Program) SetTransformVar(m math.Mat4) {
	p.SetUniformVar(uniformModel, m)
}

// LoadPrograms builds the program for every binding and registers it for
// every mesh type. The backend owns the programs and frees them on Destroy.
func (b *Backend) LoadPrograms(progs *render.Programs) error {
	meshTypes := []resource.MeshType{resource.MeshQuad, resource.MeshSprite, resource.MeshCube, resource.MeshModel}
	for _, bind := range render.AllBindings {
		vs, fs := shaderSources(bind)
		p, err := LoadProgram(vs, fs)
		if err != nil {
			return errors.Wrapf(err, "program %s", bind)
		}
		p.Binding = bind
		b.programs = append(b.programs, p)
		for _, mt := range meshTypes {
			progs.Register(mt, bind, p)
		}
	}
	core.Logger().Debug("gpu programs loaded", "programs", len(b.programs), "entries", progs.Len())
	return nil
}
