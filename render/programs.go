package render

import "forward-engine/resource"

type ProgramKey struct {
	Mesh    resource.MeshType
	Binding Binding
}

// Programs maps (mesh type, binding) to a GPU program. A missing entry is a
// setup bug and surfaces as a configuration error at draw time.
type Programs struct {
	m map[ProgramKey]GPUProgram
}

func NewPrograms() *Programs {
	return &Programs{m: make(map[ProgramKey]GPUProgram)}
}

func (p *Programs) Register(mesh resource.MeshType, b Binding, prog GPUProgram) {
	p.m[ProgramKey{Mesh: mesh, Binding: b}] = prog
}

func (p *Programs) Lookup(mesh resource.MeshType, b Binding) (GPUProgram, bool) {
	prog, ok := p.m[ProgramKey{Mesh: mesh, Binding: b}]
	return prog, ok
}

func (p *Programs) Len() int { return len(p.m) }
