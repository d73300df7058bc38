package resource

import (
	"forward-engine/core"
	"forward-engine/math"
)

// MeshType selects the GPU program family used to draw a mesh.
type MeshType int

const (
	MeshQuad MeshType = iota
	MeshSprite
	MeshCube
	MeshModel
)

var meshTypeNames = [...]string{"quad", "sprite", "cube", "model"}

func (t MeshType) String() string {
	if int(t) < len(meshTypeNames) {
		return meshTypeNames[t]
	}
	return "unknown"
}

type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
	Color    core.Color
}

// Mesh holds CPU-side vertex/index data.
// GPUData is owned by the render backend.
type Mesh struct {
	Name     string
	Type     MeshType
	Vertices []Vertex
	Indices  []uint32
	GPUData  any
}

func (m *Mesh) IndexCount() int { return len(m.Indices) }

// InstancedMesh is the per-instance transform buffer of an instanced prefab.
// Transforms has one slot per instance; the renderer packs the live ones
// into Packed before each instanced draw.
type InstancedMesh struct {
	Mesh         Handle[Mesh]
	MaxInstances int
	Transforms   []math.Mat4
	Packed       []math.Mat4
	GPUData      any
}

func NewQuad(name string) *Mesh {
	n := math.Vec3{X: 0, Y: 0, Z: 1}
	return &Mesh{
		Name: name,
		Type: MeshQuad,
		Vertices: []Vertex{
			{Position: math.Vec3{X: -0.5, Y: -0.5}, Normal: n, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
			{Position: math.Vec3{X: 0.5, Y: -0.5}, Normal: n, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
			{Position: math.Vec3{X: 0.5, Y: 0.5}, Normal: n, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
			{Position: math.Vec3{X: -0.5, Y: 0.5}, Normal: n, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

// NewSprite is a unit quad drawn with the sprite programs, which offset UVs
// by the current animation frame.
func NewSprite(name string) *Mesh {
	m := NewQuad(name)
	m.Type = MeshSprite
	return m
}

func NewCube(name string, size float32) *Mesh {
	s := size / 2
	face := func(n math.Vec3, corners [4]math.Vec3) []Vertex {
		uvs := [4]math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
		out := make([]Vertex, 4)
		for i := range corners {
			out[i] = Vertex{Position: corners[i], Normal: n, UV: uvs[i], Color: core.ColorWhite}
		}
		return out
	}

	var vertices []Vertex
	vertices = append(vertices, face(math.Vec3{Z: 1}, [4]math.Vec3{{X: -s, Y: -s, Z: s}, {X: s, Y: -s, Z: s}, {X: s, Y: s, Z: s}, {X: -s, Y: s, Z: s}})...)
	vertices = append(vertices, face(math.Vec3{Z: -1}, [4]math.Vec3{{X: s, Y: -s, Z: -s}, {X: -s, Y: -s, Z: -s}, {X: -s, Y: s, Z: -s}, {X: s, Y: s, Z: -s}})...)
	vertices = append(vertices, face(math.Vec3{Y: 1}, [4]math.Vec3{{X: -s, Y: s, Z: s}, {X: s, Y: s, Z: s}, {X: s, Y: s, Z: -s}, {X: -s, Y: s, Z: -s}})...)
	vertices = append(vertices, face(math.Vec3{Y: -1}, [4]math.Vec3{{X: -s, Y: -s, Z: -s}, {X: s, Y: -s, Z: -s}, {X: s, Y: -s, Z: s}, {X: -s, Y: -s, Z: s}})...)
	vertices = append(vertices, face(math.Vec3{X: 1}, [4]math.Vec3{{X: s, Y: -s, Z: s}, {X: s, Y: -s, Z: -s}, {X: s, Y: s, Z: -s}, {X: s, Y: s, Z: s}})...)
	vertices = append(vertices, face(math.Vec3{X: -1}, [4]math.Vec3{{X: -s, Y: -s, Z: -s}, {X: -s, Y: -s, Z: s}, {X: -s, Y: s, Z: s}, {X: -s, Y: s, Z: -s}})...)

	indices := make([]uint32, 0, 36)
	for f := uint32(0); f < 6; f++ {
		b := f * 4
		indices = append(indices, b, b+1, b+2, b+2, b+3, b)
	}

	return &Mesh{Name: name, Type: MeshCube, Vertices: vertices, Indices: indices}
}
