package resource

import (
	"github.com/chewxy/math32"

	"forward-engine/core"
	"forward-engine/math"
)

// NewSphere builds a UV sphere drawn with the model programs.
func NewSphere(name string, radius float32, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	m := &Mesh{Name: name, Type: MeshModel}
	for ring := 0; ring <= rings; ring++ {
		sinPhi, cosPhi := math32.Sincos(float32(ring) * math32.Pi / float32(rings))
		for seg := 0; seg <= segments; seg++ {
			sinTheta, cosTheta := math32.Sincos(float32(seg) * 2 * math32.Pi / float32(segments))
			n := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			m.Vertices = append(m.Vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				UV:       math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)},
				Color:    core.ColorWhite,
			})
		}
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			cur := uint32(ring*(segments+1) + seg)
			next := cur + uint32(segments+1)
			m.Indices = append(m.Indices, cur, cur+1, next, cur+1, next+1, next)
		}
	}
	return m
}

// NewPlane builds a flat size x size grid in the XZ plane facing +Y.
func NewPlane(name string, size float32, subdivisions int) *Mesh {
	subdivisions = max(subdivisions, 1)
	half := size / 2
	row := uint32(subdivisions + 1)

	m := &Mesh{Name: name, Type: MeshModel}
	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			m.Vertices = append(m.Vertices, Vertex{
				Position: math.Vec3{X: -half + u*size, Z: -half + v*size},
				Normal:   math.Vec3Up,
				UV:       math.Vec2{X: u, Y: v},
				Color:    core.ColorWhite,
			})
		}
	}
	for z := uint32(0); z < uint32(subdivisions); z++ {
		for x := uint32(0); x < uint32(subdivisions); x++ {
			tl := z*row + x
			bl := tl + row
			m.Indices = append(m.Indices, tl, bl, tl+1, tl+1, bl, bl+1)
		}
	}
	return m
}
