package resource

import "forward-engine/core"

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
)

type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

// Material is shared read-only by every node drawing a prefab during a
// frame; edits show up on the next frame's submission.
type Material struct {
	Name      string
	Color     core.Color
	Texture   Handle[Texture]
	Specular  core.Color
	Shininess float32
	Lit       bool

	// Sprite sheet grid; 0 means a single frame.
	SpriteColumns int
	SpriteRows    int

	Blending bool
	BlendSrc BlendFactor
	BlendDst BlendFactor
	Cull     CullMode
}

// NewMaterial returns an opaque, unlit, untextured material.
func NewMaterial(name string, color core.Color) *Material {
	return &Material{
		Name:      name,
		Color:     color,
		Specular:  core.Color{R: 0.5, G: 0.5, B: 0.5, A: 1},
		Shininess: 32,
		BlendSrc:  BlendSrcAlpha,
		BlendDst:  BlendOneMinusSrcAlpha,
		Cull:      CullBack,
	}
}

func (m *Material) Textured() bool { return !m.Texture.IsNil() }

// SpriteFrames returns the number of frames in the sprite grid.
func (m *Material) SpriteFrames() int {
	if m.SpriteColumns <= 0 || m.SpriteRows <= 0 {
		return 1
	}
	return m.SpriteColumns * m.SpriteRows
}

// SetBlending enables alpha blending with the usual src-alpha factors.
func (m *Material) SetBlending(enabled bool) {
	m.Blending = enabled
	m.BlendSrc = BlendSrcAlpha
	m.BlendDst = BlendOneMinusSrcAlpha
}
