package scene

import (
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
)

// Box is a flat rectangle drawn in the UI pass of the node's queue,
// positioned by the node's world transform plus Offset.
type Box struct {
	Size    math.Vec2
	Offset  math.Vec2
	Color   core.Color
	Texture resource.Handle[resource.Texture]
}

// TextBox is a line of text laid out from the node's origin plus Offset.
// Scale is pixels per font unit.
type TextBox struct {
	Text   string
	Offset math.Vec2
	Color  core.Color
	Scale  float32
}

// Transform returns the box's model matrix relative to world: the box's
// unit quad scaled to Size and shifted by Offset.
func (b *Box) Transform(world math.Mat4) math.Mat4 {
	local := math.Mat4Scale(math.Vec3{X: b.Size.X, Y: b.Size.Y, Z: 1}).
		Mul(math.Mat4Translation(b.Offset.Vec3(0)))
	return local.Mul(world)
}

// SpriteAnimation steps through a material's sprite grid.
type SpriteAnimation struct {
	First   int
	Count   int
	FPS     float32
	Loop    bool
	Playing bool

	frame   int
	elapsed float32
}

func NewSpriteAnimation(first, count int, fps float32) *SpriteAnimation {
	return &SpriteAnimation{First: first, Count: count, FPS: fps, Loop: true, Playing: true}
}

// Frame is the current absolute frame index in the sprite grid.
func (a *SpriteAnimation) Frame() int { return a.First + a.frame }

func (a *SpriteAnimation) SetFrame(i int) {
	if a.Count > 0 {
		a.frame = ((i % a.Count) + a.Count) % a.Count
	}
	a.elapsed = 0
}

func (a *SpriteAnimation) Update(dt float32) {
	if !a.Playing || a.FPS <= 0 || a.Count <= 1 {
		return
	}
	a.elapsed += dt
	step := 1 / a.FPS
	for a.elapsed >= step {
		a.elapsed -= step
		if a.frame+1 < a.Count {
			a.frame++
		} else if a.Loop {
			a.frame = 0
		} else {
			a.Playing = false
			a.elapsed = 0
			return
		}
	}
}

// FrameRect returns the UV offset and size of frame in a columns×rows grid.
func FrameRect(frame, columns, rows int) (offset, size math.Vec2) {
	if columns <= 0 || rows <= 0 {
		return math.Vec2{}, math.Vec2{X: 1, Y: 1}
	}
	size = math.Vec2{X: 1 / float32(columns), Y: 1 / float32(rows)}
	frame %= columns * rows
	offset = math.Vec2{X: float32(frame%columns) * size.X, Y: float32(frame/columns) * size.Y}
	return offset, size
}
