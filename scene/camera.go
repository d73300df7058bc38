package scene

import (
	"github.com/chewxy/math32"

	"forward-engine/core"
	"forward-engine/math"
)

// DepthLimit bounds the Z range of the 2D projection. Node depths use
// [MinDepth, MaxDepth]; UI overlays sit just beyond MinDepth.
const DepthLimit = 1100

type CameraMode int

const (
	Camera2D CameraMode = iota
	Camera3D
)

// Camera is a 2D or 3D camera. Mode selects which fields apply: Zoom for
// 2D, yaw/pitch/target and the perspective parameters for 3D.
type Camera struct {
	Mode CameraMode

	position math.Vec3
	zoom     float32

	yaw, pitch float32
	target     *math.Vec3
	fovY       float32
	near, far  float32

	tracked *Node
	view    math.Mat4
	dirty   bool
}

func NewCamera2D() *Camera {
	return &Camera{Mode: Camera2D, zoom: 1, dirty: true}
}

// NewCamera3D creates a perspective camera looking down -Z.
func NewCamera3D(fovY, near, far float32) *Camera {
	return &Camera{Mode: Camera3D, zoom: 1, fovY: fovY, near: near, far: far, dirty: true}
}

func (c *Camera) Position() math.Vec3 { return c.position }

func (c *Camera) SetPosition(p math.Vec3) {
	c.position = p
	c.dirty = true
}

// Translate moves the camera. While tracking, the next Update overrides it.
func (c *Camera) Translate(d math.Vec3) {
	c.position = c.position.Add(d)
	c.dirty = true
}

func (c *Camera) Zoom() float32 { return c.zoom }

func (c *Camera) SetZoom(z float32) {
	if z <= 0 {
		return
	}
	c.zoom = z
	c.dirty = true
}

func (c *Camera) Yaw() float32   { return c.yaw }
func (c *Camera) Pitch() float32 { return c.pitch }

const maxPitch = 1.5

// SetYawPitch orients a 3D camera and drops any look-at target.
func (c *Camera) SetYawPitch(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = math32.Max(-maxPitch, math32.Min(maxPitch, pitch))
	c.target = nil
	c.dirty = true
}

func (c *Camera) Rotate(dyaw, dpitch float32) {
	c.SetYawPitch(c.yaw+dyaw, c.pitch+dpitch)
}

// LookAt keeps a 3D camera pointed at target until SetYawPitch is called.
func (c *Camera) LookAt(target math.Vec3) {
	t := target
	c.target = &t
	dir := target.Sub(c.position).Normalize()
	c.pitch = math32.Asin(math32.Max(-1, math32.Min(1, dir.Y)))
	c.yaw = math32.Atan2(dir.X, -dir.Z)
	c.dirty = true
}

// Forward is the 3D viewing direction.
func (c *Camera) Forward() math.Vec3 {
	if c.target != nil {
		return c.target.Sub(c.position).Normalize()
	}
	sy, cy := math32.Sincos(c.yaw)
	sp, cp := math32.Sincos(c.pitch)
	return math.Vec3{X: cp * sy, Y: sp, Z: -cp * cy}
}

func (c *Camera) Right() math.Vec3 {
	return c.Forward().Cross(math.Vec3Up).Normalize()
}

// Track makes the camera follow n's world position every Update. Passing
// nil detaches, same as ClearTracking.
func (c *Camera) Track(n *Node) {
	c.tracked = n
	c.dirty = true
}

func (c *Camera) ClearTracking() { c.tracked = nil }

func (c *Camera) Tracked() *Node { return c.tracked }

// Update copies the tracked node's world position. A 2D camera follows X/Y
// only. Tracking a destroyed node detaches.
func (c *Camera) Update() {
	if c.tracked == nil {
		return
	}
	if !c.tracked.Alive() {
		c.tracked = nil
		return
	}
	p := c.tracked.WorldPosition()
	if c.Mode == Camera2D {
		p.Z = c.position.Z
	}
	if p != c.position {
		c.position = p
		c.dirty = true
	}
}

// View returns the view matrix, rebuilding it if the camera moved.
func (c *Camera) View() math.Mat4 {
	if c.dirty {
		c.view = c.buildView()
		c.dirty = false
	}
	return c.view
}

func (c *Camera) buildView() math.Mat4 {
	switch c.Mode {
	case Camera2D:
		// Move the world so the camera sits at the origin, then magnify.
		pos := math.Vec3{X: -c.position.X, Y: -c.position.Y}
		return math.Mat4Translation(pos).Mul(math.Mat4Scale(math.Vec3{X: c.zoom, Y: c.zoom, Z: 1}))
	default:
		return math.Mat4LookAt(c.position, c.position.Add(c.Forward()), math.Vec3Up)
	}
}

// Projection returns the projection matrix for vp.
//
// The 2D projection spans the viewport in pixels, centred on the camera.
// Its Z axis maps depth d to NDC d/DepthLimit, so larger depths are farther.
func (c *Camera) Projection(vp core.Viewport) math.Mat4 {
	switch c.Mode {
	case Camera2D:
		hw, hh := float32(vp.Width)/2, float32(vp.Height)/2
		return math.Mat4Orthographic(-hw, hw, -hh, hh, DepthLimit, -DepthLimit)
	default:
		return math.Mat4Perspective(c.fovY, vp.Aspect(), c.near, c.far)
	}
}

// ViewProjection returns View·Projection (applied in that order).
func (c *Camera) ViewProjection(vp core.Viewport) math.Mat4 {
	return c.View().Mul(c.Projection(vp))
}

// ScreenToWorld maps a pixel position (origin top-left) to the 2D world
// plane.
func (c *Camera) ScreenToWorld(vp core.Viewport, x, y float32) math.Vec2 {
	ndcX := (x-float32(vp.X))/float32(vp.Width)*2 - 1
	ndcY := 1 - (y-float32(vp.Y))/float32(vp.Height)*2
	inv := c.ViewProjection(vp).Inverse()
	p := math.Vec4{X: ndcX, Y: ndcY, W: 1}.MulMat(inv)
	return math.Vec2{X: p.X / p.W, Y: p.Y / p.W}
}
