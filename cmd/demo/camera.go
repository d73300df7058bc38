package main

import (
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/platform"
	"forward-engine/scene"
)

// CameraController moves the camera from keyboard and mouse state. In 3D,
// WASD walks, Q/E sink and rise, and a right mouse drag looks around. In 2D,
// WASD pans and the scroll wheel zooms. A tracking camera ignores movement.
type CameraController struct {
	moveSpeed  float32
	panSpeed   float32
	lookSpeed  float32
	zoomStep   float32
	lastMouseX float64
	lastMouseY float64
	firstMouse bool
	scroll     float64
}

func NewCameraController() *CameraController {
	return &CameraController{
		moveSpeed:  6,
		panSpeed:   400,
		lookSpeed:  0.004,
		zoomStep:   1.1,
		firstMouse: true,
	}
}

// Scroll accumulates wheel input for the next Update.
func (cc *CameraController) Scroll(yoff float64) {
	cc.scroll += yoff
}

func (cc *CameraController) Update(in core.Input, camera *scene.Camera, dt float32) {
	// Cap dt so a hitch does not teleport the camera.
	if dt > 0.05 {
		dt = 0.05
	}
	if camera.Mode == scene.Camera2D {
		cc.update2D(in, camera, dt)
	} else {
		cc.update3D(in, camera, dt)
	}
}

func (cc *CameraController) axis(in core.Input, neg, pos int) float32 {
	var v float32
	if in.IsKeyPressed(pos) {
		v++
	}
	if in.IsKeyPressed(neg) {
		v--
	}
	return v
}

func (cc *CameraController) update2D(in core.Input, camera *scene.Camera, dt float32) {
	for ; cc.scroll > 0; cc.scroll-- {
		camera.SetZoom(camera.Zoom() * cc.zoomStep)
	}
	for ; cc.scroll < 0; cc.scroll++ {
		camera.SetZoom(camera.Zoom() / cc.zoomStep)
	}
	if camera.Tracked() != nil {
		return
	}
	step := cc.panSpeed * dt / camera.Zoom()
	camera.Translate(math.Vec3{
		X: cc.axis(in, platform.KeyA, platform.KeyD) * step,
		Y: cc.axis(in, platform.KeyS, platform.KeyW) * step,
	})
}

func (cc *CameraController) update3D(in core.Input, camera *scene.Camera, dt float32) {
	cc.scroll = 0
	if in.IsMouseButtonPressed(platform.MouseButtonRight) {
		x, y := in.GetCursorPos()
		if cc.firstMouse {
			cc.lastMouseX, cc.lastMouseY = x, y
			cc.firstMouse = false
		}
		camera.Rotate(float32(x-cc.lastMouseX)*cc.lookSpeed, float32(cc.lastMouseY-y)*cc.lookSpeed)
		cc.lastMouseX, cc.lastMouseY = x, y
	} else {
		cc.firstMouse = true
	}
	if camera.Tracked() != nil {
		return
	}

	// Walk level with the ground regardless of pitch.
	forward := camera.Forward()
	forward.Y = 0
	forward = forward.Normalize()
	right := camera.Right()

	step := cc.moveSpeed * dt
	move := forward.Mul(cc.axis(in, platform.KeyS, platform.KeyW) * step).
		Add(right.Mul(cc.axis(in, platform.KeyA, platform.KeyD) * step))
	move.Y += cc.axis(in, platform.KeyQ, platform.KeyE) * step
	camera.Translate(move)
}
