package scene

import "forward-engine/math"

// Transform is a node's local position/orientation/scale plus cached local
// and world matrices. Setters mark it dirty; the scene graph update rebuilds
// the caches. Getters never clear the flag.
type Transform struct {
	position    math.Vec3
	orientation math.Quaternion
	scale       math.Vec3

	derivedScale     math.Vec3
	worldPosition    math.Vec3
	worldOrientation math.Quaternion
	local            math.Mat4
	world            math.Mat4
	dirty            bool
}

func NewTransform() Transform {
	return Transform{
		orientation:      math.QuaternionIdentity(),
		scale:            math.Vec3One,
		derivedScale:     math.Vec3One,
		worldOrientation: math.QuaternionIdentity(),
		local:            math.Mat4Identity(),
		world:            math.Mat4Identity(),
		dirty:            true,
	}
}

func (t *Transform) Position() math.Vec3               { return t.position }
func (t *Transform) Orientation() math.Quaternion      { return t.orientation }
func (t *Transform) Scale() math.Vec3                  { return t.scale }
func (t *Transform) DerivedScale() math.Vec3           { return t.derivedScale }
func (t *Transform) WorldPosition() math.Vec3          { return t.worldPosition }
func (t *Transform) WorldOrientation() math.Quaternion { return t.worldOrientation }
func (t *Transform) Local() math.Mat4                  { return t.local }
func (t *Transform) World() math.Mat4                  { return t.world }
func (t *Transform) Dirty() bool                       { return t.dirty }

func (t *Transform) SetPosition(p math.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *Transform) Translate(d math.Vec3) {
	t.position = t.position.Add(d)
	t.dirty = true
}

func (t *Transform) SetOrientation(q math.Quaternion) {
	t.orientation = q.Normalize()
	t.dirty = true
}

// Rotate applies angle radians about axis, in local space.
func (t *Transform) Rotate(axis math.Vec3, angle float32) {
	t.orientation = t.orientation.Mul(math.QuaternionFromAxisAngle(axis, angle)).Normalize()
	t.dirty = true
}

func (t *Transform) SetScale(s math.Vec3) {
	t.scale = s
	t.dirty = true
}

// ScaleBy multiplies the local scale component-wise.
func (t *Transform) ScaleBy(s math.Vec3) {
	t.scale = t.scale.MulVec(s)
	t.dirty = true
}

// updateLocal rebuilds local = R(orientation)·T(position).
func (t *Transform) updateLocal() {
	t.local = t.orientation.ToMat4().Mul(math.Mat4Translation(t.position))
}

// updateWorld composes the world matrix from the parent's. derivedScale must
// already be current.
//
// The translation follows the parent's world transform, so a parent's scale stretches the
// child's offset. The linear part is rebuilt from the derived scale and the
// combined orientation instead of multiplying matrices, which keeps a
// non-uniformly scaled parent from shearing a rotated child.
func (t *Transform) updateWorld(parent *Transform) {
	if parent == nil {
		t.worldPosition = t.position
		t.worldOrientation = t.orientation
	} else {
		offset := parent.worldOrientation.RotateVector(t.position.MulVec(parent.derivedScale))
		t.worldPosition = parent.worldPosition.Add(offset)
		t.worldOrientation = parent.worldOrientation.Mul(t.orientation).Normalize()
	}
	t.world = math.Mat4TRS(t.worldPosition, t.worldOrientation, t.derivedScale)
	t.dirty = false
}

// applyDepth overwrites the world Z translation with a draw-order depth.
func (t *Transform) applyDepth(depth float32) {
	t.world[3][2] = depth
}
