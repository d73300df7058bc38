package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/math"
)

func project(c *Camera, vp core.Viewport, p math.Vec3) math.Vec3 {
	return p.ToVec4(1).MulMat(c.ViewProjection(vp)).ToVec3DivW()
}

func TestCamera2DScreenMapping(t *testing.T) {
	vp := core.Viewport{Width: 800, Height: 600}
	c := NewCamera2D()
	c.SetPosition(math.Vec3{X: 100, Y: 50})
	c.SetZoom(2)

	center := project(c, vp, math.Vec3{X: 100, Y: 50})
	assert.InDelta(t, 0, center.X, eps)
	assert.InDelta(t, 0, center.Y, eps)

	right := project(c, vp, math.Vec3{X: 100 + 800/(2*2), Y: 50})
	assert.InDelta(t, 1, right.X, eps)

	top := project(c, vp, math.Vec3{X: 100, Y: 50 + 600/(2*2)})
	assert.InDelta(t, 1, top.Y, eps)

	// Translation row of the view is -zoom·position.
	v := c.View()
	assert.InDelta(t, -200, v[3][0], eps)
	assert.InDelta(t, -100, v[3][1], eps)

	w := c.ScreenToWorld(vp, 400, 300)
	assert.InDelta(t, 100, w.X, eps)
	assert.InDelta(t, 50, w.Y, eps)
}

func TestCamera2DDepthOrdering(t *testing.T) {
	vp := core.Viewport{Width: 100, Height: 100}
	c := NewCamera2D()
	far := project(c, vp, math.Vec3{Z: MaxDepth})
	near := project(c, vp, math.Vec3{Z: MinDepth})
	ui := project(c, vp, math.Vec3{Z: MinDepth - 3})
	assert.Greater(t, far.Z, near.Z)
	assert.Greater(t, near.Z, ui.Z)
	assert.Less(t, far.Z, float32(1))
	assert.Greater(t, ui.Z, float32(-1))
}

func TestCamera3DLookAt(t *testing.T) {
	vp := core.Viewport{Width: 640, Height: 480}
	c := NewCamera3D(math32.Pi/3, 0.1, 100)
	c.SetPosition(math.Vec3{X: 0, Y: 0, Z: 10})
	c.LookAt(math.Vec3Zero)

	assert.True(t, c.Forward().ApproxEqual(math.Vec3{Z: -1}, eps))
	p := project(c, vp, math.Vec3Zero)
	assert.InDelta(t, 0, p.X, eps)
	assert.InDelta(t, 0, p.Y, eps)

	c.SetYawPitch(math32.Pi/2, 0)
	assert.True(t, c.Forward().ApproxEqual(math.Vec3{X: 1}, eps), "yaw turns right, got %v", c.Forward())

	c.SetYawPitch(0, 3)
	assert.InDelta(t, maxPitch, c.Pitch(), eps)
}

func TestCameraTracking(t *testing.T) {
	s := newTestScene(t, DepthOrder2D)
	p, _ := s.Root().CreateChildNode("p")
	p.SetPosition(math.Vec3{X: 10, Y: 20, Z: 5})
	require.NoError(t, p.SetDepth(9))
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))

	c := NewCamera2D()
	c.Track(p)
	c.Update()
	assert.Equal(t, math.Vec3{X: 10, Y: 20}, c.Position(), "2D follows X/Y, never depth")

	// Tracking overrides manual moves every update.
	c.Translate(math.Vec3{X: 100})
	p.Translate(math.Vec3{X: 1})
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))
	c.Update()
	assert.Equal(t, float32(11), c.Position().X)

	c.ClearTracking()
	c.Translate(math.Vec3{X: 100})
	c.Update()
	assert.Equal(t, float32(111), c.Position().X)

	c.Track(p)
	c.Track(nil)
	assert.Nil(t, c.Tracked())

	c.Track(p)
	require.NoError(t, p.Destroy())
	c.Update()
	assert.Nil(t, c.Tracked(), "destroyed nodes detach")
}

func TestCamera3DTrackingUsesWorldPosition(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	p, _ := s.Root().CreateChildNode("p")
	p.SetPosition(math.Vec3{X: 1, Y: 2, Z: 3})
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))

	c := NewCamera3D(1, 0.1, 100)
	c.Track(p)
	c.Update()
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, c.Position())
}
