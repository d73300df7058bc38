package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/math"
	"forward-engine/resource"
)

const eps = 1e-4

func newTestScene(t *testing.T, mode DepthMode) *Scene {
	t.Helper()
	return NewScene("test", resource.NewManager(resource.Limits{}), mode)
}

func TestScenarioAWorldMatrix(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	a, err := s.Root().CreateChildNode("a")
	require.NoError(t, err)
	a.SetPosition(math.Vec3{X: 1})
	a.SetScale(math.Vec3{X: 2, Y: 2, Z: 2})
	b, err := a.CreateChildNode("b")
	require.NoError(t, err)
	b.SetPosition(math.Vec3{Y: 1})

	b.UpdateWorldTransform()

	assert.True(t, b.WorldPosition().ApproxEqual(math.Vec3{X: 1, Y: 2}, eps), "got %v", b.WorldPosition())
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, b.Transform().DerivedScale())
	want := math.Mat4{
		{2, 0, 0, 0},
		{0, 2, 0, 0},
		{0, 0, 2, 0},
		{1, 2, 0, 1},
	}
	assert.True(t, b.World().ApproxEqual(want, eps), "got %v", b.World())
}

func TestWorldMatchesParentCompositionForUniformScale(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	p, err := s.Root().CreateChildNode("p")
	require.NoError(t, err)
	p.SetPosition(math.Vec3{X: 3, Y: -1, Z: 2})
	p.SetOrientation(math.QuaternionFromAxisAngle(math.Vec3Up, 0.7))
	p.SetScale(math.Vec3{X: 1.5, Y: 1.5, Z: 1.5})

	n, err := p.CreateChildNode("n")
	require.NoError(t, err)
	n.SetPosition(math.Vec3{X: 0.5, Y: 2, Z: -1})
	n.SetOrientation(math.QuaternionFromAxisAngle(math.Vec3{X: 1}, -0.3))
	n.SetScale(math.Vec3{X: 2, Y: 0.5, Z: 1})

	n.UpdateWorldTransform()

	want := math.Mat4Scale(n.Scale()).Mul(n.Transform().Local()).Mul(p.World())
	assert.True(t, n.World().ApproxEqual(want, eps), "world %v\nwant  %v", n.World(), want)
	assert.True(t, n.Transform().DerivedScale().ApproxEqual(math.Vec3{X: 3, Y: 0.75, Z: 1.5}, eps))
}

func TestRootDerivedScaleIsLocalScale(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	s.Root().SetScale(math.Vec3{X: 4, Y: 2, Z: 1})
	s.Root().UpdateWorldTransform()
	assert.Equal(t, math.Vec3{X: 4, Y: 2, Z: 1}, s.Root().Transform().DerivedScale())
}

func TestNonUniformParentScaleDoesNotShear(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	p, _ := s.Root().CreateChildNode("p")
	p.SetScale(math.Vec3{X: 4, Y: 1, Z: 1})
	c, _ := p.CreateChildNode("c")
	c.SetOrientation(math.QuaternionFromAxisAngle(math.Vec3Front, math32.Pi/4))

	c.UpdateWorldTransform()

	w := c.World()
	x, y := w.Axis(0), w.Axis(1)
	assert.InDelta(t, 0, x.Dot(y), eps, "world axes stay orthogonal")
}

func TestChildScaleChangeUpdatesDerivedScale(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	p, _ := s.Root().CreateChildNode("p")
	p.SetScale(math.Vec3{X: 2, Y: 2, Z: 2})
	c, _ := p.CreateChildNode("c")
	c.UpdateWorldTransform()

	c.SetScale(math.Vec3{X: 3, Y: 3, Z: 3})
	c.UpdateWorldTransform()
	assert.Equal(t, math.Vec3{X: 6, Y: 6, Z: 6}, c.Transform().DerivedScale())
}

func TestDepthOverwritesWorldZ(t *testing.T) {
	s := newTestScene(t, DepthOrder2D)
	p, _ := s.Root().CreateChildNode("p")
	p.SetPosition(math.Vec3{X: 1, Y: 1, Z: 50})
	require.NoError(t, p.SetDepth(7))
	c, _ := p.CreateChildNode("c")
	c.SetPosition(math.Vec3{Z: -20})
	c.SetOrientation(math.QuaternionFromAxisAngle(math.Vec3Right, 1))
	require.NoError(t, c.SetDepth(-3))

	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))

	assert.Equal(t, float32(7), p.World()[3][2])
	assert.Equal(t, float32(-3), c.World()[3][2])
	// The depth never leaks into world positions.
	assert.InDelta(t, 30, c.WorldPosition().Z, eps)
}

func TestDepthKeepsRealZIn3D(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	n, _ := s.Root().CreateChildNode("n")
	n.SetPosition(math.Vec3{Z: 5})
	require.NoError(t, n.SetDepth(2))
	n.UpdateWorldTransform()
	assert.Equal(t, float32(5), n.World()[3][2])
}

func TestSetDepthRange(t *testing.T) {
	s := newTestScene(t, DepthOrder2D)
	n, _ := s.Root().CreateChildNode("n")
	assert.NoError(t, n.SetDepth(MaxDepth))
	assert.NoError(t, n.SetDepth(MinDepth))
	assert.ErrorIs(t, n.SetDepth(MaxDepth+1), ErrDepthOutOfRange)
	assert.ErrorIs(t, n.SetDepth(MinDepth-0.5), ErrDepthOutOfRange)
	assert.ErrorIs(t, n.SetDepth(math32.NaN()), ErrDepthOutOfRange)
	assert.ErrorIs(t, n.SetDepth(math32.Inf(1)), ErrDepthOutOfRange)
	assert.Equal(t, float32(MinDepth), n.Depth())
}

func TestGettersDoNotClearDirty(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(math.Vec3{X: 1})
	_ = tr.Position()
	_ = tr.Orientation()
	assert.True(t, tr.Dirty())
}

func TestDirtyAncestorRefreshesDescendants(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	a, _ := s.Root().CreateChildNode("a")
	b, _ := a.CreateChildNode("b")
	b.SetPosition(math.Vec3{X: 1})
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))
	assert.InDelta(t, 1, b.WorldPosition().X, eps)

	a.Translate(math.Vec3{X: 10})
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))
	assert.InDelta(t, 11, b.WorldPosition().X, eps)
}

func TestTargetedUpdateLeavesNoStaleNodes(t *testing.T) {
	s := newTestScene(t, DepthPhysical3D)
	a, _ := s.Root().CreateChildNode("a")
	b, _ := a.CreateChildNode("b")
	c, _ := a.CreateChildNode("c")
	d, _ := b.CreateChildNode("d")
	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))

	a.Translate(math.Vec3{X: 10})
	b.UpdateWorldTransform()
	assert.InDelta(t, 10, b.WorldPosition().X, eps)

	require.NoError(t, s.UpdateSceneGraph(nopSubmitter{}))
	assert.InDelta(t, 10, c.WorldPosition().X, eps, "sibling off the updated chain")
	assert.InDelta(t, 10, d.WorldPosition().X, eps, "child of the updated node")
}
