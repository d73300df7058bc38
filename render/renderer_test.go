package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/render"
	"forward-engine/render/rendertest"
	"forward-engine/resource"
	"forward-engine/scene"
)

type fixture struct {
	rec   *rendertest.Recorder
	res   *resource.Manager
	progs *render.Programs
	scene *scene.Scene
	cam   *scene.Camera
	r     *render.Renderer
}

func newFixture(t *testing.T, kind render.Kind) *fixture {
	t.Helper()
	mode, cam := scene.DepthOrder2D, scene.NewCamera2D()
	if kind == render.Forward3D {
		mode, cam = scene.DepthPhysical3D, scene.NewCamera3D(1, 0.1, 100)
	}
	rec := rendertest.New()
	res := resource.NewManager(resource.Limits{})
	res.SetReleaser(rec)
	progs := render.NewPrograms()
	rec.RegisterAll(progs)
	f := &fixture{
		rec:   rec,
		res:   res,
		progs: progs,
		scene: scene.NewScene("test", res, mode),
		cam:   cam,
		r:     render.New(kind, rec, res, progs, 4),
	}
	t.Cleanup(f.r.Release)
	return f
}

func (f *fixture) view() render.View {
	return render.View{Scene: f.scene, Camera: f.cam, Viewport: core.Viewport{Width: 800, Height: 600}}
}

func (f *fixture) prefab(t *testing.T, name string, mat *resource.Material) resource.Handle[resource.Prefab] {
	t.Helper()
	mh, err := f.res.Meshes.Add(name+".mesh", resource.NewSprite(name))
	require.NoError(t, err)
	mtl, err := f.res.Materials.Add(name+".mat", mat)
	require.NoError(t, err)
	h, err := f.res.CreatePrefab(name, mh, mtl)
	require.NoError(t, err)
	return h
}

func (f *fixture) node(t *testing.T, name string, h resource.Handle[resource.Prefab], x float32) *scene.Node {
	t.Helper()
	n, err := f.scene.Root().CreateChildNode(name)
	require.NoError(t, err)
	n.SetPosition(math.Vec3{X: x})
	if !h.IsNil() {
		require.NoError(t, n.AttachPrefab(h))
	}
	return n
}

func drawsOf(rec *rendertest.Recorder, mesh string) []rendertest.Draw {
	var out []rendertest.Draw
	for _, d := range rec.Draws() {
		if d.Mesh == mesh {
			out = append(out, d)
		}
	}
	return out
}

func glass() *resource.Material {
	m := resource.NewMaterial("glass", core.Color{R: 1, G: 1, B: 1, A: 0.5})
	m.SetBlending(true)
	return m
}

func TestTransparentsDrawFarthestFirst(t *testing.T) {
	for _, kind := range []render.Kind{render.Forward2D, render.Forward3D} {
		t.Run(kind.String(), func(t *testing.T) {
			f := newFixture(t, kind)
			h := f.prefab(t, "glass", glass())
			for _, d := range []float32{5, 3, 1, 4, 2} {
				n := f.node(t, "n"+string(rune('0'+int(d))), h, d)
				require.NoError(t, n.SetDepth(d))
			}

			require.NoError(t, f.r.Draw(f.view()))

			var order []float32
			for _, d := range drawsOf(f.rec, "glass") {
				assert.True(t, d.Blending)
				order = append(order, d.Model.Translation().X)
			}
			assert.Equal(t, []float32{5, 4, 3, 2, 1}, order)
			assert.Equal(t, 5, f.r.Stats().Transparents)
		})
	}
}

func TestEqualDepthTransparentsKeepSubmissionOrder(t *testing.T) {
	var got [][]float32
	for _, kind := range []render.Kind{render.Forward2D, render.Forward3D} {
		f := newFixture(t, kind)
		h := f.prefab(t, "glass", glass())
		// Children traverse by name, so a, b, c submit in that order.
		for i, name := range []string{"a", "b", "c"} {
			n := f.node(t, name, h, float32(i))
			require.NoError(t, n.SetDepth(7))
		}
		require.NoError(t, f.r.Draw(f.view()))

		var order []float32
		for _, d := range drawsOf(f.rec, "glass") {
			order = append(order, d.Model.Translation().X)
		}
		got = append(got, order)
	}
	assert.Equal(t, []float32{0, 1, 2}, got[0])
	assert.Equal(t, got[0], got[1])
}

func TestInstancedPrefabBatchesIntoOneDraw(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	h := f.prefab(t, "tree", resource.NewMaterial("tree", core.ColorGreen))
	require.NoError(t, f.res.EnableInstancing(h, 10))

	var nodes []*scene.Node
	for i, name := range []string{"t1", "t2", "t3", "t4"} {
		nodes = append(nodes, f.node(t, name, h, float32(i)))
	}

	require.NoError(t, f.scene.UpdateSceneGraph(f.r))
	q := f.r.Queue(0)
	assert.Equal(t, 1, q.InstancedLen())
	assert.Equal(t, 4, q.InstanceCount(h))
	assert.Zero(t, q.SolidLen())

	p, err := f.res.Prefabs.Get(h)
	require.NoError(t, err)
	assert.Equal(t, nodes[0].ID(), p.Instancing.Controller)

	require.NoError(t, f.r.Present(f.view()))
	draws := drawsOf(f.rec, "tree")
	require.Len(t, draws, 1)
	assert.Equal(t, "sprite/unlit-instanced", draws[0].Program)
	assert.Equal(t, 4, draws[0].Instances)
	for i, m := range draws[0].Packed {
		assert.Equal(t, float32(i), m.Translation().X)
	}
	assert.Equal(t, 4, f.r.Stats().Instances)
	assert.Equal(t, 1, f.r.Stats().DrawCalls)
}

func TestControllerAnimationDrivesInstancedBatch(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	th, err := f.res.Textures.Add("sheet", resource.NewSolidTexture("sheet", 255, 255, 255, 255))
	require.NoError(t, err)
	mat := resource.NewMaterial("coin", core.ColorWhite)
	mat.Texture = th
	mat.SpriteColumns, mat.SpriteRows = 2, 2
	h := f.prefab(t, "coin", mat)
	require.NoError(t, f.res.EnableInstancing(h, 4))

	first := f.node(t, "c1", h, 0)
	f.node(t, "c2", h, 1)
	anim := scene.NewSpriteAnimation(0, 4, 10)
	anim.SetFrame(3)
	first.SetAnimation(anim)

	require.NoError(t, f.r.Draw(f.view()))
	draws := drawsOf(f.rec, "coin")
	require.Len(t, draws, 1)
	assert.Equal(t, "sprite/unlit-textured-instanced", draws[0].Program)
	assert.Equal(t, "sheet", draws[0].Texture)
	off, size := scene.FrameRect(3, 2, 2)
	assert.Equal(t, off, draws[0].Uniforms[render.UniformUVOffset])
	assert.Equal(t, size, draws[0].Uniforms[render.UniformUVScale])
}

func TestSolidsDrawPerNodeWithWorldMatrix(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	h := f.prefab(t, "crate", resource.NewMaterial("crate", core.ColorRed))
	f.node(t, "a", h, 10)
	b := f.node(t, "b", h, 20)
	require.NoError(t, b.SetDepth(3))

	require.NoError(t, f.r.Draw(f.view()))
	draws := drawsOf(f.rec, "crate")
	require.Len(t, draws, 2)
	assert.Equal(t, "sprite/unlit", draws[0].Program)
	assert.Equal(t, float32(10), draws[0].Model.Translation().X)
	assert.Equal(t, float32(20), draws[1].Model.Translation().X)
	assert.Equal(t, float32(3), draws[1].Model.Translation().Z)
	assert.Equal(t, core.ColorRed, draws[0].Color)
	assert.False(t, draws[0].Blending)
	assert.Equal(t, resource.CullBack, draws[0].Cull)
}

func TestLitDrawReceivesQueueLights(t *testing.T) {
	f := newFixture(t, render.Forward3D)
	mat := resource.NewMaterial("stone", core.ColorWhite)
	mat.Lit = true
	h := f.prefab(t, "stone", mat)
	f.node(t, "rock", h, 0)

	lh, err := f.res.Lights.Add("lamp", resource.NewPointLight("lamp"))
	require.NoError(t, err)
	lamp := f.node(t, "lamp", resource.Handle[resource.Prefab]{}, 4)
	require.NoError(t, lamp.AttachLight(lh))

	require.NoError(t, f.r.Draw(f.view()))
	draws := drawsOf(f.rec, "stone")
	require.Len(t, draws, 1)
	assert.Equal(t, "sprite/lit", draws[0].Program)
	assert.Equal(t, int32(1), draws[0].Uniforms[render.UniformLightCount])
	assert.Equal(t, math.Vec3{X: 4}, draws[0].Uniforms[render.LightUniform(0, "position")])
	assert.Equal(t, 1, f.r.Stats().Lights)
}

func TestPresentClearsEveryQueue(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	solid := f.prefab(t, "solid", resource.NewMaterial("solid", core.ColorWhite))
	trans := f.prefab(t, "glass", glass())
	inst := f.prefab(t, "tree", resource.NewMaterial("tree", core.ColorGreen))
	require.NoError(t, f.res.EnableInstancing(inst, 2))

	f.node(t, "s", solid, 0)
	g := f.node(t, "g", trans, 0)
	require.NoError(t, g.SetQueue(2))
	f.node(t, "i", inst, 0)
	lh, err := f.res.Lights.Add("sun", resource.NewDirectionalLight("sun", math.Vec3{Z: -1}))
	require.NoError(t, err)
	ui := f.node(t, "ui", resource.Handle[resource.Prefab]{}, 0)
	require.NoError(t, ui.AttachLight(lh))
	ui.AddBox(&scene.Box{Size: math.Vec2{X: 10, Y: 10}, Color: core.ColorBlue})
	ui.AddText(&scene.TextBox{Text: "hello", Color: core.ColorWhite, Scale: 1})

	require.NoError(t, f.scene.UpdateSceneGraph(f.r))
	assert.Equal(t, []int{0, 2}, f.r.ActiveQueues())
	q := f.r.Queue(0)
	assert.Equal(t, 1, q.SolidLen())
	assert.Equal(t, 1, q.InstancedLen())
	assert.Equal(t, 1, q.LightLen())
	assert.Equal(t, 1, q.BoxLen())
	assert.Equal(t, 1, q.TextLen())
	assert.Equal(t, 1, f.r.Queue(2).TransparentLen())

	require.NoError(t, f.r.Present(f.view()))
	for i := 0; i < 4; i++ {
		assert.True(t, f.r.Queue(i).Empty(), "queue %d", i)
	}
	assert.Empty(t, f.r.ActiveQueues())
	assert.Equal(t, 2, f.r.Stats().Queues)
}

func TestMissingProgramIsConfigError(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	empty := render.NewPrograms()
	r := render.New(render.Forward2D, f.rec, f.res, empty, 1)
	h := f.prefab(t, "crate", resource.NewMaterial("crate", core.ColorWhite))
	f.node(t, "a", h, 0)

	err := r.Draw(f.view())
	require.Error(t, err)
	assert.True(t, core.IsConfig(err))
	assert.True(t, r.Queue(0).Empty())
	assert.Empty(t, r.ActiveQueues())
}

func TestQueueOutOfRangeFailsTraversal(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	h := f.prefab(t, "crate", resource.NewMaterial("crate", core.ColorWhite))
	n := f.node(t, "a", h, 0)
	require.NoError(t, n.SetQueue(9))

	assert.Error(t, f.r.Draw(f.view()))
	assert.Empty(t, f.r.ActiveQueues())
}

func TestPresentStageOrder(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	var stages []render.Stage
	f.r.SetTrace(func(s render.Stage) { stages = append(stages, s) })

	require.NoError(t, f.r.Draw(f.view()))
	assert.Equal(t, []render.Stage{
		render.StageBeginFrame,
		render.StageBindViewportAndCamera,
		render.StageClearAndConfigureRasterState,
		render.StageRenderBackgroundOrSkybox,
		render.StageRenderActiveQueues,
		render.StageRenderUIOverlays,
		render.StageFlushRenderTargetIfOffscreen,
		render.StageClearQueues,
	}, stages)
}

func TestOffscreenTargetIsUnboundAfterPresent(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	v := f.view()
	v.Target = &render.RenderTarget{ID: 7, Width: 64, Height: 64}

	require.NoError(t, f.r.Present(v))
	assert.Contains(t, f.rec.Calls, "framebuffer 7")
	assert.Equal(t, "framebuffer default", f.rec.Calls[len(f.rec.Calls)-1])
	assert.Nil(t, f.rec.Target())
	assert.Equal(t, core.Viewport{Width: 800, Height: 600}, f.rec.Viewport())
}

func TestSkyboxDrawsBehindScene(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	th, err := f.res.Textures.Add("sky", resource.NewSolidTexture("sky", 0, 0, 255, 255))
	require.NoError(t, err)
	f.scene.Properties.Skybox = th

	require.NoError(t, f.r.Draw(f.view()))
	draws := drawsOf(f.rec, "ui.quad")
	require.NotEmpty(t, draws)
	assert.Equal(t, "sky", draws[0].Texture)
	assert.Greater(t, draws[0].Model.Translation().Z, float32(scene.MaxDepth))
}
