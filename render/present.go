package render

import (
	"slices"

	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
	"forward-engine/scene"
)

// Stage is a step of Present. Stages run in declaration order every frame.
type Stage int

const (
	StageBeginFrame Stage = iota
	StageBindViewportAndCamera
	StageClearAndConfigureRasterState
	StageRenderBackgroundOrSkybox
	StageRenderActiveQueues
	StageRenderUIOverlays
	StageFlushRenderTargetIfOffscreen
	StageClearQueues
)

var stageNames = [...]string{
	"BeginFrame", "BindViewportAndCamera", "ClearAndConfigureRasterState",
	"RenderBackgroundOrSkybox", "RenderActiveQueues", "RenderUIOverlays",
	"FlushRenderTargetIfOffscreen", "ClearQueues",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// skyboxDepth places the background behind every node.
const skyboxDepth = scene.MaxDepth + 50

type frameState struct {
	view     View
	uniforms frameUniforms
	screen   math.Mat4
}

func (r *Renderer) enter(s Stage) {
	if r.trace != nil {
		r.trace(s)
	}
}

// Present draws every active queue and the UI overlays, then clears the
// queues. The queues are cleared even when a draw fails.
func (r *Renderer) Present(v View) (err error) {
	defer func() {
		r.enter(StageClearQueues)
		r.ClearQueues()
	}()
	if v.Scene == nil || v.Camera == nil {
		return errors.New("present: view needs a scene and a camera")
	}

	r.enter(StageBeginFrame)
	f := r.beginFrame(v)

	r.enter(StageBindViewportAndCamera)
	r.bindViewportAndCamera(f)

	r.enter(StageClearAndConfigureRasterState)
	r.clearAndConfigureRasterState(f)

	r.enter(StageRenderBackgroundOrSkybox)
	if err := r.renderBackgroundOrSkybox(f); err != nil {
		return errors.Wrap(err, "present")
	}

	r.enter(StageRenderActiveQueues)
	for id, active := range r.active {
		if !active {
			continue
		}
		r.stats.Queues++
		if err := r.renderQueue(f, &r.queues[id]); err != nil {
			return errors.Wrapf(err, "present: queue %d", id)
		}
	}

	r.enter(StageRenderUIOverlays)
	if err := r.renderUIOverlays(f); err != nil {
		return errors.Wrap(err, "present: overlays")
	}

	r.enter(StageFlushRenderTargetIfOffscreen)
	r.flushRenderTarget(f)
	r.text.endFrame(r.frameNo)
	return nil
}

func (r *Renderer) beginFrame(v View) *frameState {
	r.frameNo++
	r.stats = Stats{Frame: r.frameNo}
	vp := v.Viewport
	return &frameState{
		view: v,
		uniforms: frameUniforms{
			viewProj:  v.Camera.ViewProjection(vp),
			cameraPos: v.Camera.Position(),
			ambient:   v.Scene.Properties.Ambient,
		},
		// Pixel space, origin top-left, same depth convention as the 2D camera.
		screen: math.Mat4Orthographic(0, float32(vp.Width), float32(vp.Height), 0, scene.DepthLimit, -scene.DepthLimit),
	}
}

func (r *Renderer) bindViewportAndCamera(f *frameState) {
	if f.view.Target != nil {
		r.api.BindFramebuffer(f.view.Target)
	} else {
		r.api.BindDefaultFramebuffer()
	}
	vp := f.view.Viewport
	r.api.SetViewport(vp.X, vp.Y, vp.Width, vp.Height)
}

func (r *Renderer) clearAndConfigureRasterState(f *frameState) {
	r.api.ClearColor(f.view.Scene.Properties.Background)
	r.api.Clear()
	r.api.SetDepthTestEnabled(true)
	r.api.SetPolygonMode(r.polygon)
	r.api.SetCullingMode(resource.CullBack)
	r.api.SetBlendingEnabled(false)
}

func (r *Renderer) renderBackgroundOrSkybox(f *frameState) error {
	sky := f.view.Scene.Properties.Skybox
	if sky.IsNil() {
		return nil
	}
	tex, err := r.res.Textures.Get(sky)
	if err != nil {
		return errors.Wrap(err, "skybox")
	}
	vp := f.view.Viewport
	model := screenRect(0, 0, float32(vp.Width), float32(vp.Height), skyboxDepth)
	return r.drawQuad(f.screen, model, core.ColorWhite, tex, false)
}

// ── Queues ───────────────────────────────────────────────────────────────────

func (r *Renderer) renderQueue(f *frameState, q *RenderQueue) error {
	f.uniforms.lights = q.lights
	r.stats.Lights += len(q.lights)

	// Instanced batches first, then regular solids.
	for i := range q.instanced {
		if err := r.drawInstanced(f, &q.instanced[i]); err != nil {
			return err
		}
	}
	for _, h := range q.solidOrder {
		if err := r.drawSolids(f, h, q.solids[h]); err != nil {
			return err
		}
	}
	if err := r.drawTransparents(f, q); err != nil {
		return err
	}
	for i := range q.boxes {
		if err := r.drawBox(f.uniforms.viewProj, &q.boxes[i]); err != nil {
			return err
		}
	}
	for i := range q.texts {
		if err := r.drawText(f.uniforms.viewProj, &q.texts[i], 1); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) program(mesh *resource.Mesh, b Binding) (GPUProgram, error) {
	prog, ok := r.programs.Lookup(mesh.Type, b)
	if !ok {
		return nil, core.ConfigErrorf("no %s program for %s mesh %q", b, mesh.Type, mesh.Name)
	}
	return prog, nil
}

// bindMaterial sets every piece of raster state a material draw depends on.
func (r *Renderer) bindMaterial(mat *resource.Material, blending bool) error {
	r.api.SetCullingMode(mat.Cull)
	r.api.SetBlendingEnabled(blending)
	if blending {
		r.api.SetBlendingFunc(mat.BlendSrc, mat.BlendDst)
	}
	if mat.Textured() {
		tex, err := r.res.Textures.Get(mat.Texture)
		if err != nil {
			return errors.Wrapf(err, "material %q", mat.Name)
		}
		r.api.BindTexture(0, tex)
	}
	return nil
}

func spriteUniforms(mat *resource.Material, n *scene.Node, u *nodeUniforms) {
	u.uvScale = math.Vec2{X: 1, Y: 1}
	if n == nil || n.Animation() == nil || mat.SpriteFrames() <= 1 {
		if mat.SpriteFrames() > 1 {
			u.uvOffset, u.uvScale = scene.FrameRect(0, mat.SpriteColumns, mat.SpriteRows)
		}
		return
	}
	u.uvOffset, u.uvScale = scene.FrameRect(n.Animation().Frame(), mat.SpriteColumns, mat.SpriteRows)
}

func (r *Renderer) drawInstanced(f *frameState, batch *instancedBatch) error {
	p, mesh, mat, err := r.res.PrefabParts(batch.prefab)
	if err != nil {
		return err
	}
	im, err := r.res.InstancedMesh(p)
	if err != nil {
		return err
	}
	b := BindingFor(mat, true)
	prog, err := r.program(mesh, b)
	if err != nil {
		return err
	}

	// Pack the submitted slots in slot order.
	im.Packed = im.Packed[:0]
	slices.Sort(batch.slots)
	for _, s := range batch.slots {
		im.Packed = append(im.Packed, im.Transforms[s])
	}

	// The controller's animation drives the whole batch.
	controller, _ := f.view.Scene.NodeByID(p.Instancing.Controller)
	u := nodeUniforms{color: mat.Color}
	spriteUniforms(mat, controller, &u)

	prog.Use()
	bindFrameUniforms(prog, b, &f.uniforms)
	if err := r.bindMaterial(mat, false); err != nil {
		return err
	}
	bindNodeUniforms(prog, b, mat, &u)
	r.api.DrawMeshInstanced(mesh, im, len(im.Packed))
	r.stats.DrawCalls++
	r.stats.Instances += len(im.Packed)
	return nil
}

func (r *Renderer) drawSolids(f *frameState, h prefabHandle, nodes []*scene.Node) error {
	_, mesh, mat, err := r.res.PrefabParts(h)
	if err != nil {
		return err
	}
	b := BindingFor(mat, false)
	prog, err := r.program(mesh, b)
	if err != nil {
		return err
	}

	prog.Use()
	bindFrameUniforms(prog, b, &f.uniforms)
	if err := r.bindMaterial(mat, false); err != nil {
		return err
	}
	for _, n := range nodes {
		u := nodeUniforms{model: n.World(), color: mat.Color}
		spriteUniforms(mat, n, &u)
		bindNodeUniforms(prog, b, mat, &u)
		r.api.DrawMesh(mesh)
		r.stats.DrawCalls++
		r.stats.Solids++
	}
	return nil
}

func (r *Renderer) drawTransparents(f *frameState, q *RenderQueue) error {
	sortTransparents(r.Kind, q.transparents)
	draw := func(t *transparentDraw) error {
		_, mesh, mat, err := r.res.PrefabParts(t.prefab)
		if err != nil {
			return err
		}
		b := BindingFor(mat, false)
		prog, err := r.program(mesh, b)
		if err != nil {
			return err
		}
		prog.Use()
		bindFrameUniforms(prog, b, &f.uniforms)
		if err := r.bindMaterial(mat, true); err != nil {
			return err
		}
		u := nodeUniforms{model: t.node.World(), color: mat.Color}
		spriteUniforms(mat, t.node, &u)
		bindNodeUniforms(prog, b, mat, &u)
		r.api.DrawMesh(mesh)
		r.stats.DrawCalls++
		r.stats.Transparents++
		return nil
	}

	switch r.Kind {
	case Forward2D:
		for i := 0; i < len(q.transparents); i++ {
			if err := draw(&q.transparents[i]); err != nil {
				return err
			}
		}
	case Forward3D:
		for i := len(q.transparents) - 1; i >= 0; i-- {
			if err := draw(&q.transparents[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) drawBox(viewProj math.Mat4, b *boxDraw) error {
	var tex *resource.Texture
	if !b.texture.IsNil() {
		t, err := r.res.Textures.Get(b.texture)
		if err != nil {
			return errors.Wrap(err, "box")
		}
		tex = t
	}
	r.stats.Boxes++
	return r.drawQuad(viewProj, b.model, b.color, tex, true)
}

func (r *Renderer) drawText(viewProj math.Mat4, t *textDraw, yDir float32) error {
	tex := r.text.get(t.text, r.frameNo)
	if tex == nil {
		return nil
	}
	w, h := float32(tex.Width)*t.scale, float32(tex.Height)*t.scale
	// origin is the top-left corner of the text; yDir is +1 in world space
	// (Y up) and -1 in screen space (Y down).
	cx := t.origin.X + w/2
	cy := t.origin.Y - yDir*h/2
	model := math.Mat4Scale(math.Vec3{X: w, Y: h * yDir, Z: 1}).
		Mul(math.Mat4Translation(math.Vec3{X: cx, Y: cy, Z: t.origin.Z}))
	r.stats.Texts++
	return r.drawQuad(viewProj, model, t.color, tex, true)
}

// drawQuad draws the renderer's unit quad with an unlit program.
func (r *Renderer) drawQuad(viewProj, model math.Mat4, color core.Color, tex *resource.Texture, blending bool) error {
	b := UnlitUntextured
	if tex != nil {
		b = UnlitTextured
	}
	prog, err := r.program(r.quad, b)
	if err != nil {
		return err
	}
	prog.Use()
	prog.SetUniformVar(UniformViewProj, viewProj)
	r.api.SetCullingMode(resource.CullNone)
	r.api.SetBlendingEnabled(blending)
	if blending {
		r.api.SetBlendingFunc(resource.BlendSrcAlpha, resource.BlendOneMinusSrcAlpha)
	}
	if tex != nil {
		r.api.BindTexture(0, tex)
	}
	u := nodeUniforms{model: model, color: color, uvScale: math.Vec2{X: 1, Y: 1}}
	bindNodeUniforms(prog, b, nil, &u)
	r.api.DrawMesh(r.quad)
	r.stats.DrawCalls++
	return nil
}

// screenRect returns the model matrix of a pixel rectangle at depth. Y is
// flipped so texture row 0 lands on the top edge.
func screenRect(x, y, w, h, depth float32) math.Mat4 {
	return math.Mat4Scale(math.Vec3{X: w, Y: -h, Z: 1}).
		Mul(math.Mat4Translation(math.Vec3{X: x + w/2, Y: y + h/2, Z: depth}))
}

func (r *Renderer) flushRenderTarget(f *frameState) {
	if f.view.Target != nil {
		r.api.BindDefaultFramebuffer()
	}
}
