package render

import (
	"slices"

	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/resource"
	"forward-engine/scene"
)

// Kind selects the forward renderer variant.
type Kind int

const (
	Forward2D Kind = iota
	Forward3D
)

func (k Kind) String() string {
	if k == Forward3D {
		return "forward3d"
	}
	return "forward2d"
}

// View ties a scene and camera to a viewport and an optional offscreen
// target for one presentation pass.
type View struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Viewport core.Viewport
	Target   *RenderTarget
}

// Renderer owns a fixed set of RenderQueues. It implements scene.Submitter;
// UpdateSceneGraph fills the queues and Present drains them.
type Renderer struct {
	Kind Kind

	api      RenderAPI
	res      *resource.Manager
	programs *Programs

	queues []RenderQueue
	active []bool

	overlays [overlayLayers]Overlay
	polygon  PolygonMode
	stats    Stats
	text     *textCache
	quad     *resource.Mesh
	frameNo  uint64
	trace    func(Stage)
}

var _ scene.Submitter = (*Renderer)(nil)

// New creates a renderer with numQueues queue slots.
func New(kind Kind, api RenderAPI, res *resource.Manager, programs *Programs, numQueues int) *Renderer {
	if numQueues <= 0 {
		numQueues = 1
	}
	r := &Renderer{
		Kind:     kind,
		api:      api,
		res:      res,
		programs: programs,
		queues:   make([]RenderQueue, numQueues),
		active:   make([]bool, numQueues),
		quad:     resource.NewQuad("ui.quad"),
	}
	for i := range r.queues {
		r.queues[i] = newRenderQueue()
	}
	r.text = newTextCache(r)
	return r
}

func (r *Renderer) Resources() *resource.Manager { return r.res }
func (r *Renderer) Programs() *Programs          { return r.programs }
func (r *Renderer) Stats() Stats                 { return r.stats }

// Queue returns queue id, or nil if out of range.
func (r *Renderer) Queue(id int) *RenderQueue {
	if id < 0 || id >= len(r.queues) {
		return nil
	}
	return &r.queues[id]
}

// ActiveQueues returns the ids that received content this frame, ascending.
func (r *Renderer) ActiveQueues() []int {
	var ids []int
	for i, a := range r.active {
		if a {
			ids = append(ids, i)
		}
	}
	return ids
}

// SetWireframe switches the polygon mode used for scene content.
func (r *Renderer) SetWireframe(on bool) {
	r.polygon = PolygonFill
	if on {
		r.polygon = PolygonLine
	}
}

// SetTrace installs a hook called on every present stage transition.
func (r *Renderer) SetTrace(fn func(Stage)) { r.trace = fn }

func (r *Renderer) queueFor(n *scene.Node) (*RenderQueue, error) {
	id := n.Queue()
	if id < 0 || id >= len(r.queues) {
		return nil, errors.Errorf("queue %d out of range [0, %d)", id, len(r.queues))
	}
	r.active[id] = true
	return &r.queues[id], nil
}

// ── Submission ───────────────────────────────────────────────────────────────

// AddRenderData classifies n's prefab: blended materials go to the
// transparents, instanced prefabs to the instanced set (once per prefab, with
// n's world matrix written to its instance slot), everything else to the
// solids grouped by prefab.
func (r *Renderer) AddRenderData(n *scene.Node) error {
	h := n.Prefab()
	p, _, mat, err := r.res.PrefabParts(h)
	if err != nil {
		return err
	}
	q, err := r.queueFor(n)
	if err != nil {
		return err
	}

	switch {
	case mat.Blending:
		q.addTransparent(r.transparentKey(n), h, n)
	case p.Instancing.Enabled:
		slot := n.InstanceSlot()
		if slot < 0 {
			return errors.Errorf("prefab %q: node %q has no instance slot", p.Name, n.Name())
		}
		im, err := r.res.InstancedMesh(p)
		if err != nil {
			return err
		}
		im.Transforms[slot] = n.World()
		q.addInstanced(h, slot)
	default:
		q.addSolid(h, n)
	}
	return nil
}

// transparentKey orders transparents so that drawing them in iteration
// order is farthest first: Forward2D iterates ascending over -depth,
// Forward3D iterates descending over depth.
func (r *Renderer) transparentKey(n *scene.Node) float32 {
	if r.Kind == Forward2D {
		return -n.Depth()
	}
	return n.Depth()
}

// AddLight records the light with its world position as of now.
func (r *Renderer) AddLight(n *scene.Node, h resource.Handle[resource.Light]) error {
	l, err := r.res.Lights.Get(h)
	if err != nil {
		return err
	}
	q, err := r.queueFor(n)
	if err != nil {
		return err
	}
	q.lights = append(q.lights, lightEntry{light: *l, position: n.WorldPosition()})
	return nil
}

func (r *Renderer) AddBox(n *scene.Node, b *scene.Box) error {
	q, err := r.queueFor(n)
	if err != nil {
		return err
	}
	q.boxes = append(q.boxes, boxDraw{model: b.Transform(n.World()), color: b.Color, texture: b.Texture})
	return nil
}

func (r *Renderer) AddTextbox(n *scene.Node, t *scene.TextBox) error {
	q, err := r.queueFor(n)
	if err != nil {
		return err
	}
	origin := n.World().Translation().Add(t.Offset.Vec3(0))
	q.texts = append(q.texts, textDraw{origin: origin, text: t.Text, color: t.Color, scale: t.Scale})
	return nil
}

// ClearQueues empties every queue and the active set.
func (r *Renderer) ClearQueues() {
	for i := range r.queues {
		r.queues[i].clear()
	}
	clear(r.active)
}

// Draw runs one frame for v: queues are cleared, the scene graph is
// traversed into them, the camera follows its tracked node and Present
// issues the draws.
func (r *Renderer) Draw(v View) error {
	r.ClearQueues()
	if err := v.Scene.UpdateSceneGraph(r); err != nil {
		r.ClearQueues()
		return errors.Wrap(err, "update scene graph")
	}
	if v.Camera != nil {
		v.Camera.Update()
	}
	return r.Present(v)
}

// Release frees backend data the renderer created itself.
func (r *Renderer) Release() {
	r.text.release()
	if rel, ok := r.api.(resource.Releaser); ok {
		rel.ReleaseMesh(r.quad)
	}
}

func sortTransparents(kind Kind, ts []transparentDraw) {
	slices.SortFunc(ts, func(a, b transparentDraw) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		// Equal keys keep submission order in iteration order.
		if kind == Forward3D {
			return b.seq - a.seq
		}
		return a.seq - b.seq
	})
}
