package scene

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"forward-engine/math"
	"forward-engine/resource"
)

const (
	MinDepth = -1000
	MaxDepth = 1000
)

var (
	// ErrAlreadyParented is returned when attaching a node that has a parent.
	ErrAlreadyParented = errors.New("node already has a parent")

	// ErrDepthOutOfRange is returned by SetDepth outside [MinDepth, MaxDepth].
	ErrDepthOutOfRange = errors.New("depth out of range")

	// ErrDestroyed is returned when operating on a destroyed node.
	ErrDestroyed = errors.New("node destroyed")
)

// Node is a positioned element of the scene graph. It owns its children and
// holds handles to the resources it draws; the resources themselves live in
// the scene's resource.Manager.
type Node struct {
	id        uint32
	name      string
	scene     *Scene
	parent    *Node
	children  []*Node
	destroyed bool

	transform Transform
	depth     float32
	visible   bool
	queue     int

	prefab        resource.Handle[resource.Prefab]
	instanceSlot  int
	instanceEpoch uint32
	animation     *SpriteAnimation

	lights []resource.Handle[resource.Light]
	boxes  []*Box
	texts  []*TextBox
}

func newNode(s *Scene, id uint32, name string) *Node {
	return &Node{
		id:           id,
		name:         name,
		scene:        s,
		transform:    NewTransform(),
		visible:      true,
		instanceSlot: -1,
	}
}

func (n *Node) ID() uint32        { return n.id }
func (n *Node) Name() string      { return n.name }
func (n *Node) Scene() *Scene     { return n.scene }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Alive() bool       { return !n.destroyed }
func (n *Node) IsRoot() bool      { return n.scene != nil && n.scene.root == n }
func (n *Node) Children() []*Node { return n.children }

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	i, ok := slices.BinarySearchFunc(n.children, name, func(c *Node, name string) int {
		return strings.Compare(c.name, name)
	})
	if !ok {
		return nil
	}
	return n.children[i]
}

// CreateChildNode creates a registered node and attaches it under n.
func (n *Node) CreateChildNode(name string) (*Node, error) {
	if n.destroyed {
		return nil, errors.Wrapf(ErrDestroyed, "node %q", n.name)
	}
	child, err := n.scene.CreateNode(name)
	if err != nil {
		return nil, err
	}
	if err := n.AddChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddChild attaches child under n. Children are kept ordered by name.
func (n *Node) AddChild(child *Node) error {
	switch {
	case child == nil:
		return errors.New("add child: nil node")
	case n.destroyed || child.destroyed:
		return errors.Wrapf(ErrDestroyed, "add %q to %q", child.name, n.name)
	case child.parent != nil:
		return errors.Wrapf(ErrAlreadyParented, "node %q (parent %q)", child.name, child.parent.name)
	case child.IsRoot():
		return errors.Errorf("node %q: root cannot be a child", child.name)
	case child.scene != n.scene:
		return errors.Errorf("node %q belongs to another scene", child.name)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return errors.Errorf("node %q: attaching under %q would form a cycle", child.name, n.name)
		}
	}

	i, _ := slices.BinarySearchFunc(n.children, child.name, func(c *Node, name string) int {
		return strings.Compare(c.name, name)
	})
	n.children = slices.Insert(n.children, i, child)
	child.parent = n
	child.transform.dirty = true
	return nil
}

// RemoveChild detaches child from n. The child stays registered and must be
// re-attached or destroyed.
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	child.transform.dirty = true
	return true
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Destroy removes n and its whole subtree from the scene. Instance slots
// held by destroyed nodes are released.
func (n *Node) Destroy() error {
	if n.destroyed {
		return nil
	}
	if n.IsRoot() {
		return errors.New("cannot destroy the root node")
	}
	n.Detach()
	n.destroySubtree()
	return nil
}

func (n *Node) destroySubtree() {
	if n.destroyed {
		return
	}
	for _, c := range n.children {
		c.parent = nil
		c.destroySubtree()
	}
	n.children = nil
	n.releaseInstance()
	n.scene.unregister(n)
	n.destroyed = true
}

// Clone copies n's transform and attachments into a new detached node
// registered as name. Children are not cloned.
func (n *Node) Clone(name string) (*Node, error) {
	c, err := n.scene.CreateNode(name)
	if err != nil {
		return nil, err
	}
	c.transform = n.transform
	c.transform.dirty = true
	c.depth = n.depth
	c.visible = n.visible
	c.queue = n.queue
	c.prefab = n.prefab
	c.lights = slices.Clone(n.lights)
	for _, b := range n.boxes {
		bb := *b
		c.boxes = append(c.boxes, &bb)
	}
	for _, t := range n.texts {
		tt := *t
		c.texts = append(c.texts, &tt)
	}
	if n.animation != nil {
		a := *n.animation
		c.animation = &a
	}
	return c, nil
}

// Traverse visits n and its descendants depth-first in child order.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Path returns the slash-separated names from the root down to n.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.Path() + "/" + n.name
}

// ── Transform ────────────────────────────────────────────────────────────────

func (n *Node) Transform() *Transform            { return &n.transform }
func (n *Node) Position() math.Vec3              { return n.transform.position }
func (n *Node) Orientation() math.Quaternion     { return n.transform.orientation }
func (n *Node) Scale() math.Vec3                 { return n.transform.scale }
func (n *Node) World() math.Mat4                 { return n.transform.world }
func (n *Node) WorldPosition() math.Vec3         { return n.transform.worldPosition }
func (n *Node) SetPosition(p math.Vec3)          { n.transform.SetPosition(p) }
func (n *Node) Translate(d math.Vec3)            { n.transform.Translate(d) }
func (n *Node) SetOrientation(q math.Quaternion) { n.transform.SetOrientation(q) }
func (n *Node) Rotate(axis math.Vec3, a float32) { n.transform.Rotate(axis, a) }
func (n *Node) SetScale(s math.Vec3)             { n.transform.SetScale(s) }
func (n *Node) ScaleBy(s math.Vec3)              { n.transform.ScaleBy(s) }

// UpdateWorldTransform brings n's cached world matrix up to date, updating
// dirty ancestors first.
func (n *Node) UpdateWorldTransform() {
	var chain []*Node
	for p := n; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	dirty := false
	for i := len(chain) - 1; i >= 0; i-- {
		dirty = chain[i].update(dirty)
	}
}

// update rebuilds the caches if n or an ancestor changed and reports whether
// it did.
func (n *Node) update(parentDirty bool) bool {
	if !n.transform.dirty && !parentDirty {
		return false
	}
	if n.transform.dirty {
		n.transform.updateLocal()
	}
	var parent *Transform
	if n.parent == nil {
		n.transform.derivedScale = n.transform.scale
	} else {
		parent = &n.parent.transform
		if n.transform.dirty {
			n.transform.derivedScale = parent.derivedScale.MulVec(n.transform.scale)
		}
	}
	n.transform.updateWorld(parent)
	n.propagateToChildren()
	n.updateDepthValue()
	return true
}

// propagateToChildren pushes n's derived scale one level down and flags the
// children, so a targeted update never leaves a sibling or descendant with a
// stale world matrix. Scale is composed here rather than through the matrix
// product.
func (n *Node) propagateToChildren() {
	for _, c := range n.children {
		c.transform.derivedScale = n.transform.derivedScale.MulVec(c.transform.scale)
		c.transform.dirty = true
	}
}

func (n *Node) updateDepthValue() {
	if n.scene != nil && n.scene.depthMode == DepthOrder2D {
		n.transform.applyDepth(n.depth)
	}
}

// ── Draw state ───────────────────────────────────────────────────────────────

func (n *Node) Depth() float32 { return n.depth }

// SetDepth sets the draw-order depth. Larger depths are farther away.
func (n *Node) SetDepth(d float32) error {
	if !(d >= MinDepth && d <= MaxDepth) {
		return errors.Wrapf(ErrDepthOutOfRange, "node %q: %g not in [%d, %d]", n.name, d, MinDepth, MaxDepth)
	}
	n.depth = d
	n.transform.dirty = true
	return nil
}

func (n *Node) Visible() bool     { return n.visible }
func (n *Node) SetVisible(v bool) { n.visible = v }
func (n *Node) Queue() int        { return n.queue }

// SetQueue selects the render queue n's attachments are submitted to.
func (n *Node) SetQueue(q int) error {
	if q < 0 {
		return errors.Errorf("node %q: negative queue %d", n.name, q)
	}
	n.queue = q
	return nil
}

// ── Attachments ──────────────────────────────────────────────────────────────

func (n *Node) Prefab() resource.Handle[resource.Prefab] { return n.prefab }

// InstanceSlot is n's slot in its prefab's instance buffer, or -1.
func (n *Node) InstanceSlot() int { return n.instanceSlot }

// AttachPrefab makes n draw h, replacing any previous prefab. If h is
// instanced, n takes an instance slot.
func (n *Node) AttachPrefab(h resource.Handle[resource.Prefab]) error {
	p, err := n.scene.resources.Prefabs.Get(h)
	if err != nil {
		return errors.Wrapf(err, "node %q", n.name)
	}
	n.DetachPrefab()
	n.prefab = h
	if p.Instancing.Enabled {
		return n.ensureInstance()
	}
	return nil
}

func (n *Node) DetachPrefab() {
	n.releaseInstance()
	n.prefab = resource.Handle[resource.Prefab]{}
}

// ensureInstance attaches n to its prefab's instance buffer when the prefab
// is instanced and n's slot is missing or from an earlier enable.
func (n *Node) ensureInstance() error {
	if n.prefab.IsNil() {
		return nil
	}
	p, err := n.scene.resources.Prefabs.Get(n.prefab)
	if err != nil {
		return errors.Wrapf(err, "node %q", n.name)
	}
	if !p.Instancing.Enabled {
		n.instanceSlot = -1
		return nil
	}
	if n.instanceSlot >= 0 && n.instanceEpoch == p.Instancing.Epoch {
		return nil
	}
	slot, epoch, err := n.scene.resources.AttachInstance(n.prefab, n.id)
	if err != nil {
		return errors.Wrapf(err, "node %q", n.name)
	}
	n.instanceSlot, n.instanceEpoch = slot, epoch
	return nil
}

func (n *Node) releaseInstance() {
	if n.prefab.IsNil() || n.instanceSlot < 0 {
		return
	}
	if p, err := n.scene.resources.Prefabs.Get(n.prefab); err == nil && p.Instancing.Epoch == n.instanceEpoch {
		n.scene.resources.DetachInstance(n.prefab, n.id)
	}
	n.instanceSlot = -1
}

func (n *Node) Animation() *SpriteAnimation     { return n.animation }
func (n *Node) SetAnimation(a *SpriteAnimation) { n.animation = a }

func (n *Node) Lights() []resource.Handle[resource.Light] { return n.lights }

func (n *Node) AttachLight(h resource.Handle[resource.Light]) error {
	if _, err := n.scene.resources.Lights.Get(h); err != nil {
		return errors.Wrapf(err, "node %q", n.name)
	}
	if !slices.Contains(n.lights, h) {
		n.lights = append(n.lights, h)
	}
	return nil
}

func (n *Node) DetachLight(h resource.Handle[resource.Light]) {
	n.lights = slices.DeleteFunc(n.lights, func(l resource.Handle[resource.Light]) bool { return l == h })
}

func (n *Node) Boxes() []*Box      { return n.boxes }
func (n *Node) Texts() []*TextBox  { return n.texts }
func (n *Node) AddBox(b *Box)      { n.boxes = append(n.boxes, b) }
func (n *Node) AddText(t *TextBox) { n.texts = append(n.texts, t) }

func (n *Node) RemoveBox(b *Box) {
	n.boxes = slices.DeleteFunc(n.boxes, func(x *Box) bool { return x == b })
}

func (n *Node) RemoveText(t *TextBox) {
	n.texts = slices.DeleteFunc(n.texts, func(x *TextBox) bool { return x == t })
}
