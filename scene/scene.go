// Package scene holds the scene graph: nodes with hierarchical transforms,
// their attachments, cameras, and the per-frame traversal that submits
// visible content to a renderer.
//
// Depth overwrites the world matrix's Z translation only in DepthOrder2D
// scenes; DepthPhysical3D scenes keep the real Z and use depth for
// transparent ordering alone.
package scene

import (
	"slices"

	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/resource"
)

// DepthMode selects how node depth interacts with world Z.
type DepthMode int

const (
	// DepthOrder2D writes node depth into the world Z translation.
	DepthOrder2D DepthMode = iota
	// DepthPhysical3D keeps the real Z position; depth only orders transparents.
	DepthPhysical3D
)

// Submitter receives a scene's visible content during UpdateSceneGraph.
// The renderer implements it.
type Submitter interface {
	AddRenderData(n *Node) error
	AddLight(n *Node, light resource.Handle[resource.Light]) error
	AddBox(n *Node, b *Box) error
	AddTextbox(n *Node, t *TextBox) error
}

// Properties are the scene-wide settings read from a scene file.
type Properties struct {
	Background    core.Color
	Ambient       core.Color
	Skybox        resource.Handle[resource.Texture]
	ResourceGroup string

	// Track names the node the camera follows after loading.
	Track string
}

// Scene owns a node tree and a name registry covering every live node,
// attached or not.
type Scene struct {
	Name       string
	Properties Properties

	resources *resource.Manager
	depthMode DepthMode
	root      *Node
	nodes     map[string]*Node
	byID      map[uint32]*Node
	nextID    uint32
	owned     owned
}

func NewScene(name string, resources *resource.Manager, mode DepthMode) *Scene {
	s := &Scene{
		Name: name,
		Properties: Properties{
			Background: core.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
			Ambient:    core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
		},
		resources: resources,
		depthMode: mode,
		nodes:     make(map[string]*Node),
		byID:      make(map[uint32]*Node),
	}
	s.root = s.newRegistered("root")
	return s
}

func (s *Scene) Root() *Node                  { return s.root }
func (s *Scene) Resources() *resource.Manager { return s.resources }
func (s *Scene) DepthMode() DepthMode         { return s.depthMode }
func (s *Scene) Len() int                     { return len(s.nodes) }

func (s *Scene) newRegistered(name string) *Node {
	s.nextID++
	n := newNode(s, s.nextID, name)
	s.nodes[name] = n
	s.byID[n.id] = n
	return n
}

// CreateNode registers a detached node. Attach it with AddChild, or use
// Node.CreateChildNode.
func (s *Scene) CreateNode(name string) (*Node, error) {
	if name == "" {
		return nil, errors.New("create node: empty name")
	}
	if _, ok := s.nodes[name]; ok {
		return nil, errors.Errorf("node %q already exists", name)
	}
	return s.newRegistered(name), nil
}

// Node looks a node up by name.
func (s *Scene) Node(name string) (*Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, core.NotFound("node", name)
	}
	return n, nil
}

func (s *Scene) NodeByID(id uint32) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// NodeNames returns every registered name, sorted.
func (s *Scene) NodeNames() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Scene) unregister(n *Node) {
	if s.nodes[n.name] == n {
		delete(s.nodes, n.name)
	}
	delete(s.byID, n.id)
}

// Clear destroys every node except the root.
func (s *Scene) Clear() {
	for _, c := range slices.Clone(s.root.children) {
		_ = c.Destroy()
	}
	for _, n := range s.nodes {
		if n != s.root {
			n.destroySubtree()
		}
	}
}

// Update advances sprite animations on attached nodes.
func (s *Scene) Update(dt float32) {
	s.root.Traverse(func(n *Node) {
		if n.animation != nil {
			n.animation.Update(dt)
		}
	})
}

// UpdateSceneGraph walks the tree depth-first, brings world transforms up to
// date and hands every visible attachment to sub. A node's transform is
// always current before any of its attachments are submitted. The first
// error stops the walk.
func (s *Scene) UpdateSceneGraph(sub Submitter) error {
	return s.visit(s.root, false, sub)
}

func (s *Scene) visit(n *Node, parentDirty bool, sub Submitter) error {
	dirty := n.update(parentDirty)
	if !n.visible {
		// Hidden subtrees are skipped but stay flagged so they catch up
		// once shown again.
		if dirty {
			n.markSubtreeDirty()
		}
		return nil
	}

	if !n.prefab.IsNil() {
		if err := n.ensureInstance(); err != nil {
			return err
		}
		if err := sub.AddRenderData(n); err != nil {
			return errors.Wrapf(err, "node %q", n.name)
		}
	}
	for _, l := range n.lights {
		if err := sub.AddLight(n, l); err != nil {
			return errors.Wrapf(err, "node %q", n.name)
		}
	}
	for _, b := range n.boxes {
		if err := sub.AddBox(n, b); err != nil {
			return errors.Wrapf(err, "node %q", n.name)
		}
	}
	for _, t := range n.texts {
		if err := sub.AddTextbox(n, t); err != nil {
			return errors.Wrapf(err, "node %q", n.name)
		}
	}

	for _, c := range n.children {
		if err := s.visit(c, dirty, sub); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) markSubtreeDirty() {
	for _, c := range n.children {
		c.transform.dirty = true
		c.markSubtreeDirty()
	}
}
