package console

import (
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
	"forward-engine/scene"
)

type moveAction struct {
	node   *scene.Node
	oldPos math.Vec3
	newPos math.Vec3
}

func newMoveAction(n *scene.Node, pos math.Vec3) *moveAction {
	return &moveAction{node: n, oldPos: n.Position(), newPos: pos}
}

func (a *moveAction) Execute() error {
	if !a.node.Alive() {
		return scene.ErrDestroyed
	}
	a.node.SetPosition(a.newPos)
	return nil
}

func (a *moveAction) Undo() {
	if a.node.Alive() {
		a.node.SetPosition(a.oldPos)
	}
}

func (a *moveAction) Description() string { return "move " + a.node.Name() }

type depthAction struct {
	node     *scene.Node
	oldDepth float32
	newDepth float32
}

func (a *depthAction) Execute() error {
	if !a.node.Alive() {
		return scene.ErrDestroyed
	}
	return a.node.SetDepth(a.newDepth)
}

func (a *depthAction) Undo() {
	if a.node.Alive() {
		_ = a.node.SetDepth(a.oldDepth)
	}
}

func (a *depthAction) Description() string { return "depth " + a.node.Name() }

type visibleAction struct {
	node     *scene.Node
	from, to bool
}

func (a *visibleAction) Execute() error {
	if !a.node.Alive() {
		return scene.ErrDestroyed
	}
	a.node.SetVisible(a.to)
	return nil
}

func (a *visibleAction) Undo() {
	if a.node.Alive() {
		a.node.SetVisible(a.from)
	}
}

func (a *visibleAction) Description() string { return "show " + a.node.Name() }

// lightColorAction keeps the light's handle so a light removed by a reload
// turns into an error rather than a write to a recycled slot.
type lightColorAction struct {
	res   *resource.Manager
	h     resource.Handle[resource.Light]
	name  string
	color core.Color
	old   resource.Light
}

func (a *lightColorAction) Execute() error {
	l, err := a.res.Lights.Get(a.h)
	if err != nil {
		return err
	}
	a.old = *l
	l.SetColor(a.color)
	return nil
}

func (a *lightColorAction) Undo() {
	if l, err := a.res.Lights.Get(a.h); err == nil {
		l.Diffuse, l.Specular = a.old.Diffuse, a.old.Specular
	}
}

func (a *lightColorAction) Description() string { return "light color " + a.name }
