package console

import (
	"fmt"
	stdmath "math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/scene"
)

func builtins() []*Command {
	return []*Command{
		{Name: "help", Usage: "[command]", Help: "list commands or show one command's usage", MaxArgs: 1, Run: cmdHelp},
		{Name: "nodes", Help: "list node names", Run: cmdNodes},
		{Name: "setpos", Usage: "<node> <x> <y> [z]", Help: "set a node's local position", MinArgs: 3, MaxArgs: 4, Run: cmdSetPos},
		{Name: "translate", Usage: "<node> <dx> <dy> [dz]", Help: "move a node by an offset", MinArgs: 3, MaxArgs: 4, Run: cmdTranslate},
		{Name: "depth", Usage: "<node> [depth]", Help: "show or set a node's draw depth", MinArgs: 1, MaxArgs: 2, Run: cmdDepth},
		{Name: "show", Usage: "<node>", Help: "make a node and its subtree visible", MinArgs: 1, MaxArgs: 1, Run: cmdVisible(true)},
		{Name: "hide", Usage: "<node>", Help: "hide a node and its subtree", MinArgs: 1, MaxArgs: 1, Run: cmdVisible(false)},
		{Name: "setlightcolor", Usage: "<light> <r> <g> <b> [a]", Help: "set a light's diffuse and specular color", MinArgs: 4, MaxArgs: 5, Run: cmdSetLightColor},
		{Name: "reload", Help: "reload the scene file", Run: cmdReload},
		{Name: "undo", Help: "revert the last edit", Run: cmdUndo},
		{Name: "redo", Help: "reapply the last reverted edit", Run: cmdRedo},
		{Name: "stats", Usage: "on|off", Help: "toggle the frame stats overlay", MinArgs: 1, MaxArgs: 1, Run: cmdStats},
		{Name: "wireframe", Usage: "on|off", Help: "toggle wireframe rendering", MinArgs: 1, MaxArgs: 1, Run: cmdWireframe},
	}
}

func (c *Console) scene() (*scene.Scene, error) {
	if c.env.Scene == nil {
		return nil, core.ConfigErrorf("no scene loaded")
	}
	s := c.env.Scene()
	if s == nil {
		return nil, core.ConfigErrorf("no scene loaded")
	}
	return s, nil
}

func (c *Console) node(name string) (*scene.Node, error) {
	s, err := c.scene()
	if err != nil {
		return nil, err
	}
	return s.Node(name)
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil || stdmath.IsNaN(f) || stdmath.IsInf(f, 0) {
			return nil, errors.Errorf("%q is not a finite number", a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, errors.Errorf("expected on or off, got %q", arg)
}

func cmdHelp(c *Console, args []string) (string, error) {
	if len(args) == 1 {
		cmd, ok := c.commands[strings.ToLower(args[0])]
		if !ok {
			return "", core.NotFound("command", args[0])
		}
		return fmt.Sprintf("%s %s - %s", cmd.Name, cmd.Usage, cmd.Help), nil
	}
	var b strings.Builder
	for _, cmd := range c.Commands() {
		fmt.Fprintf(&b, "%-14s %s\n", cmd.Name, cmd.Help)
	}
	return b.String(), nil
}

func cmdNodes(c *Console, _ []string) (string, error) {
	s, err := c.scene()
	if err != nil {
		return "", err
	}
	return strings.Join(s.NodeNames(), " "), nil
}

func vecArgs(base math.Vec3, args []string) (math.Vec3, error) {
	f, err := parseFloats(args)
	if err != nil {
		return math.Vec3{}, err
	}
	v := math.Vec3{X: f[0], Y: f[1], Z: base.Z}
	if len(f) == 3 {
		v.Z = f[2]
	}
	return v, nil
}

func cmdSetPos(c *Console, args []string) (string, error) {
	n, err := c.node(args[0])
	if err != nil {
		return "", err
	}
	pos, err := vecArgs(n.Position(), args[1:])
	if err != nil {
		return "", err
	}
	if err := c.history.Do(newMoveAction(n, pos)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s at (%g, %g, %g)", n.Name(), pos.X, pos.Y, pos.Z), nil
}

func cmdTranslate(c *Console, args []string) (string, error) {
	n, err := c.node(args[0])
	if err != nil {
		return "", err
	}
	d, err := vecArgs(math.Vec3{}, args[1:])
	if err != nil {
		return "", err
	}
	pos := n.Position().Add(d)
	if err := c.history.Do(newMoveAction(n, pos)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s at (%g, %g, %g)", n.Name(), pos.X, pos.Y, pos.Z), nil
}

func cmdDepth(c *Console, args []string) (string, error) {
	n, err := c.node(args[0])
	if err != nil {
		return "", err
	}
	if len(args) == 1 {
		return fmt.Sprintf("%s depth %g", n.Name(), n.Depth()), nil
	}
	f, err := parseFloats(args[1:])
	if err != nil {
		return "", err
	}
	if err := c.history.Do(&depthAction{node: n, oldDepth: n.Depth(), newDepth: f[0]}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s depth %g", n.Name(), f[0]), nil
}

func cmdVisible(v bool) Handler {
	return func(c *Console, args []string) (string, error) {
		n, err := c.node(args[0])
		if err != nil {
			return "", err
		}
		return "", c.history.Do(&visibleAction{node: n, from: n.Visible(), to: v})
	}
}

func cmdSetLightColor(c *Console, args []string) (string, error) {
	s, err := c.scene()
	if err != nil {
		return "", err
	}
	res := s.Resources()
	h, err := res.Lights.Lookup(args[0])
	if err != nil {
		return "", err
	}
	f, err := parseFloats(args[1:])
	if err != nil {
		return "", err
	}
	color := core.Color{R: f[0], G: f[1], B: f[2], A: 1}
	if len(f) == 4 {
		color.A = f[3]
	}
	a := &lightColorAction{res: res, h: h, name: args[0], color: color}
	return "", c.history.Do(a)
}

func cmdReload(c *Console, _ []string) (string, error) {
	if c.env.Reload == nil {
		return "", core.ConfigErrorf("reload is not available")
	}
	if err := c.env.Reload(); err != nil {
		return "", err
	}
	// Recorded edits point at nodes of the old scene.
	c.history.Clear()
	return "scene reloaded", nil
}

func cmdUndo(c *Console, _ []string) (string, error) {
	a := c.history.Undo()
	if a == nil {
		return "nothing to undo", nil
	}
	return "undid " + a.Description(), nil
}

func cmdRedo(c *Console, _ []string) (string, error) {
	a, err := c.history.Redo()
	if err != nil {
		return "", err
	}
	if a == nil {
		return "nothing to redo", nil
	}
	return "redid " + a.Description(), nil
}

func cmdStats(c *Console, args []string) (string, error) {
	if c.env.Renderer == nil {
		return "", core.ConfigErrorf("no renderer attached")
	}
	on, err := parseSwitch(args[0])
	if err != nil {
		return "", err
	}
	c.env.Renderer.EnableStats(on)
	return "", nil
}

func cmdWireframe(c *Console, args []string) (string, error) {
	if c.env.Renderer == nil {
		return "", core.ConfigErrorf("no renderer attached")
	}
	on, err := parseSwitch(args[0])
	if err != nil {
		return "", err
	}
	c.env.Renderer.SetWireframe(on)
	return "", nil
}
