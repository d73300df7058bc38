package console

import (
	"forward-engine/core"
	"forward-engine/render"
)

var (
	backgroundColor = core.Color{R: 0.05, G: 0.05, B: 0.08, A: 0.85}
	lineColors      = [...]core.Color{
		LineInput:  {R: 0.7, G: 0.7, B: 0.7, A: 1},
		LineOutput: core.ColorWhite,
		LineError:  {R: 1, G: 0.35, B: 0.3, A: 1},
	}
)

var _ render.Overlay = (*Console)(nil)

// DrawOverlay draws the last lines of history and the input line across the
// top of the screen while the console is visible.
func (c *Console) DrawOverlay(ui *render.UI) error {
	if !c.visible {
		return nil
	}
	const pad, scale = 6, 1
	lh := ui.LineHeight(scale)
	h := float32(c.shown+1)*lh + 2*pad
	if err := ui.Box(0, 0, ui.Width, h, backgroundColor); err != nil {
		return err
	}

	lines := c.lines
	if len(lines) > c.shown {
		lines = lines[len(lines)-c.shown:]
	}
	y := float32(pad) + float32(c.shown-len(lines))*lh
	for _, l := range lines {
		if err := ui.Text(pad, y, scale, lineColors[l.Kind], l.Text); err != nil {
			return err
		}
		y += lh
	}
	return ui.Text(pad, y, scale, core.ColorYellow, prompt+string(c.input)+"_")
}
