package main

import (
	"fmt"

	"forward-engine/core"
	"forward-engine/render"
)

// DebugOverlay collects a few lines per frame and draws them in the bottom
// left corner on the scene UI layer.
type DebugOverlay struct {
	lines []string
}

var _ render.Overlay = (*DebugOverlay)(nil)

func (do *DebugOverlay) AddLine(format string, args ...any) {
	do.lines = append(do.lines, fmt.Sprintf(format, args...))
}

func (do *DebugOverlay) Clear() {
	do.lines = do.lines[:0]
}

func (do *DebugOverlay) DrawOverlay(ui *render.UI) error {
	const pad, scale = 8, 1
	lh := ui.LineHeight(scale)
	y := ui.Height - pad - float32(len(do.lines))*lh
	for _, l := range do.lines {
		if err := ui.Text(pad, y, scale, core.ColorWhite, l); err != nil {
			return err
		}
		y += lh
	}
	return nil
}
