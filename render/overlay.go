package render

import (
	"fmt"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/scene"
)

// OverlayLayer orders the UI passes drawn after the scene.
type OverlayLayer int

const (
	LayerSceneUI OverlayLayer = iota
	LayerStats
	LayerConsole
	overlayLayers
)

// OverlayDepth is the depth a layer draws at: past MinDepth, so every layer
// lands in front of all scene content and later layers in front of earlier
// ones.
func OverlayDepth(l OverlayLayer) float32 {
	return scene.MinDepth - 1 - float32(l)
}

// Overlay draws screen-space UI once per frame.
type Overlay interface {
	DrawOverlay(ui *UI) error
}

// OverlayFunc adapts a function to Overlay.
type OverlayFunc func(ui *UI) error

func (f OverlayFunc) DrawOverlay(ui *UI) error { return f(ui) }

// SetOverlay installs o on layer; nil removes it.
func (r *Renderer) SetOverlay(l OverlayLayer, o Overlay) {
	if l >= 0 && l < overlayLayers {
		r.overlays[l] = o
	}
}

// EnableStats toggles the built-in stats overlay.
func (r *Renderer) EnableStats(on bool) {
	if on {
		r.overlays[LayerStats] = statsOverlay{r: r}
	} else {
		r.overlays[LayerStats] = nil
	}
}

func (r *Renderer) renderUIOverlays(f *frameState) error {
	r.api.SetDepthTestEnabled(true)
	r.api.SetPolygonMode(PolygonFill)
	for l, o := range r.overlays {
		if o == nil {
			continue
		}
		ui := &UI{
			r:      r,
			f:      f,
			depth:  OverlayDepth(OverlayLayer(l)),
			Width:  float32(f.view.Viewport.Width),
			Height: float32(f.view.Viewport.Height),
		}
		if err := o.DrawOverlay(ui); err != nil {
			return err
		}
	}
	return nil
}

// UI draws in pixel coordinates, origin top-left, at its layer's depth.
type UI struct {
	r     *Renderer
	f     *frameState
	depth float32

	Width, Height float32
}

func (u *UI) Box(x, y, w, h float32, c core.Color) error {
	u.r.stats.Boxes++
	return u.r.drawQuad(u.f.screen, screenRect(x, y, w, h, u.depth), c, nil, true)
}

// Text draws s with its top-left corner at (x, y).
func (u *UI) Text(x, y, scale float32, c core.Color, s string) error {
	if s == "" {
		return nil
	}
	t := textDraw{origin: math.Vec3{X: x, Y: y, Z: u.depth}, text: s, color: c, scale: scale}
	return u.r.drawText(u.f.screen, &t, -1)
}

// LineHeight is the pixel height of one text line at scale.
func (u *UI) LineHeight(scale float32) float32 {
	return float32(lineHeight()) * scale
}

// TextWidth is the pixel width of the widest line of s at scale.
func (u *UI) TextWidth(s string, scale float32) float32 {
	return float32(measure(s)) * scale
}

// Stats counts one frame's work.
type Stats struct {
	Frame        uint64
	Queues       int
	DrawCalls    int
	Instances    int
	Solids       int
	Transparents int
	Lights       int
	Boxes        int
	Texts        int
}

func (s Stats) String() string {
	return fmt.Sprintf("frame %d  queues %d  draws %d  instances %d  solids %d  transparents %d  lights %d",
		s.Frame, s.Queues, s.DrawCalls, s.Instances, s.Solids, s.Transparents, s.Lights)
}

type statsOverlay struct {
	r *Renderer
}

func (o statsOverlay) DrawOverlay(ui *UI) error {
	line := o.r.stats.String()
	const pad, scale = 4, 1
	w := ui.TextWidth(line, scale) + 2*pad
	h := ui.LineHeight(scale) + 2*pad
	if err := ui.Box(0, 0, w, h, core.Color{A: 0.6}); err != nil {
		return err
	}
	return ui.Text(pad, pad, scale, core.ColorYellow, line)
}
