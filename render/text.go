package render

import (
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"forward-engine/resource"
)

// textCacheFrames is how long an unused text texture is kept.
const textCacheFrames = 120

var textFace = basicfont.Face7x13

type cachedText struct {
	tex      *resource.Texture
	lastUsed uint64
}

// textCache rasterises strings into white RGBA textures, tinted at draw
// time by the color uniform. Textures are rebuilt only when text changes.
type textCache struct {
	r       *Renderer
	entries map[string]*cachedText
}

func newTextCache(r *Renderer) *textCache {
	return &textCache{r: r, entries: make(map[string]*cachedText)}
}

func (c *textCache) get(s string, frame uint64) *resource.Texture {
	if s == "" {
		return nil
	}
	if e, ok := c.entries[s]; ok {
		e.lastUsed = frame
		return e.tex
	}
	tex := resource.TextureFromImage("text", rasterize(s))
	c.entries[s] = &cachedText{tex: tex, lastUsed: frame}
	return tex
}

func (c *textCache) endFrame(frame uint64) {
	for s, e := range c.entries {
		if e.lastUsed+textCacheFrames < frame {
			c.drop(e)
			delete(c.entries, s)
		}
	}
}

func (c *textCache) drop(e *cachedText) {
	if rel, ok := c.r.api.(resource.Releaser); ok {
		rel.ReleaseTexture(e.tex)
	}
}

func (c *textCache) release() {
	for s, e := range c.entries {
		c.drop(e)
		delete(c.entries, s)
	}
}

func lineHeight() int {
	return textFace.Metrics().Height.Ceil()
}

func measure(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		w = max(w, font.MeasureString(textFace, line).Ceil())
	}
	return w
}

func rasterize(s string) *image.RGBA {
	lines := strings.Split(s, "\n")
	lh := lineHeight()
	img := image.NewRGBA(image.Rect(0, 0, max(measure(s), 1), lh*len(lines)))
	d := font.Drawer{Dst: img, Src: image.White, Face: textFace}
	ascent := textFace.Metrics().Ascent.Ceil()
	for i, line := range lines {
		d.Dot = fixed.P(0, i*lh+ascent)
		d.DrawString(line)
	}
	return img
}
