package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/render"
	"forward-engine/scene"
)

func TestOverlaysDrawInFrontInLayerOrder(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	var order []render.OverlayLayer
	for _, l := range []render.OverlayLayer{render.LayerConsole, render.LayerSceneUI} {
		l := l
		f.r.SetOverlay(l, render.OverlayFunc(func(ui *render.UI) error {
			order = append(order, l)
			assert.Equal(t, float32(800), ui.Width)
			return ui.Box(10, 20, 30, 40, core.ColorRed)
		}))
	}

	require.NoError(t, f.r.Draw(f.view()))
	assert.Equal(t, []render.OverlayLayer{render.LayerSceneUI, render.LayerConsole}, order)

	draws := drawsOf(f.rec, "ui.quad")
	require.Len(t, draws, 2)
	first, second := draws[0].Model.Translation(), draws[1].Model.Translation()
	assert.Equal(t, float32(25), first.X)
	assert.Equal(t, float32(40), first.Y)
	assert.Equal(t, render.OverlayDepth(render.LayerSceneUI), first.Z)
	assert.Less(t, second.Z, first.Z)
	assert.Less(t, first.Z, float32(scene.MinDepth))
	assert.True(t, draws[0].Blending)
}

func TestOverlayErrorFailsPresent(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	f.r.SetOverlay(render.LayerSceneUI, render.OverlayFunc(func(*render.UI) error {
		return assert.AnError
	}))
	err := f.r.Draw(f.view())
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.r.ActiveQueues())
}

func TestStatsOverlayDrawsText(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	f.r.EnableStats(true)
	require.NoError(t, f.r.Draw(f.view()))

	var texts int
	for _, d := range drawsOf(f.rec, "ui.quad") {
		if d.Texture == "text" {
			texts++
		}
	}
	assert.Equal(t, 1, texts)

	f.r.EnableStats(false)
	f.rec.Reset()
	require.NoError(t, f.r.Draw(f.view()))
	assert.Empty(t, drawsOf(f.rec, "ui.quad"))
}

func TestUnusedTextTexturesAreReleased(t *testing.T) {
	f := newFixture(t, render.Forward2D)
	n, err := f.scene.Root().CreateChildNode("label")
	require.NoError(t, err)
	label := &scene.TextBox{Text: "score", Color: core.ColorWhite, Scale: 1}
	n.AddText(label)

	require.NoError(t, f.r.Draw(f.view()))
	n.RemoveText(label)
	for i := 0; i < 130; i++ {
		require.NoError(t, f.r.Draw(f.view()))
	}
	assert.Contains(t, f.rec.Released, "texture:text")
}
