package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/render"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	kind, err := cfg.RendererKind()
	require.NoError(t, err)
	assert.Equal(t, render.Forward2D, kind)
}

func TestParseYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Parse(".yaml", []byte(`
window:
  title: demo
renderer:
  kind: 3d
  stats: true
scene:
  path: levels/one.yaml
log_level: debug
limits:
  prefabs: 64
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.True(t, cfg.Renderer.Stats)
	assert.Equal(t, 4, cfg.Renderer.Queues)
	assert.Equal(t, "levels/one.yaml", cfg.Scene.Path)
	assert.True(t, cfg.Scene.Watch)
	assert.Equal(t, 64, cfg.ResourceLimits().Prefabs)

	kind, err := cfg.RendererKind()
	require.NoError(t, err)
	assert.Equal(t, render.Forward3D, kind)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse(".toml", []byte(`
log_level = "warn"

[window]
width = 640
height = 480

[console]
remote = "127.0.0.1:7070"
`))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, "127.0.0.1:7070", cfg.Console.Remote)
	assert.True(t, cfg.Console.Enabled)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]struct {
		ext  string
		data string
	}{
		"unknown extension": {".ini", "a=b"},
		"bad kind":          {".yaml", "renderer: {kind: isometric}"},
		"bad level":         {".yaml", "log_level: loud"},
		"zero queues":       {".yaml", "renderer: {queues: 0}"},
		"unknown toml key":  {".toml", "colour = 1"},
		"malformed yaml":    {".yaml", "window: [1, 2"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.ext, []byte(tc.data))
			require.Error(t, err)
			assert.True(t, core.IsConfig(err))
		})
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yml")
	require.NoError(t, os.WriteFile(path, []byte("console: {enabled: false}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Console.Enabled)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
