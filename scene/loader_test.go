package scene

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
)

const yamlScene = `
SceneProperties:
  Mode: 2d
  Background: [0.2, 0.3, 0.4]
  Track: player
Prefab:
  crate:
    Model: quad
    Shadows: true
    Material:
      Color: [1, 0, 0, 1]
  ghost:
    Model: sprite
    Material:
      Blending: true
    Sprite: {Columns: 4, Rows: 2, FPS: 8}
  grass:
    Model: quad
    Instances: 16
Lighting:
  sun:
    Type: directional
    Direction: [0, -1, 0]
  lamp:
    Type: point
    Attenuation: [1, 0.1, 0.01]
    Diffuse: [1, 0.5, 0]
Layout:
  Nodes:
    player:
      Prefab: ghost
      Position: [10, 5]
      Depth: 2
      ChildNodes:
        torch:
          Light: lamp
          Position: [0, 1]
    ground:
      Prefab: crate
      Scale: [20, 1]
      Depth: 10
    g1: {Prefab: grass}
    g2: {Prefab: grass}
    hud:
      Text: {Value: "score 0"}
      Box: {Size: [100, 20], Color: [0, 0, 0, 0.5]}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLScene(t *testing.T) {
	res := resource.NewManager(resource.Limits{})
	path := writeFile(t, t.TempDir(), "level.yaml", yamlScene)

	s, err := Load(path, res)
	require.NoError(t, err)

	assert.Equal(t, "level", s.Name)
	assert.Equal(t, DepthOrder2D, s.DepthMode())
	assert.Equal(t, core.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}, s.Properties.Background)
	assert.Equal(t, "player", s.Properties.Track)

	player, err := s.Node("player")
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 10, Y: 5}, player.Position())
	assert.Equal(t, float32(2), player.Depth())
	require.NotNil(t, player.Animation())
	assert.Equal(t, 8, player.Animation().Count)

	torch, err := s.Node("torch")
	require.NoError(t, err)
	assert.Same(t, player, torch.Parent())
	require.Len(t, torch.Lights(), 1)
	lamp, err := res.Lights.Get(torch.Lights()[0])
	require.NoError(t, err)
	assert.Equal(t, resource.LightPoint, lamp.Type)
	assert.Equal(t, float32(0.1), lamp.Linear)

	ghost, _, mat, err := res.PrefabParts(player.Prefab())
	require.NoError(t, err)
	assert.Equal(t, "ghost", ghost.Name)
	assert.True(t, mat.Blending)
	assert.Equal(t, 4, mat.SpriteColumns)

	crate, err := res.Prefabs.Find("crate")
	require.NoError(t, err)
	assert.True(t, crate.CastShadows)

	grass, err := res.Prefabs.Find("grass")
	require.NoError(t, err)
	assert.True(t, grass.Instancing.Enabled)
	assert.Equal(t, 2, grass.Instancing.Count)

	hud, err := s.Node("hud")
	require.NoError(t, err)
	require.Len(t, hud.Texts(), 1)
	assert.Equal(t, "score 0", hud.Texts()[0].Text)
	require.Len(t, hud.Boxes(), 1)
	assert.Equal(t, float32(0.5), hud.Boxes()[0].Color.A)
}

func TestReloadReleasesResources(t *testing.T) {
	res := resource.NewManager(resource.Limits{})
	path := writeFile(t, t.TempDir(), "level.yaml", yamlScene)

	s, err := Load(path, res)
	require.NoError(t, err)
	s.ReleaseResources()
	assert.Zero(t, res.Prefabs.Len())
	assert.Zero(t, res.Meshes.Len())
	assert.Zero(t, res.Lights.Len())
	assert.Zero(t, res.Instanced.Len())

	_, err = Load(path, res)
	assert.NoError(t, err, "names are free again after release")
}

func TestReleaseResourcesWarnsOnStaleHandle(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { core.SetLogger(nil) })

	res := resource.NewManager(resource.Limits{})
	s, err := Load(writeFile(t, t.TempDir(), "level.yaml", yamlScene), res)
	require.NoError(t, err)

	sun, err := res.Lights.Lookup("sun")
	require.NoError(t, err)
	_, err = res.Lights.Remove(sun)
	require.NoError(t, err)

	s.ReleaseResources()
	assert.Zero(t, res.Lights.Len())
	assert.Contains(t, buf.String(), "scene: release")
	assert.Contains(t, buf.String(), "kind=light")
}

func TestLoadJSONScene(t *testing.T) {
	const doc = `{
	  "SceneProperties": {"Mode": "3d", "Ambient": [0.1, 0.1, 0.1]},
	  "Prefab": {"box": {"Model": "cube", "Material": {"Lit": true, "Cull": "none"}}},
	  "Layout": {"Nodes": {"b": {"Prefab": "box", "Position": [1, 2, 3], "Orientation": [0, 90, 0]}}}
	}`
	res := resource.NewManager(resource.Limits{})
	s, err := Load(writeFile(t, t.TempDir(), "room.json", doc), res)
	require.NoError(t, err)
	assert.Equal(t, DepthPhysical3D, s.DepthMode())

	b, err := s.Node("b")
	require.NoError(t, err)
	b.UpdateWorldTransform()
	assert.Equal(t, float32(3), b.World()[3][2])
	fwd := b.Orientation().RotateVector(math.Vec3{Z: 1})
	assert.True(t, fwd.ApproxEqual(math.Vec3{X: 1}, eps), "got %v", fwd)

	_, _, mat, err := res.PrefabParts(b.Prefab())
	require.NoError(t, err)
	assert.True(t, mat.Lit)
	assert.Equal(t, resource.CullNone, mat.Cull)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"bad mode":    "SceneProperties: {Mode: 4d}",
		"bad light":   "Lighting: {x: {Type: spot}}",
		"unknown ref": "Layout: {Nodes: {a: {Prefab: nope}}}",
		"bad vector":  "Layout: {Nodes: {a: {Position: [1]}}}",
		"bad depth":   "Layout: {Nodes: {a: {Depth: 5000}}}",
		"bad cull":    "Prefab: {p: {Model: quad, Material: {Cull: sideways}}}",
		"not yaml":    "Layout: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			res := resource.NewManager(resource.Limits{})
			_, err := Load(writeFile(t, t.TempDir(), "s.yaml", doc), res)
			assert.Error(t, err)
			assert.Zero(t, res.Prefabs.Len(), "partial loads are rolled back")
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	res := resource.NewManager(resource.Limits{})
	dir := t.TempDir()
	s, err := Load(writeFile(t, dir, "level.yaml", yamlScene), res)
	require.NoError(t, err)
	player, _ := s.Node("player")
	player.Translate(math.Vec3{X: 1})

	out := filepath.Join(dir, "saved.json")
	require.NoError(t, WriteDescriptor(out, s.Snapshot()))
	d, err := ReadDescriptor(out)
	require.NoError(t, err)

	p := d.Layout.Nodes["player"]
	assert.Equal(t, "ghost", p.Prefab)
	assert.InDelta(t, 11, p.Position[0], eps)
	assert.Contains(t, p.ChildNodes, "torch")
	assert.Equal(t, "lamp", p.ChildNodes["torch"].Light)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "level.yaml", yamlScene)
	w, err := WatchFile(path)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "other.yaml", "x: 1")
	writeFile(t, dir, "level.yaml", yamlScene+"\n")

	select {
	case got := <-w.Changes():
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
