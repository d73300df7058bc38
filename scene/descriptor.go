package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"forward-engine/core"
	"forward-engine/math"
)

// ── Scene file structures ────────────────────────────────────────────────────

// Descriptor is the parsed form of a scene file (JSON or YAML).
type Descriptor struct {
	SceneProperties PropertiesDesc        `json:"SceneProperties" yaml:"SceneProperties"`
	Prefab          map[string]PrefabDesc `json:"Prefab,omitempty" yaml:"Prefab,omitempty"`
	Lighting        map[string]LightDesc  `json:"Lighting,omitempty" yaml:"Lighting,omitempty"`
	Layout          LayoutDesc            `json:"Layout" yaml:"Layout"`
}

type PropertiesDesc struct {
	// Mode is "2d" (default) or "3d".
	Mode          string    `json:"Mode,omitempty" yaml:"Mode,omitempty"`
	Background    []float32 `json:"Background,omitempty" yaml:"Background,omitempty"`
	Skybox        string    `json:"Skybox,omitempty" yaml:"Skybox,omitempty"`
	Ambient       []float32 `json:"Ambient,omitempty" yaml:"Ambient,omitempty"`
	ResourceGroup string    `json:"ResourceGroup,omitempty" yaml:"ResourceGroup,omitempty"`
	Track         string    `json:"Track,omitempty" yaml:"Track,omitempty"`
}

type PrefabDesc struct {
	// Model is quad, sprite, cube, sphere, plane, or a path to a
	// .gltf/.glb/.obj file.
	Model     string       `json:"Model" yaml:"Model"`
	Instances int          `json:"Instances,omitempty" yaml:"Instances,omitempty"`
	Material  MaterialDesc `json:"Material" yaml:"Material"`
	Sprite    *SpriteDesc  `json:"Sprite,omitempty" yaml:"Sprite,omitempty"`
	Shadows   bool         `json:"Shadows,omitempty" yaml:"Shadows,omitempty"`
}

type MaterialDesc struct {
	Color     []float32 `json:"Color,omitempty" yaml:"Color,omitempty"`
	Texture   string    `json:"Texture,omitempty" yaml:"Texture,omitempty"`
	Lit       bool      `json:"Lit,omitempty" yaml:"Lit,omitempty"`
	Blending  bool      `json:"Blending,omitempty" yaml:"Blending,omitempty"`
	Cull      string    `json:"Cull,omitempty" yaml:"Cull,omitempty"`
	Specular  []float32 `json:"Specular,omitempty" yaml:"Specular,omitempty"`
	Shininess float32   `json:"Shininess,omitempty" yaml:"Shininess,omitempty"`
}

type SpriteDesc struct {
	Columns int     `json:"Columns" yaml:"Columns"`
	Rows    int     `json:"Rows" yaml:"Rows"`
	Frames  int     `json:"Frames,omitempty" yaml:"Frames,omitempty"`
	FPS     float32 `json:"FPS,omitempty" yaml:"FPS,omitempty"`
}

type LightDesc struct {
	Type        string    `json:"Type" yaml:"Type"`
	Direction   []float32 `json:"Direction,omitempty" yaml:"Direction,omitempty"`
	Attenuation []float32 `json:"Attenuation,omitempty" yaml:"Attenuation,omitempty"`
	Ambient     []float32 `json:"Ambient,omitempty" yaml:"Ambient,omitempty"`
	Diffuse     []float32 `json:"Diffuse,omitempty" yaml:"Diffuse,omitempty"`
	Specular    []float32 `json:"Specular,omitempty" yaml:"Specular,omitempty"`
}

type LayoutDesc struct {
	Nodes map[string]NodeDesc `json:"Nodes" yaml:"Nodes"`
}

type NodeDesc struct {
	Prefab string `json:"Prefab,omitempty" yaml:"Prefab,omitempty"`
	Light  string `json:"Light,omitempty" yaml:"Light,omitempty"`

	Position []float32 `json:"Position,omitempty" yaml:"Position,omitempty"`
	// Orientation is Euler angles in degrees (X, Y, Z).
	Orientation []float32 `json:"Orientation,omitempty" yaml:"Orientation,omitempty"`
	Scale       []float32 `json:"Scale,omitempty" yaml:"Scale,omitempty"`
	Depth       float32   `json:"Depth,omitempty" yaml:"Depth,omitempty"`
	Queue       int       `json:"Queue,omitempty" yaml:"Queue,omitempty"`
	Hidden      bool      `json:"Hidden,omitempty" yaml:"Hidden,omitempty"`

	Text *TextDesc `json:"Text,omitempty" yaml:"Text,omitempty"`
	Box  *BoxDesc  `json:"Box,omitempty" yaml:"Box,omitempty"`

	ChildNodes map[string]NodeDesc `json:"ChildNodes,omitempty" yaml:"ChildNodes,omitempty"`
}

type TextDesc struct {
	Value  string    `json:"Value" yaml:"Value"`
	Color  []float32 `json:"Color,omitempty" yaml:"Color,omitempty"`
	Scale  float32   `json:"Scale,omitempty" yaml:"Scale,omitempty"`
	Offset []float32 `json:"Offset,omitempty" yaml:"Offset,omitempty"`
}

type BoxDesc struct {
	Size   []float32 `json:"Size" yaml:"Size"`
	Color  []float32 `json:"Color,omitempty" yaml:"Color,omitempty"`
	Offset []float32 `json:"Offset,omitempty" yaml:"Offset,omitempty"`
}

// ── Read / write ─────────────────────────────────────────────────────────────

// ReadDescriptor reads a scene file; the extension picks the format.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scene %q", path)
	}
	return ParseDescriptor(path, data)
}

// ParseDescriptor decodes data as YAML when name ends in .yaml/.yml and as
// JSON otherwise.
func ParseDescriptor(name string, data []byte) (*Descriptor, error) {
	var d Descriptor
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	default:
		err = json.Unmarshal(data, &d)
	}
	if err != nil {
		return nil, errors.Wrapf(core.ErrConfig, "scene %q: %v", name, err)
	}
	return &d, nil
}

// WriteDescriptor saves d in the format chosen by path's extension.
func WriteDescriptor(path string, d *Descriptor) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(d)
	default:
		data, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "marshal scene")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write scene %q", path)
	}
	return nil
}

// ── conversion helpers ───────────────────────────────────────────────────────

func vec3Of(v []float32, def math.Vec3) (math.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 2:
		return math.Vec3{X: v[0], Y: v[1]}, nil
	case 3:
		return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return def, errors.Errorf("want 2 or 3 components, got %d", len(v))
}

func vec2Of(v []float32) (math.Vec2, error) {
	switch len(v) {
	case 0:
		return math.Vec2{}, nil
	case 2:
		return math.Vec2{X: v[0], Y: v[1]}, nil
	}
	return math.Vec2{}, errors.Errorf("want 2 components, got %d", len(v))
}

func colorOf(v []float32, def core.Color) (core.Color, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return core.Color{R: v[0], G: v[1], B: v[2], A: 1}, nil
	case 4:
		return core.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
	}
	return def, errors.Errorf("want 3 or 4 color components, got %d", len(v))
}

func vec3Slice(v math.Vec3) []float32   { return []float32{v.X, v.Y, v.Z} }
func colorSlice(c core.Color) []float32 { return []float32{c.R, c.G, c.B, c.A} }
