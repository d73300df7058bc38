// Package config loads the engine configuration file. The format follows
// the file extension: .yaml/.yml or .toml.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"forward-engine/core"
	"forward-engine/render"
	"forward-engine/resource"
)

type Config struct {
	Window   Window   `yaml:"window" toml:"window"`
	Renderer Renderer `yaml:"renderer" toml:"renderer"`
	Scene    Scene    `yaml:"scene" toml:"scene"`
	Console  Console  `yaml:"console" toml:"console"`
	Limits   Limits   `yaml:"limits" toml:"limits"`
	LogLevel string   `yaml:"log_level" toml:"log_level"`
}

type Window struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
	Resizable  bool   `yaml:"resizable" toml:"resizable"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
}

type Renderer struct {
	// Kind is "2d" or "3d".
	Kind      string  `yaml:"kind" toml:"kind"`
	Queues    int     `yaml:"queues" toml:"queues"`
	Wireframe bool    `yaml:"wireframe" toml:"wireframe"`
	Stats     bool    `yaml:"stats" toml:"stats"`
	FOV       float32 `yaml:"fov" toml:"fov"`
	Near      float32 `yaml:"near" toml:"near"`
	Far       float32 `yaml:"far" toml:"far"`
}

type Scene struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

type Console struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Lines   int    `yaml:"lines" toml:"lines"`
	Remote  string `yaml:"remote" toml:"remote"`
}

type Limits struct {
	Meshes    int `yaml:"meshes" toml:"meshes"`
	Textures  int `yaml:"textures" toml:"textures"`
	Materials int `yaml:"materials" toml:"materials"`
	Prefabs   int `yaml:"prefabs" toml:"prefabs"`
	Lights    int `yaml:"lights" toml:"lights"`
	Instanced int `yaml:"instanced" toml:"instanced"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:     "Forward Engine",
			Width:     1280,
			Height:    720,
			VSync:     true,
			Resizable: true,
		},
		Renderer: Renderer{Kind: "2d", Queues: 4, FOV: 1.0472, Near: 0.1, Far: 500},
		Scene:    Scene{Watch: true},
		Console:  Console{Enabled: true, Lines: 12},
		LogLevel: "info",
	}
}

type decoder interface {
	Decode(v any) error
}

var decoders = map[string]func(io.Reader) decoder{
	".yaml": func(r io.Reader) decoder { return yaml.NewDecoder(r) },
	".yml":  func(r io.Reader) decoder { return yaml.NewDecoder(r) },
	".toml": func(r io.Reader) decoder { return toml.NewDecoder(r).DisallowUnknownFields() },
}

// Load reads path over Default. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config")
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes data in the format named by ext.
func Parse(ext string, data []byte) (Config, error) {
	newDecoder, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return Config{}, core.ConfigErrorf("config: unsupported format %q", ext)
	}
	cfg := Default()
	if err := newDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, core.ConfigErrorf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.RendererKind(); err != nil {
		return err
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return core.ConfigErrorf("config: window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.Queues <= 0 {
		return core.ConfigErrorf("config: renderer.queues must be positive, got %d", c.Renderer.Queues)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RendererKind() (render.Kind, error) {
	switch strings.ToLower(c.Renderer.Kind) {
	case "2d", "forward2d":
		return render.Forward2D, nil
	case "3d", "forward3d":
		return render.Forward3D, nil
	}
	return 0, core.ConfigErrorf("config: unknown renderer kind %q", c.Renderer.Kind)
}

func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, core.ConfigErrorf("config: log_level: %v", err)
	}
	return l, nil
}

func (c *Config) ResourceLimits() resource.Limits {
	return resource.Limits(c.Limits)
}
