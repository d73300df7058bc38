package main

import (
	_ "embed"

	"github.com/pkg/errors"

	"forward-engine/config"
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/render"
	"forward-engine/resource"
	"forward-engine/scene"
)

//go:embed scenes/default.yaml
var defaultScene []byte

// app owns the current scene and its camera. A reload replaces both.
type app struct {
	cfg    config.Config
	kind   render.Kind
	res    *resource.Manager
	scene  *scene.Scene
	camera *scene.Camera
}

func (a *app) currentScene() *scene.Scene { return a.scene }

// load builds the configured scene file, or the embedded default scene when
// none is configured.
func (a *app) load() (*scene.Scene, error) {
	if a.cfg.Scene.Path != "" {
		return scene.Load(a.cfg.Scene.Path, a.res)
	}
	d, err := scene.ParseDescriptor("default.yaml", defaultScene)
	if err != nil {
		return nil, err
	}
	return d.Build("default", "", a.res)
}

// reload drops the current scene and its resources, then builds the file
// again. Resource names are reused, so the old ones go first. A failed
// reload leaves an empty scene until the next successful one.
func (a *app) reload() error {
	if a.scene != nil {
		a.scene.ReleaseResources()
	}
	s, err := a.load()
	if err != nil {
		mode := scene.DepthOrder2D
		if a.kind == render.Forward3D {
			mode = scene.DepthPhysical3D
		}
		a.scene = scene.NewScene("empty", a.res, mode)
		return errors.Wrap(err, "reload")
	}
	a.setScene(s)
	return nil
}

func (a *app) setScene(s *scene.Scene) {
	if (s.DepthMode() == scene.DepthPhysical3D) != (a.kind == render.Forward3D) {
		core.Logger().Warn("scene mode does not match renderer", "scene", s.Name, "renderer", a.kind)
	}
	a.scene = s
	if a.camera == nil {
		a.camera = a.newCamera()
	}
	a.camera.ClearTracking()
	if s.Properties.Track == "" {
		return
	}
	n, err := s.Node(s.Properties.Track)
	if err != nil {
		core.Logger().Warn("camera track target missing", "node", s.Properties.Track)
		return
	}
	a.camera.Track(n)
}

func (a *app) newCamera() *scene.Camera {
	if a.kind == render.Forward2D {
		return scene.NewCamera2D()
	}
	r := a.cfg.Renderer
	c := scene.NewCamera3D(r.FOV, r.Near, r.Far)
	c.SetPosition(math.Vec3{Y: 3, Z: 10})
	c.SetYawPitch(0, -0.25)
	return c
}
