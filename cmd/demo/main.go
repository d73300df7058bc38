// Command demo opens a window and renders a scene file with the forward
// renderer. The scene reloads when the file changes, and the console
// (toggled with `) edits it live.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"forward-engine/config"
	"forward-engine/console"
	"forward-engine/core"
	"forward-engine/internal/opengl"
	"forward-engine/platform"
	"forward-engine/render"
	"forward-engine/resource"
	"forward-engine/scene"
)

func main() {
	configPath := flag.String("config", "", "engine config file (.yaml, .yml or .toml)")
	scenePath := flag.String("scene", "", "scene file; overrides the config")
	flag.Parse()

	if err := run(*configPath, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if scenePath != "" {
		cfg.Scene.Path = scenePath
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	core.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	kind, err := cfg.RendererKind()
	if err != nil {
		return err
	}

	window, err := platform.NewWindow(platform.WindowConfig{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Title:      cfg.Window.Title,
		Resizable:  cfg.Window.Resizable,
		VSync:      cfg.Window.VSync,
		Fullscreen: cfg.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	backend, err := opengl.New()
	if err != nil {
		return err
	}
	defer backend.Destroy()
	programs := render.NewPrograms()
	if err := backend.LoadPrograms(programs); err != nil {
		return err
	}

	res := resource.NewManager(cfg.ResourceLimits())
	res.SetReleaser(backend)
	defer res.Release()

	a := &app{cfg: cfg, kind: kind, res: res}
	s, err := a.load()
	if err != nil {
		return err
	}
	a.setScene(s)

	r := render.New(kind, backend, res, programs, cfg.Renderer.Queues)
	defer r.Release()
	r.SetWireframe(cfg.Renderer.Wireframe)
	r.EnableStats(cfg.Renderer.Stats)

	hud := &DebugOverlay{}
	r.SetOverlay(render.LayerSceneUI, hud)

	dayNight := NewDayNight()
	con := console.New(console.Env{Scene: a.currentScene, Reload: a.reload, Renderer: r}, cfg.Console.Lines)
	if err := con.Register(dayNight.command()); err != nil {
		return err
	}
	if cfg.Console.Enabled {
		r.SetOverlay(render.LayerConsole, con)
	}

	controller := NewCameraController()
	bindInput(window, con, controller, cfg.Console.Enabled)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if cfg.Console.Enabled && cfg.Console.Remote != "" {
		go func() {
			if err := con.Serve(ctx, cfg.Console.Remote); err != nil {
				core.Logger().Error("remote console stopped", "err", err)
			}
		}()
	}

	var changes <-chan string
	if cfg.Scene.Watch && cfg.Scene.Path != "" {
		w, err := scene.WatchFile(cfg.Scene.Path)
		if err != nil {
			core.Logger().Warn("scene watch disabled", "err", err)
		} else {
			defer w.Close()
			changes = w.Changes()
		}
	}

	last := window.Time()
	for !window.ShouldClose() && ctx.Err() == nil {
		now := window.Time()
		dt := float32(now - last)
		last = now

		window.PollEvents()
		con.Pump()
		select {
		case path := <-changes:
			core.Logger().Info("scene changed", "path", path)
			if _, err := con.Submit("reload"); err != nil {
				core.Logger().Error("scene reload failed", "err", err)
			}
		default:
		}

		if !con.Visible() {
			controller.Update(window, a.camera, dt)
		}
		dayNight.Update(dt)
		if dayNight.Active {
			dayNight.Apply(a.scene)
		}
		a.scene.Update(dt)

		hud.Clear()
		if dt > 0 {
			hud.AddLine("%.0f fps", 1/dt)
		}
		p := a.camera.Position()
		hud.AddLine("camera %.1f %.1f %.1f", p.X, p.Y, p.Z)
		if dayNight.Active {
			hud.AddLine("time %s", dayNight.TimeOfDayStr())
		}

		if err := r.Draw(render.View{Scene: a.scene, Camera: a.camera, Viewport: window.Viewport()}); err != nil {
			return errors.Wrap(err, "draw")
		}
		window.SwapBuffers()
	}
	return nil
}

// bindInput routes keys to the console while it is open. ` toggles it and
// Escape closes it, or the window when it is already closed.
func bindInput(window *platform.Window, con *console.Console, cc *CameraController, consoleEnabled bool) {
	window.SetKeyCallback(func(key int, pressed bool) {
		if !pressed {
			return
		}
		switch {
		case key == platform.KeyGraveAccent && consoleEnabled:
			con.Toggle()
		case key == platform.KeyEscape && con.Visible():
			con.SetVisible(false)
		case key == platform.KeyEscape:
			window.SetShouldClose(true)
		case !con.Visible():
		case key == platform.KeyEnter:
			con.Enter()
		case key == platform.KeyBackspace:
			con.Backspace()
		case key == platform.KeyUp:
			con.RecallPrev()
		case key == platform.KeyDown:
			con.RecallNext()
		}
	})
	window.SetCharCallback(func(r rune) {
		if r != '`' {
			con.InsertRune(r)
		}
	})
	window.SetScrollCallback(func(_, yoff float64) {
		cc.Scroll(yoff)
	})
}
