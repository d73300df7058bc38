package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"forward-engine/console"
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
	"forward-engine/scene"
)

// dayPalette is the background and light state at one key time of day.
type dayPalette struct {
	t            float32 // normalised time 0..1
	background   core.Color
	sunColor     core.Color
	sunIntensity float32
	ambient      core.Color
}

// palettes are ordered by t and wrap (0 == 1).
var palettes = []dayPalette{
	{ // noon
		t:            0.00,
		background:   core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		sunIntensity: 1.20,
		ambient:      core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	},
	{ // golden hour
		t:            0.22,
		background:   core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.65, B: 0.25, A: 1},
		sunIntensity: 0.90,
		ambient:      core.Color{R: 0.10, G: 0.12, B: 0.20, A: 1},
	},
	{ // dusk
		t:            0.30,
		background:   core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
		sunColor:     core.Color{R: 0.70, G: 0.40, B: 0.55, A: 1},
		sunIntensity: 0.25,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight, moonlight
		t:            0.50,
		background:   core.Color{R: 0.04, G: 0.04, B: 0.08, A: 1},
		sunColor:     core.Color{R: 0.40, G: 0.45, B: 0.65, A: 1},
		sunIntensity: 0.12,
		ambient:      core.Color{R: 0.03, G: 0.04, B: 0.09, A: 1},
	},
	{ // pre-dawn
		t:            0.70,
		background:   core.Color{R: 0.40, G: 0.18, B: 0.24, A: 1},
		sunColor:     core.Color{R: 0.75, G: 0.42, B: 0.60, A: 1},
		sunIntensity: 0.20,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // sunrise
		t:            0.78,
		background:   core.Color{R: 0.88, G: 0.45, B: 0.22, A: 1},
		sunColor:     core.Color{R: 1.00, G: 0.60, B: 0.28, A: 1},
		sunIntensity: 0.70,
		ambient:      core.Color{R: 0.09, G: 0.10, B: 0.17, A: 1},
	},
}

// DayNight animates the scene background, ambient term and the first
// directional light through a day.
type DayNight struct {
	Time   float32 // 0..1: 0=noon, 0.25=sunset, 0.5=midnight, 0.75=sunrise
	Speed  float32 // full-cycle duration in seconds
	Active bool
}

func NewDayNight() *DayNight {
	return &DayNight{Speed: 120}
}

func (dn *DayNight) Update(dt float32) {
	if !dn.Active {
		return
	}
	dn.Time += dt / dn.Speed
	dn.Time -= math32.Floor(dn.Time)
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}

func scaleColor(c core.Color, k float32) core.Color {
	return core.Color{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A}
}

// samplePalette interpolates between the keys surrounding t.
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	for i := range palettes {
		a, b := palettes[i], palettes[(i+1)%n]
		tb := b.t
		if i == n-1 {
			tb = 1
		}
		local := t
		if i == n-1 && t < palettes[0].t {
			local = t + 1
		}
		if local >= a.t && local < tb {
			k := (local - a.t) / (tb - a.t)
			return dayPalette{
				t:            t,
				background:   lerpColor(a.background, b.background, k),
				sunColor:     lerpColor(a.sunColor, b.sunColor, k),
				sunIntensity: a.sunIntensity + (b.sunIntensity-a.sunIntensity)*k,
				ambient:      lerpColor(a.ambient, b.ambient, k),
			}
		}
	}
	return palettes[0]
}

// sunDirection turns a full circle in the XY plane, tilted along Z:
// straight down at noon, straight up at midnight.
func sunDirection(t float32) math.Vec3 {
	angle := t * 2 * math32.Pi
	return math.Vec3{X: math32.Sin(angle), Y: -math32.Cos(angle), Z: 0.35}.Normalize()
}

// Apply pushes the current state into s and its first directional light.
func (dn *DayNight) Apply(s *scene.Scene) {
	if s == nil {
		return
	}
	p := samplePalette(dn.Time)
	s.Properties.Background = p.background
	s.Properties.Ambient = p.ambient
	if sun := firstDirectional(s.Resources()); sun != nil {
		sun.Direction = sunDirection(dn.Time)
		sun.SetColor(scaleColor(p.sunColor, p.sunIntensity))
	}
}

func firstDirectional(res *resource.Manager) *resource.Light {
	var sun *resource.Light
	res.Lights.Each(func(_ resource.Handle[resource.Light], l *resource.Light) {
		if sun == nil && l.Type == resource.LightDirectional {
			sun = l
		}
	})
	return sun
}

// TimeOfDayStr formats the cycle position as a 12-hour clock, noon at 0.
func (dn *DayNight) TimeOfDayStr() string {
	minutes := int(dn.Time*24*60) + 12*60
	h := (minutes / 60) % 24
	m := minutes % 60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	displayH := h % 12
	if displayH == 0 {
		displayH = 12
	}
	return fmt.Sprintf("%02d:%02d %s", displayH, m, period)
}

// command exposes the cycle to the console as "daynight on|off|<0..1>".
func (dn *DayNight) command() *console.Command {
	return &console.Command{
		Name:    "daynight",
		Usage:   "on|off|<time 0..1>",
		Help:    "run, stop or set the day/night cycle",
		MinArgs: 1,
		MaxArgs: 1,
		Run: func(_ *console.Console, args []string) (string, error) {
			switch strings.ToLower(args[0]) {
			case "on":
				dn.Active = true
			case "off":
				dn.Active = false
			default:
				t, err := strconv.ParseFloat(args[0], 32)
				if err != nil || t < 0 || t > 1 {
					return "", errors.Errorf("daynight: want on, off or a time in [0,1], got %q", args[0])
				}
				dn.Time = float32(t)
			}
			return "daynight " + dn.TimeOfDayStr(), nil
		},
	}
}
