package resource

import (
	"forward-engine/core"
	"forward-engine/math"
)

type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
)

func (t LightType) String() string {
	if t == LightPoint {
		return "point"
	}
	return "directional"
}

type Light struct {
	Name      string
	Type      LightType
	Direction math.Vec3

	// Point light attenuation: 1 / (Constant + Linear*d + Quadratic*d²).
	Constant  float32
	Linear    float32
	Quadratic float32

	Ambient  core.Color
	Diffuse  core.Color
	Specular core.Color
}

func NewDirectionalLight(name string, dir math.Vec3) *Light {
	return &Light{
		Name:      name,
		Type:      LightDirectional,
		Direction: dir.Normalize(),
		Ambient:   core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
		Diffuse:   core.ColorWhite,
		Specular:  core.ColorWhite,
	}
}

func NewPointLight(name string) *Light {
	return &Light{
		Name:      name,
		Type:      LightPoint,
		Constant:  1,
		Linear:    0.09,
		Quadratic: 0.032,
		Ambient:   core.Color{R: 0.05, G: 0.05, B: 0.05, A: 1},
		Diffuse:   core.ColorWhite,
		Specular:  core.ColorWhite,
	}
}

// SetColor sets the diffuse and specular colour.
func (l *Light) SetColor(c core.Color) {
	l.Diffuse = c
	l.Specular = c
}
