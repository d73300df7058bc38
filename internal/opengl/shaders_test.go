package opengl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"forward-engine/render"
)

func TestShaderSourcesDefinePerBinding(t *testing.T) {
	for _, b := range render.AllBindings {
		vs, fs := shaderSources(b)
		assert.True(t, strings.HasPrefix(vs, "#version 410 core\n"), b.String())
		assert.Equal(t, b.Lit(), strings.Contains(fs, "#define LIT\n"), b.String())
		assert.Equal(t, b.Textured(), strings.Contains(fs, "#define TEXTURED\n"), b.String())
		assert.Equal(t, b.Instanced(), strings.Contains(vs, "#define INSTANCED\n"), b.String())
		assert.Contains(t, fs, "#define MAX_LIGHTS 8\n")
	}
}

func TestShaderUniformNamesMatchRenderer(t *testing.T) {
	vs, fs := shaderSources(render.LitTexturedInstanced)
	for _, name := range []string{
		render.UniformViewProj, render.UniformUVOffset, render.UniformUVScale,
	} {
		assert.Contains(t, vs, name)
	}
	for _, name := range []string{
		render.UniformColor, render.UniformTexture, render.UniformAmbient, render.UniformCameraPos,
		render.UniformSpecular, render.UniformShininess, render.UniformLightCount,
	} {
		assert.Contains(t, fs, name)
	}
	assert.Contains(t, fs, "u_lights[")
	vs, _ = shaderSources(render.UnlitUntextured)
	assert.Contains(t, vs, uniformModel)
}
