package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"

	"forward-engine/render"
	"forward-engine/resource"
)

type renderTarget struct {
	fbo   uint32
	color *resource.Texture
	depth uint32
}

// CreateRenderTarget allocates an offscreen framebuffer. The returned
// texture samples its color attachment and can be used by materials.
func (b *Backend) CreateRenderTarget(name string, width, height int) (*render.RenderTarget, *resource.Texture, error) {
	t := &renderTarget{color: &resource.Texture{Name: name, Width: width, Height: height}}

	gl.GenTextures(1, &t.color.BackendID)
	gl.BindTexture(gl.TEXTURE_2D, t.color.BackendID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenRenderbuffers(1, &t.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.color.BackendID, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depth)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.free()
		return nil, nil, errors.Errorf("render target %q incomplete (0x%X)", name, status)
	}

	b.targets[t.fbo] = t
	return &render.RenderTarget{ID: t.fbo, Width: width, Height: height}, t.color, nil
}

// DeleteRenderTarget frees a target made by CreateRenderTarget, including
// its color texture.
func (b *Backend) DeleteRenderTarget(rt *render.RenderTarget) {
	if t, ok := b.targets[rt.ID]; ok {
		t.free()
		delete(b.targets, rt.ID)
	}
}

func (t *renderTarget) free() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.depth != 0 {
		gl.DeleteRenderbuffers(1, &t.depth)
		t.depth = 0
	}
	deleteTexture(t.color)
}
