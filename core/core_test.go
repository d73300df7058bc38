package core

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := NotFound("node", "player")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConfig(err))
	assert.Contains(t, err.Error(), `node "player"`)

	wrapped := errors.Wrap(ConfigErrorf("no program for %s", "cube"), "present")
	assert.True(t, IsConfig(wrapped))
	assert.Equal(t, "present: no program for cube: configuration error", wrapped.Error())
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("frame", "n", 1)
	assert.Contains(t, buf.String(), "frame")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestViewportAspect(t *testing.T) {
	assert.Equal(t, float32(2), Viewport{Width: 200, Height: 100}.Aspect())
	assert.Equal(t, float32(1), Viewport{}.Aspect())
}
