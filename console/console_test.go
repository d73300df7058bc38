package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
	"forward-engine/scene"
)

type fixture struct {
	c       *Console
	s       *scene.Scene
	player  *scene.Node
	reloads int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	res := resource.NewManager(resource.Limits{})
	f := &fixture{s: scene.NewScene("test", res, scene.DepthOrder2D)}
	var err error
	f.player, err = f.s.Root().CreateChildNode("player")
	require.NoError(t, err)
	f.player.SetPosition(math.Vec3{X: 1, Y: 2, Z: 3})

	_, err = res.Lights.Add("sun", resource.NewDirectionalLight("sun", math.Vec3{Z: -1}))
	require.NoError(t, err)

	f.c = New(Env{
		Scene: func() *scene.Scene { return f.s },
		Reload: func() error {
			f.reloads++
			return nil
		},
	}, 4)
	return f
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Exec("SETPOS player 4 5")
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 4, Y: 5, Z: 3}, f.player.Position())
}

func TestArgumentsSplitLikeAShell(t *testing.T) {
	f := newFixture(t)
	n, err := f.s.Root().CreateChildNode("big tree")
	require.NoError(t, err)

	_, err = f.c.Exec(`  translate   "big tree"    1   -2   0.5 `)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 1, Y: -2, Z: 0.5}, n.Position())
}

func TestExecErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.c.Exec("fly player")
	assert.True(t, core.IsNotFound(err))

	_, err = f.c.Exec("setpos ghost 1 2")
	assert.True(t, core.IsNotFound(err))

	_, err = f.c.Exec("setpos player 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: setpos")

	_, err = f.c.Exec("setpos player one 2")
	assert.Error(t, err)

	_, err = f.c.Exec("depth player 5000")
	assert.ErrorIs(t, err, scene.ErrDepthOutOfRange)

	depth := f.player.Depth()
	for _, line := range []string{"depth player NaN", "setpos player Inf 2", "translate player 1 -inf"} {
		_, err = f.c.Exec(line)
		assert.Error(t, err, line)
	}
	assert.Equal(t, depth, f.player.Depth())
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, f.player.Position())

	out, err := f.c.Exec("   ")
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestSubmitTurnsErrorsIntoOneLine(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Submit("setpos ghost 1 2")
	require.Error(t, err)
	_, err = f.c.Submit("nodes")
	require.NoError(t, err)

	lines := f.c.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, Line{Kind: LineInput, Text: "> setpos ghost 1 2"}, lines[0])
	assert.Equal(t, LineError, lines[1].Kind)
	assert.True(t, strings.HasPrefix(lines[1].Text, "error: "))
	assert.NotContains(t, lines[1].Text, "\n")
	assert.Equal(t, LineOutput, lines[3].Kind)
	assert.Contains(t, lines[3].Text, "player")
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t)
	start := f.player.Position()

	_, err := f.c.Exec("translate player 1 1")
	require.NoError(t, err)
	_, err = f.c.Exec("depth player 7")
	require.NoError(t, err)

	out, err := f.c.Exec("undo")
	require.NoError(t, err)
	assert.Equal(t, "undid depth player", out)
	assert.Zero(t, f.player.Depth())

	_, err = f.c.Exec("undo")
	require.NoError(t, err)
	assert.Equal(t, start, f.player.Position())

	out, _ = f.c.Exec("undo")
	assert.Equal(t, "nothing to undo", out)

	_, err = f.c.Exec("redo")
	require.NoError(t, err)
	assert.Equal(t, start.Add(math.Vec3{X: 1, Y: 1}), f.player.Position())
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(2)
	n := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Do(&counterAction{n: &n}))
	}
	assert.Equal(t, 3, n)
	assert.NotNil(t, h.Undo())
	assert.NotNil(t, h.Undo())
	assert.Nil(t, h.Undo())
	assert.Equal(t, 1, n)
	assert.True(t, h.CanRedo())
}

type counterAction struct{ n *int }

func (a *counterAction) Execute() error {
	*a.n++
	return nil
}

func (a *counterAction) Undo()               { *a.n-- }
func (a *counterAction) Description() string { return "count" }

func TestSetLightColor(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Exec("setlightcolor sun 1 0.5 0")
	require.NoError(t, err)

	l, err := f.s.Resources().Lights.Find("sun")
	require.NoError(t, err)
	want := core.Color{R: 1, G: 0.5, B: 0, A: 1}
	assert.Equal(t, want, l.Diffuse)
	assert.Equal(t, want, l.Specular)

	_, err = f.c.Exec("undo")
	require.NoError(t, err)
	assert.Equal(t, core.ColorWhite, l.Diffuse)

	_, err = f.c.Exec("setlightcolor moon 1 1 1")
	assert.True(t, core.IsNotFound(err))
}

func TestReloadClearsHistory(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Exec("translate player 1 0")
	require.NoError(t, err)
	out, err := f.c.Exec("reload")
	require.NoError(t, err)
	assert.Equal(t, "scene reloaded", out)
	assert.Equal(t, 1, f.reloads)
	assert.False(t, f.c.History().CanUndo())
}

func TestUndoAfterDestroyIsHarmless(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Exec("hide player")
	require.NoError(t, err)
	assert.False(t, f.player.Visible())
	require.NoError(t, f.player.Destroy())

	_, err = f.c.Exec("undo")
	require.NoError(t, err)
	_, err = f.c.Exec("redo")
	assert.ErrorIs(t, err, scene.ErrDestroyed)
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	out, err := f.c.Exec("help")
	require.NoError(t, err)
	for _, name := range []string{"setpos", "translate", "setlightcolor", "reload"} {
		assert.Contains(t, out, name)
	}
	out, err = f.c.Exec("help SetPos")
	require.NoError(t, err)
	assert.Equal(t, "setpos <node> <x> <y> [z] - set a node's local position", out)
}

func TestRendererCommandsNeedARenderer(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Exec("stats on")
	assert.True(t, core.IsConfig(err))
}

func TestLineEditing(t *testing.T) {
	f := newFixture(t)
	f.c.InsertRune('x')
	assert.Empty(t, f.c.Input(), "hidden console ignores typing")

	f.c.Toggle()
	for _, r := range "nodes!" {
		f.c.InsertRune(r)
	}
	f.c.Backspace()
	assert.Equal(t, "nodes", f.c.Input())
	f.c.Enter()
	assert.Empty(t, f.c.Input())
	require.NotEmpty(t, f.c.Lines())
	assert.Equal(t, "> nodes", f.c.Lines()[0].Text)

	f.c.RecallPrev()
	assert.Equal(t, "nodes", f.c.Input())
	f.c.RecallNext()
	assert.Empty(t, f.c.Input())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	err := f.c.Register(&Command{Name: "SETPOS", Run: cmdNodes})
	assert.Error(t, err)
	require.NoError(t, f.c.Register(&Command{Name: "ping", Run: func(*Console, []string) (string, error) {
		return "pong", nil
	}}))
	out, err := f.c.Exec("PING")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

// pump drains remote requests until ctx is done, standing in for the frame loop.
func pump(ctx context.Context, c *Console) {
	t := time.NewTicker(time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Pump()
		}
	}
}

func TestRemoteWebsocket(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pump(ctx, f.c)

	srv := httptest.NewServer(f.c.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("setpos player 9 9")))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "setpos player 9 9", reply.Line)
	assert.Empty(t, reply.Error)
	assert.Contains(t, reply.Output, "player at (9, 9, 3)")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("bogus")))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply.Error, "not found")
}

func TestRemoteCommandsList(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/commands")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
