// Package console is the in-engine command console. Commands are single
// lines of the form "name arg1 arg2 ...", looked up case-insensitively and
// split like a shell. Command errors never escape: they become one-line
// messages in the console history.
package console

import (
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/render"
	"forward-engine/scene"
)

// Env is what commands operate on. Scene is a function because a reload
// replaces the scene.
type Env struct {
	Scene    func() *scene.Scene
	Reload   func() error
	Renderer *render.Renderer
}

// Handler runs a command. args excludes the command name.
type Handler func(c *Console, args []string) (string, error)

type Command struct {
	Name  string
	Usage string
	Help  string
	// MinArgs and MaxArgs bound len(args); MaxArgs < 0 means unbounded.
	MinArgs int
	MaxArgs int
	Run     Handler
}

type LineKind int

const (
	LineInput LineKind = iota
	LineOutput
	LineError
)

type Line struct {
	Kind LineKind
	Text string
}

const (
	defaultMaxLines = 200
	undoDepth       = 64
	prompt          = "> "
)

type Console struct {
	env      Env
	commands map[string]*Command
	history  *History

	lines    []Line
	maxLines int

	input     []rune
	recall    []string
	recallPos int
	visible   bool
	shown     int

	requests chan request
}

// New creates a console with the built-in commands registered. shown is
// the number of history lines the overlay displays.
func New(env Env, shown int) *Console {
	if shown <= 0 {
		shown = 12
	}
	c := &Console{
		env:      env,
		commands: make(map[string]*Command),
		history:  NewHistory(undoDepth),
		maxLines: defaultMaxLines,
		shown:    shown,
		requests: make(chan request, 16),
	}
	for _, cmd := range builtins() {
		if err := c.Register(cmd); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds cmd. Names are case-insensitive and must be unique.
func (c *Console) Register(cmd *Command) error {
	key := strings.ToLower(cmd.Name)
	if key == "" || cmd.Run == nil {
		return errors.New("console: command needs a name and a handler")
	}
	if _, dup := c.commands[key]; dup {
		return errors.Errorf("console: command %q already registered", cmd.Name)
	}
	c.commands[key] = cmd
	return nil
}

// Commands returns the registered commands sorted by name.
func (c *Console) Commands() []*Command {
	out := make([]*Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		out = append(out, cmd)
	}
	slices.SortFunc(out, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (c *Console) History() *History { return c.history }

// Exec parses and runs line.
func (c *Console) Exec(line string) (string, error) {
	args, err := shellwords.Parse(line)
	if err != nil {
		return "", errors.Wrap(err, "parse")
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd, ok := c.commands[strings.ToLower(args[0])]
	if !ok {
		return "", core.NotFound("command", args[0])
	}
	args = args[1:]
	if len(args) < cmd.MinArgs || (cmd.MaxArgs >= 0 && len(args) > cmd.MaxArgs) {
		return "", errors.Errorf("usage: %s %s", cmd.Name, cmd.Usage)
	}
	return cmd.Run(c, args)
}

// Submit runs line and records it and its result in the history.
func (c *Console) Submit(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	c.addLine(LineInput, prompt+line)
	if n := len(c.recall); n == 0 || c.recall[n-1] != line {
		c.recall = append(c.recall, line)
	}
	c.recallPos = len(c.recall)

	out, err := c.Exec(line)
	if err != nil {
		core.Logger().Debug("console command failed", "line", line, "err", err)
		c.addLine(LineError, "error: "+strings.ReplaceAll(err.Error(), "\n", " "))
		return "", err
	}
	for _, l := range strings.Split(out, "\n") {
		if l != "" {
			c.addLine(LineOutput, l)
		}
	}
	return out, nil
}

func (c *Console) addLine(k LineKind, text string) {
	c.lines = append(c.lines, Line{Kind: k, Text: text})
	if over := len(c.lines) - c.maxLines; over > 0 {
		c.lines = slices.Delete(c.lines, 0, over)
	}
}

// Lines returns the recorded history, oldest first.
func (c *Console) Lines() []Line { return c.lines }

// ── Line editing ─────────────────────────────────────────────────────────────

func (c *Console) Visible() bool     { return c.visible }
func (c *Console) SetVisible(v bool) { c.visible = v }
func (c *Console) Toggle()           { c.visible = !c.visible }
func (c *Console) Input() string     { return string(c.input) }

func (c *Console) InsertRune(r rune) {
	if c.visible {
		c.input = append(c.input, r)
	}
}

func (c *Console) Backspace() {
	if len(c.input) > 0 {
		c.input = c.input[:len(c.input)-1]
	}
}

// Enter submits the input line.
func (c *Console) Enter() {
	line := string(c.input)
	c.input = c.input[:0]
	_, _ = c.Submit(line)
}

// RecallPrev replaces the input with the previous submitted line.
func (c *Console) RecallPrev() {
	if c.recallPos > 0 {
		c.recallPos--
		c.input = []rune(c.recall[c.recallPos])
	}
}

// RecallNext moves forward through submitted lines, ending on an empty input.
func (c *Console) RecallNext() {
	if c.recallPos < len(c.recall) {
		c.recallPos++
	}
	if c.recallPos == len(c.recall) {
		c.input = c.input[:0]
		return
	}
	c.input = []rune(c.recall[c.recallPos])
}
