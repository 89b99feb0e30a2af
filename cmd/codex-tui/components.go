package main

import (
	"strings"

	"github.com/haasonsaas/codex-tui/internal/agentstate"
	"github.com/haasonsaas/codex-tui/internal/tui"
)

// transcriptComponent renders the agent's conversation history, clipped to
// the trailing rows that actually fit the terminal so the diff renderer
// never writes past the bottom of the screen.
type transcriptComponent struct {
	accessor agentstate.AppAccessor
	rows     func() int
}

func newTranscriptComponent(accessor agentstate.AppAccessor, rows func() int) *transcriptComponent {
	return &transcriptComponent{accessor: accessor, rows: rows}
}

func (c *transcriptComponent) Render(width int) []string {
	if width <= 0 {
		width = 80
	}

	var transcript []agentstate.Message
	c.accessor.WithApp(func(app *agentstate.App) {
		transcript = append(transcript, app.Transcript...)
	})

	var lines []string
	for _, msg := range transcript {
		lines = append(lines, wrapText(rolePrefix(msg.Role)+msg.Content, width)...)
	}

	limit := c.rows() - 1
	if limit < 1 {
		limit = 1
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

func rolePrefix(role agentstate.Role) string {
	switch role {
	case agentstate.RoleUser:
		return "you: "
	case agentstate.RoleAssistant:
		return "agent: "
	default:
		return "* "
	}
}

func wrapText(s string, width int) []string {
	var out []string
	for _, raw := range strings.Split(s, "\n") {
		line := raw
		if line == "" {
			out = append(out, "")
			continue
		}
		for len(line) > width {
			out = append(out, line[:width])
			line = line[width:]
		}
		out = append(out, line)
	}
	return out
}

// inputComponent owns the single-line editable prompt. It decodes raw
// terminal bytes itself (Enter submits, Backspace/DEL erases, Ctrl-C
// cancels the active run, Ctrl-D queues a /quit) and mirrors its buffer into
// agentstate.App via OnInputReplace on every edit, matching how a pasted run
// of bytes and a single typed key are handled identically.
type inputComponent struct {
	accessor agentstate.AppAccessor
	host     agentstate.HostOps
	buffer   []rune
	focused  bool
}

func newInputComponent(accessor agentstate.AppAccessor, host agentstate.HostOps) *inputComponent {
	return &inputComponent{accessor: accessor, host: host}
}

func (c *inputComponent) Render(width int) []string {
	var running bool
	c.accessor.WithApp(func(app *agentstate.App) {
		running = app.Mode.Kind == agentstate.ModeRunning
	})

	prefix := "> "
	if running {
		prefix = "~ "
	}
	line := prefix + string(c.buffer)
	if width > 0 && len(line) > width {
		line = line[len(line)-width:]
	}
	return []string{line}
}

func (c *inputComponent) HandleEvent(event tui.InputEvent) {
	text, ok := event.(tui.TextInput)
	if !ok {
		return
	}
	for _, r := range text.Text {
		switch r {
		case '\r', '\n':
			c.submit()
		case 0x7f, 0x08:
			if len(c.buffer) > 0 {
				c.buffer = c.buffer[:len(c.buffer)-1]
			}
		case 0x03:
			c.accessor.WithApp(func(app *agentstate.App) { app.OnCancel(c.host) })
		case 0x04:
			c.buffer = []rune("/quit")
			c.submit()
		default:
			if r >= 0x20 {
				c.buffer = append(c.buffer, r)
			}
		}
	}
	c.accessor.WithApp(func(app *agentstate.App) { app.OnInputReplace(string(c.buffer)) })
}

func (c *inputComponent) submit() {
	c.accessor.WithApp(func(app *agentstate.App) {
		app.OnInputReplace(string(c.buffer))
		app.OnSubmit(c.host)
	})
	c.buffer = nil
}

func (c *inputComponent) SetFocused(focused bool) { c.focused = focused }
func (c *inputComponent) IsFocused() bool         { return c.focused }
