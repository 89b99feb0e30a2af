package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// RawTerminal drives a real tty: raw mode via golang.org/x/term, a
// background reader goroutine feeding decoded text to onInput, and a
// SIGWINCH-free poll-on-write resize check (Columns/Rows are read fresh on
// every call).
type RawTerminal struct {
	fd       int
	in       *os.File
	out      *os.File
	oldState *term.State

	onInput  func(string)
	onResize func()
	stopCh   chan struct{}
}

// NewRawTerminal wraps the given file descriptors (normally os.Stdin and
// os.Stdout).
func NewRawTerminal(in, out *os.File) *RawTerminal {
	return &RawTerminal{fd: int(in.Fd()), in: in, out: out}
}

// Start enters raw mode and begins the input-reading loop. onResize is
// never called spontaneously on platforms without a signal-driven hook;
// callers relying on live resize should poll Columns/Rows around RunOnce.
func (t *RawTerminal) Start(onInput func(string), onResize func()) error {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	t.oldState = state
	t.onInput = onInput
	t.onResize = onResize
	t.stopCh = make(chan struct{})

	t.Write("\x1b[?2004h")

	go t.readLoop()
	return nil
}

func (t *RawTerminal) readLoop() {
	reader := bufio.NewReader(t.in)
	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}
		n, err := reader.Read(buf)
		if n > 0 && t.onInput != nil {
			t.onInput(string(buf[:n]))
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			return
		}
	}
}

// Stop restores the terminal's original mode.
func (t *RawTerminal) Stop() error {
	if t.stopCh != nil {
		close(t.stopCh)
	}
	if t.oldState == nil {
		return nil
	}
	return term.Restore(t.fd, t.oldState)
}

// Write sends raw bytes straight to the output fd.
func (t *RawTerminal) Write(data string) {
	io.WriteString(t.out, data)
}

// Columns returns the terminal's current width, defaulting to 80 if it
// cannot be determined (non-tty, e.g. under test or when piped).
func (t *RawTerminal) Columns() int {
	cols, _, err := term.GetSize(t.fd)
	if err != nil || cols <= 0 {
		return 80
	}
	return cols
}

// Rows returns the terminal's current height, defaulting to 24.
func (t *RawTerminal) Rows() int {
	_, rows, err := term.GetSize(t.fd)
	if err != nil || rows <= 0 {
		return 24
	}
	return rows
}
