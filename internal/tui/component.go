// Package tui is the terminal runtime: a component tree, Z-ordered
// surfaces allocated through a two-pass vertical budget pass, a line-diff
// renderer, and capture/passthrough input dispatch.
package tui

// ComponentID identifies a registered Component for the lifetime of a
// Runtime.
type ComponentID int

// InputEvent is the tagged union of events a Component may receive.
type InputEvent interface {
	isInputEvent()
}

// TextInput is a raw decoded keystroke or pasted run of text.
type TextInput struct {
	Text string
}

func (TextInput) isInputEvent() {}

// KeyInput is a named, non-printable key (arrows, Enter, Escape, Ctrl
// combinations already decoded by the terminal reader).
type KeyInput struct {
	Key string
}

func (KeyInput) isInputEvent() {}

// Component is anything the runtime can render and dispatch input to.
type Component interface {
	Render(width int) []string
}

// ViewportSizer is implemented by components that care about the exact
// column/row budget allocated to them (surfaces, mainly).
type ViewportSizer interface {
	SetViewportSize(cols, rows int)
}

// EventHandler is implemented by components that react to input.
type EventHandler interface {
	HandleEvent(event InputEvent)
}

// Invalidator is implemented by components that cache rendered output and
// need an explicit signal to recompute it.
type Invalidator interface {
	Invalidate()
}

// Focusable is the capability a component exposes to receive and report
// keyboard focus.
type Focusable interface {
	SetFocused(focused bool)
	IsFocused() bool
}

// FocusableComponent is implemented by components that can hand out a
// Focusable view of themselves.
type FocusableComponent interface {
	AsFocusable() (Focusable, bool)
}

func renderWidth(c Component, width int) []string {
	if c == nil {
		return nil
	}
	return c.Render(width)
}

func dispatchEvent(c Component, event InputEvent) {
	if handler, ok := c.(EventHandler); ok {
		handler.HandleEvent(event)
	}
}

func setViewport(c Component, cols, rows int) {
	if sizer, ok := c.(ViewportSizer); ok {
		sizer.SetViewportSize(cols, rows)
	}
}

func asFocusable(c Component) (Focusable, bool) {
	if fc, ok := c.(FocusableComponent); ok {
		return fc.AsFocusable()
	}
	if f, ok := c.(Focusable); ok {
		return f, true
	}
	return nil, false
}
