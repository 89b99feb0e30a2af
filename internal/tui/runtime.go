package tui

import (
	"fmt"
	"sort"
	"strings"
)

// Terminal is the raw I/O surface the runtime writes frames to and reads
// resize/input notifications from.
type Terminal interface {
	Start(onInput func(string), onResize func()) error
	Stop() error
	Write(data string)
	Columns() int
	Rows() int
}

// Runtime is the component tree + surface stack + renderer.
type Runtime struct {
	terminal Terminal

	components    map[ComponentID]Component
	nextComponent ComponentID

	root []ComponentID

	surfaces    []*surfaceState
	nextSurface surfaceID
	nextOrder   int

	explicitFocus  ComponentID
	effectiveFocus ComponentID
	hasFocus       bool

	lastFrame     []string
	dirty         bool
	started       bool
	stopRequested bool
}

// New returns a Runtime that will draw to terminal once Start is called.
func New(terminal Terminal) *Runtime {
	return &Runtime{
		terminal:   terminal,
		components: make(map[ComponentID]Component),
		dirty:      true,
	}
}

// RegisterComponent adds c to the registry and returns its stable id.
func (r *Runtime) RegisterComponent(c Component) ComponentID {
	r.nextComponent++
	id := r.nextComponent
	r.components[id] = c
	return id
}

// SetRoot replaces the root component list rendered beneath every surface.
func (r *Runtime) SetRoot(ids []ComponentID) {
	r.root = ids
	r.dirty = true
}

// SetFocus sets the fallback focus target used whenever no capturing
// surface is active.
func (r *Runtime) SetFocus(id ComponentID) {
	r.explicitFocus = id
	r.recomputeFocus()
}

// ShowSurface makes component id visible as a surface with the given
// options, returning a handle to toggle its visibility later.
func (r *Runtime) ShowSurface(id ComponentID, opts SurfaceOptions) SurfaceHandle {
	r.nextSurface++
	r.nextOrder++
	s := &surfaceState{
		id:        r.nextSurface,
		component: id,
		options:   opts,
		orderSeq:  r.nextOrder,
	}
	r.surfaces = append(r.surfaces, s)
	r.dirty = true
	r.recomputeFocus()
	return SurfaceHandle{runtime: r, id: s.id}
}

func (r *Runtime) setSurfaceHidden(id surfaceID, hidden bool) {
	for _, s := range r.surfaces {
		if s.id != id {
			continue
		}
		wasHidden := s.hidden
		s.hidden = hidden
		if wasHidden && !hidden {
			r.nextOrder++
			s.orderSeq = r.nextOrder
		}
		r.dirty = true
		r.recomputeFocus()
		return
	}
}

// topmostCapture returns the highest-orderSeq active surface with Capture
// input policy, if any.
func (r *Runtime) topmostCapture() (*surfaceState, bool) {
	var top *surfaceState
	for _, s := range r.surfaces {
		if s.hidden || s.options.InputPolicy != Capture {
			continue
		}
		if top == nil || s.orderSeq > top.orderSeq {
			top = s
		}
	}
	return top, top != nil
}

func (r *Runtime) recomputeFocus() {
	var next ComponentID
	if top, ok := r.topmostCapture(); ok {
		next = top.component
	} else {
		next = r.explicitFocus
	}

	if r.hasFocus && next == r.effectiveFocus {
		return
	}

	if r.hasFocus {
		if c, ok := r.components[r.effectiveFocus]; ok {
			if f, ok := asFocusable(c); ok {
				f.SetFocused(false)
			}
		}
	}
	if c, ok := r.components[next]; ok {
		if f, ok := asFocusable(c); ok {
			f.SetFocused(true)
		}
	}
	r.effectiveFocus = next
	r.hasFocus = true
}

// HandleInput routes text to whichever component currently owns effective
// focus: the topmost active Capture surface, or the explicit root focus if
// no surface is capturing.
func (r *Runtime) HandleInput(text string) {
	r.recomputeFocus()
	if c, ok := r.components[r.effectiveFocus]; ok {
		dispatchEvent(c, TextInput{Text: text})
	}
}

// Start begins terminal I/O: raw mode, input/resize callbacks wired to the
// runtime's own handlers.
func (r *Runtime) Start() error {
	if r.started {
		return nil
	}
	if err := r.terminal.Start(r.HandleInput, func() { r.dirty = true }); err != nil {
		return err
	}
	r.started = true
	return nil
}

// Stop tears the terminal back down: show cursor, disable bracketed paste,
// release raw mode.
func (r *Runtime) Stop() error {
	if !r.started {
		return nil
	}
	r.terminal.Write(teardownSequence)
	if err := r.terminal.Stop(); err != nil {
		return err
	}
	r.started = false
	return nil
}

const teardownSequence = "\x1b[?25h\x1b[?2004l"

// RequestRender marks the current frame dirty so the next RunOnce call
// redraws it. Satisfies runtimectl.RenderRequester.
func (r *Runtime) RequestRender() {
	r.dirty = true
}

// RequestStop records that the driving loop should tear the terminal down
// and exit after the current RunOnce. Satisfies runtimectl.RenderRequester.
func (r *Runtime) RequestStop() {
	r.stopRequested = true
}

// ShouldStop reports whether RequestStop has been called.
func (r *Runtime) ShouldStop() bool {
	return r.stopRequested
}

// RunOnce recomputes layout/focus and renders one frame if anything is
// dirty.
func (r *Runtime) RunOnce() {
	r.recomputeFocus()
	r.RenderIfNeeded()
}

// RenderIfNeeded diff-renders the current frame if the runtime is dirty.
func (r *Runtime) RenderIfNeeded() {
	if !r.dirty {
		return
	}
	r.render()
	r.dirty = false
}

func (r *Runtime) render() {
	cols, rows := r.terminal.Columns(), r.terminal.Rows()

	budgets := allocateBudgets(r.surfaces, cols, rows)
	sortedActive := make([]*surfaceState, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		if !s.hidden {
			sortedActive = append(sortedActive, s)
		}
	}
	sort.SliceStable(sortedActive, func(i, j int) bool { return sortedActive[i].orderSeq < sortedActive[j].orderSeq })

	for _, s := range sortedActive {
		budget := budgets[s.id]
		if c, ok := r.components[s.component]; ok {
			setViewport(c, budget.cols, budget.rows)
		}
	}

	var lines []string
	for _, id := range r.root {
		if c, ok := r.components[id]; ok {
			lines = append(lines, renderWidth(c, cols)...)
		}
	}
	for _, s := range sortedActive {
		budget := budgets[s.id]
		if budget.rows <= 0 {
			continue
		}
		if c, ok := r.components[s.component]; ok {
			lines = append(lines, renderWidth(c, budget.cols)...)
		}
	}

	r.writeDiff(lines)
	r.lastFrame = lines
}

// writeDiff emits only the lines that changed since the last frame, moving
// the cursor to each changed row rather than rewriting the whole screen.
func (r *Runtime) writeDiff(lines []string) {
	var b strings.Builder
	max := len(lines)
	if len(r.lastFrame) > max {
		max = len(r.lastFrame)
	}
	for i := 0; i < max; i++ {
		var next string
		if i < len(lines) {
			next = lines[i]
		}
		var prev string
		if i < len(r.lastFrame) {
			prev = r.lastFrame[i]
		}
		if next == prev {
			continue
		}
		fmt.Fprintf(&b, "\x1b[%d;1H\x1b[2K%s", i+1, next)
	}
	if b.Len() > 0 {
		r.terminal.Write(b.String())
	}
}
