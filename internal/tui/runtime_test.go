package tui

import "testing"

type fakeTerminal struct {
	cols, rows int
	written    []string
}

func (f *fakeTerminal) Start(onInput func(string), onResize func()) error { return nil }
func (f *fakeTerminal) Stop() error                                      { return nil }
func (f *fakeTerminal) Write(data string)                                { f.written = append(f.written, data) }
func (f *fakeTerminal) Columns() int                                     { return f.cols }
func (f *fakeTerminal) Rows() int                                        { return f.rows }

type recordingComponent struct {
	name      string
	cols      int
	rows      int
	sized     bool
	events    []string
	focusLog  []bool
	focused   bool
}

func (c *recordingComponent) Render(width int) []string { return []string{c.name} }
func (c *recordingComponent) SetViewportSize(cols, rows int) {
	c.cols, c.rows, c.sized = cols, rows, true
}
func (c *recordingComponent) HandleEvent(event InputEvent) {
	switch e := event.(type) {
	case TextInput:
		c.events = append(c.events, "text:"+e.Text)
	case KeyInput:
		c.events = append(c.events, "key:"+e.Key)
	}
}
func (c *recordingComponent) SetFocused(focused bool) {
	c.focused = focused
	c.focusLog = append(c.focusLog, focused)
}
func (c *recordingComponent) IsFocused() bool { return c.focused }

func containsSubsequence(haystack []bool, needle []bool) bool {
	i := 0
	for _, v := range haystack {
		if i < len(needle) && v == needle[i] {
			i++
		}
	}
	return i == len(needle)
}

func TestTwoPassAllocationClampsToRemainingRowsOnSmallTerminal(t *testing.T) {
	term := &fakeTerminal{cols: 9, rows: 3}
	rt := New(term)

	toastA := rt.RegisterComponent(&recordingComponent{name: "toastA"})
	toastB := rt.RegisterComponent(&recordingComponent{name: "toastB"})
	drawer := rt.RegisterComponent(&recordingComponent{name: "drawer"})

	height3 := Absolute(3)
	rt.ShowSurface(toastA, SurfaceOptions{Kind: SurfaceToast, InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &height3}})
	rt.ShowSurface(toastB, SurfaceOptions{Kind: SurfaceToast, InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &height3}})
	rt.ShowSurface(drawer, SurfaceOptions{Kind: SurfaceDrawer, InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &height3}})

	budgets := allocateBudgets(rt.surfaces, 9, 3)

	if got := budgets[rt.surfaces[0].id].rows; got != 3 {
		t.Fatalf("toastA rows = %d, want 3", got)
	}
	if got := budgets[rt.surfaces[1].id].rows; got != 0 {
		t.Fatalf("toastB rows = %d, want 0", got)
	}
	if got := budgets[rt.surfaces[2].id].rows; got != 0 {
		t.Fatalf("drawer rows = %d, want 0", got)
	}
}

func TestHiddenSurfaceReshowMovesToBackOfActivationOrder(t *testing.T) {
	term := &fakeTerminal{cols: 10, rows: 10}
	rt := New(term)

	compA := rt.RegisterComponent(&recordingComponent{name: "a"})
	compB := rt.RegisterComponent(&recordingComponent{name: "b"})

	half := Percent(50)
	handleA := rt.ShowSurface(compA, SurfaceOptions{InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &half}})
	handleB := rt.ShowSurface(compB, SurfaceOptions{InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &half}})

	budgets := allocateBudgets(rt.surfaces, 10, 10)
	if budgets[rt.surfaces[0].id].rows != 5 || budgets[rt.surfaces[1].id].rows != 5 {
		t.Fatalf("expected even 5/5 split before hide, got %+v", budgets)
	}

	handleA.Hide()
	handleA.Show()

	if rt.surfaces[0].orderSeq <= rt.surfaces[1].orderSeq {
		t.Fatalf("reshowing a should move it after b in activation order")
	}
	_ = handleB
}

func TestResizeRecomputesBudgetDeterministically(t *testing.T) {
	compA := &recordingComponent{name: "a"}
	term := &fakeTerminal{cols: 10, rows: 3}
	rt := New(term)
	idA := rt.RegisterComponent(compA)
	full := Percent(100)
	rt.ShowSurface(idA, SurfaceOptions{InputPolicy: Passthrough, Layout: SurfaceLayout{MaxHeight: &full}})

	sizes := []int{3, 2, 3}
	for _, rows := range sizes {
		term.rows = rows
		rt.dirty = true
		rt.RunOnce()
		if compA.rows != rows {
			t.Fatalf("rows = %d, want %d", compA.rows, rows)
		}
	}
}

func TestCaptureDispatchGoesToTopmostActiveCaptureSurface(t *testing.T) {
	root := &recordingComponent{name: "root"}
	a := &recordingComponent{name: "a"}
	b := &recordingComponent{name: "b"}
	passthrough := &recordingComponent{name: "passthrough"}

	term := &fakeTerminal{cols: 20, rows: 20}
	rt := New(term)
	rootID := rt.RegisterComponent(root)
	idA := rt.RegisterComponent(a)
	idB := rt.RegisterComponent(b)
	idP := rt.RegisterComponent(passthrough)

	rt.SetRoot([]ComponentID{rootID})
	rt.SetFocus(rootID)

	rt.ShowSurface(idA, SurfaceOptions{InputPolicy: Capture})
	rt.ShowSurface(idB, SurfaceOptions{InputPolicy: Capture})
	rt.ShowSurface(idP, SurfaceOptions{InputPolicy: Passthrough})

	rt.HandleInput("x")
	if len(b.events) != 1 || b.events[0] != "text:x" {
		t.Fatalf("expected b to capture input, got a=%v b=%v p=%v", a.events, b.events, passthrough.events)
	}
	if len(a.events) != 0 || len(passthrough.events) != 0 {
		t.Fatalf("only the topmost capture surface should receive input")
	}
}

func TestFocusHandoffAcrossHideShowCycles(t *testing.T) {
	root := &recordingComponent{name: "root"}
	a := &recordingComponent{name: "a"}
	b := &recordingComponent{name: "b"}

	term := &fakeTerminal{cols: 20, rows: 20}
	rt := New(term)
	rootID := rt.RegisterComponent(root)
	idA := rt.RegisterComponent(a)
	idB := rt.RegisterComponent(b)
	rt.SetRoot([]ComponentID{rootID})
	rt.SetFocus(rootID)

	handleA := rt.ShowSurface(idA, SurfaceOptions{InputPolicy: Capture})
	handleB := rt.ShowSurface(idB, SurfaceOptions{InputPolicy: Capture})

	rt.HandleInput("1")
	handleB.Hide()
	rt.HandleInput("2")
	handleA.Hide()
	rt.HandleInput("3")
	handleB.Show()
	rt.HandleInput("4")

	if got := []string{"text:1"}; len(b.events) < 1 || b.events[0] != got[0] {
		t.Fatalf("b first event = %v, want %v", b.events, got)
	}
	if len(a.events) != 1 || a.events[0] != "text:2" {
		t.Fatalf("a events = %v, want [text:2]", a.events)
	}
	if len(root.events) != 1 || root.events[0] != "text:3" {
		t.Fatalf("root events = %v, want [text:3]", root.events)
	}
	if len(b.events) != 2 || b.events[1] != "text:4" {
		t.Fatalf("b events = %v, want [text:1 text:4]", b.events)
	}

	if !containsSubsequence(root.focusLog, []bool{true, false, true}) {
		t.Fatalf("root focus log %v missing [true false true]", root.focusLog)
	}
	if !containsSubsequence(b.focusLog, []bool{true, false, true}) {
		t.Fatalf("b focus log %v missing [true false true]", b.focusLog)
	}
}

func TestStopEmitsTeardownEscapes(t *testing.T) {
	term := &fakeTerminal{cols: 10, rows: 10}
	rt := New(term)
	if err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rt.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	found := false
	for _, w := range term.written {
		if w == teardownSequence {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected teardown sequence written, got %v", term.written)
	}
}
