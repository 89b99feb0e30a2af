// Package runtimectl schedules at most one run at a time against a
// RunProvider, bridging its callback-driven Run loop back into agentstate.App
// on a worker goroutine.
package runtimectl

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haasonsaas/codex-tui/internal/agentstate"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

// RenderRequester is the subset of the TUI runtime the controller needs to
// trigger a redraw or a teardown.
type RenderRequester interface {
	RequestRender()
	RequestStop()
}

type activeRun struct {
	runID  runprovider.RunID
	cancel runprovider.CancelSignal
}

// Controller owns run scheduling for one App: allocating run ids, spawning
// the worker goroutine that drives a RunProvider, and routing its events back
// through stale-run-filtered App callbacks.
type Controller struct {
	appMu sync.Mutex
	app   *agentstate.App

	render   RenderRequester
	provider runprovider.RunProvider
	executor func(runprovider.ToolCallRequest) runprovider.ToolResult

	nextRunID uint64

	runMu  sync.Mutex
	active *activeRun

	instructions string
}

// New returns a Controller driving app via provider, using executor to
// resolve tool calls the provider requests mid-run.
func New(app *agentstate.App, render RenderRequester, provider runprovider.RunProvider, executor func(runprovider.ToolCallRequest) runprovider.ToolResult, instructions string) *Controller {
	return &Controller{
		app:          app,
		render:       render,
		provider:     provider,
		executor:     executor,
		instructions: instructions,
	}
}

// StartRun implements agentstate.HostOps. It rejects a second concurrent run
// and otherwise allocates a run id, spawns a worker, and returns immediately.
func (c *Controller) StartRun(prompt string) (runprovider.RunID, error) {
	c.runMu.Lock()
	if c.active != nil {
		c.runMu.Unlock()
		return 0, fmt.Errorf("Run already active")
	}

	runID := runprovider.RunID(atomic.AddUint64(&c.nextRunID, 1))
	cancel := runprovider.NewCancelSignal()
	c.active = &activeRun{runID: runID, cancel: cancel}
	c.runMu.Unlock()

	go c.runWorker(runID, prompt, cancel)

	return runID, nil
}

// CancelRun implements agentstate.HostOps. Repeated cancels, or cancels
// against a run id that is not currently active, are no-ops.
func (c *Controller) CancelRun(runID runprovider.RunID) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.active != nil && c.active.runID == runID {
		c.active.cancel.Store(true)
	}
}

// WithApp takes the controller's single app mutex and invokes fn with the
// app, serializing the call against the run worker's postEvent and every
// other WithApp caller. Every App access outside the worker — the input
// goroutine's event dispatch and the render loop's reads — must go through
// this, so the UI thread, the input goroutine, and the worker all
// serialize on the one lock the spec requires App sit behind.
func (c *Controller) WithApp(fn func(*agentstate.App)) {
	c.appMu.Lock()
	defer c.appMu.Unlock()
	fn(c.app)
}

func (c *Controller) RequestRender() { c.render.RequestRender() }
func (c *Controller) RequestStop()   { c.render.RequestStop() }

func (c *Controller) CycleModel() (runprovider.ProviderProfile, error) {
	return c.provider.CycleModel()
}

func (c *Controller) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	return c.provider.CycleThinkingLevel()
}

func (c *Controller) runWorker(runID runprovider.RunID, prompt string, cancel runprovider.CancelSignal) {
	defer func() {
		if r := recover(); r != nil {
			c.postEvent(runprovider.NewFailed(runID, fmt.Sprintf("run worker panicked: %v", r)))
		}
		c.runMu.Lock()
		if c.active != nil && c.active.runID == runID {
			c.active = nil
		}
		c.runMu.Unlock()
		c.render.RequestRender()
	}()

	c.appMu.Lock()
	history := append([]runprovider.RunMessage(nil), c.app.RunHistory...)
	c.appMu.Unlock()

	req := runprovider.RunRequest{
		RunID:        runID,
		Prompt:       prompt,
		Instructions: c.instructions,
		History:      history,
	}

	_ = c.provider.Run(req, cancel, c.executor, func(event runprovider.RunEvent) {
		c.postEvent(event)
	})
}

// postEvent takes a short lock on the app, drops the event if it no longer
// matches the currently active run, applies it, then releases the lock and
// requests a render.
func (c *Controller) postEvent(event runprovider.RunEvent) {
	c.appMu.Lock()
	if active, ok := c.app.ActiveRunID(); !ok || active != event.RunID() {
		if _, isStarted := event.(runprovider.Started); !isStarted {
			c.appMu.Unlock()
			return
		}
	}
	switch e := event.(type) {
	case runprovider.Started:
		c.app.OnRunStarted(e.RunID())
	case runprovider.Chunk:
		c.app.OnRunChunk(e.RunID(), e.Text)
	case runprovider.ToolCallStarted:
		// surfaced to the transcript via the next Chunk/terminal event; no
		// App-level state change is needed here.
	case runprovider.Finished:
		c.app.OnRunFinished(e.RunID())
	case runprovider.Failed:
		c.app.OnRunFailed(e.RunID(), e.Error)
	case runprovider.Cancelled:
		c.app.OnRunCancelled(e.RunID())
	}
	c.appMu.Unlock()

	c.render.RequestRender()
}
