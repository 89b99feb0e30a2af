// Package agentstate owns the in-memory conversation: transcript, submission
// history, the Idle/Running/Exiting mode machine, and slash-command dispatch.
// It never touches the filesystem or the network directly; all of that is
// reached through the HostOps it is given.
package agentstate

import (
	"fmt"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

// Role identifies who authored a transcript message.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleSystem
)

// Message is one entry in the transcript.
type Message struct {
	Role      Role
	Content   string
	Streaming bool
	RunID     *runprovider.RunID
}

// ModeKind discriminates the Mode tagged union.
type ModeKind int

const (
	ModeIdle ModeKind = iota
	ModeRunning
	ModeExiting
)

// Mode is the agent's finite state machine position. Only ModeRunning
// carries a RunID.
type Mode struct {
	Kind  ModeKind
	RunID runprovider.RunID
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeIdle:
		return "Idle"
	case ModeRunning:
		return fmt.Sprintf("Running{run_id: %d}", m.RunID)
	case ModeExiting:
		return "Exiting"
	default:
		return "Unknown"
	}
}

// HostOps is everything App needs from the runtime controller to start and
// cancel runs and to ask the TUI to redraw or stop.
type HostOps interface {
	StartRun(prompt string) (runprovider.RunID, error)
	CancelRun(runID runprovider.RunID)
	RequestRender()
	RequestStop()
	CycleModel() (runprovider.ProviderProfile, error)
	CycleThinkingLevel() (runprovider.ProviderProfile, error)
}

// AppAccessor serializes every access to an App behind its owner's single
// mutex. Anything that reads or mutates an App outside of the owner's own
// call stack — a TUI component dispatching input, a renderer reading the
// transcript — must go through WithApp rather than holding a *App directly,
// so concurrent callers (input goroutine, render loop, run worker) never
// race on the same fields.
type AppAccessor interface {
	WithApp(fn func(*App))
}

// App is the agent state machine.
type App struct {
	Input              string
	History            []string
	Transcript         []Message
	Mode               Mode
	ShouldExit         bool
	SystemInstructions string
	RunHistory         []runprovider.RunMessage
}

// New returns an idle App with an empty transcript.
func New() *App {
	return &App{Mode: Mode{Kind: ModeIdle}}
}

// OnInputReplace sets the current input buffer, as driven by the TUI's input
// component on every keystroke.
func (a *App) OnInputReplace(text string) {
	a.Input = text
}

// OnSubmit handles Enter on the current input: dispatches a slash command,
// rejects a submission while a run is active, or starts a new run.
func (a *App) OnSubmit(host HostOps) {
	text := a.Input
	a.Input = ""

	if cmd, ok := parseSlashCommand(text); ok {
		a.dispatchCommand(cmd, host)
		host.RequestRender()
		return
	}

	if a.Mode.Kind == ModeRunning {
		a.appendSystem(NoteRunInProgress)
		host.RequestRender()
		return
	}

	a.History = append(a.History, text)
	a.Transcript = append(a.Transcript, Message{Role: RoleUser, Content: text})
	a.RunHistory = append(a.RunHistory, runprovider.UserText{Text: text})

	runID, err := host.StartRun(text)
	if err != nil {
		a.appendSystem(noteRunFailed(err.Error()))
		host.RequestRender()
		return
	}

	a.Mode = Mode{Kind: ModeRunning, RunID: runID}
	host.RequestRender()
}

// OnCancel requests cancellation of the active run, or reports that there is
// none.
func (a *App) OnCancel(host HostOps) {
	if a.Mode.Kind == ModeRunning {
		host.CancelRun(a.Mode.RunID)
		return
	}
	a.appendSystem(NoteNoActiveRun)
	host.RequestRender()
}

func (a *App) dispatchCommand(cmd SlashCommand, host HostOps) {
	switch cmd.Name {
	case CmdHelp:
		a.appendSystem(NoteHelp)
	case CmdClear:
		a.Transcript = []Message{{Role: RoleSystem, Content: NoteTranscriptCleared}}
	case CmdCancel:
		a.OnCancel(host)
	case CmdQuit:
		a.Mode = Mode{Kind: ModeExiting}
		a.ShouldExit = true
		host.RequestStop()
	case CmdModel:
		profile, err := host.CycleModel()
		if err != nil {
			a.appendSystem(noteRunFailed(err.Error()))
			return
		}
		a.appendSystem(fmt.Sprintf("Model: %s", profile.ModelID))
	case CmdThinking:
		profile, err := host.CycleThinkingLevel()
		if err != nil {
			a.appendSystem(noteRunFailed(err.Error()))
			return
		}
		level := "default"
		if profile.ThinkingLevel != nil {
			level = *profile.ThinkingLevel
		}
		a.appendSystem(fmt.Sprintf("Thinking level: %s", level))
	default:
		a.appendSystem(noteUnknownCommand(cmd.Name))
	}
}

// OnRunStarted leaves the transcript and mode unchanged; the run's first
// chunk creates the streaming assistant message. Ignored if runID does not
// match the currently active run.
func (a *App) OnRunStarted(runID runprovider.RunID) {
	if !a.isActiveRun(runID) {
		return
	}
}

// OnRunChunk appends text to the trailing streaming assistant message for
// runID, creating one if this is the first chunk. Ignored for stale run ids.
func (a *App) OnRunChunk(runID runprovider.RunID, text string) {
	if !a.isActiveRun(runID) {
		return
	}

	if n := len(a.Transcript); n > 0 {
		last := &a.Transcript[n-1]
		if last.Role == RoleAssistant && last.Streaming && last.RunID != nil && *last.RunID == runID {
			last.Content += text
			a.RunHistory = append(a.RunHistory, runprovider.AssistantText{Text: text})
			return
		}
	}

	id := runID
	a.Transcript = append(a.Transcript, Message{Role: RoleAssistant, Content: text, Streaming: true, RunID: &id})
	a.RunHistory = append(a.RunHistory, runprovider.AssistantText{Text: text})
}

// OnRunFinished flips the trailing streaming assistant message to settled
// and returns the agent to Idle. Ignored for stale run ids.
func (a *App) OnRunFinished(runID runprovider.RunID) {
	if !a.isActiveRun(runID) {
		return
	}
	a.settleStreaming(runID)
	a.Mode = Mode{Kind: ModeIdle}
}

// OnRunFailed settles the run, appends a system failure note, and returns to
// Idle. Ignored for stale run ids.
func (a *App) OnRunFailed(runID runprovider.RunID, message string) {
	if !a.isActiveRun(runID) {
		return
	}
	a.settleStreaming(runID)
	a.appendSystem(noteRunFailed(message))
	a.Mode = Mode{Kind: ModeIdle}
}

// OnRunCancelled settles the run, appends a system cancellation note, and
// returns to Idle. Ignored for stale run ids.
func (a *App) OnRunCancelled(runID runprovider.RunID) {
	if !a.isActiveRun(runID) {
		return
	}
	a.settleStreaming(runID)
	a.appendSystem(noteRunCancelled)
	a.Mode = Mode{Kind: ModeIdle}
}

func (a *App) isActiveRun(runID runprovider.RunID) bool {
	return a.Mode.Kind == ModeRunning && a.Mode.RunID == runID
}

// ActiveRunID reports the run id currently in Mode Running, if any. Exposed
// so a bridge layer (e.g. runtimectl) can drop stale events before they ever
// reach an App callback, in addition to the filtering App itself applies.
func (a *App) ActiveRunID() (runprovider.RunID, bool) {
	if a.Mode.Kind != ModeRunning {
		return 0, false
	}
	return a.Mode.RunID, true
}

func (a *App) settleStreaming(runID runprovider.RunID) {
	if n := len(a.Transcript); n > 0 {
		last := &a.Transcript[n-1]
		if last.Role == RoleAssistant && last.RunID != nil && *last.RunID == runID {
			last.Streaming = false
		}
	}
}

func (a *App) appendSystem(content string) {
	a.Transcript = append(a.Transcript, Message{Role: RoleSystem, Content: content})
}
