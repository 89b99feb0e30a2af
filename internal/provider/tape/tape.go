// Package tape provides recording and replay of RunEvent streams, so a run
// against a real provider can be captured once and replayed deterministically
// in tests or demos without making another network call.
package tape

import (
	"encoding/json"
	"time"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

// Tape is a complete recording of one run: the request that produced it and
// the ordered sequence of events the provider emitted.
type Tape struct {
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Profile   string          `json:"profile,omitempty"`
	Request   requestSnapshot `json:"request"`
	Events    []Event         `json:"events"`
}

type requestSnapshot struct {
	Prompt       string `json:"prompt"`
	Instructions string `json:"instructions,omitempty"`
}

// Event is a serializable snapshot of one runprovider.RunEvent.
type Event struct {
	Kind   string            `json:"kind"`
	RunID  runprovider.RunID `json:"run_id"`
	Text   string            `json:"text,omitempty"`
	Error  string            `json:"error,omitempty"`
	CallID string            `json:"call_id,omitempty"`
	Tool   string            `json:"tool,omitempty"`
	Args   json.RawMessage   `json:"arguments,omitempty"`
}

func fromRunEvent(e runprovider.RunEvent) Event {
	out := Event{RunID: e.RunID()}
	switch v := e.(type) {
	case runprovider.Started:
		out.Kind = "started"
	case runprovider.Chunk:
		out.Kind = "chunk"
		out.Text = v.Text
	case runprovider.ToolCallStarted:
		out.Kind = "tool_call_started"
		out.CallID = v.Call.CallID
		out.Tool = v.Call.ToolName
		out.Args = v.Call.Arguments
	case runprovider.Finished:
		out.Kind = "finished"
	case runprovider.Failed:
		out.Kind = "failed"
		out.Error = v.Error
	case runprovider.Cancelled:
		out.Kind = "cancelled"
	}
	return out
}

func (e Event) toRunEvent() runprovider.RunEvent {
	switch e.Kind {
	case "started":
		return runprovider.NewStarted(e.RunID)
	case "chunk":
		return runprovider.NewChunk(e.RunID, e.Text)
	case "tool_call_started":
		return runprovider.NewToolCallStarted(e.RunID, runprovider.ToolCallRequest{
			CallID: e.CallID, ToolName: e.Tool, Arguments: e.Args,
		})
	case "finished":
		return runprovider.NewFinished(e.RunID)
	case "failed":
		return runprovider.NewFailed(e.RunID, e.Error)
	case "cancelled":
		return runprovider.NewCancelled(e.RunID)
	default:
		return runprovider.NewFailed(e.RunID, "unknown tape event kind: "+e.Kind)
	}
}

// Recorder wraps a RunProvider and captures every event it emits into a Tape.
type Recorder struct {
	inner runprovider.RunProvider
	tape  *Tape
}

// NewRecorder wraps inner so that the next call to Run is captured into a
// fresh Tape, returned once Run completes via Tape().
func NewRecorder(inner runprovider.RunProvider) *Recorder {
	return &Recorder{inner: inner}
}

func (r *Recorder) Profile() runprovider.ProviderProfile           { return r.inner.Profile() }
func (r *Recorder) CycleModel() (runprovider.ProviderProfile, error) { return r.inner.CycleModel() }
func (r *Recorder) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	return r.inner.CycleThinkingLevel()
}

func (r *Recorder) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, executeTool func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	profile := r.inner.Profile()
	recorded := &Tape{
		Version:   "1.0",
		CreatedAt: time.Now(),
		Profile:   profile.ProviderID + "/" + profile.ModelID,
		Request:   requestSnapshot{Prompt: req.Prompt, Instructions: req.Instructions},
	}
	r.tape = recorded

	wrappedEmit := func(e runprovider.RunEvent) {
		recorded.Events = append(recorded.Events, fromRunEvent(e))
		emit(e)
	}
	return r.inner.Run(req, cancel, executeTool, wrappedEmit)
}

// Tape returns the most recently recorded tape, or nil if Run has not been
// called yet.
func (r *Recorder) Tape() *Tape {
	return r.tape
}

// Player is a RunProvider that replays a fixed Tape instead of contacting a
// real backend. Tool calls are emitted but not dispatched to executeTool,
// since the recorded events already encode whatever the original run decided.
type Player struct {
	tape *Tape
}

// NewPlayer returns a Player that replays tape on every call to Run.
func NewPlayer(tape *Tape) *Player {
	return &Player{tape: tape}
}

func (p *Player) Profile() runprovider.ProviderProfile {
	return runprovider.ProviderProfile{ProviderID: "tape", ModelID: p.tape.Profile}
}

func (p *Player) CycleModel() (runprovider.ProviderProfile, error) {
	return p.Profile(), nil
}

func (p *Player) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	return p.Profile(), nil
}

func (p *Player) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, _ func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	for _, e := range p.tape.Events {
		if cancel.Load() {
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		}
		re := e
		re.RunID = req.RunID
		emit(re.toRunEvent())
	}
	return nil
}

// Marshal serializes the tape to indented JSON.
func (t *Tape) Marshal() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Unmarshal deserializes a tape from JSON.
func Unmarshal(data []byte) (*Tape, error) {
	var t Tape
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
