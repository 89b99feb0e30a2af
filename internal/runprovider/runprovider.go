// Package runprovider defines the provider-agnostic contract for executing
// a single model run: the request/event/message shapes every concrete
// provider and the runtime controller agree on. It carries no transport,
// protocol, or tool-sandboxing details.
package runprovider

import (
	"encoding/json"
	"sync/atomic"
)

// RunID identifies one provider run. The runtime controller hands these out
// as a monotonically increasing counter.
type RunID uint64

// CancelSignal is a shared cancellation flag for a run, polled by the
// provider between emitted events.
type CancelSignal = *atomic.Bool

// NewCancelSignal returns a fresh, unset CancelSignal.
func NewCancelSignal() CancelSignal {
	return &atomic.Bool{}
}

// RunRequest is the input required to start a provider run.
type RunRequest struct {
	RunID        RunID
	Prompt       string
	Instructions string
	History      []RunMessage
}

// ToolCallRequest is a provider-issued request to execute a tool, routed
// through the runtime controller to the tool executor.
type ToolCallRequest struct {
	CallID    string
	ToolName  string
	Arguments json.RawMessage
}

// ToolResult is the outcome of executing a ToolCallRequest, fed back to the
// provider so it can continue the run.
type ToolResult struct {
	CallID   string
	ToolName string
	Content  string
	IsError  bool
}

// ErrorToolResult builds a ToolResult carrying an error message as content.
func ErrorToolResult(callID, toolName, message string) ToolResult {
	return ToolResult{CallID: callID, ToolName: toolName, Content: message, IsError: true}
}

// RunEvent is the tagged union of lifecycle events a provider emits while
// executing a run. Implementations are Started, Chunk, ToolCallStarted, Finished,
// Failed, and Cancelled.
type RunEvent interface {
	RunID() RunID
	IsTerminal() bool
}

// Started marks the beginning of a run.
type Started struct{ runID RunID }

// Chunk carries a partial piece of assistant output text.
type Chunk struct {
	runID RunID
	Text  string
}

// ToolCallStarted reports a tool call the provider has requested.
type ToolCallStarted struct {
	runID RunID
	Call  ToolCallRequest
}

// Finished marks successful completion of a run.
type Finished struct{ runID RunID }

// Failed marks a run ending in error.
type Failed struct {
	runID RunID
	Error string
}

// Cancelled marks a run that stopped because its CancelSignal was set.
type Cancelled struct{ runID RunID }

func NewStarted(id RunID) Started   { return Started{runID: id} }
func NewFinished(id RunID) Finished { return Finished{runID: id} }
func NewCancelled(id RunID) Cancelled {
	return Cancelled{runID: id}
}
func NewChunk(id RunID, text string) Chunk { return Chunk{runID: id, Text: text} }
func NewFailed(id RunID, message string) Failed {
	return Failed{runID: id, Error: message}
}
func NewToolCallStarted(id RunID, call ToolCallRequest) ToolCallStarted {
	return ToolCallStarted{runID: id, Call: call}
}

func (e Started) RunID() RunID         { return e.runID }
func (e Chunk) RunID() RunID           { return e.runID }
func (e ToolCallStarted) RunID() RunID { return e.runID }
func (e Finished) RunID() RunID        { return e.runID }
func (e Failed) RunID() RunID          { return e.runID }
func (e Cancelled) RunID() RunID       { return e.runID }

func (e Started) IsTerminal() bool         { return false }
func (e Chunk) IsTerminal() bool           { return false }
func (e ToolCallStarted) IsTerminal() bool { return false }
func (e Finished) IsTerminal() bool        { return true }
func (e Failed) IsTerminal() bool          { return true }
func (e Cancelled) IsTerminal() bool       { return true }

// ProviderProfile is immutable metadata describing a run provider's current
// selection.
type ProviderProfile struct {
	ProviderID    string
	ModelID       string
	ThinkingLevel *string
}

// RunProvider executes run requests and exposes profile-cycling hooks for
// the /model and /thinking slash commands.
type RunProvider interface {
	Profile() ProviderProfile
	CycleModel() (ProviderProfile, error)
	CycleThinkingLevel() (ProviderProfile, error)

	// Run executes req, polling cancel between emitted events, routing any
	// tool calls through executeTool, and reporting lifecycle events through
	// emit in provider order. Run itself never returns a terminal RunEvent
	// through its error return; emit is always the lifecycle's source of
	// truth, and Run's error return is reserved for contract violations the
	// caller cannot recover from mid-stream.
	Run(req RunRequest, cancel CancelSignal, executeTool func(ToolCallRequest) ToolResult, emit func(RunEvent)) error
}

// RunMessage is the tagged union of conversation turns replayed from a
// session log back into a fresh run's history.
type RunMessage interface {
	runMessageKind() string
}

type UserText struct{ Text string }
type AssistantText struct{ Text string }
type ToolCall struct {
	CallID    string
	ToolName  string
	Arguments json.RawMessage
}
type ToolResultMessage struct {
	CallID   string
	ToolName string
	Content  string
	IsError  bool
}

func (UserText) runMessageKind() string          { return "user_text" }
func (AssistantText) runMessageKind() string     { return "assistant_text" }
func (ToolCall) runMessageKind() string          { return "tool_call" }
func (ToolResultMessage) runMessageKind() string { return "tool_result" }
