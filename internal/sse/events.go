// Package sse implements an incremental Server-Sent-Events frame parser for
// the Codex Responses streaming protocol, normalizing deltas, tool-call
// items, and terminal status into a provider-neutral event stream.
package sse

import "encoding/json"

// ResponseStatus is the canonical terminal state mapped from Codex responses.
type ResponseStatus string

const (
	StatusCompleted  ResponseStatus = "completed"
	StatusIncomplete ResponseStatus = "incomplete"
	StatusFailed     ResponseStatus = "failed"
	StatusCancelled  ResponseStatus = "cancelled"
	StatusQueued     ResponseStatus = "queued"
	StatusInProgress ResponseStatus = "in_progress"
)

// ParseStatus maps a raw status string to a ResponseStatus, returning ok=false
// for anything outside the known vocabulary.
func ParseStatus(value string) (ResponseStatus, bool) {
	switch ResponseStatus(value) {
	case StatusCompleted, StatusIncomplete, StatusFailed, StatusCancelled, StatusQueued, StatusInProgress:
		return ResponseStatus(value), true
	default:
		return "", false
	}
}

// Event is the tagged-union of stream events the parser emits. Each variant
// below implements it; callers type-switch on the concrete type.
type Event interface {
	eventKind() string
}

// OutputTextDelta is a chunk of assistant output text.
type OutputTextDelta struct {
	Delta string
}

// ReasoningSummaryTextDelta is a chunk of reasoning-summary text.
type ReasoningSummaryTextDelta struct {
	Delta string
}

// OutputItemDone reports completion of a single output item.
type OutputItemDone struct {
	ID     *string
	Status *ResponseStatus
}

// ToolCallRequested is emitted immediately after an OutputItemDone whose item
// type is "function_call". Arguments preserves the raw JSON value verbatim,
// even when it is not a JSON object.
type ToolCallRequested struct {
	ID        *string
	CallID    *string
	ToolName  *string
	Arguments json.RawMessage
}

// ResponseCompleted marks the end of a successful response.
type ResponseCompleted struct {
	Status *ResponseStatus
}

// ResponseFailed marks the end of a failed response.
type ResponseFailed struct {
	Message *string
}

// ErrorEvent is a standalone error frame, distinct from ResponseFailed.
type ErrorEvent struct {
	Code    *string
	Message *string
}

// UnknownEvent preserves any event type the parser does not recognize,
// verbatim, for forward compatibility with the upstream schema.
type UnknownEvent struct {
	EventType string
	Payload   json.RawMessage
}

func (OutputTextDelta) eventKind() string           { return string(EventOutputTextDelta) }
func (ReasoningSummaryTextDelta) eventKind() string { return string(EventReasoningSummaryTextDelta) }
func (OutputItemDone) eventKind() string            { return string(EventOutputItemDone) }
func (ToolCallRequested) eventKind() string         { return string(EventToolCallRequested) }
func (ResponseCompleted) eventKind() string         { return string(EventResponseCompleted) }
func (ResponseFailed) eventKind() string            { return string(EventResponseFailed) }
func (ErrorEvent) eventKind() string                { return string(EventError) }
func (UnknownEvent) eventKind() string              { return string(EventUnknown) }

// EventType names the concrete variant of an Event, mirroring the upstream
// JSON "type" discriminant.
type EventType string

const (
	EventOutputTextDelta           EventType = "response.output_text.delta"
	EventReasoningSummaryTextDelta EventType = "response.reasoning_summary_text.delta"
	EventOutputItemDone            EventType = "response.output_item.done"
	EventToolCallRequested         EventType = "response.output_item.function_call"
	EventResponseCompleted         EventType = "response.completed"
	EventResponseFailed            EventType = "response.failed"
	EventError                     EventType = "error"
	EventUnknown                   EventType = "unknown"
)
