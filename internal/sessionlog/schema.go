// Package sessionlog is the append-only, fsync-durable JSONL session log:
// one header line followed by a parent-linked DAG of entries, replayable
// leaf-to-root into a fresh run's history.
package sessionlog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is the only session header version this module accepts.
const SchemaVersion = 1

// SessionHeader is the mandatory first line of every session file.
type SessionHeader struct {
	RecordType string `json:"type"`
	Version    int    `json:"version"`
	SessionID  string `json:"session_id"`
	CreatedAt  string `json:"created_at"`
	Cwd        string `json:"cwd"`
}

func newHeader(sessionID, createdAt, cwd string) SessionHeader {
	return SessionHeader{
		RecordType: "session",
		Version:    SchemaVersion,
		SessionID:  sessionID,
		CreatedAt:  createdAt,
		Cwd:        cwd,
	}
}

// EntryKind is the tagged union of session entry payloads, discriminated by
// a "kind" field flattened alongside the entry's envelope fields.
type EntryKind interface {
	entryKindTag() string
}

type UserTextEntry struct{ Text string }
type AssistantTextEntry struct{ Text string }
type ToolCallEntry struct {
	CallID    string
	ToolName  string
	Arguments json.RawMessage
}
type ToolResultEntry struct {
	CallID   string
	ToolName string
	Content  json.RawMessage
	IsError  bool
}

func (UserTextEntry) entryKindTag() string      { return "user_text" }
func (AssistantTextEntry) entryKindTag() string { return "assistant_text" }
func (ToolCallEntry) entryKindTag() string      { return "tool_call" }
func (ToolResultEntry) entryKindTag() string    { return "tool_result" }

// SessionEntry is one line in the log after the header: an envelope plus a
// flattened EntryKind payload.
type SessionEntry struct {
	RecordType string
	ID         string
	ParentID   *string
	Ts         string
	Kind       EntryKind
}

type entryEnvelope struct {
	RecordType string  `json:"type"`
	ID         string  `json:"id"`
	ParentID   *string `json:"parent_id,omitempty"`
	Ts         string  `json:"ts"`
	Kind       string  `json:"kind"`

	Text      *string         `json:"text,omitempty"`
	CallID    *string         `json:"call_id,omitempty"`
	ToolName  *string         `json:"tool_name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`
}

// MarshalJSON flattens Kind's payload fields alongside the entry envelope.
func (e SessionEntry) MarshalJSON() ([]byte, error) {
	env := entryEnvelope{
		RecordType: "entry",
		ID:         e.ID,
		ParentID:   e.ParentID,
		Ts:         e.Ts,
		Kind:       e.Kind.entryKindTag(),
	}
	switch k := e.Kind.(type) {
	case UserTextEntry:
		env.Text = &k.Text
	case AssistantTextEntry:
		env.Text = &k.Text
	case ToolCallEntry:
		env.CallID = &k.CallID
		env.ToolName = &k.ToolName
		env.Arguments = k.Arguments
	case ToolResultEntry:
		env.CallID = &k.CallID
		env.ToolName = &k.ToolName
		env.Content = k.Content
		env.IsError = &k.IsError
	default:
		return nil, fmt.Errorf("sessionlog: unknown entry kind %T", e.Kind)
	}
	return json.Marshal(env)
}

// UnmarshalJSON expands the flattened envelope back into a SessionEntry,
// rejecting unknown top-level fields and unknown kind tags.
func (e *SessionEntry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var env entryEnvelope
	if err := dec.Decode(&env); err != nil {
		return err
	}
	if env.RecordType != "entry" {
		return fmt.Errorf("sessionlog: not an entry record")
	}

	e.RecordType = env.RecordType
	e.ID = env.ID
	e.ParentID = env.ParentID
	e.Ts = env.Ts

	switch env.Kind {
	case "user_text":
		if env.Text == nil {
			return fmt.Errorf("sessionlog: user_text entry missing text")
		}
		e.Kind = UserTextEntry{Text: *env.Text}
	case "assistant_text":
		if env.Text == nil {
			return fmt.Errorf("sessionlog: assistant_text entry missing text")
		}
		e.Kind = AssistantTextEntry{Text: *env.Text}
	case "tool_call":
		if env.CallID == nil || env.ToolName == nil {
			return fmt.Errorf("sessionlog: tool_call entry missing call_id/tool_name")
		}
		e.Kind = ToolCallEntry{CallID: *env.CallID, ToolName: *env.ToolName, Arguments: env.Arguments}
	case "tool_result":
		if env.CallID == nil || env.ToolName == nil || env.IsError == nil {
			return fmt.Errorf("sessionlog: tool_result entry missing required fields")
		}
		e.Kind = ToolResultEntry{CallID: *env.CallID, ToolName: *env.ToolName, Content: env.Content, IsError: *env.IsError}
	default:
		return fmt.Errorf("sessionlog: unknown entry kind %q", env.Kind)
	}
	return nil
}
