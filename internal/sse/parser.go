package sse

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Parser is a stateful byte-in/event-out SSE frame parser. Feed may be
// called with arbitrarily split byte chunks, including chunks that split a
// multibyte UTF-8 sequence mid-frame; incomplete trailing bytes are retained
// across calls.
type Parser struct {
	buffer []byte
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed extends the internal buffer and drains any complete frames, returning
// the events they map to in order.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buffer = append(p.buffer, chunk...)

	var events []Event
	for {
		split, sepLen, ok := findFrameSeparator(p.buffer)
		if !ok {
			break
		}
		frame := p.buffer[:split]
		p.buffer = p.buffer[split+sepLen:]

		payload, ok := extractDataPayload(frame)
		if !ok {
			continue
		}
		if payload == "[DONE]" || payload == "" {
			continue
		}

		var value map[string]any
		if err := json.Unmarshal([]byte(payload), &value); err != nil {
			continue
		}
		events = append(events, mapEvent(payload, value)...)
	}
	return events
}

// ParseFrames parses a complete SSE payload in one shot; a convenience for
// tests and for replaying a recorded tape.
func ParseFrames(input string) []Event {
	p := NewParser()
	return p.Feed([]byte(input))
}

// IsEmptyBuffer reports whether the retained buffer holds only whitespace,
// i.e. no partial frame is pending.
func (p *Parser) IsEmptyBuffer() bool {
	for _, b := range p.buffer {
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			return false
		}
	}
	return true
}

// findFrameSeparator returns the index and length of the first "\n\n" or
// "\r\n\r\n" in buffer, scanning \r\n\r\n before \n\n so the stricter form
// wins when both would match at the same offset.
func findFrameSeparator(buffer []byte) (split int, sepLen int, ok bool) {
	idxLF := bytes.Index(buffer, []byte("\n\n"))
	idxCRLF := bytes.Index(buffer, []byte("\r\n\r\n"))
	switch {
	case idxCRLF == -1 && idxLF == -1:
		return 0, 0, false
	case idxCRLF == -1:
		return idxLF, 2, true
	case idxLF == -1:
		return idxCRLF, 4, true
	case idxCRLF <= idxLF:
		return idxCRLF, 4, true
	default:
		return idxLF, 2, true
	}
}

func extractDataPayload(frame []byte) (string, bool) {
	var lines []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		rest, found := strings.CutPrefix(line, "data:")
		if !found {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}
		lines = append(lines, rest)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func mapEvent(rawPayload string, value map[string]any) []Event {
	eventType, _ := value["type"].(string)
	if eventType == "" {
		return nil
	}

	switch eventType {
	case string(EventOutputTextDelta):
		delta, _ := value["delta"].(string)
		return []Event{OutputTextDelta{Delta: delta}}

	case string(EventReasoningSummaryTextDelta):
		delta, _ := value["delta"].(string)
		return []Event{ReasoningSummaryTextDelta{Delta: delta}}

	case "response.output_item.done":
		item, _ := value["item"].(map[string]any)
		id := stringPtr(item, "id")
		status := statusPtr(item, "status")

		events := []Event{OutputItemDone{ID: id, Status: status}}

		if itemType, _ := item["type"].(string); itemType == "function_call" {
			callID := stringPtr(item, "call_id")
			toolName := stringPtr(item, "name")
			argsJSON := rawValue(item, "arguments")
			events = append(events, ToolCallRequested{
				ID:        id,
				CallID:    callID,
				ToolName:  toolName,
				Arguments: argsJSON,
			})
		}
		return events

	case "response.completed", "response.done":
		response, _ := value["response"].(map[string]any)
		status := statusPtr(response, "status")
		return []Event{ResponseCompleted{Status: status}}

	case string(EventResponseFailed):
		response, _ := value["response"].(map[string]any)
		var message *string
		if errObj, ok := response["error"].(map[string]any); ok {
			message = nonEmptyStringPtr(errObj, "message")
		}
		return []Event{ResponseFailed{Message: message}}

	case string(EventError):
		code := nonEmptyStringPtr(value, "code")
		message := nonEmptyStringPtr(value, "message")
		if message == nil && code == nil {
			if reserialized, err := json.Marshal(value); err == nil {
				s := string(reserialized)
				message = &s
			}
		}
		return []Event{ErrorEvent{Code: code, Message: message}}

	default:
		return []Event{UnknownEvent{EventType: eventType, Payload: json.RawMessage(rawPayload)}}
	}
}

func stringPtr(m map[string]any, key string) *string {
	v, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func nonEmptyStringPtr(m map[string]any, key string) *string {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func statusPtr(m map[string]any, key string) *ResponseStatus {
	raw, ok := m[key].(string)
	if !ok {
		return nil
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return nil
	}
	return &status
}

// rawValue re-marshals an arbitrary decoded JSON value back to its raw form,
// preserving non-object/non-string shapes (numbers, booleans) verbatim, the
// way the arguments field must survive untouched for downstream decisions.
func rawValue(m map[string]any, key string) json.RawMessage {
	v, ok := m[key]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return encoded
}
