package codexapi

import (
	"encoding/json"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messageItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type functionCallItem struct {
	Type      string          `json:"type"`
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type functionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// buildInputItems renders replayed history plus the new prompt into the
// Codex responses "input" array shape.
func buildInputItems(history []runprovider.RunMessage, prompt string) json.RawMessage {
	items := make([]any, 0, len(history)+1)
	for _, msg := range history {
		items = append(items, historyItem(msg))
	}
	items = append(items, messageItem{
		Type:    "message",
		Role:    "user",
		Content: []contentPart{{Type: "input_text", Text: prompt}},
	})

	encoded, err := json.Marshal(items)
	if err != nil {
		return json.RawMessage("[]")
	}
	return encoded
}

func historyItem(msg runprovider.RunMessage) any {
	switch m := msg.(type) {
	case runprovider.UserText:
		return messageItem{Type: "message", Role: "user", Content: []contentPart{{Type: "input_text", Text: m.Text}}}
	case runprovider.AssistantText:
		return messageItem{Type: "message", Role: "assistant", Content: []contentPart{{Type: "output_text", Text: m.Text}}}
	case runprovider.ToolCall:
		return functionCallItem{Type: "function_call", CallID: m.CallID, Name: m.ToolName, Arguments: m.Arguments}
	case runprovider.ToolResultMessage:
		return functionCallOutputItem{Type: "function_call_output", CallID: m.CallID, Output: m.Content}
	default:
		return messageItem{Type: "message", Role: "user", Content: nil}
	}
}

// appendToolResult appends a function_call and its function_call_output to
// a raw input-items array, used when continuing a run after executing a
// tool call the provider requested.
func appendToolResult(items json.RawMessage, call runprovider.ToolCallRequest, result runprovider.ToolResult) json.RawMessage {
	var decoded []json.RawMessage
	if err := json.Unmarshal(items, &decoded); err != nil {
		decoded = nil
	}

	callItem, _ := json.Marshal(functionCallItem{
		Type:      "function_call",
		CallID:    call.CallID,
		Name:      call.ToolName,
		Arguments: call.Arguments,
	})
	outputItem, _ := json.Marshal(functionCallOutputItem{
		Type:   "function_call_output",
		CallID: result.CallID,
		Output: result.Content,
	})

	decoded = append(decoded, callItem, outputItem)
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return items
	}
	return encoded
}
