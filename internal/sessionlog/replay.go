package sessionlog

import (
	"encoding/json"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

// ReplayLeaf walks the parent chain from targetLeaf (or the current leaf,
// if nil) back to the root, then returns the chain root-to-leaf as
// RunMessages ready to seed a fresh run's history. A session with no
// entries and no explicit targetLeaf replays to an empty history.
func (s *Store) ReplayLeaf(targetLeaf *string) ([]runprovider.RunMessage, error) {
	var startLeafID string
	switch {
	case targetLeaf != nil:
		startLeafID = *targetLeaf
	case s.currentLeafID != nil:
		startLeafID = *s.currentLeafID
	default:
		return nil, nil
	}

	if _, ok := s.indexByID[startLeafID]; !ok {
		return nil, &Error{Kind: KindUnknownLeafID, Path: s.path, LeafID: startLeafID}
	}

	var chainIndices []int
	visited := make(map[string]bool)
	cursor := &startLeafID

	for cursor != nil {
		entryID := *cursor
		if visited[entryID] {
			return nil, &Error{Kind: KindReplayCycle, Path: s.path, LeafID: startLeafID}
		}
		visited[entryID] = true

		index, ok := s.indexByID[entryID]
		if !ok {
			return nil, &Error{Kind: KindUnknownLeafID, Path: s.path, LeafID: entryID}
		}
		chainIndices = append(chainIndices, index)
		cursor = s.entries[index].ParentID
	}

	for i, j := 0, len(chainIndices)-1; i < j; i, j = i+1, j-1 {
		chainIndices[i], chainIndices[j] = chainIndices[j], chainIndices[i]
	}

	messages := make([]runprovider.RunMessage, 0, len(chainIndices))
	for _, index := range chainIndices {
		messages = append(messages, entryToRunMessage(s.entries[index]))
	}
	return messages, nil
}

func entryToRunMessage(entry SessionEntry) runprovider.RunMessage {
	switch k := entry.Kind.(type) {
	case UserTextEntry:
		return runprovider.UserText{Text: k.Text}
	case AssistantTextEntry:
		return runprovider.AssistantText{Text: k.Text}
	case ToolCallEntry:
		return runprovider.ToolCall{CallID: k.CallID, ToolName: k.ToolName, Arguments: k.Arguments}
	case ToolResultEntry:
		var text string
		if err := json.Unmarshal(k.Content, &text); err != nil {
			text = string(k.Content)
		}
		return runprovider.ToolResultMessage{
			CallID:   k.CallID,
			ToolName: k.ToolName,
			Content:  text,
			IsError:  k.IsError,
		}
	default:
		return runprovider.AssistantText{Text: ""}
	}
}
