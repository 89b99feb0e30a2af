package runprovider

import "testing"

func TestRunIDReturnsEventRunID(t *testing.T) {
	const id RunID = 42
	events := []RunEvent{
		NewStarted(id),
		NewChunk(id, "partial"),
		NewToolCallStarted(id, ToolCallRequest{CallID: "c1", ToolName: "bash"}),
		NewFinished(id),
		NewFailed(id, "failure"),
		NewCancelled(id),
	}
	for _, e := range events {
		if e.RunID() != id {
			t.Fatalf("event %#v: RunID() = %v, want %v", e, e.RunID(), id)
		}
	}
}

func TestIsTerminalMatchesLifecycle(t *testing.T) {
	const id RunID = 1
	cases := []struct {
		event RunEvent
		want  bool
	}{
		{NewStarted(id), false},
		{NewChunk(id, "hello"), false},
		{NewToolCallStarted(id, ToolCallRequest{CallID: "c1", ToolName: "bash"}), false},
		{NewFinished(id), true},
		{NewFailed(id, "boom"), true},
		{NewCancelled(id), true},
	}
	for _, c := range cases {
		if got := c.event.IsTerminal(); got != c.want {
			t.Fatalf("%#v.IsTerminal() = %v, want %v", c.event, got, c.want)
		}
	}
}
