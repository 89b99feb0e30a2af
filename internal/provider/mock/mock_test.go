package mock

import (
	"testing"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

func TestRunEmitsStartedChunksThenFinished(t *testing.T) {
	p := New([]string{"hello world\n"})
	cancel := runprovider.NewCancelSignal()

	var events []runprovider.RunEvent
	emit := func(e runprovider.RunEvent) { events = append(events, e) }

	err := p.Run(runprovider.RunRequest{RunID: 1, Prompt: "hi"}, cancel, nil, emit)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(events) < 2 {
		t.Fatalf("expected at least Started+Finished, got %d events", len(events))
	}
	if _, ok := events[0].(runprovider.Started); !ok {
		t.Fatalf("first event = %T, want Started", events[0])
	}
	if _, ok := events[len(events)-1].(runprovider.Finished); !ok {
		t.Fatalf("last event = %T, want Finished", events[len(events)-1])
	}

	var text string
	for _, e := range events {
		if c, ok := e.(runprovider.Chunk); ok {
			text += c.Text
		}
	}
	if text != "hello world\n" {
		t.Fatalf("reassembled chunks = %q, want %q", text, "hello world\n")
	}
}

func TestRunRespectsCancelBeforeStart(t *testing.T) {
	p := New([]string{"never sent"})
	cancel := runprovider.NewCancelSignal()
	cancel.Store(true)

	var events []runprovider.RunEvent
	_ = p.Run(runprovider.RunRequest{RunID: 7}, cancel, nil, func(e runprovider.RunEvent) {
		events = append(events, e)
	})

	if len(events) != 2 {
		t.Fatalf("expected Started+Cancelled only, got %d events", len(events))
	}
	if _, ok := events[1].(runprovider.Cancelled); !ok {
		t.Fatalf("second event = %T, want Cancelled", events[1])
	}
}

func TestCycleModelAndThinkingLevelWrapAround(t *testing.T) {
	balanced := "balanced"
	deep := "deep"
	p := WithProfileOptions(nil, []string{"a", "b"}, []*string{&balanced, &deep})

	first := p.Profile()
	second, err := p.CycleModel()
	if err != nil {
		t.Fatalf("CycleModel: %v", err)
	}
	if second.ModelID == first.ModelID {
		t.Fatalf("expected model to change after cycling")
	}
	third, err := p.CycleModel()
	if err != nil {
		t.Fatalf("CycleModel: %v", err)
	}
	if third.ModelID != first.ModelID {
		t.Fatalf("expected model cycling to wrap around, got %q", third.ModelID)
	}

	thinkSecond, err := p.CycleThinkingLevel()
	if err != nil {
		t.Fatalf("CycleThinkingLevel: %v", err)
	}
	if *thinkSecond.ThinkingLevel == *first.ThinkingLevel {
		t.Fatalf("expected thinking level to change after cycling")
	}
	thinkThird, err := p.CycleThinkingLevel()
	if err != nil {
		t.Fatalf("CycleThinkingLevel: %v", err)
	}
	if *thinkThird.ThinkingLevel != *first.ThinkingLevel {
		t.Fatalf("expected thinking-level cycling to wrap around, got %q", *thinkThird.ThinkingLevel)
	}
}

func TestSanitizeFallsBackWhenAllBlank(t *testing.T) {
	p := WithProfileOptions(nil, []string{"  ", ""}, []*string{nil})
	profile := p.Profile()
	if profile.ModelID != "mock" {
		t.Fatalf("ModelID = %q, want fallback %q", profile.ModelID, "mock")
	}
	if profile.ThinkingLevel == nil || *profile.ThinkingLevel != "balanced" {
		t.Fatalf("ThinkingLevel = %v, want fallback balanced", profile.ThinkingLevel)
	}
}
