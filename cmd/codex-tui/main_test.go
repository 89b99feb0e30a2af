package main

import (
	"testing"

	"github.com/haasonsaas/codex-tui/internal/agentstate"
	"github.com/haasonsaas/codex-tui/internal/provider/mock"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/tui"
)

func mockTextInput(s string) tui.InputEvent {
	return tui.TextInput{Text: s}
}

// directAccessor is a lock-free agentstate.AppAccessor for single-threaded
// tests, where there is no concurrent caller to serialize against.
type directAccessor struct {
	app *agentstate.App
}

func (d directAccessor) WithApp(fn func(*agentstate.App)) { fn(d.app) }

func TestBuildRootCmdRegistersFlags(t *testing.T) {
	cmd := buildRootCmd()
	required := []string{"workspace", "provider", "inline", "replay", "tail"}
	for _, name := range required {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected flag %q to be registered", name)
		}
	}
}

func TestSelectProviderDefaultsToMock(t *testing.T) {
	t.Setenv("CODING_AGENT_PROVIDER", "")
	provider, err := selectProvider("")
	if err != nil {
		t.Fatalf("selectProvider: %v", err)
	}
	if provider.Profile().ProviderID != mock.ProviderID {
		t.Fatalf("ProviderID = %q, want %q", provider.Profile().ProviderID, mock.ProviderID)
	}
}

func TestSelectProviderReadsEnvironmentWhenFlagEmpty(t *testing.T) {
	t.Setenv("CODING_AGENT_PROVIDER", "mock")
	provider, err := selectProvider("")
	if err != nil {
		t.Fatalf("selectProvider: %v", err)
	}
	if provider.Profile().ProviderID != mock.ProviderID {
		t.Fatalf("ProviderID = %q, want %q", provider.Profile().ProviderID, mock.ProviderID)
	}
}

func TestSelectProviderRejectsUnknownName(t *testing.T) {
	if _, err := selectProvider("carrier-pigeon"); err == nil {
		t.Fatalf("expected error for unknown provider name")
	}
}

func TestSelectProviderRequiresCodexConfigPath(t *testing.T) {
	t.Setenv("CODING_AGENT_CODEX_CONFIG_PATH", "")
	if _, err := selectProvider("codex-api"); err == nil {
		t.Fatalf("expected error when CODING_AGENT_CODEX_CONFIG_PATH is unset")
	}
}

func TestSelectProviderRequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := selectProvider("openai"); err == nil {
		t.Fatalf("expected error when OPENAI_API_KEY is unset")
	}
}

func TestSelectProviderRequiresAnthropicKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := selectProvider("anthropic"); err == nil {
		t.Fatalf("expected error when ANTHROPIC_API_KEY is unset")
	}
}

func TestApplyDefaultThinkingLevelCyclesToMatch(t *testing.T) {
	provider := mock.Default()
	start := provider.Profile()
	if start.ThinkingLevel == nil {
		t.Fatal("expected mock provider to start with a non-nil thinking level")
	}

	var target string
	for i := 0; i < maxThinkingLevelCycles; i++ {
		profile, err := provider.CycleThinkingLevel()
		if err != nil {
			t.Fatalf("CycleThinkingLevel: %v", err)
		}
		if profile.ThinkingLevel != nil && *profile.ThinkingLevel != *start.ThinkingLevel {
			target = *profile.ThinkingLevel
			break
		}
	}
	if target == "" {
		t.Skip("mock provider has only one thinking level; nothing to cycle to")
	}

	fresh := mock.Default()
	applyDefaultThinkingLevel(fresh, target)
	got := fresh.Profile()
	if got.ThinkingLevel == nil || *got.ThinkingLevel != target {
		t.Fatalf("ThinkingLevel = %v, want %q", got.ThinkingLevel, target)
	}
}

func TestApplyDefaultThinkingLevelIgnoresUnknownLevel(t *testing.T) {
	provider := mock.Default()
	before := provider.Profile()
	applyDefaultThinkingLevel(provider, "not-a-real-level")
	// Should stop after maxThinkingLevelCycles without matching; Profile()
	// still reports a valid, non-nil level from the provider's own cycle.
	after := provider.Profile()
	if after.ThinkingLevel == nil {
		t.Fatal("expected a non-nil thinking level after cycling")
	}
	_ = before
}

func TestWrapTextSplitsOnWidthAndNewlines(t *testing.T) {
	got := wrapText("abcdef\ngh", 3)
	want := []string{"abc", "def", "gh"}
	if len(got) != len(want) {
		t.Fatalf("wrapText = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wrapText[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTranscriptComponentClipsToAvailableRows(t *testing.T) {
	app := agentstate.New()
	for i := 0; i < 10; i++ {
		app.Transcript = append(app.Transcript, agentstate.Message{Role: agentstate.RoleUser, Content: "line"})
	}
	component := newTranscriptComponent(directAccessor{app}, func() int { return 4 })

	lines := component.Render(80)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3 (rows-1)", len(lines))
	}
}

type fakeHost struct {
	submittedPrompt string
	runID           runprovider.RunID
	cancelled       bool
}

func (h *fakeHost) StartRun(prompt string) (runprovider.RunID, error) {
	h.submittedPrompt = prompt
	return h.runID, nil
}
func (h *fakeHost) CancelRun(runprovider.RunID)                                    { h.cancelled = true }
func (h *fakeHost) RequestRender()                                                 {}
func (h *fakeHost) RequestStop()                                                   {}
func (h *fakeHost) CycleModel() (runprovider.ProviderProfile, error)               { return runprovider.ProviderProfile{}, nil }
func (h *fakeHost) CycleThinkingLevel() (runprovider.ProviderProfile, error)        { return runprovider.ProviderProfile{}, nil }

func TestInputComponentSubmitsBufferedTextOnEnter(t *testing.T) {
	app := agentstate.New()
	host := &fakeHost{runID: 7}
	input := newInputComponent(directAccessor{app}, host)

	input.HandleEvent(mockTextInput("fix the bug\r"))

	if host.submittedPrompt != "fix the bug" {
		t.Fatalf("submittedPrompt = %q, want %q", host.submittedPrompt, "fix the bug")
	}
	if len(input.buffer) != 0 {
		t.Fatalf("buffer = %q, want empty after submit", string(input.buffer))
	}
}

func TestInputComponentBackspaceErasesLastRune(t *testing.T) {
	app := agentstate.New()
	host := &fakeHost{}
	input := newInputComponent(directAccessor{app}, host)

	input.HandleEvent(mockTextInput("abc"))
	input.HandleEvent(mockTextInput("\x7f"))

	if string(input.buffer) != "ab" {
		t.Fatalf("buffer = %q, want %q", string(input.buffer), "ab")
	}
}

func TestInputComponentCtrlCCancelsActiveRun(t *testing.T) {
	app := agentstate.New()
	app.Mode = agentstate.Mode{Kind: agentstate.ModeRunning, RunID: 3}
	host := &fakeHost{}
	input := newInputComponent(directAccessor{app}, host)

	input.HandleEvent(mockTextInput("\x03"))

	if !host.cancelled {
		t.Fatalf("expected CancelRun to be called")
	}
}
