package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/haasonsaas/codex-tui/internal/agentstate"
	"github.com/haasonsaas/codex-tui/internal/codexconfig"
	"github.com/haasonsaas/codex-tui/internal/obs"
	"github.com/haasonsaas/codex-tui/internal/provider/anthropicnative"
	"github.com/haasonsaas/codex-tui/internal/provider/codexapi"
	"github.com/haasonsaas/codex-tui/internal/provider/mock"
	"github.com/haasonsaas/codex-tui/internal/provider/openaicompat"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/sessionlog"
)

// selectProvider resolves CODING_AGENT_PROVIDER's extended enum (mock |
// codex-api | openai | anthropic) into a concrete runprovider.RunProvider.
// name takes precedence over the environment variable; an empty result of
// both defaults to mock.
func selectProvider(name string) (runprovider.RunProvider, error) {
	if name == "" {
		name = os.Getenv("CODING_AGENT_PROVIDER")
	}
	if name == "" {
		name = mock.ProviderID
	}

	switch name {
	case mock.ProviderID:
		return mock.Default(), nil

	case "codex-api":
		configPath := os.Getenv("CODING_AGENT_CODEX_CONFIG_PATH")
		if configPath == "" {
			return nil, fmt.Errorf("provider codex-api requires CODING_AGENT_CODEX_CONFIG_PATH")
		}
		cfg, err := codexconfig.Load(configPath)
		if err != nil {
			return nil, err
		}
		clientCfg := codexapi.NewConfig(cfg.AccessToken, cfg.AccountID)
		if cfg.TimeoutSec > 0 {
			clientCfg.Timeout = time.Duration(cfg.TimeoutSec * float64(time.Second))
		}
		return codexapi.NewClientWithProfiles(clientCfg, cfg.Models, []*string{nil}), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("provider openai requires OPENAI_API_KEY")
		}
		return openaicompat.New(openaicompat.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		}), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("provider anthropic requires ANTHROPIC_API_KEY")
		}
		return anthropicnative.New(anthropicnative.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		}), nil

	default:
		return nil, fmt.Errorf("unknown provider %q (want mock, codex-api, openai, or anthropic)", name)
	}
}

// maxThinkingLevelCycles bounds applyDefaultThinkingLevel's search: every
// provider's thinking-level list is a short, wrapping cycle (the mock
// provider's default list has 2 entries), so a handful of cycles always
// either finds the requested level or proves it's wrapped back to the
// start without a match.
const maxThinkingLevelCycles = 8

// applyDefaultThinkingLevel cycles provider to the requested level, read
// from ".agent/config.yaml"'s default_thinking_level. RunProvider only
// exposes CycleThinkingLevel, not a direct setter, so this walks the
// provider's own cycle until the profile reports a match or the cycle
// count is exhausted; a level name the provider doesn't carry is silently
// left at whatever the provider started on, same as an unrecognized
// /thinking argument would be.
func applyDefaultThinkingLevel(provider runprovider.RunProvider, level string) {
	for i := 0; i < maxThinkingLevelCycles; i++ {
		profile := provider.Profile()
		if profile.ThinkingLevel != nil && *profile.ThinkingLevel == level {
			return
		}
		if _, err := provider.CycleThinkingLevel(); err != nil {
			return
		}
	}
}

// openSession either resumes an existing session log (--replay) or creates
// a fresh one rooted at workspaceRoot. Both branches are startup-time: any
// failure here is fatal before the terminal ever enters raw mode.
func openSession(replayPath, workspaceRoot string) (*sessionlog.Store, []runprovider.RunMessage, error) {
	if replayPath == "" {
		store, err := sessionlog.CreateNew(workspaceRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("create session: %w", err)
		}
		return store, nil, nil
	}

	store, err := sessionlog.Open(replayPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open session %s: %w", replayPath, err)
	}
	history, err := store.ReplayLeaf(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("replay session %s: %w", replayPath, err)
	}
	return store, history, nil
}

// transcriptFromReplay renders one replayed RunMessage as the transcript
// entries a live run would have produced, so a resumed session looks the
// same as one that had just happened.
func transcriptFromReplay(msg runprovider.RunMessage) []agentstate.Message {
	switch v := msg.(type) {
	case runprovider.UserText:
		return []agentstate.Message{{Role: agentstate.RoleUser, Content: v.Text}}
	case runprovider.AssistantText:
		return []agentstate.Message{{Role: agentstate.RoleAssistant, Content: v.Text}}
	case runprovider.ToolCall:
		return []agentstate.Message{{Role: agentstate.RoleSystem, Content: fmt.Sprintf("tool call: %s", v.ToolName)}}
	case runprovider.ToolResultMessage:
		return []agentstate.Message{{Role: agentstate.RoleSystem, Content: fmt.Sprintf("tool result: %s", v.ToolName)}}
	default:
		return nil
	}
}

// sessionRecordingProvider wraps a RunProvider the same way tape.Recorder
// does, except it fsync-durably appends every turn to a sessionlog.Store
// instead of an in-memory tape, and records run/tool metrics along the way.
type sessionRecordingProvider struct {
	inner   runprovider.RunProvider
	store   *sessionlog.Store
	metrics *obs.Metrics
}

func newSessionRecordingProvider(inner runprovider.RunProvider, store *sessionlog.Store, metrics *obs.Metrics) *sessionRecordingProvider {
	return &sessionRecordingProvider{inner: inner, store: store, metrics: metrics}
}

func (p *sessionRecordingProvider) Profile() runprovider.ProviderProfile {
	return p.inner.Profile()
}

func (p *sessionRecordingProvider) CycleModel() (runprovider.ProviderProfile, error) {
	profile, err := p.inner.CycleModel()
	if err == nil {
		p.metrics.RecordProviderCycle("model")
	}
	return profile, err
}

func (p *sessionRecordingProvider) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	profile, err := p.inner.CycleThinkingLevel()
	if err == nil {
		p.metrics.RecordProviderCycle("thinking")
	}
	return profile, err
}

// fatalSessionError panics with a descriptive message on a durable-log
// append failure. The run worker that invokes Run (runtimectl.Controller)
// already recovers panics into a Failed event for the active run, so this
// surfaces the failure to the user instead of silently dropping history —
// the append-failures-are-fatal contract, scoped to the one run in flight
// rather than the whole process.
func fatalSessionError(op string, err error) {
	panic(fmt.Errorf("session log %s failed: %w", op, err))
}

func (p *sessionRecordingProvider) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, executeTool func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	start := time.Now()
	profile := p.inner.Profile()
	status := "finished"

	if _, err := p.store.Append(sessionlog.UserTextEntry{Text: req.Prompt}); err != nil {
		fatalSessionError("append user turn", err)
	}

	var assistantText strings.Builder

	wrappedExecute := func(call runprovider.ToolCallRequest) runprovider.ToolResult {
		if _, err := p.store.Append(sessionlog.ToolCallEntry{
			CallID: call.CallID, ToolName: call.ToolName, Arguments: call.Arguments,
		}); err != nil {
			fatalSessionError("append tool call", err)
		}

		toolStart := time.Now()
		result := executeTool(call)
		toolStatus := "success"
		if result.IsError {
			toolStatus = "error"
		}
		p.metrics.RecordToolExecution(call.ToolName, toolStatus, time.Since(toolStart).Seconds())

		content, err := json.Marshal(result.Content)
		if err != nil {
			fatalSessionError("marshal tool result", err)
		}
		if _, err := p.store.Append(sessionlog.ToolResultEntry{
			CallID: result.CallID, ToolName: result.ToolName, Content: content, IsError: result.IsError,
		}); err != nil {
			fatalSessionError("append tool result", err)
		}

		return result
	}

	wrappedEmit := func(event runprovider.RunEvent) {
		switch e := event.(type) {
		case runprovider.Chunk:
			assistantText.WriteString(e.Text)
		case runprovider.Failed:
			status = "failed"
		case runprovider.Cancelled:
			status = "cancelled"
		}
		emit(event)
	}

	err := p.inner.Run(req, cancel, wrappedExecute, wrappedEmit)

	if assistantText.Len() > 0 {
		if _, appendErr := p.store.Append(sessionlog.AssistantTextEntry{Text: assistantText.String()}); appendErr != nil {
			fatalSessionError("append assistant turn", appendErr)
		}
	}

	p.metrics.RecordRun(profile.ProviderID, status, time.Since(start).Seconds())
	return err
}
