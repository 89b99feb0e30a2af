package codexapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/haasonsaas/codex-tui/internal/retrypolicy"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/sse"
)

// Client is the concrete Codex transport RunProvider.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu             sync.Mutex
	modelIndex     int
	thinkingIndex  int
	models         []string
	thinkingLevels []*string
}

// NewClient returns a Client for cfg, defaulting the model-cycling and
// thinking-level-cycling options to a single fixed selection.
func NewClient(cfg Config) *Client {
	return NewClientWithProfiles(cfg, []string{"gpt-5-codex"}, []*string{stringPtr("medium")})
}

// NewClientWithProfiles returns a Client with explicit cycling options for
// /model and /thinking.
func NewClientWithProfiles(cfg Config, models []string, thinkingLevels []*string) *Client {
	if len(models) == 0 {
		models = []string{"gpt-5-codex"}
	}
	if len(thinkingLevels) == 0 {
		thinkingLevels = []*string{nil}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: timeout},
		models:         models,
		thinkingLevels: thinkingLevels,
	}
}

func stringPtr(s string) *string { return &s }

func (c *Client) Profile() runprovider.ProviderProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profileLocked()
}

func (c *Client) profileLocked() runprovider.ProviderProfile {
	return runprovider.ProviderProfile{
		ProviderID:    "codex",
		ModelID:       c.models[c.modelIndex],
		ThinkingLevel: c.thinkingLevels[c.thinkingIndex],
	}
}

func (c *Client) CycleModel() (runprovider.ProviderProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelIndex = (c.modelIndex + 1) % len(c.models)
	return c.profileLocked(), nil
}

func (c *Client) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thinkingIndex = (c.thinkingIndex + 1) % len(c.thinkingLevels)
	return c.profileLocked(), nil
}

// BuildRequest constructs the outgoing *http.Request for one Codex
// responses call.
func (c *Client) BuildRequest(body Request) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := NormalizeURL(c.cfg.BaseURL)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	headers, err := BuildHeaders(c.cfg, "")
	if err != nil {
		return nil, err
	}
	httpReq.Header = headers
	return httpReq, nil
}

// Run executes req against the Codex responses endpoint, streaming
// lifecycle events through emit and routing function calls through
// executeTool until the model reports completion or the run is cancelled.
func (c *Client) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, executeTool func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	emit(runprovider.NewStarted(req.RunID))

	profile := c.Profile()
	items := buildInputItems(req.History, req.Prompt)

	attempt := 0
	for {
		if cancel.Load() {
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		}

		body := NewRequest(profile.ModelID, items, req.Instructions)
		if profile.ThinkingLevel != nil {
			body.Reasoning = reasoningEffortForModel(profile.ModelID, *profile.ThinkingLevel)
		}

		httpReq, err := c.BuildRequest(body)
		if err != nil {
			emit(runprovider.NewFailed(req.RunID, err.Error()))
			return nil
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(0, err.Error()) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, err.Error()))
			return nil
		}

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			message := ParseErrorMessage(resp.StatusCode, string(data))
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(resp.StatusCode, message) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, message))
			return nil
		}

		outcome, err := c.consumeStream(req.RunID, resp.Body, cancel, executeTool, emit)
		resp.Body.Close()
		if err != nil {
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(0, err.Error()) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, err.Error()))
			return nil
		}

		switch {
		case outcome.cancelled:
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		case outcome.failed != "":
			emit(runprovider.NewFailed(req.RunID, outcome.failed))
			return nil
		case len(outcome.pendingCalls) > 0:
			for _, call := range outcome.pendingCalls {
				emit(runprovider.NewToolCallStarted(req.RunID, call))
				result := executeTool(call)
				items = appendToolResult(items, call, result)
			}
			attempt = 0
			continue
		default:
			emit(runprovider.NewFinished(req.RunID))
			return nil
		}
	}
}

type streamOutcome struct {
	pendingCalls []runprovider.ToolCallRequest
	failed       string
	cancelled    bool
}

func (c *Client) consumeStream(runID runprovider.RunID, body io.Reader, cancel runprovider.CancelSignal, _ func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) (streamOutcome, error) {
	parser := sse.NewParser()
	buf := make([]byte, 4096)
	var pendingCalls []runprovider.ToolCallRequest

	for {
		if cancel.Load() {
			return streamOutcome{cancelled: true}, nil
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, event := range parser.Feed(buf[:n]) {
				switch e := event.(type) {
				case sse.OutputTextDelta:
					emit(runprovider.NewChunk(runID, e.Delta))
				case sse.ReasoningSummaryTextDelta:
					emit(runprovider.NewChunk(runID, e.Delta))
				case sse.ToolCallRequested:
					call := runprovider.ToolCallRequest{Arguments: e.Arguments}
					if e.CallID != nil {
						call.CallID = *e.CallID
					}
					if e.ToolName != nil {
						call.ToolName = *e.ToolName
					}
					pendingCalls = append(pendingCalls, call)
				case sse.ResponseCompleted:
					if e.Status != nil && *e.Status != sse.StatusCompleted {
						return streamOutcome{failed: "response ended with status " + string(*e.Status)}, nil
					}
					return streamOutcome{pendingCalls: pendingCalls}, nil
				case sse.ResponseFailed:
					message := "run failed"
					if e.Message != nil {
						message = *e.Message
					}
					return streamOutcome{failed: message}, nil
				case sse.ErrorEvent:
					message := "stream error"
					if e.Message != nil {
						message = *e.Message
					}
					return streamOutcome{failed: message}, nil
				}
			}
		}
		if readErr == io.EOF {
			return streamOutcome{pendingCalls: pendingCalls}, nil
		}
		if readErr != nil {
			return streamOutcome{}, readErr
		}
	}
}

func sleepForRetry(cancel runprovider.CancelSignal, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cancel.Load() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
