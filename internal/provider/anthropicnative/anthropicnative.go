// Package anthropicnative wraps github.com/anthropics/anthropic-sdk-go as a
// runprovider.RunProvider, talking directly to the Messages API (as
// opposed to provider/codexapi, which goes through the Codex responses
// wire format).
package anthropicnative

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/haasonsaas/codex-tui/internal/retrypolicy"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/toolexec"
)

const defaultMaxTokens int64 = 4096

// Client is a RunProvider backed by Anthropic's native Messages API.
type Client struct {
	client anthropic.Client

	mu             sync.Mutex
	modelIndex     int
	thinkingIndex  int
	models         []string
	thinkingLevels []*string
}

// Config selects the backend credentials and the cycling options exposed
// through /model and /thinking.
type Config struct {
	APIKey         string
	BaseURL        string
	Models         []string
	ThinkingLevels []*string
}

// New returns a Client, defaulting Models/ThinkingLevels to a single fixed
// selection when unset.
func New(cfg Config) *Client {
	models := cfg.Models
	if len(models) == 0 {
		models = []string{"claude-sonnet-4-20250514"}
	}
	levels := cfg.ThinkingLevels
	if len(levels) == 0 {
		levels = []*string{nil}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:         anthropic.NewClient(opts...),
		models:         models,
		thinkingLevels: levels,
	}
}

func (c *Client) Profile() runprovider.ProviderProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profileLocked()
}

func (c *Client) profileLocked() runprovider.ProviderProfile {
	return runprovider.ProviderProfile{
		ProviderID:    "anthropic",
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

// Run drives one Messages API round trip to completion, looping back
// through the model whenever it requests a tool_use block, until it
// finishes, fails, or is cancelled.
func (c *Client) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, executeTool func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	emit(runprovider.NewStarted(req.RunID))

	profile := c.Profile()
	messages, err := buildMessages(req.History, req.Prompt)
	if err != nil {
		emit(runprovider.NewFailed(req.RunID, err.Error()))
		return nil
	}
	tools := toolUnions()

	attempt := 0
	for {
		if cancel.Load() {
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(profile.ModelID),
			MaxTokens: defaultMaxTokens,
			Messages:  messages,
			Tools:     tools,
		}
		if strings.TrimSpace(req.Instructions) != "" {
			params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.Instructions}}
		}

		stream := c.client.Messages.NewStreaming(context.Background(), params)
		outcome, streamErr := consumeStream(req.RunID, stream, cancel, emit)

		if streamErr != nil {
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(0, streamErr.Error()) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, streamErr.Error()))
			return nil
		}

		switch {
		case outcome.cancelled:
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		case outcome.failed != "":
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(0, outcome.failed) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, outcome.failed))
			return nil
		case len(outcome.toolUses) > 0:
			var assistantContent []anthropic.ContentBlockParamUnion
			if outcome.text != "" {
				assistantContent = append(assistantContent, anthropic.NewTextBlock(outcome.text))
			}
			var resultContent []anthropic.ContentBlockParamUnion
			for _, tu := range outcome.toolUses {
				var input any
				_ = json.Unmarshal(tu.input, &input)
				assistantContent = append(assistantContent, anthropic.NewToolUseBlock(tu.id, input, tu.name))

				call := runprovider.ToolCallRequest{CallID: tu.id, ToolName: tu.name, Arguments: tu.input}
				emit(runprovider.NewToolCallStarted(req.RunID, call))
				result := executeTool(call)
				resultContent = append(resultContent, anthropic.NewToolResultBlock(result.CallID, result.Content, result.IsError))
			}
			messages = append(messages, anthropic.NewAssistantMessage(assistantContent...))
			messages = append(messages, anthropic.NewUserMessage(resultContent...))
			attempt = 0
			continue
		default:
			emit(runprovider.NewFinished(req.RunID))
			return nil
		}
	}
}

type toolUse struct {
	id    string
	name  string
	input json.RawMessage
}

type streamOutcome struct {
	text      string
	toolUses  []toolUse
	failed    string
	cancelled bool
}

func consumeStream(runID runprovider.RunID, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], cancel runprovider.CancelSignal, emit func(runprovider.RunEvent)) (streamOutcome, error) {
	var textBuilder strings.Builder
	var current *toolUse
	var currentInput strings.Builder
	var toolUses []toolUse

	for stream.Next() {
		if cancel.Load() {
			return streamOutcome{cancelled: true}, nil
		}

		event := stream.Current()
		switch event.Type {
		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				tu := block.AsToolUse()
				current = &toolUse{id: tu.ID, name: tu.Name}
				currentInput.Reset()
			}
		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					textBuilder.WriteString(delta.Text)
					emit(runprovider.NewChunk(runID, delta.Text))
				}
			case "input_json_delta":
				currentInput.WriteString(delta.PartialJSON)
			}
		case "content_block_stop":
			if current != nil {
				current.input = json.RawMessage(currentInput.String())
				toolUses = append(toolUses, *current)
				current = nil
			}
		case "message_stop":
			return streamOutcome{text: textBuilder.String(), toolUses: toolUses}, nil
		case "error":
			return streamOutcome{failed: "anthropic stream error"}, nil
		}
	}
	if err := stream.Err(); err != nil {
		return streamOutcome{}, err
	}
	return streamOutcome{text: textBuilder.String(), toolUses: toolUses}, nil
}

func buildMessages(history []runprovider.RunMessage, prompt string) ([]anthropic.MessageParam, error) {
	var messages []anthropic.MessageParam
	for _, m := range history {
		switch v := m.(type) {
		case runprovider.UserText:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(v.Text)))
		case runprovider.AssistantText:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(v.Text)))
		case runprovider.ToolCall:
			var input any
			if err := json.Unmarshal(v.Arguments, &input); err != nil {
				return nil, errors.New("anthropicnative: malformed tool call arguments in history")
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewToolUseBlock(v.CallID, input, v.ToolName)))
		case runprovider.ToolResultMessage:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewToolResultBlock(v.CallID, v.Content, v.IsError)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	return messages, nil
}

func toolUnions() []anthropic.ToolUnionParam {
	specs := toolexec.Schemas()
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		encoded, err := json.Marshal(spec.Parameters)
		var schema anthropic.ToolInputSchemaParam
		if err == nil {
			_ = json.Unmarshal(encoded, &schema)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, spec.Name)
		if toolParam.OfTool != nil {
			toolParam.OfTool.Description = anthropic.String(spec.Description)
		}
		tools = append(tools, toolParam)
	}
	return tools
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
