// Package openaicompat wraps github.com/sashabaranov/go-openai as a
// runprovider.RunProvider, for any backend that speaks the OpenAI chat
// completions API (OpenAI itself, or a compatible proxy reachable through
// BaseURL).
package openaicompat

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/codex-tui/internal/retrypolicy"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/toolexec"
)

// Client is a RunProvider backed by an OpenAI-compatible chat completions
// endpoint.
type Client struct {
	client *openai.Client

	mu             sync.Mutex
	modelIndex     int
	thinkingIndex  int
	models         []string
	thinkingLevels []*string
}

// Config selects the backend and the cycling options exposed through
// /model and /thinking.
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
		models = []string{"gpt-4o"}
	}
	levels := cfg.ThinkingLevels
	if len(levels) == 0 {
		levels = []*string{nil}
	}

	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:         openai.NewClientWithConfig(oaiCfg),
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
		ProviderID:    "openai",
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

// Run drives one chat-completion round trip to completion, looping back
// through the model whenever it requests a tool call, until it finishes,
// fails, or is cancelled.
func (c *Client) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, executeTool func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	emit(runprovider.NewStarted(req.RunID))

	profile := c.Profile()
	messages := buildMessages(req.History, req.Instructions, req.Prompt)
	tools := toolDefinitions()

	attempt := 0
	for {
		if cancel.Load() {
			emit(runprovider.NewCancelled(req.RunID))
			return nil
		}

		chatReq := openai.ChatCompletionRequest{
			Model:    profile.ModelID,
			Messages: messages,
			Stream:   true,
			Tools:    tools,
		}

		stream, err := c.client.CreateChatCompletionStream(context.Background(), chatReq)
		if err != nil {
			if attempt < retrypolicy.MaxRetries && retrypolicy.IsRetryable(0, err.Error()) {
				sleepForRetry(cancel, retrypolicy.Delay(attempt))
				attempt++
				continue
			}
			emit(runprovider.NewFailed(req.RunID, err.Error()))
			return nil
		}

		outcome, streamErr := consumeStream(req.RunID, stream, cancel, emit)
		stream.Close()
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
		case len(outcome.toolCalls) > 0:
			messages = append(messages, outcome.assistantMessage(outcome.toolCalls))
			for _, tc := range outcome.toolCalls {
				call := runprovider.ToolCallRequest{
					CallID:    tc.ID,
					ToolName:  tc.Function.Name,
					Arguments: json.RawMessage(tc.Function.Arguments),
				}
				emit(runprovider.NewToolCallStarted(req.RunID, call))
				result := executeTool(call)
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result.Content,
					ToolCallID: result.CallID,
				})
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
	toolCalls []openai.ToolCall
	cancelled bool
}

func (o streamOutcome) assistantMessage(toolCalls []openai.ToolCall) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: toolCalls,
	}
}

func consumeStream(runID runprovider.RunID, stream *openai.ChatCompletionStream, cancel runprovider.CancelSignal, emit func(runprovider.RunEvent)) (streamOutcome, error) {
	toolCalls := map[int]*openai.ToolCall{}

	for {
		if cancel.Load() {
			return streamOutcome{cancelled: true}, nil
		}

		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return streamOutcome{}, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			emit(runprovider.NewChunk(runID, delta.Content))
		}

		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			if toolCalls[index] == nil {
				toolCalls[index] = &openai.ToolCall{Type: openai.ToolTypeFunction}
			}
			if tc.ID != "" {
				toolCalls[index].ID = tc.ID
			}
			if tc.Function.Name != "" {
				toolCalls[index].Function.Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				toolCalls[index].Function.Arguments += tc.Function.Arguments
			}
		}
	}

	result := make([]openai.ToolCall, 0, len(toolCalls))
	for i := 0; i < len(toolCalls); i++ {
		if tc := toolCalls[i]; tc != nil {
			result = append(result, *tc)
		}
	}
	return streamOutcome{toolCalls: result}, nil
}

func buildMessages(history []runprovider.RunMessage, instructions, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if strings.TrimSpace(instructions) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instructions,
		})
	}
	for _, m := range history {
		switch v := m.(type) {
		case runprovider.UserText:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: v.Text})
		case runprovider.AssistantText:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: v.Text})
		case runprovider.ToolCall:
			messages = append(messages, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   v.CallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      v.ToolName,
						Arguments: string(v.Arguments),
					},
				}},
			})
		case runprovider.ToolResultMessage:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    v.Content,
				ToolCallID: v.CallID,
			})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	return messages
}

func toolDefinitions() []openai.Tool {
	specs := toolexec.Schemas()
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		encoded, err := json.Marshal(spec.Parameters)
		var schemaMap map[string]any
		if err == nil {
			_ = json.Unmarshal(encoded, &schemaMap)
		}
		if schemaMap == nil {
			schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  schemaMap,
			},
		})
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
