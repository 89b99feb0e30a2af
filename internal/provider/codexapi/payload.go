package codexapi

import "encoding/json"

// RequestText carries the response verbosity knob; its zero value is never
// sent directly, NewRequest always sets the documented default.
type RequestText struct {
	Verbosity string `json:"verbosity"`
}

// Reasoning configures the model's internal reasoning effort and summary
// granularity.
type Reasoning struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Request is the canonical Codex responses-endpoint request body.
type Request struct {
	Model             string          `json:"model"`
	Instructions      string          `json:"instructions,omitempty"`
	Input             json.RawMessage `json:"input"`
	Store             bool            `json:"store"`
	Stream            bool            `json:"stream"`
	Text              RequestText     `json:"text"`
	Include           []string        `json:"include,omitempty"`
	ToolChoice        string          `json:"tool_choice,omitempty"`
	ParallelToolCalls bool            `json:"parallel_tool_calls"`
	PromptCacheKey    string          `json:"prompt_cache_key,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
	Reasoning         *Reasoning      `json:"reasoning,omitempty"`
	Tools             []json.RawMessage `json:"tools,omitempty"`
}

// NewRequest returns a Request with the documented defaults: store=false,
// stream=true, medium verbosity, encrypted reasoning content included,
// tool_choice="auto", parallel tool calls enabled.
func NewRequest(model string, input json.RawMessage, instructions string) Request {
	return Request{
		Model:             model,
		Instructions:      instructions,
		Input:             input,
		Store:             false,
		Stream:            true,
		Text:              RequestText{Verbosity: "medium"},
		Include:           []string{"reasoning.encrypted_content"},
		ToolChoice:        "auto",
		ParallelToolCalls: true,
	}
}

// effortRank orders the reasoning-effort vocabulary so a family's whitelist
// can be clamped to its nearest supported value instead of just min/max.
var effortRank = map[string]int{
	"minimal": 0,
	"low":     1,
	"medium":  2,
	"high":    3,
	"xhigh":   4,
}

// effortFamily pairs a model prefix with the effort values that model family
// actually accepts, ordered ascending. Checked most-specific prefix first,
// since e.g. "gpt-5.1-codex-mini" also matches the "gpt-5.1" prefix.
type effortFamily struct {
	prefix  string
	allowed []string
}

var effortFamilies = []effortFamily{
	{prefix: "gpt-5.1-codex-mini", allowed: []string{"medium", "high"}},
	{prefix: "gpt-5.3-codex", allowed: []string{"low", "medium", "high"}},
	{prefix: "gpt-5.1", allowed: []string{"low", "medium", "high"}},
	{prefix: "gpt-5-codex", allowed: []string{"low", "medium", "high"}},
}

// defaultEffortWhitelist covers the plain "gpt-5"/o-series reasoning models,
// which accept the full effort vocabulary below xhigh.
var defaultEffortWhitelist = []string{"minimal", "low", "medium", "high"}

// reasoningEffortForModel clamps the requested thinking level onto the
// effort vocabulary a given model family accepts. Models outside the
// "o"/"gpt-5" reasoning families do not accept a reasoning block at all.
func reasoningEffortForModel(model, thinkingLevel string) *Reasoning {
	if thinkingLevel == "" {
		return nil
	}
	if !supportsReasoningEffort(model) {
		return nil
	}

	return &Reasoning{Effort: clampEffort(whitelistForModel(model), thinkingLevel), Summary: "auto"}
}

func whitelistForModel(model string) []string {
	for _, family := range effortFamilies {
		if hasPrefix(model, family.prefix) {
			return family.allowed
		}
	}
	return defaultEffortWhitelist
}

// clampEffort returns the allowed value nearest to requested by effort rank.
// An exact match is returned unchanged. An unrecognized requested value is
// treated as "medium" for ranking purposes.
func clampEffort(allowed []string, requested string) string {
	for _, v := range allowed {
		if v == requested {
			return v
		}
	}

	requestedRank, known := effortRank[requested]
	if !known {
		requestedRank = effortRank["medium"]
	}

	best := allowed[0]
	bestDist := -1
	for _, v := range allowed {
		dist := effortRank[v] - requestedRank
		if dist < 0 {
			dist = -dist
		}
		if bestDist == -1 || dist < bestDist {
			best = v
			bestDist = dist
		}
	}
	return best
}

func supportsReasoningEffort(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if hasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
