// Package mock is a deterministic RunProvider used for local development
// and contract-level tests: it streams scripted chunks with no network
// dependency and supports the same profile-cycling hooks real providers do.
package mock

import (
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/codex-tui/internal/runprovider"
)

// ProviderID is the stable identifier used for explicit startup selection
// via CODING_AGENT_PROVIDER=mock.
const ProviderID = "mock"

const (
	runDelay   = 200 * time.Millisecond
	tokenDelay = 50 * time.Millisecond
)

// Provider streams a fixed list of text chunks, word-by-word, honoring
// cancellation between tokens.
type Provider struct {
	chunks         []string
	modelIDs       []string
	thinkingLevels []*string

	mu            sync.Mutex
	modelIndex    int
	thinkingIndex int
}

// New returns a mock provider with the given chunks and a default pair of
// cyclable model/thinking-level options.
func New(chunks []string) *Provider {
	balanced := "balanced"
	deep := "deep"
	return WithProfileOptions(chunks, []string{"mock", "mock-alt"}, []*string{&balanced, &deep})
}

// WithProfileOptions returns a mock provider with explicit cycling options.
func WithProfileOptions(chunks, modelIDs []string, thinkingLevels []*string) *Provider {
	modelIDs = sanitizeModelIDs(modelIDs)
	thinkingLevels = sanitizeThinkingLevels(thinkingLevels)
	return &Provider{chunks: chunks, modelIDs: modelIDs, thinkingLevels: thinkingLevels}
}

// Default returns the mock provider used when no chunks are supplied: a
// short deterministic markdown showcase.
func Default() *Provider {
	return New([]string{
		"# Mocked README\n",
		"A streaming demonstration of provider chunking.\n",
		"\n",
		"## Section\n",
		"- one\n- two\n- three\n",
		"Completed successfully.\n",
	})
}

func (p *Provider) profileLocked() runprovider.ProviderProfile {
	return runprovider.ProviderProfile{
		ProviderID:    ProviderID,
		ModelID:       p.modelIDs[p.modelIndex],
		ThinkingLevel: p.thinkingLevels[p.thinkingIndex],
	}
}

func (p *Provider) Profile() runprovider.ProviderProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profileLocked()
}

func (p *Provider) CycleModel() (runprovider.ProviderProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelIndex = (p.modelIndex + 1) % len(p.modelIDs)
	return p.profileLocked(), nil
}

func (p *Provider) CycleThinkingLevel() (runprovider.ProviderProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thinkingIndex = (p.thinkingIndex + 1) % len(p.thinkingLevels)
	return p.profileLocked(), nil
}

func (p *Provider) Run(req runprovider.RunRequest, cancel runprovider.CancelSignal, _ func(runprovider.ToolCallRequest) runprovider.ToolResult, emit func(runprovider.RunEvent)) error {
	runID := req.RunID

	emit(runprovider.NewStarted(runID))
	time.Sleep(runDelay)

	if cancel.Load() {
		emit(runprovider.NewCancelled(runID))
		return nil
	}

	for _, chunk := range p.chunks {
		if cancel.Load() {
			emit(runprovider.NewCancelled(runID))
			return nil
		}

		var pending strings.Builder
		for _, r := range chunk {
			pending.WriteRune(r)
			if r == ' ' || r == '\n' {
				if cancel.Load() {
					emit(runprovider.NewCancelled(runID))
					return nil
				}
				emit(runprovider.NewChunk(runID, pending.String()))
				pending.Reset()
				time.Sleep(tokenDelay)
			}
		}
		if pending.Len() > 0 {
			if cancel.Load() {
				emit(runprovider.NewCancelled(runID))
				return nil
			}
			emit(runprovider.NewChunk(runID, pending.String()))
			time.Sleep(tokenDelay)
		}
	}

	if cancel.Load() {
		emit(runprovider.NewCancelled(runID))
	} else {
		emit(runprovider.NewFinished(runID))
	}
	return nil
}

func sanitizeModelIDs(modelIDs []string) []string {
	sanitized := make([]string, 0, len(modelIDs))
	for _, id := range modelIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			sanitized = append(sanitized, id)
		}
	}
	if len(sanitized) == 0 {
		sanitized = append(sanitized, "mock")
	}
	return sanitized
}

func sanitizeThinkingLevels(levels []*string) []*string {
	sanitized := make([]*string, 0, len(levels))
	for _, level := range levels {
		if level == nil {
			continue
		}
		trimmed := strings.TrimSpace(*level)
		if trimmed == "" {
			continue
		}
		sanitized = append(sanitized, &trimmed)
	}
	if len(sanitized) == 0 {
		balanced := "balanced"
		sanitized = append(sanitized, &balanced)
	}
	return sanitized
}
