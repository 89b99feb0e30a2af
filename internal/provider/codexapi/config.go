// Package codexapi is the concrete transport RunProvider: it builds Codex
// responses-endpoint requests, streams them through the SSE parser, retries
// transient failures per the shared backoff policy, and drives the
// provider's own function-calling loop against the tool executor.
package codexapi

import (
	"errors"
	"time"
)

// DefaultBaseURL is the Codex backend's default base URL.
const DefaultBaseURL = "https://chatgpt.com/backend-api"

// Config is the transport configuration for one Codex API client.
type Config struct {
	AccessToken  string
	AccountID    string
	BaseURL      string
	Originator   string
	SessionID    string
	UserAgent    string
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

// NewConfig returns a Config with the documented defaults: base URL,
// "pi" originator, and a zero Timeout, which the client constructor replaces
// with its own default.
func NewConfig(accessToken, accountID string) Config {
	return Config{
		AccessToken: accessToken,
		AccountID:   accountID,
		BaseURL:     DefaultBaseURL,
		Originator:  "pi",
	}
}

var (
	ErrMissingAccessToken = errors.New("codexapi: access token is required")
	ErrMissingAccountID   = errors.New("codexapi: account id is required")
)
