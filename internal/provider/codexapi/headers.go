package codexapi

import "net/http"

// Header names sent on every Codex transport request. The legacy and
// canonical account-id headers both carry the same value, matching the
// dual-header compatibility window the upstream endpoint requires.
const (
	HeaderAccountID          = "chatgpt-account-id"
	HeaderAccountIDCanonical = "OpenAI-Account-Id"
	HeaderOpenAIBeta         = "OpenAI-Beta"
	HeaderOriginator         = "originator"
	HeaderAccept             = "Accept"
	HeaderContentType        = "Content-Type"
	HeaderSessionID          = "session_id"
	HeaderUserAgent          = "User-Agent"
	HeaderAuthorization      = "Authorization"
)

const defaultUserAgent = "codex-tui/1"

// BuildHeaders returns the full header set for a Codex transport request,
// merging config.ExtraHeaders last so callers can override any default.
func BuildHeaders(cfg Config, userAgentOverride string) (http.Header, error) {
	if cfg.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if cfg.AccountID == "" {
		return nil, ErrMissingAccountID
	}

	headers := http.Header{}
	headers.Set(HeaderAuthorization, "Bearer "+cfg.AccessToken)
	headers.Set(HeaderAccountID, cfg.AccountID)
	headers.Set(HeaderAccountIDCanonical, cfg.AccountID)
	headers.Set(HeaderOpenAIBeta, "responses=experimental")
	headers.Set(HeaderOriginator, orDefault(cfg.Originator, "pi"))
	headers.Set(HeaderAccept, "text/event-stream")
	headers.Set(HeaderContentType, "application/json")

	if cfg.SessionID != "" {
		headers.Set(HeaderSessionID, cfg.SessionID)
	}

	userAgent := defaultUserAgent
	switch {
	case userAgentOverride != "":
		userAgent = userAgentOverride
	case cfg.UserAgent != "":
		userAgent = cfg.UserAgent
	}
	headers.Set(HeaderUserAgent, userAgent)

	for key, value := range cfg.ExtraHeaders {
		headers.Set(key, value)
	}

	return headers, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
