package codexapi

import "strings"

// NormalizeURL rewrites a configured base URL onto the Codex responses
// endpoint:
//  1. "/codex/responses" is kept unchanged
//  2. a path ending in "/codex" gets "/responses" appended
//  3. anything else gets "/codex/responses" appended
func NormalizeURL(input string) string {
	base := strings.TrimSpace(input)
	if base == "" {
		base = DefaultBaseURL
	}

	trimmed := strings.TrimRight(base, "/")
	if strings.HasSuffix(trimmed, "/codex/responses") {
		return trimmed
	}
	if strings.HasSuffix(trimmed, "/codex") {
		return trimmed + "/responses"
	}
	return trimmed + "/codex/responses"
}
