package sessionlog

import (
	"path/filepath"
	"strings"
)

// SessionDir is the two path components every session file lives under,
// relative to a working directory.
var SessionDir = [2]string{".agent", "sessions"}

// SessionRoot returns the session directory for cwd.
func SessionRoot(cwd string) string {
	return filepath.Join(cwd, SessionDir[0], SessionDir[1])
}

// sanitizeTimestampForFilename replaces filesystem-hostile characters in an
// RFC3339 timestamp so it can be embedded in a file name.
func sanitizeTimestampForFilename(timestamp string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', ' ':
			return '-'
		default:
			return r
		}
	}, timestamp)
}

// SessionFileName builds the "<sanitized_created_at>_<session_id>.jsonl"
// file name for a session.
func SessionFileName(createdAt, sessionID string) string {
	return sanitizeTimestampForFilename(createdAt) + "_" + sessionID + ".jsonl"
}
