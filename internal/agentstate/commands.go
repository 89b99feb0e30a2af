package agentstate

import "strings"

// SlashCommand is the parsed form of a leading-"/" submission.
type SlashCommand struct {
	Name string
	Args string
}

const (
	CmdHelp     = "/help"
	CmdClear    = "/clear"
	CmdCancel   = "/cancel"
	CmdQuit     = "/quit"
	CmdModel    = "/model"
	CmdThinking = "/thinking"
)

// Known system-note strings. Exported so callers asserting on transcript
// contents don't need to duplicate the literals.
const (
	NoteRunInProgress     = "Run already in progress. Use /cancel to stop it."
	NoteTranscriptCleared = "Transcript cleared"
	NoteNoActiveRun       = "No active run"
	NoteHelp              = "Commands: /help /clear /cancel /quit /model /thinking"
)

func noteUnknownCommand(name string) string {
	return "Unknown command: " + name
}

func noteRunFailed(message string) string {
	return "Run failed: " + message
}

const noteRunCancelled = "Run cancelled"

// parseSlashCommand parses trimmed input starting with "/" into a command
// name (the first whitespace-delimited token) and the remaining args.
func parseSlashCommand(input string) (SlashCommand, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return SlashCommand{}, false
	}

	fields := strings.Fields(trimmed)
	name := fields[0]
	args := strings.TrimSpace(strings.TrimPrefix(trimmed, name))
	return SlashCommand{Name: name, Args: args}, true
}
