// Command codex-tui is the interactive terminal coding agent: it streams
// tokens from a model provider, renders a live transcript, executes tool
// calls against the local filesystem, and persists every turn to a
// replayable session log.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/codex-tui/internal/agentconfig"
	"github.com/haasonsaas/codex-tui/internal/agentstate"
	"github.com/haasonsaas/codex-tui/internal/obs"
	"github.com/haasonsaas/codex-tui/internal/runprovider"
	"github.com/haasonsaas/codex-tui/internal/runtimectl"
	"github.com/haasonsaas/codex-tui/internal/toolexec"
	"github.com/haasonsaas/codex-tui/internal/tui"
)

// Populated via -ldflags at release build time; left at their defaults for
// local builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	workspaceFlag string
	providerFlag  string
	inlineFlag    bool
	replayFlag    string
	tailFlag      bool
)

func main() {
	slog.SetDefault(obs.NewLogger(slog.LevelInfo))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("codex-tui exited with an error", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codex-tui",
		Short: "An interactive terminal coding agent",
		Long: `codex-tui is a full-screen, keyboard-driven coding agent: it streams
tokens from a model provider, renders a live transcript, executes tool calls
against the local filesystem, and persists every turn to an append-only
session log that can be replayed later.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		RunE:         runAgent,
	}
	rootCmd.Flags().StringVar(&workspaceFlag, "workspace", ".", "workspace root the tool executor is sandboxed to")
	rootCmd.Flags().StringVar(&providerFlag, "provider", "", "run provider: mock | codex-api | openai | anthropic (default: $CODING_AGENT_PROVIDER or mock)")
	rootCmd.Flags().BoolVar(&inlineFlag, "inline", false, "render below the cursor instead of the full screen (reserved for a future inline renderer)")
	rootCmd.Flags().StringVar(&replayFlag, "replay", "", "resume an existing session log file instead of starting a new session")
	rootCmd.Flags().BoolVar(&tailFlag, "tail", false, "watch the session file for external appends and redraw on change")
	return rootCmd
}

func runAgent(cmd *cobra.Command, args []string) error {
	agentCfg, err := agentconfig.Load(filepath.Join(workspaceFlag, ".agent", "config.yaml"))
	if err != nil {
		return err
	}
	if workspaceFlag == "." && agentCfg.DefaultWorkspace != "" {
		workspaceFlag = agentCfg.DefaultWorkspace
	}

	workspaceRoot, err := filepath.Abs(workspaceFlag)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	executor, err := toolexec.New(workspaceRoot)
	if err != nil {
		return fmt.Errorf("start tool executor: %w", err)
	}

	store, replayedHistory, err := openSession(replayFlag, workspaceRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	effectiveProvider := providerFlag
	if effectiveProvider == "" && os.Getenv("CODING_AGENT_PROVIDER") == "" {
		effectiveProvider = agentCfg.DefaultProvider
	}
	provider, err := selectProvider(effectiveProvider)
	if err != nil {
		return err
	}
	if agentCfg.DefaultThinkingLevel != "" {
		applyDefaultThinkingLevel(provider, agentCfg.DefaultThinkingLevel)
	}

	metrics := obs.NewMetrics()
	recordingProvider := newSessionRecordingProvider(provider, store, metrics)

	app := agentstate.New()
	app.SystemInstructions = systemInstructions()
	app.RunHistory = replayedHistory
	for _, msg := range replayedHistory {
		app.Transcript = append(app.Transcript, transcriptFromReplay(msg)...)
	}

	terminal := tui.NewRawTerminal(os.Stdin, os.Stdout)
	runtime := tui.New(terminal)

	executeTool := func(call runprovider.ToolCallRequest) runprovider.ToolResult {
		return executor.Dispatch(context.Background(), call)
	}
	controller := runtimectl.New(app, runtime, recordingProvider, executeTool, app.SystemInstructions)

	inputID := runtime.RegisterComponent(newInputComponent(controller, controller))
	transcriptID := runtime.RegisterComponent(newTranscriptComponent(controller, terminal.Rows))
	runtime.SetRoot([]tui.ComponentID{transcriptID, inputID})
	runtime.SetFocus(inputID)

	if tailFlag && replayFlag != "" {
		watcher, err := watchSessionFile(store.Path(), runtime.RequestRender)
		if err != nil {
			slog.Warn("session tail watch failed to start", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	if err := runtime.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	defer runtime.Stop()

	shouldExit := func() bool {
		var exit bool
		controller.WithApp(func(app *agentstate.App) { exit = app.ShouldExit })
		return exit
	}
	for !runtime.ShouldStop() && !shouldExit() {
		runtime.RunOnce()
		time.Sleep(16 * time.Millisecond)
	}

	return nil
}

// systemInstructions resolves the base instructions sent with every run,
// overridden in full by CODING_AGENT_SYSTEM_INSTRUCTIONS when set.
func systemInstructions() string {
	if override := os.Getenv("CODING_AGENT_SYSTEM_INSTRUCTIONS"); override != "" {
		return override
	}
	return defaultSystemInstructions
}

const defaultSystemInstructions = "You are a terminal coding agent. Use the available tools to read, " +
	"edit, and run commands within the sandboxed workspace to help the user."

// watchSessionFile watches path's parent directory (fsnotify has no
// single-file mode) and invokes onChange whenever path itself is written,
// letting a second terminal tailing a --replay session pick up fsync'd
// appends from the terminal actually driving the run, without polling.
func watchSessionFile(path string, onChange func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == path && event.Op&fsnotify.Write == fsnotify.Write {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher, nil
}
