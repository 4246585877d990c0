package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/iksnae/ollama-chat/internal/config"
	"github.com/iksnae/ollama-chat/internal/console"
	"github.com/spf13/cobra"
)

// app bundles everything a command needs
type app struct {
	cfg     *config.Config
	store   *internal.Store
	index   *internal.HistoryIndex
	backend *internal.OllamaBackend
	manager *internal.Manager
	console *console.Console

	closeLog func() error
}

// active is the app of the running command, used to render a failure
var active *app

// openApp loads configuration, applies flag overrides and wires the store,
// index, backend and manager
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if projectName != "" {
		cfg.Project = projectName
	}
	if modelName != "" {
		cfg.Model = modelName
	}
	if storageDir != "" {
		cfg.ConversationsDir = storageDir
	}
	if visualMode != "" {
		cfg.VisualMode = visualMode
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		console: console.New(cfg.Mode(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
	active = a

	closeLog, err := internal.SetupLogger(cfg.LogFile, cfg.Level())
	if err != nil {
		internal.LogWarn("%v", err)
	}
	a.closeLog = closeLog
	if verbose {
		internal.SetVerbose(true)
	}

	a.store = internal.NewStore(cfg.ConversationsDir)
	if cfg.IndexOn() {
		index, err := internal.OpenHistoryIndex(cfg.ResolvedIndexPath())
		if err != nil {
			internal.LogWarn("History index disabled: %v", err)
		} else {
			a.index = index
			a.store.SetIndex(index)
		}
	}

	a.backend, err = internal.NewOllamaBackend(cfg.OllamaHost, cfg.Model)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager, err = internal.NewManager(internal.ManagerConfig{
		Store:   a.store,
		Backend: a.backend,
		Model:   cfg.Model,
		Project: cfg.Project,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	internal.LogDebug("Using %s in project %q (root %s)", cfg.Model, cfg.Project, cfg.ConversationsDir)
	return a, nil
}

// Close releases the index and log file
func (a *app) Close() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			internal.LogWarn("Failed to close history index: %v", err)
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// loadSession loads id into the manager and warns when the stored model
// differs from the configured one
func (a *app) loadSession(id string) error {
	result, err := a.manager.LoadSession(id)
	if err != nil {
		return err
	}
	if result.ModelChanged {
		a.console.Warning("Session used %s, now using %s", result.StoredModel, a.manager.Model())
	}
	return nil
}

// textArg joins args, or reads stdin when there are none or the only arg is "-"
func textArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text := strings.TrimRight(string(data), "\n")
		if text == "" {
			return "", errors.New("no text given")
		}
		return text, nil
	}
	return strings.Join(args, " "), nil
}

// reportError renders a command failure through the active console, or on
// stderr when configuration itself failed
func reportError(err error) {
	if active != nil {
		active.console.Error("%v", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
