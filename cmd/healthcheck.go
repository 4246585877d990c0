package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/ollama-chat/internal/console"
	"github.com/spf13/cobra"
)

var (
	healthcheckOffline bool
)

var (
	sectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that sessions can be stored and the model server is reachable",
	Long: `Check the health of ollama-chat by verifying:
  • Configuration
  • Conversations directory access
  • Session files in the current project
  • History index
  • Ollama server reachability (skipped with --offline)

Pass --verbose for paths and details.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		c := a.console
		failed := 0
		section := func(title string) {
			if c.Mode() == console.ModeRich {
				c.Print(sectionStyle.Render(title) + "\n\n")
				return
			}
			c.Print(title + "\n\n")
		}
		detail := func(format string, args ...interface{}) {
			if verbose {
				c.Print(fmt.Sprintf("   "+format+"\n", args...))
			}
		}

		section("🔍 ollama-chat Health Check")

		// Step 1: configuration
		c.Info("Step 1: Loading configuration...")
		c.Success("Configuration loaded")
		detail("Model: %s", a.cfg.Model)
		detail("Ollama host: %s", a.cfg.OllamaHost)
		detail("Project: %s", a.store.ProjectDir(a.cfg.Project))
		c.Print("\n")

		// Step 2: conversations directory
		c.Info("Step 2: Checking conversations directory...")
		dir := a.store.ProjectDir(a.cfg.Project)
		if err := checkWritable(dir); err != nil {
			c.Error("Conversations directory is not writable: %v", err)
			failed++
		} else {
			c.Success("Conversations directory is writable")
		}
		detail("Directory: %s", dir)
		c.Print("\n")

		// Step 3: sessions
		c.Info("Step 3: Reading sessions...")
		summaries, err := a.manager.ListSessionsWithMetadata()
		if err != nil {
			c.Error("Failed to list sessions: %v", err)
			failed++
		} else {
			unreadable := 0
			for _, s := range summaries {
				if s.Err != nil {
					unreadable++
					detail("Unreadable: %s (%v)", s.ID, s.Err)
				}
			}
			switch {
			case len(summaries) == 0:
				c.Warning("No sessions found in this project")
			case unreadable > 0:
				c.Warning("Found %d session(s), %d unreadable", len(summaries), unreadable)
			default:
				c.Success("Found %d session(s)", len(summaries))
			}
		}
		c.Print("\n")

		// Step 4: history index
		c.Info("Step 4: Checking history index...")
		switch {
		case !a.cfg.IndexOn():
			c.Warning("History index is disabled")
		case a.index == nil:
			c.Error("History index could not be opened")
			failed++
		default:
			projects, err := a.index.Projects()
			if err != nil {
				c.Error("History index is not readable: %v", err)
				failed++
			} else {
				c.Success("History index covers %d project(s)", len(projects))
				detail("Index: %s", a.index.Path())
			}
		}
		c.Print("\n")

		// Step 5: model server
		c.Info("Step 5: Contacting Ollama...")
		if healthcheckOffline {
			c.Warning("Skipped (--offline)")
		} else {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			err := a.backend.Ping(ctx)
			cancel()
			if err != nil {
				c.Error("Ollama is not reachable at %s: %v", a.backend.Host(), err)
				failed++
			} else {
				c.Success("Ollama is reachable at %s", a.backend.Host())
			}
		}
		c.Print("\n")

		section("📊 Summary")
		if failed > 0 {
			return fmt.Errorf("health check failed: %d problem(s)", failed)
		}
		c.Success("Health check passed!")
		return nil
	},
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckOffline, "offline", false, "Skip contacting the Ollama server")
}
