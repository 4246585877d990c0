package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	cfgFile     string
	projectName string
	modelName   string
	storageDir  string
	visualMode  string
	logFile     string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ollama-chat",
	Short: "Persistent chat sessions with a local Ollama model",
	Long: `A CLI for conversations with a local Ollama model that are saved to disk.

Each session is a JSON file under <conversations>/<project>/, holding the
ordered messages, the model used and any context you injected. Every turn is
saved as soon as the exchange completes.

Features:
  • Named sessions grouped by project
  • Inject text or files as context
  • Search one session or your whole history
  • Extract code blocks from replies
  • Export as Markdown, JSON, JSONL or YAML

Quick Start:
  ollama-chat new --name demo --system "You are a Go tutor"
  ollama-chat send demo "How do I read a file?"
  ollama-chat code demo
  ollama-chat export demo --format md`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default ~/.config/ollama-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "Project namespace for sessions")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Ollama model identifier")
	rootCmd.PersistentFlags().StringVar(&storageDir, "dir", "", "Conversations root directory")
	rootCmd.PersistentFlags().StringVar(&visualMode, "mode", "", "Output mode: auto, rich, plain, silent")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
