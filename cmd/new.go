package cmd

import (
	"github.com/spf13/cobra"
)

var (
	newSystemPrompt string
	newName         string
)

// newCmd starts a session and saves it immediately
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	Long: `Start a new session in the current project and save it right away.

Without --name the identifier is the current time (YYYYMMDD_HHMMSS), with a
numeric suffix if that second is already taken. An existing session with the
given name is replaced.`,
	Example: `  ollama-chat new
  ollama-chat new --name refactor --system "You review Go code"
  ollama-chat new -p work --name standup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.manager.StartNewSession(newSystemPrompt, newName)
		if id == "" && err != nil {
			return err
		}
		if err != nil {
			a.console.Warning("Session %s started but could not be saved: %v", id, err)
			return err
		}
		a.console.Success("Started session %s", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newSystemPrompt, "system", "s", "", "System prompt to seed the session with")
	newCmd.Flags().StringVarP(&newName, "name", "n", "", "Session name (default: timestamp)")
}
