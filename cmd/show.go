package cmd

import (
	"github.com/spf13/cobra"
)

var (
	showLimit int
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a session transcript",
	Long: `Show the messages of a session, oldest first.

Use --limit to show only the most recent messages.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadSession(args[0]); err != nil {
			return err
		}

		messages := a.manager.History(showLimit)
		if len(messages) == 0 {
			a.console.Info("Session %s is empty", a.manager.ActiveSession())
			return nil
		}
		a.console.History(messages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "l", 0, "Show only the last N messages (0 for all)")
}
