package cmd

import (
	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

// deleteCmd removes a session file
var deleteCmd = &cobra.Command{
	Use:     "delete <session>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id := internal.NormalizeSessionID(args[0])
		if err := a.store.Delete(a.manager.Project(), id); err != nil {
			return err
		}
		a.console.Success("Deleted session %s", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
