package cmd

import (
	"github.com/spf13/cobra"
)

// statsCmd prints counts for one session
var statsCmd = &cobra.Command{
	Use:   "stats <session>",
	Short: "Show session statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadSession(args[0]); err != nil {
			return err
		}
		a.console.Stats(a.manager.Stats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
