package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// reindexCmd rebuilds the history index from the session files
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the history index",
	Long: `Clear the history index and rebuild it from every session file under the
conversations root. Files that cannot be parsed are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.index == nil {
			return errors.New("history index is disabled")
		}

		var count int
		err = a.console.Progress(cmd.Context(), "Rebuilding history index", func() error {
			var err error
			count, err = a.index.Reindex(a.store)
			return err
		})
		if err != nil {
			return err
		}
		a.console.Success("Indexed %d session(s) into %s", count, a.index.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
