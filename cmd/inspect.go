package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the history index",
	Long: `Show the tables of the history index with row counts and schema.

Useful to confirm that the index is in sync after a reindex.`,
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

		tables, err := a.index.Describe()
		if err != nil {
			return err
		}

		a.console.Print(fmt.Sprintf("📋 Index: %s\n", a.index.Path()))
		a.console.Print(fmt.Sprintf("📊 Found %d table(s)\n\n", len(tables)))
		for _, table := range tables {
			a.console.Print(fmt.Sprintf("📦 Table: %s (%d rows)\n", table.Name, table.Rows))
			for _, col := range table.Columns {
				extra := ""
				if col.NotNull {
					extra += " NOT NULL"
				}
				if col.PrimaryKey {
					extra += " [PRIMARY KEY]"
				}
				a.console.Print(fmt.Sprintf("  • %s: %s%s\n", col.Name, col.Type, extra))
			}
			a.console.Print("\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
