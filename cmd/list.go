package cmd

import (
	"fmt"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

var (
	listMeta bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions in the current project",
	Long: `List the saved sessions of the current project.

By default only identifiers are shown, newest name first. With --meta each
session is read and shown with its message count, modification time and a
preview of the last message, newest modification first. Unreadable files
are still listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !listMeta {
			ids, err := a.manager.ListSessions()
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			a.console.SessionIDs(ids)
			return nil
		}

		summaries, err := a.manager.ListSessionsWithMetadata()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		a.console.SessionTable(summaries)
		return nil
	},
}

// projectsCmd lists the project namespaces under the conversations root
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List project namespaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.store.Projects()
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			a.console.Info("No projects found")
			return nil
		}
		current := a.manager.Project()
		if current == "" {
			current = internal.DefaultProject
		}
		for _, p := range projects {
			marker := "  "
			if p == current {
				marker = "* "
			}
			a.console.Print(marker + p + "\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(projectsCmd)
	listCmd.Flags().BoolVar(&listMeta, "meta", false, "Show message count, modification time and preview")
}
