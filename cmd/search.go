package cmd

import (
	"errors"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

var (
	searchSession string
	searchRole    string
	searchAll     bool
	searchLimit   int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search messages",
	Long: `Case-insensitive substring search over messages.

With --session the search runs over that session's transcript. Otherwise the
history index is queried across every session of the current project, or of
all projects with --all.`,
	Example: `  ollama-chat search binary --session demo --role assistant
  ollama-chat search "context manager" --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if searchSession != "" {
			if err := a.loadSession(searchSession); err != nil {
				return err
			}
			results, err := a.manager.SearchMessages(query, searchRole)
			if err != nil {
				return err
			}
			a.console.SearchResults(query, results)
			return nil
		}

		if a.index == nil {
			return errors.New("history index is disabled; use --session to search one session")
		}

		q := internal.IndexQuery{Text: query, Limit: searchLimit}
		if !searchAll {
			q.Project = a.manager.Project()
			if q.Project == "" {
				q.Project = internal.DefaultProject
			}
		}
		if searchRole != "" {
			role, err := internal.ParseRole(searchRole)
			if err != nil {
				return err
			}
			q.Role = role
		}

		hits, err := a.index.Search(q)
		if err != nil {
			return err
		}
		a.console.IndexHits(query, hits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchSession, "session", "", "Search only this session")
	searchCmd.Flags().StringVarP(&searchRole, "role", "r", "", "Only match messages with this role")
	searchCmd.Flags().BoolVarP(&searchAll, "all", "a", false, "Search every project")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum number of index hits")
}
