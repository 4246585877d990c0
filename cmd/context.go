package cmd

import (
	"fmt"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

var (
	contextFileTitle string
)

// contextCmd groups the context subcommands
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Inject reference material into a session",
	Long: `Context items are stored in the session metadata and also added to the
conversation as system messages, so the model sees them on every later turn.`,
}

var contextAddCmd = &cobra.Command{
	Use:   "add <session> <title> [content...]",
	Short: "Add a text context item",
	Long: `Add a titled text context item. With no content, or "-", the content is
read from stdin.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := textArg(cmd, args[2:])
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadSession(args[0]); err != nil {
			return err
		}
		if err := a.manager.AddContext(args[1], content, internal.ContextTypeText); err != nil {
			return err
		}
		a.console.Success("Added context: %s", args[1])
		return nil
	},
}

var contextFileCmd = &cobra.Command{
	Use:   "file <session> <path>",
	Short: "Add a file's contents as context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadSession(args[0]); err != nil {
			return err
		}
		if err := a.manager.AddFileContext(args[1], contextFileTitle); err != nil {
			return fmt.Errorf("could not add file context: %w", err)
		}
		a.console.Success("Added file context: %s", args[1])
		return nil
	},
}

var contextListCmd = &cobra.Command{
	Use:   "list <session>",
	Short: "List a session's context items",
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
		items := a.manager.ContextData()
		if len(items) == 0 {
			a.console.Info("No context items")
			return nil
		}
		for i, item := range items {
			a.console.Print(fmt.Sprintf("%d. [%s] %s (%d chars, added %s)\n",
				i+1, item.Type, item.Title, len([]rune(item.Content)), item.AddedAt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextFileCmd)
	contextCmd.AddCommand(contextListCmd)
	contextFileCmd.Flags().StringVarP(&contextFileTitle, "title", "t", "", "Title for the item (default: File: <name>)")
}
