package cmd

import (
	"errors"
	"os"
	"os/signal"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/spf13/cobra"
)

var (
	addRole string
)

// sendCmd runs one exchange with the model
var sendCmd = &cobra.Command{
	Use:   "send <session> [text...]",
	Short: "Send a message and stream the reply",
	Long: `Send a user message to the model within a session and stream the reply.

The words after the session name are joined into the message. With no text,
or "-", the message is read from stdin. The exchange is saved when the reply
completes; if the model fails or the command is interrupted, the user message
is discarded and the session file is left unchanged.`,
	Example: `  ollama-chat send demo "Explain goroutines"
  git diff | ollama-chat send review -`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := textArg(cmd, args[1:])
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a.console.StreamStart()
		_, err = a.manager.Send(ctx, text, a.console.Fragment)
		a.console.StreamEnd()
		if err != nil {
			var be *internal.BackendError
			if errors.As(err, &be) {
				return err
			}
			// The reply is kept in memory but did not reach disk
			a.console.Warning("Reply received but the session could not be saved")
			return err
		}
		return nil
	},
}

// addCmd appends a message without contacting the model
var addCmd = &cobra.Command{
	Use:   "add <session> [text...]",
	Short: "Append a message without calling the model",
	Long: `Append a message with the given role to a session and save it.

Roles are user, assistant and system. With no text, or "-", the content is
read from stdin.`,
	Example: `  ollama-chat add demo --role system "Answer in one paragraph"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := textArg(cmd, args[1:])
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
		if err := a.manager.AddMessage(addRole, text, true); err != nil {
			return err
		}
		a.console.Success("Added %s message to %s", addRole, a.manager.ActiveSession())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addRole, "role", "r", string(internal.RoleUser), "Message role: user, assistant, system")
}
