package cmd

import (
	"github.com/spf13/cobra"
)

var (
	codeRaw bool
)

// codeCmd extracts fenced code blocks from the last assistant reply
var codeCmd = &cobra.Command{
	Use:   "code <session>",
	Short: "Extract code blocks from the last reply",
	Long: `Print the fenced code blocks of the session's last message, if it is an
assistant reply. Blocks without a language tag are labeled "text".

With --raw only the code is printed, separated by blank lines, which is
handy for piping into a file.`,
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

		blocks := a.manager.LastCodeBlocks()
		if !codeRaw {
			a.console.CodeBlocks(blocks)
			return nil
		}
		for i, b := range blocks {
			if i > 0 {
				a.console.Print("\n")
			}
			a.console.Print(b.Code + "\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(codeCmd)
	codeCmd.Flags().BoolVar(&codeRaw, "raw", false, "Print only the code, without fences")
}
