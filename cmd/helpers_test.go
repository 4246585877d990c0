package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/ollama-chat/testutil"
	"github.com/spf13/cobra"
)

// resetFlags restores every package-level flag variable; cobra keeps the
// values of earlier runs otherwise
func resetFlags() {
	verbose = false
	cfgFile = ""
	projectName = ""
	modelName = ""
	storageDir = ""
	visualMode = ""
	logFile = ""

	listMeta = false
	newSystemPrompt = ""
	newName = ""
	showLimit = 0
	addRole = "user"
	contextFileTitle = ""
	codeRaw = false
	searchSession = ""
	searchRole = ""
	searchAll = false
	searchLimit = 50
	exportFormat = "md"
	exportOutput = ""
	healthcheckOffline = false

	active = nil

	resetBuiltinFlags(rootCmd)
}

func resetBuiltinFlags(c *cobra.Command) {
	for _, name := range []string{"help", "version"} {
		if f := c.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
	for _, sub := range c.Commands() {
		resetBuiltinFlags(sub)
	}
}

type result struct {
	out    string
	errOut string
	err    error
}

// isolate points HOME and the OLLAMA_* variables away from the developer's
// setup and returns a fresh conversations root
func isolate(t *testing.T) string {
	t.Helper()
	testutil.ClearEnv(t,
		"OLLAMA_HOST",
		"OLLAMA_CHAT_MODEL",
		"OLLAMA_CHAT_DIR",
		"OLLAMA_CHAT_PROJECT",
		"OLLAMA_CHAT_MODE",
		"OLLAMA_CHAT_LOG_FILE",
		"OLLAMA_CHAT_LOG_LEVEL",
		"OLLAMA_CHAT_INDEX",
	)
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

// run executes the root command against dir in plain mode
func run(t *testing.T, dir string, stdin string, args ...string) result {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	full := append([]string{"--dir", dir, "--mode", "plain"}, args...)
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}
