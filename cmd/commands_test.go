package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/iksnae/ollama-chat/testutil"
)

func mustRun(t *testing.T, dir string, args ...string) result {
	t.Helper()
	r := run(t, dir, "", args...)
	require.NoError(t, r.err, "ollama-chat %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), r.out, r.errOut)
	return r
}

func TestNewListShow(t *testing.T) {
	dir := isolate(t)

	r := mustRun(t, dir, "new", "--name", "demo", "--system", "You are terse.")
	assert.Contains(t, r.out, "[Success] Started session demo")
	assert.FileExists(t, filepath.Join(dir, "default", "demo.json"))

	r = mustRun(t, dir, "list")
	assert.Equal(t, " [1] demo\n", r.out)

	mustRun(t, dir, "add", "demo", "What", "is", "Go?")
	mustRun(t, dir, "add", "demo", "--role", "assistant", "A language.")

	r = mustRun(t, dir, "show", "demo")
	assert.Equal(t, "\nSystem: You are terse.\n\nUser: What is Go?\n\nAssistant: A language.\n", r.out)

	r = mustRun(t, dir, "show", "demo.json", "--limit", "1")
	assert.Equal(t, "\nAssistant: A language.\n", r.out)

	r = mustRun(t, dir, "list", "--meta")
	assert.Contains(t, r.out, "Found 1 session(s)")
	assert.Contains(t, r.out, `Last: "A language."`)
}

func TestShowMissingSession(t *testing.T) {
	dir := isolate(t)
	r := run(t, dir, "", "show", "nope")
	require.Error(t, r.err)
	assert.True(t, errors.Is(r.err, internal.ErrSessionNotFound))
}

func TestAddRejectsInvalidRole(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo")

	r := run(t, dir, "", "add", "demo", "--role", "robot", "beep")
	var ve *internal.ValidationError
	require.True(t, errors.As(r.err, &ve))

	doc := testutil.ReadSessionFile(t, dir, "", "demo")
	assert.Empty(t, doc["messages"])
}

func TestAddFromStdin(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo")

	r := run(t, dir, "piped text\n", "add", "demo", "-")
	require.NoError(t, r.err)

	doc := testutil.ReadSessionFile(t, dir, "", "demo")
	msgs := doc["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "piped text", msgs[0].(map[string]interface{})["content"])
}

func TestProjects(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "a")
	mustRun(t, dir, "--project", "work", "new", "--name", "b")

	r := mustRun(t, dir, "--project", "work", "projects")
	assert.Equal(t, "  default\n* work\n", r.out)

	r = mustRun(t, dir, "--project", "work", "list")
	assert.Equal(t, " [1] b\n", r.out)

	doc := testutil.ReadSessionFile(t, dir, "work", "b")
	assert.Equal(t, "work", doc["metadata"].(map[string]interface{})["project"])
}

func TestContextCommands(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo")

	mustRun(t, dir, "context", "add", "demo", "Style", "Use", "tabs")

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0644))
	mustRun(t, dir, "context", "file", "demo", path)

	r := run(t, dir, "", "context", "file", "demo", filepath.Join(t.TempDir(), "missing"))
	var se *internal.StorageError
	require.True(t, errors.As(r.err, &se))

	r = mustRun(t, dir, "context", "list", "demo")
	assert.Contains(t, r.out, "1. [text] Style")
	assert.Contains(t, r.out, "2. [file] File: notes.md")

	r = mustRun(t, dir, "show", "demo")
	assert.Contains(t, r.out, "System: Context - Style:\nUse tabs")
	assert.Contains(t, r.out, "System: Context - File: notes.md:\n# Notes")
}

func TestStatsAndCode(t *testing.T) {
	dir := isolate(t)
	testutil.WriteSessionFile(t, dir, "", "demo", internal.DefaultModel,
		testutil.FixtureMessage{Role: "user", Content: "binary search in python?"},
		testutil.FixtureMessage{Role: "assistant", Content: "Binary search:\n```python\ndef bs(): pass\n```\n```\nnotes\n```"},
	)

	r := mustRun(t, dir, "stats", "demo")
	assert.Contains(t, r.out, "• Total Messages: 2")
	assert.Contains(t, r.out, "• Your Messages: 1")
	assert.Contains(t, r.out, "• AI Responses: 1")

	r = mustRun(t, dir, "code", "demo", "--raw")
	assert.Equal(t, "def bs(): pass\n\nnotes\n", r.out)

	r = mustRun(t, dir, "code", "demo")
	assert.Contains(t, r.out, "```python\ndef bs(): pass\n```")
	assert.Contains(t, r.out, "```text\nnotes\n```")
}

func TestModelMismatchWarning(t *testing.T) {
	dir := isolate(t)
	testutil.WriteSessionFile(t, dir, "", "old", "llama2",
		testutil.FixtureMessage{Role: "user", Content: "hi"})

	r := mustRun(t, dir, "--model", "qwen2", "show", "old")
	assert.Contains(t, r.errOut, "[Warning] Session used llama2, now using qwen2")
	assert.Contains(t, r.out, "User: hi")
}

func TestSearch(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "trees")
	mustRun(t, dir, "add", "trees", "what is a binary tree")
	mustRun(t, dir, "add", "trees", "--role", "assistant", "A Binary tree has two children")
	mustRun(t, dir, "--project", "work", "new", "--name", "algo")
	mustRun(t, dir, "--project", "work", "add", "algo", "binary search please")

	r := mustRun(t, dir, "search", "binary", "--session", "trees", "--role", "assistant")
	assert.Contains(t, r.out, "1. [assistant] A Binary tree has two children")
	assert.NotContains(t, r.out, "2.")

	r = mustRun(t, dir, "search", "binary")
	assert.Contains(t, r.out, "default/trees")
	assert.NotContains(t, r.out, "work/algo")

	r = mustRun(t, dir, "search", "binary", "--all")
	assert.Contains(t, r.out, "work/algo #0 [user] binary search please")

	r = mustRun(t, dir, "search", "graph")
	assert.Equal(t, "No results found for: graph\n", r.out)

	r = run(t, dir, "", "search", "binary", "--session", "trees", "--role", "Robot")
	assert.Error(t, r.err)
}

func TestReindexAndInspect(t *testing.T) {
	dir := isolate(t)
	testutil.WriteSessionFile(t, dir, "", "a", "m",
		testutil.FixtureMessage{Role: "user", Content: "needle in a haystack"})
	testutil.WriteSessionFile(t, dir, "work", "b", "m",
		testutil.FixtureMessage{Role: "assistant", Content: "another needle"})

	r := mustRun(t, dir, "search", "needle", "--all")
	assert.Contains(t, r.out, "No results found", "hand-written files are not indexed yet")

	r = mustRun(t, dir, "reindex")
	assert.Contains(t, r.out, "[Success] Indexed 2 session(s)")

	r = mustRun(t, dir, "search", "needle", "--all")
	assert.Contains(t, r.out, "default/a")
	assert.Contains(t, r.out, "work/b")

	r = mustRun(t, dir, "inspect")
	assert.Contains(t, r.out, "📦 Table: messages (2 rows)")
	assert.Contains(t, r.out, "📦 Table: sessions (2 rows)")
	assert.Contains(t, r.out, "• session: TEXT NOT NULL [PRIMARY KEY]")
}

func TestExport(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo", "--system", "sys")
	mustRun(t, dir, "add", "demo", "hello")

	out := filepath.Join(t.TempDir(), "nested", "demo.md")
	r := mustRun(t, dir, "export", "demo", "--output", out)
	assert.Contains(t, r.out, "[Success] Exported to "+out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Chat Session - "+internal.DefaultModel+"\n"))
	assert.Contains(t, string(data), "## 👤 User\n\nhello\n")

	r = mustRun(t, dir, "export", "demo", "--format", "jsonl", "--output", "-")
	assert.Equal(t, "{\"role\":\"system\",\"content\":\"sys\"}\n{\"role\":\"user\",\"content\":\"hello\"}\n", r.out)

	work := t.TempDir()
	testutil.Chdir(t, work)
	mustRun(t, dir, "export", "demo", "--format", "yaml")
	assert.FileExists(t, filepath.Join(work, "demo.yaml"))

	r = run(t, dir, "", "export", "demo", "--format", "html")
	assert.Error(t, r.err)
}

func TestDelete(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo")
	mustRun(t, dir, "add", "demo", "findme")

	mustRun(t, dir, "delete", "demo")
	assert.NoFileExists(t, filepath.Join(dir, "default", "demo.json"))

	r := mustRun(t, dir, "search", "findme")
	assert.Contains(t, r.out, "No results found")

	r = run(t, dir, "", "rm", "demo")
	assert.True(t, errors.Is(r.err, internal.ErrSessionNotFound))
}

func TestDeleteRejectsPathOutsideRoot(t *testing.T) {
	dir := isolate(t)
	victim := filepath.Join(filepath.Dir(dir), "victim.json")
	require.NoError(t, os.WriteFile(victim, []byte("{}"), 0644))
	testutil.WriteSessionFile(t, dir, "other", "foo", "m")

	var ve *internal.ValidationError
	r := run(t, dir, "", "delete", "../../victim")
	assert.True(t, errors.As(r.err, &ve), "got %v", r.err)
	assert.FileExists(t, victim)

	r = run(t, dir, "", "show", "../other/foo")
	assert.True(t, errors.As(r.err, &ve), "got %v", r.err)
}

func TestModeFlagOverridesInvalidEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("OLLAMA_CHAT_MODE", "sparkly")

	mustRun(t, dir, "new", "--name", "demo")
	assert.FileExists(t, filepath.Join(dir, "default", "demo.json"))
}

func TestHealthcheckOffline(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "new", "--name", "demo")

	r := mustRun(t, dir, "healthcheck", "--offline")
	assert.Contains(t, r.out, "Conversations directory is writable")
	assert.Contains(t, r.out, "Found 1 session(s)")
	assert.Contains(t, r.out, "Health check passed!")
	assert.Contains(t, r.errOut, "Skipped (--offline)")
}

func TestSilentMode(t *testing.T) {
	dir := isolate(t)
	resetFlags()
	t.Cleanup(resetFlags)

	r := run(t, dir, "", "--mode", "silent", "new", "--name", "quiet")
	require.NoError(t, r.err)
	assert.Empty(t, r.out)
	assert.FileExists(t, filepath.Join(dir, "default", "quiet.json"))
}

func TestConfigFile(t *testing.T) {
	dir := isolate(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model: from-config\nproject: cfgproj\n"), 0644))

	mustRun(t, dir, "--config", cfg, "new", "--name", "x")
	doc := testutil.ReadSessionFile(t, dir, "cfgproj", "x")
	meta := doc["metadata"].(map[string]interface{})
	assert.Equal(t, "from-config", meta["model"])

	r := run(t, dir, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "list")
	assert.Error(t, r.err)
}
