package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/iksnae/ollama-chat/testutil"
)

// fakeOllama answers /api/chat with the given chunks, or with status when
// it is not 200
func fakeOllama(t *testing.T, status int, chunks ...string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = fmt.Fprint(w, `{"version":"0.5.0"}`)
		case "/api/chat":
			if status != http.StatusOK {
				http.Error(w, `{"error":"unavailable"}`, status)
				return
			}
			for _, c := range chunks {
				_, _ = fmt.Fprintf(w, `{"model":"m","message":{"role":"assistant","content":%q},"done":false}`+"\n", c)
			}
			_, _ = fmt.Fprint(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true}`+"\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OLLAMA_HOST", srv.URL)
}

func TestSend(t *testing.T) {
	dir := isolate(t)
	fakeOllama(t, http.StatusOK, "Go is ", "a language.")

	mustRun(t, dir, "new", "--name", "demo")
	r := mustRun(t, dir, "send", "demo", "What", "is", "Go?")
	assert.Equal(t, "\nAssistant: Go is a language.\n", r.out)

	doc := testutil.ReadSessionFile(t, dir, "", "demo")
	msgs := doc["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "What is Go?", msgs[0].(map[string]interface{})["content"])
	assert.Equal(t, "Go is a language.", msgs[1].(map[string]interface{})["content"])
	assert.Equal(t, float64(2), doc["metadata"].(map[string]interface{})["message_count"])
}

func TestSendFromStdin(t *testing.T) {
	dir := isolate(t)
	fakeOllama(t, http.StatusOK, "ok")

	mustRun(t, dir, "new", "--name", "demo")
	r := run(t, dir, "review this diff\n", "send", "demo")
	require.NoError(t, r.err)

	doc := testutil.ReadSessionFile(t, dir, "", "demo")
	msgs := doc["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "review this diff", msgs[0].(map[string]interface{})["content"])
}

func TestSendBackendFailureRollsBack(t *testing.T) {
	dir := isolate(t)
	fakeOllama(t, http.StatusServiceUnavailable)

	mustRun(t, dir, "new", "--name", "demo", "--system", "sys")
	before := testutil.ReadSessionFile(t, dir, "", "demo")

	r := run(t, dir, "", "send", "demo", "hello")
	var be *internal.BackendError
	require.True(t, errors.As(r.err, &be), "got %v", r.err)

	assert.Equal(t, before, testutil.ReadSessionFile(t, dir, "", "demo"))
}

func TestSendMissingSession(t *testing.T) {
	dir := isolate(t)
	fakeOllama(t, http.StatusOK, "x")

	r := run(t, dir, "", "send", "ghost", "hello")
	assert.True(t, errors.Is(r.err, internal.ErrSessionNotFound))
}

func TestHealthcheckOnline(t *testing.T) {
	dir := isolate(t)
	fakeOllama(t, http.StatusOK)

	r := mustRun(t, dir, "healthcheck")
	assert.Contains(t, r.out, "Ollama is reachable")
	assert.Contains(t, r.errOut, "No sessions found in this project")
}
