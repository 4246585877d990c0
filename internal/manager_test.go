package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/ollama-chat/testutil"
)

var testNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.Local)

func newTestManager(t *testing.T, backend Backend) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	m, err := NewManager(ManagerConfig{
		Store:   NewStore(root),
		Backend: backend,
		Model:   "test-model",
		Now:     FixedClock(testNow),
	})
	require.NoError(t, err)
	return m, root
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(ManagerConfig{})
	assert.Error(t, err)

	root := t.TempDir()
	m, err := NewManager(ManagerConfig{Store: NewStore(root), Project: "work"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, m.Model())
	assert.Equal(t, "", m.ActiveSession())
	assert.DirExists(t, filepath.Join(root, "work"))
}

func TestManager_StartNewSession(t *testing.T) {
	m, root := newTestManager(t, nil)

	id, err := m.StartNewSession("You are terse.", "")
	require.NoError(t, err)
	assert.Equal(t, "20250115_103000", id)
	assert.Equal(t, id, m.ActiveSession())

	doc := testutil.ReadSessionFile(t, root, "", id)
	meta := doc["metadata"].(map[string]interface{})
	assert.Equal(t, "test-model", meta["model"])
	assert.Nil(t, meta["project"])
	assert.Equal(t, "2025-01-15T10:30:00.000000", meta["created"])
	assert.Equal(t, float64(1), meta["message_count"])

	id2, err := m.StartNewSession("", "")
	require.NoError(t, err)
	assert.Equal(t, "20250115_103000_2", id2)
	assert.Empty(t, m.Messages())

	named, err := m.StartNewSession("", "notes")
	require.NoError(t, err)
	assert.Equal(t, "notes", named)
}

func TestManager_AddMessage(t *testing.T) {
	m, root := newTestManager(t, nil)
	id, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	require.NoError(t, m.AddMessage("user", "Hello", true))
	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{Role: RoleUser, Content: "Hello"}, msgs[0])

	doc := testutil.ReadSessionFile(t, root, "", id)
	assert.Len(t, doc["messages"], 1)

	err = m.AddMessage("robot", "beep", true)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, m.Messages(), 1, "invalid role leaves transcript unchanged")

	require.NoError(t, m.AddMessage("assistant", "unsaved", false))
	doc = testutil.ReadSessionFile(t, root, "", id)
	assert.Len(t, doc["messages"], 1, "persist=false does not write")
}

func TestManager_AddMessageWithoutSession(t *testing.T) {
	m, root := newTestManager(t, nil)
	require.NoError(t, m.AddMessage("user", "floating", true))
	assert.Len(t, m.Messages(), 1)

	ids, err := NewStore(root).List("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_SendSuccess(t *testing.T) {
	backend := &ScriptedBackend{Fragments: []string{"Hel", "lo", "!"}}
	m, root := newTestManager(t, backend)
	id, err := m.StartNewSession("sys", "chat")
	require.NoError(t, err)

	var seen []string
	reply, err := m.Send(context.Background(), "Hi", func(f string) { seen = append(seen, f) })
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, []string{"Hel", "lo", "!"}, seen)

	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Hello!"},
	}, m.Messages())

	req := backend.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "test-model", req.Model)
	assert.True(t, req.Stream)
	assert.Len(t, req.Messages, 2, "request carries history plus the new user message")

	doc := testutil.ReadSessionFile(t, root, "", id)
	assert.Len(t, doc["messages"], 3)
}

func TestManager_SendRollback(t *testing.T) {
	tests := []struct {
		name    string
		backend *ScriptedBackend
	}{
		{
			name:    "stream error after fragments",
			backend: &ScriptedBackend{Fragments: []string{"partial"}, Err: errors.New("connection reset")},
		},
		{
			name:    "chat call fails",
			backend: &ScriptedBackend{ChatErr: errors.New("connection refused")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, root := newTestManager(t, tt.backend)
			id, err := m.StartNewSession("", "chat")
			require.NoError(t, err)
			require.NoError(t, m.AddMessage("user", "earlier", true))
			before := testutil.ReadSessionFile(t, root, "", id)

			reply, err := m.Send(context.Background(), "Hi", nil)
			assert.Empty(t, reply)
			var be *BackendError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, "test-model", be.Model)

			assert.Equal(t, []Message{{Role: RoleUser, Content: "earlier"}}, m.Messages())
			assert.Equal(t, before, testutil.ReadSessionFile(t, root, "", id), "file untouched")
		})
	}
}

// closingBackend closes the stream without a terminal event
type closingBackend struct{}

func (closingBackend) Name() string { return "closing" }

func (closingBackend) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	events := make(chan Event, 1)
	events <- Event{Type: EventTextDelta, TextDelta: "cut"}
	close(events)
	return events, nil
}

func TestManager_SendIncompleteStream(t *testing.T) {
	m, _ := newTestManager(t, closingBackend{})
	_, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	_, err = m.Send(context.Background(), "Hi", nil)
	assert.True(t, errors.Is(err, ErrIncompleteResponse))
	assert.Empty(t, m.Messages())
}

// stallingBackend sends one fragment and closes only when ctx ends
type stallingBackend struct{}

func (stallingBackend) Name() string { return "stalling" }

func (stallingBackend) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	events := make(chan Event, 1)
	events <- Event{Type: EventTextDelta, TextDelta: "partial"}
	go func() {
		<-ctx.Done()
		close(events)
	}()
	return events, nil
}

func TestManager_SendCancelled(t *testing.T) {
	m, root := newTestManager(t, stallingBackend{})
	id, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	_, err = m.Send(ctx, "Hi", func(f string) {
		got = append(got, f)
		cancel()
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"partial"}, got)
	assert.Empty(t, m.Messages())

	doc := testutil.ReadSessionFile(t, root, "", id)
	assert.Empty(t, doc["messages"])
}

func TestManager_SendCallbackCanReadState(t *testing.T) {
	backend := &ScriptedBackend{Fragments: []string{"a", "b"}}
	m, _ := newTestManager(t, backend)
	_, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	var seen [][]Message
	done := make(chan error, 1)
	go func() {
		_, err := m.Send(context.Background(), "Hi", func(string) {
			seen = append(seen, m.Messages())
			_ = m.Stats()
			_ = m.ActiveSession()
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked while the callback read manager state")
	}

	require.Len(t, seen, 2)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "Hi"}}, seen[0])
	assert.Len(t, m.Messages(), 2)
}

func TestManager_SendWithoutSession(t *testing.T) {
	backend := &ScriptedBackend{Fragments: []string{"x"}}
	m, _ := newTestManager(t, backend)

	_, err := m.Send(context.Background(), "Hi", nil)
	assert.True(t, errors.Is(err, ErrNoActiveSession))
	assert.Nil(t, backend.LastRequest())
}

func TestManager_SendWithoutBackend(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	_, err = m.Send(context.Background(), "Hi", nil)
	var be *BackendError
	assert.True(t, errors.As(err, &be))
	assert.Empty(t, m.Messages())
}

func TestManager_SendSaveFailureKeepsReply(t *testing.T) {
	backend := &ScriptedBackend{Fragments: []string{"ok"}}
	m, root := newTestManager(t, backend)
	_, err := m.StartNewSession("", "chat")
	require.NoError(t, err)

	// replace the project directory with a file so the write fails
	dir := filepath.Join(root, DefaultProject)
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))

	reply, err := m.Send(context.Background(), "Hi", nil)
	assert.Equal(t, "ok", reply)
	assert.Error(t, err)
	assert.Len(t, m.Messages(), 2)
}

func TestManager_AddContext(t *testing.T) {
	m, root := newTestManager(t, nil)
	id, err := m.StartNewSession("", "ctx")
	require.NoError(t, err)

	require.NoError(t, m.AddContext("Style", "Use tabs", ""))

	items := m.ContextData()
	require.Len(t, items, 1)
	assert.Equal(t, ContextItem{
		Title:   "Style",
		Content: "Use tabs",
		Type:    ContextTypeText,
		AddedAt: "2025-01-15T10:30:00.000000",
	}, items[0])
	assert.Equal(t, []Message{{Role: RoleSystem, Content: "Context - Style:\nUse tabs"}}, m.Messages())

	doc := testutil.ReadSessionFile(t, root, "", id)
	meta := doc["metadata"].(map[string]interface{})
	assert.Len(t, meta["context_data"], 1)
}

func TestManager_AddFileContext(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.StartNewSession("", "ctx")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0644))

	require.NoError(t, m.AddFileContext(path, ""))
	items := m.ContextData()
	require.Len(t, items, 1)
	assert.Equal(t, "File: main.go", items[0].Title)
	assert.Equal(t, ContextTypeFile, items[0].Type)
	assert.Equal(t, "package main", items[0].Content)

	err = m.AddFileContext(filepath.Join(t.TempDir(), "missing.txt"), "")
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Len(t, m.ContextData(), 1, "failed read leaves conversation unchanged")
	assert.Len(t, m.Messages(), 1)
}

func TestManager_LoadSession(t *testing.T) {
	m, root := newTestManager(t, nil)
	testutil.WriteSessionFile(t, root, "", "stored", "other-model",
		testutil.FixtureMessage{Role: "user", Content: "hi"},
		testutil.FixtureMessage{Role: "assistant", Content: "hello"})

	result, err := m.LoadSession("stored.json")
	require.NoError(t, err)
	assert.Equal(t, "stored", result.ID)
	assert.Equal(t, "other-model", result.StoredModel)
	assert.True(t, result.ModelChanged)
	assert.Equal(t, "stored", m.ActiveSession())
	assert.Len(t, m.Messages(), 2)

	// the configured model is kept and used on the next save
	require.NoError(t, m.Save())
	doc := testutil.ReadSessionFile(t, root, "", "stored")
	meta := doc["metadata"].(map[string]interface{})
	assert.Equal(t, "test-model", meta["model"])
	assert.Equal(t, testutil.FixtureTimestamp, meta["created"])
}

func TestManager_LoadFailureResetsState(t *testing.T) {
	m, root := newTestManager(t, nil)
	_, err := m.StartNewSession("sys", "active")
	require.NoError(t, err)
	testutil.WriteRawSession(t, root, "", "corrupt", []byte("{"))

	_, err = m.LoadSession("corrupt")
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "", m.ActiveSession())
	assert.Empty(t, m.Messages())
	assert.Empty(t, m.ContextData())

	_, err = m.LoadSession("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestManager_SwitchProject(t *testing.T) {
	m, root := newTestManager(t, nil)
	_, err := m.StartNewSession("", "a")
	require.NoError(t, err)

	require.NoError(t, m.SwitchProject("work"))
	assert.Equal(t, "work", m.Project())
	assert.Equal(t, "", m.ActiveSession())
	assert.DirExists(t, filepath.Join(root, "work"))

	id, err := m.StartNewSession("", "b")
	require.NoError(t, err)
	doc := testutil.ReadSessionFile(t, root, "work", id)
	assert.Equal(t, "work", doc["metadata"].(map[string]interface{})["project"])

	ids, err := m.ListSessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	var ve *ValidationError
	assert.True(t, errors.As(m.SwitchProject("../x"), &ve))
	assert.Equal(t, "work", m.Project())
}

func TestManager_QueriesOnTranscript(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.StartNewSession("", "q")
	require.NoError(t, err)
	require.NoError(t, m.AddContext("Notes", "binary formats", ""))
	require.NoError(t, m.AddMessage("user", "What is a binary tree?", false))
	require.NoError(t, m.AddMessage("assistant", "A binary tree:\n```python\nclass Node: pass\n```\n```\nplain\n```", false))

	stats := m.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 1, stats.UserMessages)
	assert.Equal(t, 1, stats.AssistantMessages)
	assert.Equal(t, 1, stats.SystemMessages)
	assert.Equal(t, 1, stats.ContextItems)

	results, err := m.SearchMessages("binary", "assistant")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, RoleAssistant, results[0].Role)

	results, err = m.SearchMessages("BINARY", "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = m.SearchMessages("binary", "Assistant")
	assert.Error(t, err)

	blocks := m.LastCodeBlocks()
	assert.Equal(t, []CodeBlock{
		{Language: "python", Code: "class Node: pass"},
		{Language: "text", Code: "plain"},
	}, blocks)

	last, ok := m.LastResponse()
	assert.True(t, ok)
	assert.Contains(t, last, "binary tree")

	assert.Len(t, m.History(2), 2)
	assert.Len(t, m.History(0), 3)

	require.NoError(t, m.AddMessage("user", "thanks", false))
	assert.Empty(t, m.LastCodeBlocks(), "last message is not an assistant reply")
}

func TestManager_StatsEmpty(t *testing.T) {
	m, _ := newTestManager(t, nil)
	assert.Nil(t, m.Stats())
	_, ok := m.LastResponse()
	assert.False(t, ok)
}
