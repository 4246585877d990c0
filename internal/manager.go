package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ManagerConfig configures a Manager at construction
type ManagerConfig struct {
	Store   *Store
	Backend Backend
	Model   string
	Project string

	// Now overrides the clock; tests use it for stable identifiers
	Now func() time.Time
}

// Manager owns one active conversation: its ordered messages, context items
// and the session file they are saved to. Mutating methods are serialized, so
// at most one exchange runs at a time. Read-only methods stay available while
// a reply streams, including from the fragment callback.
type Manager struct {
	// op serializes mutations; mu guards the fields below. Lock op before mu.
	op sync.Mutex
	mu sync.Mutex

	store   *Store
	backend Backend
	model   string
	project string
	now     func() time.Time

	activeID    string
	created     string
	messages    []Message
	contextData []ContextItem
}

// LoadResult describes a loaded session
type LoadResult struct {
	ID string

	// StoredModel is the model recorded in the file
	StoredModel string

	// ModelChanged is set when StoredModel differs from the manager's model;
	// the session is still loaded
	ModelChanged bool
}

// NewManager creates a manager with no active session and ensures the
// project directory exists
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("manager requires a store")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		store:   cfg.Store,
		backend: cfg.Backend,
		model:   cfg.Model,
		project: cfg.Project,
		now:     cfg.Now,
	}
	if _, err := m.store.EnsureProject(m.project); err != nil {
		return nil, err
	}
	return m, nil
}

// Model returns the configured model identifier
func (m *Manager) Model() string {
	return m.model
}

// Project returns the active project, "" for the default namespace
func (m *Manager) Project() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.project
}

// Store returns the underlying session store
func (m *Manager) Store() *Store {
	return m.store
}

// ActiveSession returns the active session identifier, "" when none
func (m *Manager) ActiveSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Messages returns a copy of the transcript
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// ContextData returns a copy of the context items
func (m *Manager) ContextData() []ContextItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ContextItem(nil), m.contextData...)
}

// Snapshot returns the in-memory state as a Session document with freshly
// computed metadata
func (m *Manager) Snapshot() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() *Session {
	created := m.created
	if created == "" {
		created = FormatTimestamp(m.now())
	}
	return &Session{
		ID: m.activeID,
		Metadata: Metadata{
			Model:        m.model,
			Project:      projectPtr(m.project),
			Created:      created,
			LastModified: FormatTimestamp(m.now()),
			MessageCount: len(m.messages),
			ContextData:  append([]ContextItem{}, m.contextData...),
		},
		Messages: append([]Message{}, m.messages...),
	}
}

// ListSessions returns identifiers in the active project, newest first
func (m *Manager) ListSessions() ([]string, error) {
	return m.store.List(m.Project())
}

// ListSessionsWithMetadata returns summaries ordered by last modification
func (m *Manager) ListSessionsWithMetadata() ([]SessionSummary, error) {
	return m.store.ListWithMetadata(m.Project())
}

// StartNewSession resets state, optionally seeds a system prompt and saves
// immediately so the file exists before the first exchange. A save failure
// is returned but the new session stays active in memory.
func (m *Manager) StartNewSession(systemPrompt, name string) (string, error) {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	id, err := m.store.NewSessionID(m.project, name, now)
	if err != nil {
		return "", err
	}

	m.activeID = id
	m.created = FormatTimestamp(now)
	m.messages = []Message{}
	m.contextData = []ContextItem{}
	if systemPrompt != "" {
		m.messages = append(m.messages, Message{Role: RoleSystem, Content: systemPrompt})
	}

	LogDebug("Started session %s in project %s", id, m.projectLabel())
	return id, m.saveLocked()
}

// LoadSession replaces in-memory state with the stored session. On failure
// the manager is left with no active session and empty state.
func (m *Manager) LoadSession(id string) (*LoadResult, error) {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.Read(m.project, id)
	if err != nil {
		m.resetLocked()
		return nil, fmt.Errorf("could not load %s: %w", id, err)
	}

	m.activeID = sess.ID
	m.created = sess.Metadata.Created
	m.messages = sess.Messages
	m.contextData = append([]ContextItem{}, sess.Metadata.ContextData...)

	result := &LoadResult{ID: sess.ID, StoredModel: sess.Metadata.Model}
	if sess.Metadata.Model != m.model {
		result.ModelChanged = true
		LogDebug("Session %s used %s, now using %s", sess.ID, sess.Metadata.Model, m.model)
	}
	return result, nil
}

// Save writes the active session; it is a no-op without one
func (m *Manager) Save() error {
	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if m.activeID == "" {
		return nil
	}
	return m.store.Write(m.project, m.snapshotLocked())
}

// SwitchProject changes namespace and clears the active session
func (m *Manager) SwitchProject(project string) error {
	if project != "" {
		if err := ValidateSessionName(project); err != nil {
			return &ValidationError{Field: "project", Value: project}
		}
	}

	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.store.EnsureProject(project); err != nil {
		return err
	}
	m.project = project
	m.resetLocked()
	LogDebug("Switched to project %s", m.projectLabel())
	return nil
}

func (m *Manager) resetLocked() {
	m.activeID = ""
	m.created = ""
	m.messages = []Message{}
	m.contextData = []ContextItem{}
}

func (m *Manager) projectLabel() string {
	if m.project == "" {
		return DefaultProject
	}
	return m.project
}

// AddMessage validates role and appends. With persist set and a session
// active, the session is saved; a save error leaves the message in memory.
func (m *Manager) AddMessage(role, content string, persist bool) error {
	msg, err := NewMessage(role, content)
	if err != nil {
		return err
	}

	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	if persist {
		return m.saveLocked()
	}
	return nil
}

// AddContext records a context item and the system message that carries it,
// then saves
func (m *Manager) AddContext(title, content, contextType string) error {
	if contextType == "" {
		contextType = ContextTypeText
	}

	m.op.Lock()
	defer m.op.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	item := ContextItem{
		Title:   title,
		Content: content,
		Type:    contextType,
		AddedAt: FormatTimestamp(m.now()),
	}
	m.contextData = append(m.contextData, item)
	m.messages = append(m.messages, item.SystemMessage())
	return m.saveLocked()
}

// AddFileContext adds the full text of path as a "file" context item. A read
// failure leaves the conversation untouched.
func (m *Manager) AddFileContext(path, title string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &StorageError{Path: path, Op: "read", Err: err}
	}
	if title == "" {
		title = "File: " + filepath.Base(path)
	}
	return m.AddContext(title, string(data), ContextTypeFile)
}

// LastCodeBlocks extracts code blocks from the last message when it is an
// assistant reply, otherwise returns none
func (m *Manager) LastCodeBlocks() []CodeBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 || m.messages[len(m.messages)-1].Role != RoleAssistant {
		return []CodeBlock{}
	}
	return ExtractCodeBlocks(m.messages[len(m.messages)-1].Content)
}

// LastResponse returns the most recent assistant message
func (m *Manager) LastResponse() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == RoleAssistant {
			return m.messages[i].Content, true
		}
	}
	return "", false
}

// History returns the last limit messages, or all of them when limit <= 0
func (m *Manager) History(limit int) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]Message(nil), msgs...)
}

// SearchMessages searches the transcript. role may be empty; otherwise it
// must be a valid role.
func (m *Manager) SearchMessages(query, role string) ([]SearchResult, error) {
	var r Role
	if role != "" {
		parsed, err := ParseRole(role)
		if err != nil {
			return nil, err
		}
		r = parsed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return SearchMessages(m.messages, query, r), nil
}

// Stats returns nil for an empty session
func (m *Manager) Stats() *SessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ComputeStats(m.messages, m.contextData)
}

// Send runs one exchange. The user message is recorded before the backend
// is called; fragments are accumulated in arrival order and onFragment, when
// set, sees each one. On success the assistant reply is appended and the
// session saved; a save failure is returned alongside the reply. On backend
// failure the user message is rolled back and nothing is saved.
//
// onFragment runs without the state lock held, so it may call read-only
// methods such as Messages or Stats. Calling a mutating method from it
// deadlocks.
func (m *Manager) Send(ctx context.Context, text string, onFragment func(string)) (string, error) {
	m.op.Lock()
	defer m.op.Unlock()

	m.mu.Lock()
	if m.activeID == "" {
		m.mu.Unlock()
		return "", ErrNoActiveSession
	}
	if m.backend == nil {
		m.mu.Unlock()
		return "", &BackendError{Model: m.model, Err: errors.New("no backend configured")}
	}
	before := len(m.messages)
	m.messages = append(m.messages, Message{Role: RoleUser, Content: text})
	req := &ChatRequest{
		Model:    m.model,
		Messages: append([]Message(nil), m.messages...),
		Stream:   true,
	}
	m.mu.Unlock()

	reply, err := m.exchange(ctx, req, onFragment)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if len(m.messages) == before+1 && m.messages[before].Role == RoleUser {
			m.messages = m.messages[:before]
		}
		LogDebug("Exchange in %s failed: %v", m.activeID, err)
		return "", err
	}

	m.messages = append(m.messages, Message{Role: RoleAssistant, Content: reply})
	if err := m.saveLocked(); err != nil {
		return reply, err
	}
	return reply, nil
}

// exchange streams one reply; it touches no manager state
func (m *Manager) exchange(ctx context.Context, req *ChatRequest, onFragment func(string)) (string, error) {
	events, err := m.backend.Chat(ctx, req)
	if err != nil {
		return "", asBackendError(m.model, err)
	}
	defer func() {
		for range events {
		}
	}()

	var reply strings.Builder
	for {
		var ev Event
		var ok bool
		select {
		case <-ctx.Done():
			return "", asBackendError(m.model, ctx.Err())
		case ev, ok = <-events:
		}
		if !ok {
			if ctx.Err() != nil {
				return "", asBackendError(m.model, ctx.Err())
			}
			return "", asBackendError(m.model, ErrIncompleteResponse)
		}
		switch ev.Type {
		case EventTextDelta:
			reply.WriteString(ev.TextDelta)
			if onFragment != nil {
				onFragment(ev.TextDelta)
			}
		case EventError:
			return "", asBackendError(m.model, ev.Err)
		case EventDone:
			return reply.String(), nil
		}
	}
}

func asBackendError(model string, err error) error {
	if err == nil {
		err = errors.New("unknown backend failure")
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Model: model, Err: err}
}
