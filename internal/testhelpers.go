package internal

import (
	"context"
	"sync"
	"time"
)

// CreateTestSession creates a test session with sample data
func CreateTestSession(id string) *Session {
	now := FormatTimestamp(time.Now())
	return &Session{
		ID: id,
		Metadata: Metadata{
			Model:        DefaultModel,
			Project:      projectPtr("test-project"),
			Created:      now,
			LastModified: now,
			MessageCount: 3,
			ContextData:  []ContextItem{},
		},
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant."},
			{Role: RoleUser, Content: "Hello, how are you?"},
			{Role: RoleAssistant, Content: "I'm doing well, thank you!"},
		},
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	now := FormatTimestamp(time.Now())
	return &Session{
		ID: id,
		Metadata: Metadata{
			Model:        DefaultModel,
			Created:      now,
			LastModified: now,
			MessageCount: len(messages),
			ContextData:  []ContextItem{},
		},
		Messages: messages,
	}
}

// ScriptedBackend replays fixed fragments, then completes or fails with Err.
// It records every request it receives.
type ScriptedBackend struct {
	Fragments []string
	Err       error

	// ChatErr fails the call before any stream is returned
	ChatErr error

	mu       sync.Mutex
	Requests []*ChatRequest
}

// Compile-time check that ScriptedBackend implements Backend.
var _ Backend = (*ScriptedBackend)(nil)

// Name returns the backend identifier
func (b *ScriptedBackend) Name() string {
	return "scripted"
}

// Chat replays the script
func (b *ScriptedBackend) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	b.mu.Lock()
	b.Requests = append(b.Requests, req)
	b.mu.Unlock()

	if b.ChatErr != nil {
		return nil, b.ChatErr
	}

	events := make(chan Event, len(b.Fragments)+1)
	for _, f := range b.Fragments {
		events <- Event{Type: EventTextDelta, TextDelta: f}
	}
	if b.Err != nil {
		events <- Event{Type: EventError, Err: b.Err}
	} else {
		events <- Event{Type: EventDone}
	}
	close(events)
	return events, nil
}

// LastRequest returns the most recent request, or nil
func (b *ScriptedBackend) LastRequest() *ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Requests) == 0 {
		return nil
	}
	return b.Requests[len(b.Requests)-1]
}

// FixedClock returns a clock that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
