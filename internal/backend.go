package internal

import "context"

// ChatRequest is what the manager sends to the inference service: the
// configured model and the full transcript in order
type ChatRequest struct {
	Model    string
	Messages []Message
	Stream   bool
}

// EventType classifies streamed backend events
type EventType int

const (
	// EventTextDelta carries the next fragment of the response
	EventTextDelta EventType = iota

	// EventDone marks successful completion
	EventDone

	// EventError marks failure; Err is set
	EventError
)

// Event is one item of a streamed response
type Event struct {
	Type      EventType
	TextDelta string
	Err       error
}

// Backend is an inference service. Chat returns a channel that yields text
// deltas followed by exactly one EventDone or EventError, then closes.
// Callers must drain the channel.
type Backend interface {
	Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error)
	Name() string
}
