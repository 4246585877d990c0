package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

const (
	// DefaultOllamaHost is the local Ollama server address
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultModel is used when no model is configured
	DefaultModel = "deepseek-r1:7b"
)

// OllamaBackend streams chat completions from a local Ollama server
type OllamaBackend struct {
	llm   *ollama.LLM
	host  string
	model string
}

// Compile-time check that OllamaBackend implements Backend.
var _ Backend = (*OllamaBackend)(nil)

// NewOllamaBackend creates a backend for host, defaulting host and model
func NewOllamaBackend(host, model string) (*OllamaBackend, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultModel
	}

	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}

	return &OllamaBackend{llm: llm, host: host, model: model}, nil
}

// Name returns the backend identifier
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// Host returns the server URL
func (b *OllamaBackend) Host() string {
	return b.host
}

// Chat starts a streaming completion over the whole transcript
func (b *OllamaBackend) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = b.model
	}
	content, err := toLLMMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)

		opts := []llms.CallOption{llms.WithModel(model)}
		if req.Stream {
			opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case events <- Event{Type: EventTextDelta, TextDelta: string(chunk)}:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}))
		}

		resp, err := b.llm.GenerateContent(ctx, content, opts...)
		if err != nil {
			send(ctx, events, Event{Type: EventError, Err: &BackendError{Model: model, Err: err}})
			return
		}
		if !req.Stream && len(resp.Choices) > 0 {
			send(ctx, events, Event{Type: EventTextDelta, TextDelta: resp.Choices[0].Content})
		}
		send(ctx, events, Event{Type: EventDone})
	}()

	return events, nil
}

func send(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// toLLMMessages converts the transcript into langchaingo message content
func toLLMMessages(messages []Message) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var t schema.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			t = schema.ChatMessageTypeSystem
		case RoleUser:
			t = schema.ChatMessageTypeHuman
		case RoleAssistant:
			t = schema.ChatMessageTypeAI
		default:
			return nil, &ValidationError{Field: "role", Value: string(msg.Role)}
		}
		out = append(out, llms.TextParts(t, msg.Content))
	}
	return out, nil
}

// Ping checks that the Ollama server answers on its version endpoint
func (b *OllamaBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := strings.TrimRight(b.host, "/") + "/api/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", b.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned %s", resp.Status)
	}
	return nil
}
