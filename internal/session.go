package internal

import "fmt"

// DefaultProject is the namespace used when no project is selected
const DefaultProject = "default"

// Session is a persisted conversation. Its JSON form is exactly the session
// file; the identifier lives in the file name.
type Session struct {
	ID       string    `json:"-" yaml:"id"`
	Metadata Metadata  `json:"metadata" yaml:"metadata"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// Metadata is the session header, readable without replaying messages
type Metadata struct {
	Model        string        `json:"model" yaml:"model"`
	Project      *string       `json:"project" yaml:"project"`
	Created      string        `json:"created" yaml:"created"`
	LastModified string        `json:"last_modified" yaml:"last_modified"`
	MessageCount int           `json:"message_count" yaml:"message_count"`
	ContextData  []ContextItem `json:"context_data" yaml:"context_data"`
}

// ProjectName returns the project or "" for the default namespace
func (m Metadata) ProjectName() string {
	if m.Project == nil {
		return ""
	}
	return *m.Project
}

// Validate checks every stored message role
func (s *Session) Validate() error {
	for i, msg := range s.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d: %w", i, &ValidationError{Field: "role", Value: string(msg.Role)})
		}
	}
	return nil
}

// LastMessage returns the final message, if any
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// projectPtr maps the default namespace to a JSON null
func projectPtr(project string) *string {
	if project == "" || project == DefaultProject {
		return nil
	}
	p := project
	return &p
}
