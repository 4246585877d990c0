package internal

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Roles lists every accepted role in display order
var Roles = []Role{RoleUser, RoleAssistant, RoleSystem}

// ParseRole validates s against the fixed role whitelist. Matching is exact:
// "User" or " user" are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", &ValidationError{Field: "role", Value: s}
	}
}

// Valid reports whether r is one of the recognized roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Title returns the capitalized role name, e.g. "Assistant"
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// Icon returns the glyph used for r in rendered transcripts
func (r Role) Icon() string {
	switch r {
	case RoleUser:
		return "👤"
	case RoleAssistant:
		return "🤖"
	case RoleSystem:
		return "🔧"
	default:
		return "•"
	}
}

// Message is one conversation turn
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NewMessage builds a Message after validating the role
func NewMessage(role, content string) (Message, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Message{}, err
	}
	return Message{Role: r, Content: content}, nil
}

// Context item types used by the manager
const (
	ContextTypeText = "text"
	ContextTypeFile = "file"
)

// ContextItem is auxiliary material injected into a conversation
type ContextItem struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Type    string `json:"type" yaml:"type"`
	AddedAt string `json:"added_at" yaml:"added_at"`
}

// SystemMessage returns the system message that carries this item to the model
func (c ContextItem) SystemMessage() Message {
	return Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf("Context - %s:\n%s", c.Title, c.Content),
	}
}

// CodeBlock is a fenced region extracted from message text
type CodeBlock struct {
	Language string `json:"language" yaml:"language"`
	Code     string `json:"code" yaml:"code"`
}

// TimestampLayout is the on-disk timestamp format (local time, microseconds,
// no zone), compatible with files written by earlier versions of the tool.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp. Zoned RFC 3339 values are
// accepted as well as the zone-less layout.
func ParseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		TimestampLayout,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}
