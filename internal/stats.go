package internal

import "unicode/utf8"

// SessionStats summarizes the active transcript
type SessionStats struct {
	TotalMessages     int `json:"total_messages" yaml:"total_messages"`
	UserMessages      int `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int `json:"assistant_messages" yaml:"assistant_messages"`
	SystemMessages    int `json:"system_messages" yaml:"system_messages"`
	TotalCharacters   int `json:"total_characters" yaml:"total_characters"`
	ContextItems      int `json:"context_items" yaml:"context_items"`
}

// ComputeStats returns nil for an empty transcript
func ComputeStats(messages []Message, contextData []ContextItem) *SessionStats {
	if len(messages) == 0 {
		return nil
	}

	stats := &SessionStats{
		TotalMessages: len(messages),
		ContextItems:  len(contextData),
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			stats.UserMessages++
		case RoleAssistant:
			stats.AssistantMessages++
		case RoleSystem:
			stats.SystemMessages++
		}
		stats.TotalCharacters += utf8.RuneCountInString(msg.Content)
	}
	return stats
}
