package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/ollama-chat/internal"
)

// MarkdownExporter exports sessions as a readable transcript. Message
// content is written verbatim.
type MarkdownExporter struct {
	// Now stamps the generation date; defaults to time.Now
	Now func() time.Time
}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	lines := []string{fmt.Sprintf("# Chat Session - %s\n", session.Metadata.Model)}
	if project := session.Metadata.ProjectName(); project != "" {
		lines = append(lines, fmt.Sprintf("**Project:** %s\n", project))
	}
	lines = append(lines, fmt.Sprintf("**Date:** %s\n", now().Format("2006-01-02 15:04")))

	for _, msg := range session.Messages {
		lines = append(lines, fmt.Sprintf("\n## %s %s\n", msg.Role.Icon(), msg.Role.Title()))
		lines = append(lines, msg.Content+"\n")
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
