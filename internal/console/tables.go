package console

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/iksnae/ollama-chat/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func (c *Console) style(s lipgloss.Style, text string) string {
	if c.mode == ModeRich {
		return s.Render(text)
	}
	return text
}

// SessionIDs prints a numbered list of identifiers
func (c *Console) SessionIDs(ids []string) {
	if c.Silent() {
		return
	}
	if len(ids) == 0 {
		_, _ = fmt.Fprintln(c.out, c.style(headerStyle, "📋 No sessions found"))
		return
	}
	for i, id := range ids {
		_, _ = fmt.Fprintf(c.out, " [%d] %s\n", i+1, c.style(titleStyle, id))
	}
}

// SessionTable prints sessions with preview and modification time
func (c *Console) SessionTable(summaries []internal.SessionSummary) {
	if c.Silent() {
		return
	}
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(c.out, c.style(headerStyle, "📋 No sessions found"))
		return
	}

	_, _ = fmt.Fprintln(c.out, c.style(headerStyle, fmt.Sprintf("📂 Found %d session(s)", len(summaries))))
	w := tabwriter.NewWriter(c.out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, c.style(titleStyle, "#")+"\t"+c.style(titleStyle, "Session")+"\t"+
		c.style(titleStyle, "Messages")+"\t"+c.style(titleStyle, "Modified")+"\t"+c.style(titleStyle, "Preview"))
	for i, s := range summaries {
		modified := "Unknown"
		if s.Metadata.LastModified != "" {
			if t, err := internal.ParseTimestamp(s.Metadata.LastModified); err == nil {
				modified = formatModified(t)
			}
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			c.style(idStyle, s.ID),
			c.style(countStyle, fmt.Sprintf("%d", s.Metadata.MessageCount)),
			c.dim(modified),
			c.dim(s.Preview),
		)
	}
	_ = w.Flush()
}

func formatModified(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("01/02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

// Stats prints session statistics
func (c *Console) Stats(stats *internal.SessionStats) {
	if c.Silent() {
		return
	}
	if stats == nil {
		_, _ = fmt.Fprintln(c.out, "Session is empty")
		return
	}
	rows := []struct {
		label string
		value int
	}{
		{"Total Messages", stats.TotalMessages},
		{"Your Messages", stats.UserMessages},
		{"AI Responses", stats.AssistantMessages},
		{"System Messages", stats.SystemMessages},
		{"Total Characters", stats.TotalCharacters},
		{"Context Items", stats.ContextItems},
	}
	_, _ = fmt.Fprintln(c.out, c.style(headerStyle, "Session Statistics:"))
	for _, r := range rows {
		_, _ = fmt.Fprintf(c.out, "• %s: %s\n", r.label, c.style(countStyle, fmt.Sprintf("%d", r.value)))
	}
}

// SearchResults prints matches from the active session
func (c *Console) SearchResults(query string, results []internal.SearchResult) {
	if c.Silent() {
		return
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintf(c.out, "No results found for: %s\n", query)
		return
	}
	_, _ = fmt.Fprintln(c.out, c.style(headerStyle, "Search Results for: "+query))
	for i, r := range results {
		_, _ = fmt.Fprintf(c.out, "%d. [%s] %s\n", i+1, r.Role, c.dim(oneLine(r.Snippet)))
	}
}

// IndexHits prints matches from the history index
func (c *Console) IndexHits(query string, hits []internal.IndexHit) {
	if c.Silent() {
		return
	}
	if len(hits) == 0 {
		_, _ = fmt.Fprintf(c.out, "No results found for: %s\n", query)
		return
	}
	_, _ = fmt.Fprintln(c.out, c.style(headerStyle, "Search Results for: "+query))
	for i, h := range hits {
		_, _ = fmt.Fprintf(c.out, "%d. %s/%s #%d [%s] %s\n", i+1,
			h.Project, c.style(idStyle, h.Session), h.Position, h.Role, c.dim(oneLine(h.Snippet)))
	}
}

// CodeBlocks prints extracted code blocks as fences
func (c *Console) CodeBlocks(blocks []internal.CodeBlock) {
	if c.Silent() {
		return
	}
	if len(blocks) == 0 {
		_, _ = fmt.Fprintln(c.out, "No code blocks found")
		return
	}
	for i, b := range blocks {
		if i > 0 {
			_, _ = fmt.Fprintln(c.out)
		}
		fence := fmt.Sprintf("```%s\n%s\n```", b.Language, b.Code)
		_, _ = fmt.Fprintln(c.out, c.renderMarkdown(fence))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
