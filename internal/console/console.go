// Package console renders session data for the terminal. The core package
// never prints; commands hand results and errors to a Console, which decides
// how (or whether) to show them.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/iksnae/ollama-chat/internal"
)

// Mode selects how output is rendered
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeRich   Mode = "rich"
	ModePlain  Mode = "plain"
	ModeSilent Mode = "silent"
)

// ParseMode validates a visual mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeRich:
		return ModeRich, nil
	case ModePlain:
		return ModePlain, nil
	case ModeSilent:
		return ModeSilent, nil
	default:
		return "", &internal.ValidationError{Field: "visual mode", Value: s}
	}
}

// Resolve turns ModeAuto into rich on a terminal and plain otherwise
func Resolve(mode Mode, out io.Writer) Mode {
	if mode != ModeAuto {
		return mode
	}
	if isTerminal(out) {
		return ModeRich
	}
	return ModePlain
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	roleColors = map[internal.Role]lipgloss.Color{
		internal.RoleUser:      lipgloss.Color("39"),
		internal.RoleAssistant: lipgloss.Color("42"),
		internal.RoleSystem:    lipgloss.Color("214"),
	}
)

// Console writes notices and transcripts in one of the visual modes
type Console struct {
	mode     Mode
	out      io.Writer
	errOut   io.Writer
	markdown *glamour.TermRenderer
}

// New creates a console. ModeAuto is resolved against out.
func New(mode Mode, out, errOut io.Writer) *Console {
	c := &Console{
		mode:   Resolve(mode, out),
		out:    out,
		errOut: errOut,
	}
	if c.mode == ModeRich {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			internal.LogDebug("Markdown rendering disabled: %v", err)
		} else {
			c.markdown = r
		}
	}
	return c
}

// Mode returns the resolved mode
func (c *Console) Mode() Mode {
	return c.mode
}

// Silent reports whether output is suppressed
func (c *Console) Silent() bool {
	return c.mode == ModeSilent
}

// Out returns the standard output writer
func (c *Console) Out() io.Writer {
	return c.out
}

// Success prints a labeled confirmation
func (c *Console) Success(format string, args ...interface{}) {
	c.notice(c.out, successStyle, "✅ Success:", "[Success]", format, args...)
}

// Error prints a labeled error notice
func (c *Console) Error(format string, args ...interface{}) {
	c.notice(c.errOut, errorStyle, "❌ Error:", "[Error]", format, args...)
}

// Warning prints a labeled warning
func (c *Console) Warning(format string, args ...interface{}) {
	c.notice(c.errOut, warningStyle, "⚠ Warning:", "[Warning]", format, args...)
}

// Info prints an informational line
func (c *Console) Info(format string, args ...interface{}) {
	c.notice(c.out, infoStyle, "ℹ", "", format, args...)
}

func (c *Console) notice(w io.Writer, style lipgloss.Style, richLabel, plainLabel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch c.mode {
	case ModeSilent:
		return
	case ModeRich:
		_, _ = fmt.Fprintf(w, "%s %s\n", style.Render(richLabel), msg)
	default:
		if plainLabel == "" {
			_, _ = fmt.Fprintln(w, msg)
			return
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", plainLabel, msg)
	}
}

// Message renders one transcript entry: a bordered panel in rich mode,
// "Role: content" in plain mode
func (c *Console) Message(msg internal.Message) {
	switch c.mode {
	case ModeSilent:
		return
	case ModeRich:
		color, ok := roleColors[msg.Role]
		if !ok {
			color = lipgloss.Color("255")
		}
		title := lipgloss.NewStyle().Bold(true).Foreground(color).
			Render(fmt.Sprintf("%s %s", msg.Role.Icon(), msg.Role.Title()))
		body := msg.Content
		if msg.Role == internal.RoleAssistant {
			body = c.renderMarkdown(body)
		}
		panel := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Padding(0, 1).
			Render(title + "\n" + strings.TrimRight(body, "\n"))
		_, _ = fmt.Fprintln(c.out, panel)
	default:
		_, _ = fmt.Fprintf(c.out, "\n%s: %s\n", msg.Role.Title(), msg.Content)
	}
}

func (c *Console) renderMarkdown(md string) string {
	if c.markdown == nil {
		return md
	}
	rendered, err := c.markdown.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(rendered, "\n")
}

// History renders a list of messages
func (c *Console) History(messages []internal.Message) {
	for _, msg := range messages {
		c.Message(msg)
	}
}

// StreamStart prints the assistant label before fragments arrive
func (c *Console) StreamStart() {
	switch c.mode {
	case ModeSilent:
	case ModeRich:
		color := roleColors[internal.RoleAssistant]
		_, _ = fmt.Fprint(c.out, lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("%s %s:", internal.RoleAssistant.Icon(), internal.RoleAssistant.Title()))+" ")
	default:
		_, _ = fmt.Fprintf(c.out, "\n%s: ", internal.RoleAssistant.Title())
	}
}

// Fragment echoes one streamed piece of the response
func (c *Console) Fragment(text string) {
	switch c.mode {
	case ModeSilent:
	case ModeRich:
		_, _ = fmt.Fprint(c.out, lipgloss.NewStyle().Foreground(roleColors[internal.RoleAssistant]).Render(text))
	default:
		_, _ = fmt.Fprint(c.out, text)
	}
}

// StreamEnd terminates the streamed line
func (c *Console) StreamEnd() {
	if c.mode != ModeSilent {
		_, _ = fmt.Fprintln(c.out)
	}
}

// Print writes raw text regardless of style, except in silent mode
func (c *Console) Print(text string) {
	if c.mode != ModeSilent {
		_, _ = fmt.Fprint(c.out, text)
	}
}

func (c *Console) dim(s string) string {
	if c.mode == ModeRich {
		return dimStyle.Render(s)
	}
	return s
}
