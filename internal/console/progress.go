package console

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/iksnae/ollama-chat/internal"
)

var progressStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("62")).
	Bold(true)

// progressSpinner supplies frames and rate; frames are drawn directly since
// there is no bubbletea program to drive the model
var progressSpinner = spinner.New(
	spinner.WithSpinner(spinner.Dot),
	spinner.WithStyle(progressStyle),
)

// ProgressStep is one step of a multi-step operation
type ProgressStep struct {
	Message string
	Fn      func() error
}

// Progress runs fn while showing a spinner on the error stream in rich mode.
// Plain mode prints the outcome once; silent mode only logs.
func (c *Console) Progress(ctx context.Context, message string, fn func() error) error {
	if c.mode != ModeRich {
		internal.LogInfo("%s", message)
		err := fn()
		if c.mode == ModePlain {
			if err != nil {
				_, _ = fmt.Fprintf(c.errOut, "%s: failed\n", message)
			} else {
				_, _ = fmt.Fprintf(c.errOut, "%s: done\n", message)
			}
		}
		return err
	}

	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		frames := progressSpinner.Spinner.Frames
		ticker := time.NewTicker(progressSpinner.Spinner.FPS)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				frame := progressSpinner.Style.Render(frames[i%len(frames)])
				_, _ = fmt.Fprintf(c.errOut, "\r%s%s", frame, message)
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		close(stop)
		<-spinnerDone
		if err != nil {
			_, _ = fmt.Fprintf(c.errOut, "\r%s %s\n", errorStyle.Render("✗"), message)
			return err
		}
		_, _ = fmt.Fprintf(c.errOut, "\r%s %s\n", successStyle.Render("✓"), message)
		return nil
	case <-ctx.Done():
		close(stop)
		<-spinnerDone
		_, _ = fmt.Fprintln(c.errOut)
		return ctx.Err()
	}
}

// ProgressSteps runs steps in order, numbering each message, and stops at
// the first failure
func (c *Console) ProgressSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := c.Progress(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}
