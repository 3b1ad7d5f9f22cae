package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spin shows a spinner on w while fn runs. When w is not a terminal fn
// just runs. The spinner line is erased once fn returns or ctx ends.
func Spin(ctx context.Context, w io.Writer, message string, fn func()) {
	if !isTerminal(w) {
		fn()
		return
	}
	spin(ctx, w, message, 100*time.Millisecond, fn)
}

func spin(ctx context.Context, w io.Writer, message string, every time.Duration, fn func()) {
	done := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		erase := func() {
			fmt.Fprintf(w, "\r%*s\r", lipgloss.Width(message)+2, "")
		}
		for i := 0; ; i++ {
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(spinnerFrames[i%len(spinnerFrames)]), message)
			select {
			case <-done:
				erase()
				return
			case <-ctx.Done():
				erase()
				return
			case <-ticker.C:
			}
		}
	}()

	fn()
	close(done)
	<-spinnerDone
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// Printer writes status lines, styled when the target is a terminal
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter creates a Printer; nil writers default to stdout and stderr
func NewPrinter(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

// Success prints a success message
func (p *Printer) Success(message string) {
	if isTerminal(p.Out) {
		fmt.Fprintf(p.Out, "%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Fprintln(p.Out, message)
	}
}

// Error prints an error message
func (p *Printer) Error(message string) {
	if isTerminal(p.Err) {
		fmt.Fprintf(p.Err, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintln(p.Err, message)
	}
}

// Info prints an info message
func (p *Printer) Info(message string) {
	if isTerminal(p.Out) {
		fmt.Fprintf(p.Out, "%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Fprintln(p.Out, message)
	}
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	if isTerminal(p.Err) {
		fmt.Fprintf(p.Err, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(p.Err, "WARNING: %s\n", message)
	}
}
