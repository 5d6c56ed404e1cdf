package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/muesli/termenv"
)

// Prompt is a line based Confirmer and Notifier for terminals. Requests are
// answered synchronously from the input stream.
type Prompt struct {
	reader    *bufio.Reader
	out       *termenv.Output
	assumeYes bool
}

var (
	_ ports.Confirmer = (*Prompt)(nil)
	_ ports.Notifier  = (*Prompt)(nil)
)

// PromptOption configures a Prompt.
type PromptOption func(*Prompt)

// WithAssumeYes confirms every request without reading input.
func WithAssumeYes(yes bool) PromptOption {
	return func(p *Prompt) {
		p.assumeYes = yes
	}
}

// WithOutput replaces the terminal output, e.g. to force a color profile.
func WithOutput(o *termenv.Output) PromptOption {
	return func(p *Prompt) {
		p.out = o
	}
}

// NewPrompt creates a prompt reading answers from r and writing to w.
func NewPrompt(r io.Reader, w io.Writer, opts ...PromptOption) *Prompt {
	p := &Prompt{
		reader: bufio.NewReader(r),
		out:    termenv.NewOutput(w),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request prints the confirmation and waits for an answer. Anything other
// than yes, including end of input, declines.
func (p *Prompt) Request(req ports.ConfirmationRequest) {
	fmt.Fprintln(p.out, p.out.String(req.Header).Bold())
	fmt.Fprintln(p.out, req.Message())

	label := req.ConfirmLabel
	if label == "" {
		label = "yes"
	}
	if p.assumeYes {
		fmt.Fprintf(p.out, "%s (assumed)\n", label)
		req.OnConfirm()
		return
	}

	fmt.Fprintf(p.out, "%s? [y/N] ", label)
	text, err := p.reader.ReadString('\n')
	if err != nil && text == "" {
		fmt.Fprintln(p.out)
		req.OnDecline()
		return
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes", strings.ToLower(label):
		req.OnConfirm()
	default:
		req.OnDecline()
	}
}

// Notify prints a notification colored by severity.
func (p *Prompt) Notify(n ports.Notification) {
	color := "#818cf8"
	switch n.Severity {
	case ports.SeveritySuccess:
		color = "#22c55e"
	case ports.SeverityWarn:
		color = "#f59e0b"
	case ports.SeverityError:
		color = "#ef4444"
	}
	title := p.out.String(n.Title).Bold().Foreground(p.out.Color(color))
	if n.Body == "" {
		fmt.Fprintln(p.out, title)
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", title, n.Body)
}
