package workflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"bgforge/imagegen"
)

// Decision is the user's verdict on a previewed image.
type Decision int

const (
	DecisionApprove Decision = iota
	DecisionRegenerate
	DecisionAbort
)

func (d Decision) String() string {
	switch d {
	case DecisionApprove:
		return "approve"
	case DecisionRegenerate:
		return "regenerate"
	case DecisionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Prompter collects input from the user: the initial prompt text and the
// verdict on each previewed image. Decide may return a revised prompt
// alongside DecisionRegenerate; an empty revision keeps the current prompt.
type Prompter interface {
	ReadPrompt(ctx context.Context) (string, error)
	Decide(ctx context.Context, res *imagegen.Result) (Decision, string, error)
}

// TerminalPrompter reads decisions from an interactive terminal, with
// colored prompts to stand apart from log output.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer

	ask    *color.Color
	detail *color.Color
}

var _ Prompter = (*TerminalPrompter)(nil)

// NewTerminalPrompter creates a prompter over the given streams, typically
// os.Stdin and os.Stdout.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:     bufio.NewReader(in),
		out:    out,
		ask:    color.New(color.FgCyan, color.Bold),
		detail: color.New(color.FgHiBlack),
	}
}

// ReadPrompt asks for the image description. Empty input is re-asked; EOF
// aborts.
func (p *TerminalPrompter) ReadPrompt(ctx context.Context) (string, error) {
	for {
		p.ask.Fprint(p.out, "Describe the background image: ")
		line, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
		fmt.Fprintln(p.out, "A description is required.")
	}
}

// Decide shows what was generated and asks for a verdict. Unrecognized input
// re-asks; EOF counts as abort.
func (p *TerminalPrompter) Decide(ctx context.Context, res *imagegen.Result) (Decision, string, error) {
	p.detail.Fprintf(p.out, "Generated with %s", res.Metadata.Service)
	if res.Metadata.Width > 0 {
		p.detail.Fprintf(p.out, " (%dx%d %s)", res.Metadata.Width, res.Metadata.Height, res.Metadata.Format)
	}
	fmt.Fprintln(p.out)

	for {
		p.ask.Fprint(p.out, "[a]pprove, [r]egenerate, or [q]uit? ")
		line, err := p.readLine(ctx)
		if err != nil {
			if err == io.EOF {
				return DecisionAbort, "", nil
			}
			return DecisionAbort, "", err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve", "y", "yes":
			return DecisionApprove, "", nil
		case "r", "regenerate":
			return DecisionRegenerate, p.readRevision(ctx), nil
		case "q", "quit", "abort":
			return DecisionAbort, "", nil
		default:
			fmt.Fprintln(p.out, "Please answer a, r, or q.")
		}
	}
}

// readRevision offers the chance to adjust the prompt before regenerating.
func (p *TerminalPrompter) readRevision(ctx context.Context) string {
	p.ask.Fprint(p.out, "New prompt (enter to keep current): ")
	line, err := p.readLine(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// readLine reads one line, racing the read against context cancellation so
// Ctrl-C interrupts a pending prompt.
func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	type lineResult struct {
		line string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- lineResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return "", r.err
		}
		return r.line, nil
	}
}
