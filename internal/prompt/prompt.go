// Package prompt implements confirm.Confirmer on an interactive console.
package prompt

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/errors"
)

// Console asks questions on a terminal.
type Console struct {
	in  io.ReadCloser
	out io.WriteCloser
	run func(p *promptui.Prompt) (string, error)
}

// Option configures a Console.
type Option func(*Console)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Console) {
		c.in = io.NopCloser(in)
		c.out = nopWriteCloser{out}
	}
}

// New returns a console confirmer on stdin and stdout.
func New(opts ...Option) *Console {
	c := &Console{
		in:  os.Stdin,
		out: os.Stdout,
		run: func(p *promptui.Prompt) (string, error) { return p.Run() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask implements confirm.Confirmer. The title, detail lines and numbered
// options are printed before the prompt; invalid replies are rejected by the
// prompt until a valid one is given. Ctrl-C and Ctrl-D abort.
func (c *Console) Ask(ctx context.Context, q confirm.Question) (confirm.Decision, error) {
	if err := ctx.Err(); err != nil {
		return confirm.NO, err
	}

	if q.Title != "" {
		fmt.Fprintf(c.out, "%s\n", q.Title)
	}
	for _, line := range q.Details {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
	for i, opt := range q.Options {
		marker := " "
		if i == q.Default {
			marker = "*"
		}
		fmt.Fprintf(c.out, " %s%d. %s\n", marker, i+1, opt)
	}

	p := &promptui.Prompt{
		Label: q.Prompt(),
		Validate: func(reply string) error {
			_, err := q.ParseReply(reply)
			return err
		},
		Stdin:  c.in,
		Stdout: c.out,
	}
	reply, err := c.run(p)
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
			return confirm.NO, errors.ErrAborted
		}
		return confirm.NO, err
	}
	return q.ParseReply(reply)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

var _ confirm.Confirmer = (*Console)(nil)
