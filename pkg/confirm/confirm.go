// Package confirm defines the human-in-the-loop decision port used for new
// team creation and ambiguous commit attribution.
package confirm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/agentstation/teamsync/pkg/errors"
)

// Kind is the type of a decision.
type Kind int

const (
	// No declines the question.
	No Kind = iota
	// Yes accepts the default.
	Yes
	// Choice picks one of the numbered options.
	Choice
)

// Decision is the answer to a Question.
type Decision struct {
	Kind   Kind
	Choice int // 1-based, set when Kind is Choice
}

// YES, NO and CHOICE build decisions.
var (
	YES = Decision{Kind: Yes}
	NO  = Decision{Kind: No}
)

// CHOICE returns a decision picking option n (1-based).
func CHOICE(n int) Decision {
	return Decision{Kind: Choice, Choice: n}
}

// String renders the decision as the reply a user would type.
func (d Decision) String() string {
	switch d.Kind {
	case Yes:
		return "y"
	case Choice:
		return strconv.Itoa(d.Choice)
	}
	return "n"
}

// Accepted reports whether the decision is anything but No.
func (d Decision) Accepted() bool {
	return d.Kind != No
}

// Pick returns the 0-based option index selected by the decision. Yes selects
// def.
func (d Decision) Pick(def int) int {
	if d.Kind == Choice {
		return d.Choice - 1
	}
	return def
}

// Question is a prompt put to the operator.
type Question struct {
	Title   string   // short label, e.g. "NEW PROJECT"
	Details []string // context lines shown before the prompt
	Options []string // numbered options; empty for plain yes/no
	Default int      // 0-based option selected by a blank or "y" reply
}

// Prompt returns the prompt line, "Proceed? [Y/n]" or "Proceed? [Y/n/1..N]".
func (q Question) Prompt() string {
	if len(q.Options) == 0 {
		return "Proceed? [Y/n]"
	}
	return fmt.Sprintf("Proceed? [Y/n/1..%d]", len(q.Options))
}

// ParseReply interprets a typed reply. A blank reply is Yes.
func (q Question) ParseReply(reply string) (Decision, error) {
	reply = strings.ToLower(strings.TrimSpace(reply))
	switch reply {
	case "", "y", "yes":
		return YES, nil
	case "n", "no":
		return NO, nil
	}
	n, err := strconv.Atoi(reply)
	if err != nil || n < 1 || n > len(q.Options) {
		return NO, &errors.ValidationError{Field: "reply", Value: reply, Message: "unrecognized reply: " + reply}
	}
	return CHOICE(n), nil
}

// Confirmer answers questions. Implementations block until a decision is made.
type Confirmer interface {
	Ask(ctx context.Context, q Question) (Decision, error)
}

// Func adapts a function to the Confirmer interface.
type Func func(ctx context.Context, q Question) (Decision, error)

// Ask calls f.
func (f Func) Ask(ctx context.Context, q Question) (Decision, error) {
	return f(ctx, q)
}

// Always returns a Confirmer that gives the same decision to every question.
func Always(d Decision) Confirmer {
	return Func(func(context.Context, Question) (Decision, error) {
		return d, nil
	})
}

// Scripted replays a fixed list of decisions and records the questions asked.
// Asking past the end of the script fails with errors.ErrAborted.
type Scripted struct {
	mu        sync.Mutex
	decisions []Decision
	asked     []Question
}

// NewScripted returns a Confirmer that answers with decisions in order.
func NewScripted(decisions ...Decision) *Scripted {
	return &Scripted{decisions: decisions}
}

// Ask returns the next scripted decision.
func (s *Scripted) Ask(_ context.Context, q Question) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, q)
	if len(s.decisions) == 0 {
		return NO, errors.ErrAborted
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	return d, nil
}

// Asked returns the questions asked so far.
func (s *Scripted) Asked() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.asked...)
}
