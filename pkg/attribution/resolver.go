// Package attribution decides which platform identity authored a pull
// request, for the persistent contributor cache.
//
// The first commit of a pull request carries up to three identities: the
// commit author, the committer and the pull request submitter. The resolver
// records an e-mail for the submitter only when the commit identities agree
// with the submitter; a commit authored by one person, committed by a bot
// and submitted by a third is reported and never guessed.
package attribution

import (
	"context"
	"fmt"

	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
)

// User is a platform account. A nil *User means the platform could not match
// a commit signature to an account.
type User struct {
	Login string
	Name  string
}

// Signature is the git author or committer line of a commit.
type Signature struct {
	Email string
	Name  string
}

// Commit is the attribution-relevant part of a pull request's first commit.
type Commit struct {
	Author       *User
	AuthorSig    Signature
	Committer    *User
	CommitterSig Signature
}

// Input describes one pull request.
type Input struct {
	Number    int
	HTMLURL   string
	PatchURL  string
	Submitter User
}

// CommitSource fetches the first commit of a pull request. It returns nil when
// the pull request has no commits.
type CommitSource interface {
	FirstCommit(ctx context.Context, number int) (*Commit, error)
}

// CommitSourceFunc adapts a function to CommitSource.
type CommitSourceFunc func(ctx context.Context, number int) (*Commit, error)

// FirstCommit calls f.
func (f CommitSourceFunc) FirstCommit(ctx context.Context, number int) (*Commit, error) {
	return f(ctx, number)
}

// Status is the result class of a resolution.
type Status string

const (
	// StatusNoCommits means the pull request has no commits.
	StatusNoCommits Status = "no-commits"
	// StatusAlreadyCached means the submitter is already a cached login.
	StatusAlreadyCached Status = "already-cached"
	// StatusMismatch means author, committer and submitter are all different
	// accounts. Nothing is recorded.
	StatusMismatch Status = "mismatch"
	// StatusRecorded means a new e-mail was cached.
	StatusRecorded Status = "recorded"
	// StatusDeclined means the operator rejected an ambiguous attribution.
	StatusDeclined Status = "declined"
	// StatusNoEmail means the chosen signature carries no e-mail to key on.
	StatusNoEmail Status = "no-email"
)

// Outcome is the decision made for one pull request.
type Outcome struct {
	Number    int    `json:"number" yaml:"number"`
	Status    Status `json:"status" yaml:"status"`
	Submitter string `json:"submitter" yaml:"submitter"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Login     string `json:"login,omitempty" yaml:"login,omitempty"`
	Ambiguous bool   `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Resolver applies the attribution rules against a cache.
type Resolver struct {
	cache     *Cache
	commits   CommitSource
	confirmer confirm.Confirmer
}

// NewResolver creates a Resolver. confirmer is asked before recording an
// attribution that no commit identity backs.
func NewResolver(cache *Cache, commits CommitSource, confirmer confirm.Confirmer) *Resolver {
	return &Resolver{cache: cache, commits: commits, confirmer: confirmer}
}

// Resolve decides the attribution of a single pull request and records it in
// the cache when the rules allow. Errors come only from the commit source, the
// confirmer or persisting the cache.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Outcome, error) {
	logger := logging.FromContext(ctx)
	out := Outcome{Number: in.Number, Submitter: in.Submitter.Login}

	if r.cache.HasLogin(in.Submitter.Login) {
		out.Status = StatusAlreadyCached
		return out, nil
	}

	c, err := r.commits.FirstCommit(ctx, in.Number)
	if err != nil {
		return out, err
	}
	if c == nil {
		out.Status = StatusNoCommits
		return out, nil
	}

	candidate, sig := c.Committer, c.CommitterSig
	if candidate == nil {
		candidate, sig = c.Author, c.AuthorSig
	}

	if candidate == nil {
		// neither signature matched an account; suggest the submitter for the
		// committer e-mail
		out.Ambiguous = true
		submitter := in.Submitter
		candidate, sig = &submitter, c.CommitterSig
	}

	if candidate.Login != in.Submitter.Login && c.Author != nil && c.Author.Login == in.Submitter.Login {
		candidate, sig = c.Author, c.AuthorSig
	}

	out.Email = sig.Email
	out.Login = candidate.Login

	if candidate.Login != in.Submitter.Login {
		out.Status = StatusMismatch
		out.Message = fmt.Sprintf("PR submitter %s matches none of committer or author users", in.Submitter.Login)
		logger.Warn().
			Int("pr", in.Number).
			Str("submitter", in.Submitter.Login).
			Str("candidate", candidate.Login).
			Str("url", in.HTMLURL).
			Msg("attribution mismatch, skipping")
		return out, nil
	}

	if sig.Email == "" {
		out.Status = StatusNoEmail
		out.Message = "commit signature has no e-mail"
		return out, nil
	}

	if out.Ambiguous {
		d, err := r.confirmer.Ask(ctx, confirm.Question{
			Title: fmt.Sprintf("PR #%d: commit not matched to a user", in.Number),
			Details: []string{
				in.HTMLURL,
				in.PatchURL,
				fmt.Sprintf("%s (%s) -> %s (%s)", sig.Email, sig.Name, candidate.Login, candidate.Name),
			},
		})
		if err != nil {
			return out, err
		}
		if !d.Accepted() {
			out.Status = StatusDeclined
			return out, nil
		}
	}

	if err := r.cache.Record(sig.Email, candidate.Login); err != nil {
		return out, errors.WrapResource("save", "attribution cache", r.cache.Path(), err)
	}
	out.Status = StatusRecorded
	logger.Info().Int("pr", in.Number).Str("email", sig.Email).Str("login", candidate.Login).Msg("recorded")
	return out, nil
}
