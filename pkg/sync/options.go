// Package sync provides options and results for teamsync passes.
package sync

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

// Options controls a synchronization pass.
type Options struct {
	// Orchestration control
	DryRun          bool // Compute and report plans without applying them
	AutoApprove     bool // Create proposed teams under their suggested name without asking
	SkipProposals   bool // Do not propose teams for unmatched projects
	ContinueOnError bool // Record a failing team and move on instead of aborting

	// Team selection
	IgnoreTeams    []string // doublestar patterns of team names never reconciled
	DevelopersTeam string   // organization-wide roster team

	// Attribution
	PullState platform.PullState // which pull requests to scan

	// Mirrors
	MirrorWebRoot string // homepage root of mirrored repositories
}

// Defaults returns the default options.
func Defaults() *Options {
	return &Options{
		DryRun:          false,
		AutoApprove:     false,
		SkipProposals:   false,
		ContinueOnError: false,
		IgnoreTeams:     nil,
		DevelopersTeam:  constants.DefaultDevelopersTeam,
		PullState:       platform.PullsAll,
		MirrorWebRoot:   constants.DefaultMirrorWebRoot,
	}
}

// Option is a function that configures Options.
type Option func(*Options)

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	for _, pattern := range o.IgnoreTeams {
		if !doublestar.ValidatePattern(pattern) {
			return &errors.ValidationError{
				Field:   "IgnoreTeams",
				Value:   pattern,
				Message: "invalid team pattern",
			}
		}
	}
	if o.DevelopersTeam == "" {
		return &errors.ValidationError{
			Field:   "DevelopersTeam",
			Value:   o.DevelopersTeam,
			Message: "developers team name must not be empty",
		}
	}
	switch o.PullState {
	case platform.PullsOpen, platform.PullsClosed, platform.PullsAll:
	default:
		return &errors.ValidationError{
			Field:   "PullState",
			Value:   o.PullState,
			Message: "pull request state must be one of: open, closed, all",
		}
	}
	return nil
}

// Ignored reports whether team matches one of the ignore patterns. Matching
// is case-insensitive.
func (o *Options) Ignored(team string) bool {
	name := strings.ToLower(team)
	for _, pattern := range o.IgnoreTeams {
		if ok, _ := doublestar.Match(strings.ToLower(pattern), name); ok {
			return true
		}
	}
	return false
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithAutoApprove configures auto approval of team proposals.
func WithAutoApprove(autoApprove bool) Option {
	return func(opts *Options) {
		opts.AutoApprove = autoApprove
	}
}

// WithSkipProposals disables team proposals for unmatched projects.
func WithSkipProposals(skip bool) Option {
	return func(opts *Options) {
		opts.SkipProposals = skip
	}
}

// WithContinueOnError keeps going after a team fails.
func WithContinueOnError(cont bool) Option {
	return func(opts *Options) {
		opts.ContinueOnError = cont
	}
}

// WithIgnoreTeams adds team name patterns to skip.
func WithIgnoreTeams(patterns ...string) Option {
	return func(opts *Options) {
		opts.IgnoreTeams = append(opts.IgnoreTeams, patterns...)
	}
}

// WithDevelopersTeam sets the roster team name.
func WithDevelopersTeam(name string) Option {
	return func(opts *Options) {
		opts.DevelopersTeam = name
	}
}

// WithPullState selects the pull requests to scan.
func WithPullState(state platform.PullState) Option {
	return func(opts *Options) {
		opts.PullState = state
	}
}

// WithMirrorWebRoot sets the homepage root of mirrored repositories.
func WithMirrorWebRoot(root string) Option {
	return func(opts *Options) {
		opts.MirrorWebRoot = root
	}
}
