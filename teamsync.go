// Package teamsync reconciles platform organization teams with a projects
// registry and a developer identity map.
//
// A Syncer wraps one platform gateway and the loaded roster. Each pass
// (projects, developers, attributions, verification) reads the remote state
// it needs, computes plans with pkg/reconcile and applies them in order.
package teamsync

import (
	"github.com/agentstation/teamsync/internal/progress"
	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/sets"
	"github.com/agentstation/teamsync/pkg/sync"
)

// Syncer runs synchronization passes against one platform organization.
type Syncer struct {
	gateway platform.Gateway
	ids     *identity.Map
	tree    *projects.Tree
	config  *config
	hooks   *hooks
}

type config struct {
	confirmer confirm.Confirmer
	proxied   *attribution.Cache
	progress  progress.Reporter
	defaults  []sync.Option
}

// Option is a function that configures a Syncer.
type Option func(*config) error

// WithConfirmer sets the decision source for team creation and ambiguous
// attributions. Without one every question is declined.
func WithConfirmer(c confirm.Confirmer) Option {
	return func(cfg *config) error {
		if c == nil {
			return errors.NewValidationError("confirmer", nil, "confirmer must not be nil")
		}
		cfg.confirmer = c
		return nil
	}
}

// WithAttributionCache adds the logins of proxied maintainers to the tracked
// identities, so they may be removed from project teams like developers.
func WithAttributionCache(c *attribution.Cache) Option {
	return func(cfg *config) error {
		cfg.proxied = c
		return nil
	}
}

// WithProgress reports pull request scanning progress.
func WithProgress(r progress.Reporter) Option {
	return func(cfg *config) error {
		cfg.progress = r
		return nil
	}
}

// WithDefaults sets pass options applied before the per-call ones.
func WithDefaults(opts ...sync.Option) Option {
	return func(cfg *config) error {
		cfg.defaults = append(cfg.defaults, opts...)
		return nil
	}
}

// New creates a Syncer for gateway. ids maps developers to platform logins
// and tree is the projects registry; tree may be nil for passes that do not
// need it.
func New(gateway platform.Gateway, ids *identity.Map, tree *projects.Tree, opts ...Option) (*Syncer, error) {
	if gateway == nil {
		return nil, errors.NewValidationError("gateway", nil, "platform gateway is required")
	}
	if ids == nil {
		ids = identity.New(nil)
	}
	if tree == nil {
		tree = projects.NewTree()
	}

	cfg := &config{
		confirmer: confirm.Always(confirm.NO),
		progress:  progress.Nop{},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Syncer{
		gateway: gateway,
		ids:     ids,
		tree:    tree,
		config:  cfg,
		hooks:   newHooks(),
	}, nil
}

// Gateway returns the platform the Syncer talks to.
func (s *Syncer) Gateway() platform.Gateway {
	return s.gateway
}

// options merges the Syncer defaults with per-call options.
func (s *Syncer) options(opts ...sync.Option) *sync.Options {
	return sync.Defaults().Apply(s.config.defaults...).Apply(opts...)
}

// knownLogins returns the tracked identities for one pass. The set is a
// fresh copy owned by the caller.
func (s *Syncer) knownLogins() sets.Set {
	known := s.ids.Image()
	if s.config.proxied != nil {
		known = known.Union(s.config.proxied.Logins())
	}
	return known
}
