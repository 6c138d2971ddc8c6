// Package app provides the application context and dependency management
// for the teamsync CLI: configuration, logging, the lazily created platform
// gateway and command registration.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/prompt"
	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

// App represents the teamsync application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	confirmer confirm.Confirmer
	out       io.Writer

	// gateway is created on first use, once per process.
	mu      sync.RWMutex
	gateway platform.Gateway
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value, empty for auto-detection.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Settings returns the resolved global settings.
func (a *App) Settings() appcontext.Settings {
	return a.config.Settings()
}

// Confirmer returns the console confirmer unless one was injected.
func (a *App) Confirmer() confirm.Confirmer {
	if a.confirmer != nil {
		return a.confirmer
	}
	return prompt.New()
}

// Gateway returns the platform gateway, creating it lazily if needed.
func (a *App) Gateway() (platform.Gateway, error) {
	a.mu.RLock()
	if a.gateway != nil {
		gw := a.gateway
		a.mu.RUnlock()
		return gw, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gateway != nil {
		return a.gateway, nil
	}

	gw, err := NewGateway(a.config)
	if err != nil {
		return nil, errors.WrapResource("create", "gateway", a.config.Platform, err)
	}
	a.gateway = gw
	return gw, nil
}

// Shutdown drops the cached gateway.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.gateway = nil
	a.mu.Unlock()
	return ctx.Err()
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithGateway sets a platform gateway, skipping token loading.
func WithGateway(gw platform.Gateway) Option {
	return func(a *App) error {
		a.gateway = gw
		return nil
	}
}

// WithConfirmer replaces the console confirmer.
func WithConfirmer(c confirm.Confirmer) Option {
	return func(a *App) error {
		a.confirmer = c
		return nil
	}
}

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)
