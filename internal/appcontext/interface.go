// Package appcontext provides the shared application context interface
// used by all commands.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/sync"
)

// Interface defines what commands need from the application. The App struct
// from cmd/teamsync/app implements it; tests use Mock.
type Interface interface {
	// Gateway returns the platform gateway selected by configuration,
	// creating it lazily on first use.
	Gateway() (platform.Gateway, error)

	// Settings returns the resolved global settings.
	Settings() Settings

	// Confirmer returns the confirmer for interactive questions.
	Confirmer() confirm.Confirmer

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

// Settings are the global settings shared by the sync commands.
type Settings struct {
	Platform       string
	Org            string
	Repo           string
	APIURL         string
	DryRun         bool
	DevelopersTeam string
	IgnoreTeams    []string
	MailDomain     string
	ReportSender   string
}

// SyncOptions converts the settings into sync options.
func (s Settings) SyncOptions() []sync.Option {
	opts := []sync.Option{sync.WithDryRun(s.DryRun)}
	if s.DevelopersTeam != "" {
		opts = append(opts, sync.WithDevelopersTeam(s.DevelopersTeam))
	}
	if len(s.IgnoreTeams) > 0 {
		opts = append(opts, sync.WithIgnoreTeams(s.IgnoreTeams...))
	}
	return opts
}
