package app

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/pkg/logging"
)

// Execute runs the teamsync CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	if path := configFileFromArgs(args); path != "" && path != a.config.ConfigFile {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "teamsync",
		Short:   "Organization team synchronization CLI",
		Version: a.version,
		Long: `Teamsync keeps the teams of a GitHub or Codeberg organization in line
with a projects registry and a developer identity map.

It reconciles project team membership (members inherited from subprojects
included), proposes and creates teams for new projects, keeps the developers
team in line with the roster, attributes pull request submitters to their
e-mail addresses and writes per-project status reports.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	a.registerGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate("teamsync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// registerGlobalFlags binds the global flags to the loaded configuration, so
// flags override config file and environment values.
func (a *App) registerGlobalFlags(fs *pflag.FlagSet) {
	c := a.config

	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "config file (default is $HOME/.teamsync.yaml)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "verbose output (shortcut for --log-level=debug)")
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "minimal output (shortcut for --log-level=warn)")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "disable colored output")
	fs.StringVarP(&c.Format, "format", "o", c.Format, "output format: table, json, yaml, wide")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	fs.StringVar(&c.Platform, "platform", c.Platform, "platform: github or codeberg")
	fs.StringVar(&c.Org, "org", c.Org, "organization whose teams are synced")
	fs.StringVar(&c.Repo, "repo", c.Repo, "repository scanned for pull requests (owner/name)")
	fs.StringVar(&c.TokenFile, "token-file", c.TokenFile, "API token file (default ~/.<platform>-token)")
	fs.StringVar(&c.APIURL, "api-url", c.APIURL, "API root for GitHub Enterprise or another Forgejo instance")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "report changes without applying or writing them")
	fs.StringVar(&c.DevelopersTeam, "developers-team", c.DevelopersTeam, "team that holds every developer")
	fs.StringVar(&c.MailDomain, "mail-domain", c.MailDomain, "domain of project and alias addresses")
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if _, err := output.ParseFormat(mustGetString(cmd, "format")); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	ctx = logging.WithRunID(ctx)
	a.logger = logging.FromContext(ctx)
	cmd.SetContext(ctx)

	a.logger.Debug().
		Str("platform", a.config.Platform).
		Str("org", a.config.Org).
		Str("config", a.config.ConfigFile).
		Bool("dry_run", mustGetBool(cmd, "dry-run")).
		Msg("starting " + cmd.Name())
	return nil
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// configFileFromArgs finds --config before cobra parses the command line,
// because the config file provides the defaults of every other flag.
func configFileFromArgs(args []string) string {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)
	return *path
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
