package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "TEAMSYNC"

// Config holds the application configuration loaded from config files,
// environment variables, .env files and flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Platform selection
	Platform  string
	Org       string
	Repo      string
	APIURL    string
	TokenFile string

	// Sync behaviour
	DryRun         bool
	DevelopersTeam string
	IgnoreTeams    []string

	// Reports
	MailDomain   string
	ReportSender string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied by cobra on top of the returned values)
//  2. TEAMSYNC_* environment variables
//  3. .env files
//  4. Config file (~/.teamsync.yaml or ./.teamsync.yaml)
//  5. Defaults
//
// configFile, when set, replaces the config file search.
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".teamsync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read "+v.ConfigFileUsed(), err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("platform", constants.PlatformGitHub)
	v.SetDefault("org", constants.DefaultOrg)
	v.SetDefault("repo", constants.DefaultRepo)
	v.SetDefault("developers_team", constants.DefaultDevelopersTeam)
	v.SetDefault("mail_domain", constants.DefaultMailDomain)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Platform:  strings.ToLower(v.GetString("platform")),
		Org:       v.GetString("org"),
		Repo:      v.GetString("repo"),
		APIURL:    v.GetString("api_url"),
		TokenFile: v.GetString("token_file"),

		DryRun:         v.GetBool("dry_run"),
		DevelopersTeam: v.GetString("developers_team"),
		IgnoreTeams:    v.GetStringSlice("ignore_teams"),

		MailDomain:   v.GetString("mail_domain"),
		ReportSender: v.GetString("report_sender"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Platform {
	case constants.PlatformGitHub, constants.PlatformCodeberg:
	default:
		return errors.NewValidationError("platform", c.Platform, "must be github or codeberg")
	}
	if c.Org == "" {
		return errors.NewValidationError("org", c.Org, "organization is required")
	}
	return nil
}

// Settings converts the configuration into the settings exposed to commands.
func (c *Config) Settings() appcontext.Settings {
	return appcontext.Settings{
		Platform:       c.Platform,
		Org:            c.Org,
		Repo:           c.Repo,
		APIURL:         c.APIURL,
		DryRun:         c.DryRun,
		DevelopersTeam: c.DevelopersTeam,
		IgnoreTeams:    c.IgnoreTeams,
		MailDomain:     c.MailDomain,
		ReportSender:   c.ReportSender,
	}
}

// loadEnvFiles loads environment variables from .env files. Variables that
// are already set are not overridden, so .env wins over .env.local.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
