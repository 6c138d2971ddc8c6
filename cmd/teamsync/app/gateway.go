package app

import (
	"github.com/agentstation/teamsync/internal/platform/codeberg"
	"github.com/agentstation/teamsync/internal/platform/github"
	"github.com/agentstation/teamsync/internal/transport"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/platform"
)

// NewGateway builds the gateway selected by config.Platform. The API token
// is the first line of the configured token file.
func NewGateway(config *Config) (platform.Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token, err := ReadToken(config.TokenFile, config.Platform)
	if err != nil {
		return nil, err
	}

	if config.Platform == constants.PlatformCodeberg {
		gw, err := codeberg.New(config.APIURL, token, config.Org, config.Repo)
		if err != nil {
			return nil, err
		}
		return gw, nil
	}

	var opts []github.Option
	if config.APIURL != "" {
		opts = append(opts, github.WithBaseURL(config.APIURL))
	}
	gw, err := github.New(token, config.Org, config.Repo, opts...)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

// ReadToken returns the first line of path, or of the platform's default
// token file when path is empty.
func ReadToken(path, platformName string) (string, error) {
	if path == "" {
		path = constants.DefaultTokenFile(platformName)
	}
	return transport.ReadToken(path)
}
