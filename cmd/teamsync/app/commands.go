package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync/cmd/teamsync/cmd"
	"github.com/agentstation/teamsync/cmd/teamsync/cmd/devs"
	"github.com/agentstation/teamsync/cmd/teamsync/cmd/pulls"
	"github.com/agentstation/teamsync/cmd/teamsync/cmd/repos"
	"github.com/agentstation/teamsync/cmd/teamsync/cmd/reports"
	"github.com/agentstation/teamsync/cmd/teamsync/cmd/teams"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(teams.NewSyncCommand(a))
	rootCmd.AddCommand(devs.NewSyncCommand(a))
	rootCmd.AddCommand(pulls.NewCommand(a))
	rootCmd.AddCommand(teams.NewMapCommand(a))
	rootCmd.AddCommand(devs.NewVerifyCommand(a))

	// Management commands
	rootCmd.AddCommand(devs.NewCommand(a))
	rootCmd.AddCommand(reports.NewCommand(a))
	rootCmd.AddCommand(reports.NewVotersCommand(a))
	rootCmd.AddCommand(repos.NewMirrorCommand(a))

	// Utility commands
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
	rootCmd.AddCommand(cmd.NewManCommand())
}
