// Package cmdutil provides shared flags and helpers for teamsync commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/pkg/sync"
)

// Arg returns args[i], or def when fewer positional arguments were given.
func Arg(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

// SyncFlags holds flags shared by the commands that change remote teams.
type SyncFlags struct {
	Yes             bool
	SkipProposals   bool
	ContinueOnError bool
	IgnoreTeams     []string
}

// AddSyncFlags adds the sync flags to a command.
func AddSyncFlags(cmd *cobra.Command) *SyncFlags {
	flags := &SyncFlags{}

	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false,
		"Create proposed teams without asking")
	cmd.Flags().BoolVar(&flags.SkipProposals, "skip-proposals", false,
		"Do not propose teams for unmatched projects")
	cmd.Flags().BoolVar(&flags.ContinueOnError, "continue-on-error", false,
		"Keep reconciling other teams after a remote failure")
	cmd.Flags().StringSliceVar(&flags.IgnoreTeams, "ignore-team", nil,
		"Team name pattern to leave alone (repeatable, doublestar syntax)")

	return flags
}

// Options converts the flags into sync options.
func (f *SyncFlags) Options() []sync.Option {
	var opts []sync.Option
	if f.Yes {
		opts = append(opts, sync.WithAutoApprove(true))
	}
	if f.SkipProposals {
		opts = append(opts, sync.WithSkipProposals(true))
	}
	if f.ContinueOnError {
		opts = append(opts, sync.WithContinueOnError(true))
	}
	if len(f.IgnoreTeams) > 0 {
		opts = append(opts, sync.WithIgnoreTeams(f.IgnoreTeams...))
	}
	return opts
}

// Render writes data to the command's output in the configured format.
// Table formats use toTable when it is set.
func Render(cmd *cobra.Command, app appcontext.Interface, data any, toTable func(wide bool) output.Data) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}
	return output.Write(cmd.OutOrStdout(), format, data, toTable)
}
