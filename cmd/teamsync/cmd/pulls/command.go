// Package pulls provides the update-pr-submitters command.
package pulls

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync"
	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/cmdutil"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/internal/progress"
	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/sync"
)

// NewCommand creates the update-pr-submitters command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		state      string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:     "update-pr-submitters [cache]",
		GroupID: "core",
		Short:   "Record the e-mail of every pull request submitter",
		Args:    cobra.MaximumNArgs(1),
		Long: `Update-pr-submitters walks the pull requests of the tracked repository
and records, for each submitter not yet in the cache, the e-mail of the
first commit. When the commit author and committer accounts disagree with
the submitter the pull request is reported as a mismatch; when only the
author signature can be used, the attribution is confirmed interactively.

Every recorded entry is written immediately.`,
		Example: `  teamsync update-pr-submitters                   # Every pull request
  teamsync update-pr-submitters --state open      # Open pull requests only
  teamsync update-pr-submitters --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := app.Gateway()
			if err != nil {
				return err
			}
			cache, err := attribution.LoadCache(cmdutil.Arg(args, 0, constants.DefaultAttributionFile))
			if err != nil {
				return err
			}

			var reporter progress.Reporter = progress.Nop{}
			if !noProgress {
				reporter = progress.NewReporter("pulls")
			}
			syncer, err := teamsync.New(gw, identity.New(nil), projects.NewTree(),
				teamsync.WithConfirmer(app.Confirmer()),
				teamsync.WithProgress(reporter),
				teamsync.WithDefaults(app.Settings().SyncOptions()...),
			)
			if err != nil {
				return err
			}

			result, err := syncer.UpdateAttributions(cmd.Context(), cache, sync.WithPullState(platform.PullState(state)))
			if result == nil {
				return err
			}
			if renderErr := cmdutil.Render(cmd, app, result, func(wide bool) output.Data {
				return output.AttributionTable(result, wide)
			}); renderErr != nil {
				return renderErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&state, "state", string(platform.PullsAll),
		"Pull request state: open, closed, all")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false,
		"Disable the progress display")

	return cmd
}
