// Package teams provides the sync-projects and update-proj-map commands.
package teams

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync"
	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/cmdutil"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/projects"
)

// NewSyncCommand creates the sync-projects command.
func NewSyncCommand(app appcontext.Interface) *cobra.Command {
	var (
		flags   *cmdutil.SyncFlags
		proxied string
	)

	cmd := &cobra.Command{
		Use:     "sync-projects [devs] [projects] [proj-map]",
		GroupID: "core",
		Short:   "Reconcile project teams with the projects registry",
		Args:    cobra.MaximumNArgs(3),
		Long: `Sync-projects matches every organization team to a project of the
registry and brings its membership in line with the project members that
have a platform account, including members inherited from subprojects.

Members the identity map does not know are never removed. Teams without
members and without repositories are deleted. Projects without a team are
proposed for creation and created after confirmation.

The resulting project to team map is written to proj-map.`,
		Example: `  teamsync sync-projects                          # Use devs.json and projects.xml
  teamsync sync-projects --dry-run                # Preview changes
  teamsync sync-projects -y                       # Create proposed teams without asking
  teamsync sync-projects --proxied proxied-maints.json
  teamsync --platform codeberg sync-projects all.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			syncer, err := newSyncer(app, cmdutil.Arg(args, 0, constants.DefaultDevsFile), cmdutil.Arg(args, 1, constants.DefaultProjectsFile), proxied)
			if err != nil {
				return err
			}

			result, err := syncer.SyncProjects(ctx, flags.Options()...)
			if result == nil {
				return err
			}

			// A failed pass leaves the map incomplete.
			if !result.DryRun && err == nil {
				if err := result.TeamMap.Save(cmdutil.Arg(args, 2, constants.DefaultProjectMapFile)); err != nil {
					return err
				}
			}

			if renderErr := cmdutil.Render(cmd, app, result, func(wide bool) output.Data {
				return output.PlanTable(result, wide)
			}); renderErr != nil {
				return renderErr
			}
			return err
		},
	}

	flags = cmdutil.AddSyncFlags(cmd)
	cmd.Flags().StringVar(&proxied, "proxied", "",
		"Attribution cache whose logins are tracked like developers")

	return cmd
}

// NewMapCommand creates the update-proj-map command.
func NewMapCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "update-proj-map [projects] [proj-map]",
		GroupID: "core",
		Short:   "Rebuild the project to team map without changing teams",
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := app.Logger()

			syncer, err := newSyncer(app, "", cmdutil.Arg(args, 0, constants.DefaultProjectsFile), "")
			if err != nil {
				return err
			}

			tm, missing, err := syncer.ProjectMap(ctx)
			if err != nil {
				return err
			}
			for _, email := range missing {
				logger.Warn().Str("project", email).Msg("MISSING PROJECT")
			}

			if !app.Settings().DryRun {
				if err := tm.Save(cmdutil.Arg(args, 1, constants.DefaultProjectMapFile)); err != nil {
					return err
				}
			}

			return cmdutil.Render(cmd, app, mapReport{TeamMap: tm, Missing: missing}, func(bool) output.Data {
				return output.TeamMapTable(tm, missing)
			})
		},
	}
}

type mapReport struct {
	TeamMap projects.TeamMap `json:"team_map" yaml:"team_map"`
	Missing []string         `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// newSyncer loads the registry and, when devsPath is set, the identity map.
func newSyncer(app appcontext.Interface, devsPath, projectsPath, proxiedPath string) (*teamsync.Syncer, error) {
	gw, err := app.Gateway()
	if err != nil {
		return nil, err
	}

	ids := identity.New(nil)
	if devsPath != "" {
		if ids, err = identity.Load(devsPath); err != nil {
			return nil, err
		}
	}
	tree, err := projects.Load(projectsPath)
	if err != nil {
		return nil, err
	}

	opts := []teamsync.Option{
		teamsync.WithConfirmer(app.Confirmer()),
		teamsync.WithDefaults(app.Settings().SyncOptions()...),
	}
	if proxiedPath != "" {
		cache, err := attribution.LoadCache(proxiedPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, teamsync.WithAttributionCache(cache))
	}

	return teamsync.New(gw, ids, tree, opts...)
}
