// Package devs provides the developer roster commands: sync-devs,
// verify-devs and the devs file maintenance subcommands.
package devs

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync"
	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/cmdutil"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/projects"
)

// NewSyncCommand creates the sync-devs command.
func NewSyncCommand(app appcontext.Interface) *cobra.Command {
	var flags *cmdutil.SyncFlags

	cmd := &cobra.Command{
		Use:     "sync-devs [devs]",
		GroupID: "core",
		Short:   "Reconcile the developers team with the identity map",
		Args:    cobra.MaximumNArgs(1),
		Long: `Sync-devs makes the developers team hold exactly the mapped developers.

On GitHub dropped developers leave the developers team. On Codeberg, where
team membership implies organization membership, they leave the
organization; organization owners are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, err := newSyncer(app, cmdutil.Arg(args, 0, constants.DefaultDevsFile))
			if err != nil {
				return err
			}

			result, err := syncer.SyncDevelopers(cmd.Context(), flags.Options()...)
			if err != nil {
				return err
			}
			return cmdutil.Render(cmd, app, result, func(wide bool) output.Data {
				return output.PlanTable(result, wide)
			})
		},
	}

	flags = cmdutil.AddSyncFlags(cmd)
	return cmd
}

// NewVerifyCommand creates the verify-devs command.
func NewVerifyCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "verify-devs [devs]",
		GroupID: "core",
		Short:   "Report mapped usernames that do not exist on the platform",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, err := newSyncer(app, cmdutil.Arg(args, 0, constants.DefaultDevsFile))
			if err != nil {
				return err
			}

			result, err := syncer.VerifyIdentities(cmd.Context())
			if err != nil {
				return err
			}
			app.Logger().Info().Int("missing", len(result.Missing)).Msg(result.Summary())
			return cmdutil.Render(cmd, app, result, func(bool) output.Data {
				return output.MissingUsersTable(result)
			})
		},
	}
}

// NewCommand creates the devs command with its file maintenance subcommands.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devs",
		GroupID: "management",
		Short:   "Maintain the developer identity files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newLDAPCommand(app), newAddCommand(app), newMergeCommand(app))
	return cmd
}

func newLDAPCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "ldap [list] [devs]",
		Short: "Rebuild the identity map from an LDAP username dump",
		Long: `Ldap reads "key -> username" lines as printed by the LDAP search helper
and writes them as the identity map. "undefined" marks a developer without
a platform account.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := cmdutil.Arg(args, 0, constants.DefaultDevsListFile)
			f, err := os.Open(src)
			if err != nil {
				return errors.WrapIO("open", src, err)
			}
			defer f.Close()

			m, err := identity.ParseLDAPDump(f)
			if err != nil {
				return errors.WrapParse("ldap", src, err)
			}
			app.Logger().Info().Int("developers", m.Len()).Int("accounts", m.Image().Len()).Msg("ldap dump parsed")
			return save(app, m, cmdutil.Arg(args, 1, constants.DefaultDevsFile))
		},
	}
}

func newAddCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "add [list] [devs]",
		Short: "Add developers from a plain list without an account",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			devsPath := cmdutil.Arg(args, 1, constants.DefaultDevsFile)
			m, err := identity.LoadOrEmpty(devsPath)
			if err != nil {
				return err
			}

			src := cmdutil.Arg(args, 0, constants.DefaultDevsListFile)
			f, err := os.Open(src)
			if err != nil {
				return errors.WrapIO("open", src, err)
			}
			defer f.Close()

			added, err := m.AddKeys(f)
			if err != nil {
				return err
			}
			app.Logger().Info().Int("added", added).Msg("developers added")
			return save(app, m, devsPath)
		},
	}
}

func newMergeCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "merge [devs] [cache] [all]",
		Short: "Merge developers and proxied maintainers into one map",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := identity.Load(cmdutil.Arg(args, 0, constants.DefaultDevsFile))
			if err != nil {
				return err
			}
			cache, err := attribution.LoadCache(cmdutil.Arg(args, 1, constants.DefaultAttributionFile))
			if err != nil {
				return err
			}

			m.Merge(cache.Map())
			app.Logger().Info().Int("entries", m.Len()).Msg("maps merged")
			return save(app, m, cmdutil.Arg(args, 2, constants.DefaultMergedFile))
		},
	}
}

func save(app appcontext.Interface, m *identity.Map, path string) error {
	if app.Settings().DryRun {
		app.Logger().Info().Str("path", path).Msg("dry run, not writing")
		return nil
	}
	return m.Save(path)
}

func newSyncer(app appcontext.Interface, devsPath string) (*teamsync.Syncer, error) {
	gw, err := app.Gateway()
	if err != nil {
		return nil, err
	}
	ids, err := identity.Load(devsPath)
	if err != nil {
		return nil, err
	}
	return teamsync.New(gw, ids, projects.NewTree(),
		teamsync.WithConfirmer(app.Confirmer()),
		teamsync.WithDefaults(app.Settings().SyncOptions()...),
	)
}
