// Package repos provides the set-mirror-descs command.
package repos

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync"
	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/cmdutil"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/mirrors"
	"github.com/agentstation/teamsync/pkg/sync"
)

// NewMirrorCommand creates the set-mirror-descs command.
func NewMirrorCommand(app appcontext.Interface) *cobra.Command {
	var (
		webRoot         string
		urlPrefix       string
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:     "set-mirror-descs <gitolite-conf>...",
		GroupID: "management",
		Short:   "Set descriptions and homepages of mirror repositories",
		Args:    cobra.MinimumNArgs(1),
		Long: `Set-mirror-descs reads gitolite configuration files and, for every
repository pushed to the organization, sets the platform description to
"[MIRROR] <desc>" and the homepage to the repository's page under the web
root. Repositories that already match are left alone.`,
		Example: `  teamsync set-mirror-descs gitolite.conf
  teamsync set-mirror-descs --dry-run repos/*.conf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := app.Settings()
			if urlPrefix == "" {
				urlPrefix = constants.MirrorURLPrefix(settings.Platform, settings.Org)
			}

			var list []mirrors.Mirror
			for _, path := range args {
				found, err := parseFile(path, urlPrefix)
				if err != nil {
					return err
				}
				list = append(list, found...)
			}
			app.Logger().Debug().Int("mirrors", len(list)).Str("prefix", urlPrefix).Msg("gitolite config read")

			gw, err := app.Gateway()
			if err != nil {
				return err
			}
			syncer, err := teamsync.New(gw, nil, nil, teamsync.WithDefaults(settings.SyncOptions()...))
			if err != nil {
				return err
			}

			result, err := syncer.UpdateMirrors(cmd.Context(), list,
				sync.WithMirrorWebRoot(webRoot),
				sync.WithContinueOnError(continueOnError),
			)
			if result == nil {
				return err
			}
			if renderErr := cmdutil.Render(cmd, app, result, func(wide bool) output.Data {
				return output.MirrorTable(result, wide)
			}); renderErr != nil {
				return renderErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&webRoot, "web-url", constants.DefaultMirrorWebRoot,
		"Web root the mirror homepages point to")
	cmd.Flags().StringVar(&urlPrefix, "url-prefix", "",
		"Push URL prefix that marks a mirror (default git@<platform host>:<org>/)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"Keep updating other mirrors after a remote failure")

	return cmd
}

func parseFile(path, urlPrefix string) ([]mirrors.Mirror, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	list, err := mirrors.Parse(f, urlPrefix)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			parseErr.File = path
		}
		return nil, err
	}
	return list, nil
}
