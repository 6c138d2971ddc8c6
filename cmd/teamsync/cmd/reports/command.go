// Package reports provides the report and voters commands.
package reports

import (
	"net/mail"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/teamsync/internal/appcontext"
	"github.com/agentstation/teamsync/internal/cmd/cmdutil"
	"github.com/agentstation/teamsync/internal/cmd/output"
	"github.com/agentstation/teamsync/internal/report"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
)

// NewCommand creates the report command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var webURL string

	cmd := &cobra.Command{
		Use:     "report [projects] [proj-map] [devs] [aliases] [dir]",
		GroupID: "management",
		Short:   "Write a status mail for every project",
		Args:    cobra.MaximumNArgs(5),
		Long: `Report writes one RFC 5322 message per project into dir, listing the
project data, its members with their L (lead), A (on the mail alias) and
G (linked platform account) flags, and its subprojects. An index.md
summary table is written next to the messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := app.Settings()

			tree, err := projects.Load(cmdutil.Arg(args, 0, constants.DefaultProjectsFile))
			if err != nil {
				return err
			}
			teams, err := projects.LoadTeamMap(cmdutil.Arg(args, 1, constants.DefaultProjectMapFile))
			if err != nil {
				return err
			}
			ids, err := identity.Load(cmdutil.Arg(args, 2, constants.DefaultDevsFile))
			if err != nil {
				return err
			}
			aliases, err := loadAliases(cmdutil.Arg(args, 3, constants.DefaultAliasesFile), settings.MailDomain)
			if err != nil {
				return err
			}

			opts := []report.Option{
				report.WithPlatform(platform.Name(settings.Platform), webURL),
				report.WithMailDomain(settings.MailDomain),
			}
			if settings.ReportSender != "" {
				from, err := mail.ParseAddress(settings.ReportSender)
				if err != nil {
					return errors.NewValidationError("report_sender", settings.ReportSender, err.Error())
				}
				opts = append(opts, report.WithSender(from.Name, from.Address))
			}

			statuses, err := report.New(ids, teams, aliases, opts...).WriteAll(cmdutil.Arg(args, 4, constants.DefaultReportsDir), tree)
			if err != nil {
				return err
			}
			app.Logger().Info().Int("projects", len(statuses)).Msg("reports written")
			return cmdutil.Render(cmd, app, statuses, func(bool) output.Data {
				return output.ReportTable(statuses)
			})
		},
	}

	cmd.Flags().StringVar(&webURL, "web-url", "",
		"Platform web root used for team links (default: public instance)")

	return cmd
}

// NewVotersCommand creates the voters command.
func NewVotersCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "voters <project> [projects]",
		GroupID: "management",
		Short:   "Print the members of a project as CSV voter records",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := projects.Load(cmdutil.Arg(args, 1, constants.DefaultProjectsFile))
			if err != nil {
				return err
			}
			email := report.QualifyProject(args[0], app.Settings().MailDomain)
			p, ok := tree.Get(email)
			if !ok {
				return errors.NewNotFoundError("project", email)
			}
			return report.Voters(cmd.OutOrStdout(), p)
		},
	}
}

// loadAliases reads the alias file; a missing file means no aliases.
func loadAliases(path, domain string) (report.Aliases, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return report.Aliases{}, nil
	}
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()
	return report.ParseAliases(f, domain)
}
