package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/projects"
)

// Index writes a markdown summary table of the reports.
func Index(w io.Writer, statuses []ProjectStatus) error {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		team := "(none)"
		if s.TeamURL != "" {
			team = md.Link("team", s.TeamURL)
		}
		rows = append(rows, []string{
			md.Link(s.Name, s.URL),
			md.Code(s.Email),
			team,
			strconv.Itoa(len(s.Members)),
			strconv.Itoa(s.Leads()),
			strconv.Itoa(s.WithoutAccount()),
		})
	}

	doc := md.NewMarkdown(w).
		H1("Project status reports").
		LF().
		PlainTextf("%d projects, %d without a platform team.", len(statuses), countWithoutTeam(statuses)).
		LF().
		Table(md.TableSet{
			Header: []string{"Project", "Contact", "Team", "Members", "Leads", "Without account"},
			Rows:   rows,
		})
	return doc.Build()
}

func countWithoutTeam(statuses []ProjectStatus) int {
	n := 0
	for _, s := range statuses {
		if s.TeamURL == "" {
			n++
		}
	}
	return n
}

// QualifyProject appends the mail domain to a bare project name.
func QualifyProject(name, domain string) string {
	if strings.Contains(name, "@") {
		return strings.ToLower(name)
	}
	return strings.ToLower(name) + "@" + domain
}

// Voters writes one "localpart,email,name" CSV record per member of p, in
// registry order.
func Voters(w io.Writer, p *projects.Project) error {
	cw := csv.NewWriter(w)
	for _, m := range p.Members {
		local, _, _ := strings.Cut(m.Email, "@")
		if err := cw.Write([]string{local, m.Email, m.Name}); err != nil {
			return errors.WrapIO("write", "voter "+m.Email, err)
		}
	}
	cw.Flush()
	return errors.WrapIO("write", "voters", cw.Error())
}
