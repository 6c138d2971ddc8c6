package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/agentstation/teamsync/internal/report"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/reconcile"
	"github.com/agentstation/teamsync/pkg/sync"
)

// Write formats data for w. Table formats render toTable instead of
// reflecting over data.
func Write(w io.Writer, format Format, data any, toTable func(wide bool) Data) error {
	formatter := NewFormatter(format)

	var outputData any
	switch format {
	case FormatTable, FormatWide, "":
		if toTable == nil {
			outputData = data
			break
		}
		outputData = toTable(format == FormatWide)
	default:
		outputData = data
	}
	return formatter.Format(w, outputData)
}

// PlanTable lists every planned operation of a sync pass. The wide layout
// adds the finding messages below the operations.
func PlanTable(r *sync.Result, wide bool) Data {
	data := Data{
		Headers:         []string{"Team", "Operation", "Login", "Applied"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter},
	}
	for _, tr := range r.Teams {
		if tr.Plan == nil {
			continue
		}
		for _, op := range tr.Plan.Operations {
			data.Rows = append(data.Rows, []string{tr.Plan.Team, operationLabel(op), op.Login, yesNo(tr.Applied)})
		}
	}
	if wide {
		for _, f := range r.Findings {
			data.Rows = append(data.Rows, []string{f.Team, string(f.Kind), f.Login, f.Message})
		}
	}
	return data
}

func operationLabel(op reconcile.Operation) string {
	label := strings.ToUpper(string(op.Kind))
	if op.Maintainer {
		label += " (maintainer)"
	}
	return label
}

// FindingsTable lists findings, warnings first.
func FindingsTable(findings []reconcile.Finding) Data {
	data := Data{Headers: []string{"Severity", "Kind", "Subject", "Message"}}
	for _, sev := range []reconcile.Severity{reconcile.SeverityWarning, reconcile.SeverityNote} {
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			data.Rows = append(data.Rows, []string{string(f.Severity), string(f.Kind), findingSubject(f), f.Message})
		}
	}
	return data
}

func findingSubject(f reconcile.Finding) string {
	switch {
	case f.Login != "" && f.Team != "":
		return f.Team + "/" + f.Login
	case f.Team != "":
		return f.Team
	case f.Project != "":
		return f.Project
	}
	return f.Login
}

// AttributionTable lists the pull request outcomes of an attribution pass.
func AttributionTable(r *sync.AttributionResult, wide bool) Data {
	data := Data{
		Headers:         []string{"PR", "Status", "Submitter", "E-mail"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft},
	}
	if wide {
		data.Headers = append(data.Headers, "Message")
		data.ColumnAlignment = append(data.ColumnAlignment, AlignLeft)
	}
	for _, o := range r.Outcomes {
		row := []string{strconv.Itoa(o.Number), string(o.Status), o.Submitter, o.Email}
		if wide {
			row = append(row, o.Message)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// MissingUsersTable lists identities whose login no longer exists.
func MissingUsersTable(r *sync.VerifyResult) Data {
	data := Data{Headers: []string{"Login", "Developer"}}
	for _, m := range r.Missing {
		data.Rows = append(data.Rows, []string{m.Login, m.Key})
	}
	return data
}

// TeamMapTable lists mapped projects and, after them, the projects that
// have no team.
func TeamMapTable(tm projects.TeamMap, missing []string) Data {
	data := Data{Headers: []string{"Project", "Team"}}
	for _, email := range tm.Emails() {
		data.Rows = append(data.Rows, []string{email, tm[email]})
	}
	for _, email := range missing {
		data.Rows = append(data.Rows, []string{email, "?"})
	}
	return data
}

// ReportTable summarizes generated project reports.
func ReportTable(statuses []report.ProjectStatus) Data {
	data := Data{
		Headers:         []string{"Project", "Members", "Leads", "Without Account", "Team"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft},
	}
	for _, s := range statuses {
		team := s.TeamURL
		if team == "" {
			team = "-"
		}
		data.Rows = append(data.Rows, []string{
			s.Email,
			strconv.Itoa(len(s.Members)),
			strconv.Itoa(s.Leads()),
			strconv.Itoa(s.WithoutAccount()),
			team,
		})
	}
	return data
}

// MirrorTable lists the outcome of a mirror description pass. The wide
// layout adds the target description and homepage.
func MirrorTable(r *sync.MirrorResult, wide bool) Data {
	data := Data{
		Headers:         []string{"Repo", "Mirror", "Status", "Applied"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter},
	}
	if wide {
		data.Headers = append(data.Headers, "Description", "Homepage")
		data.ColumnAlignment = append(data.ColumnAlignment, AlignLeft, AlignLeft)
	}
	for _, o := range r.Outcomes {
		row := []string{o.Repo, o.Name, string(o.Status), yesNo(o.Applied)}
		if wide {
			row = append(row, o.Description, o.Homepage)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
