package sync

import (
	"fmt"
	"strings"

	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/reconcile"
)

// TeamResult is the outcome of reconciling one team.
type TeamResult struct {
	Team    platform.Team   `json:"team" yaml:"team"`
	Project string          `json:"project,omitempty" yaml:"project,omitempty"`
	Plan    *reconcile.Plan `json:"plan" yaml:"plan"`
	Applied bool            `json:"applied" yaml:"applied"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of a project or developers pass.
type Result struct {
	Teams     []TeamResult        `json:"teams" yaml:"teams"`
	Created   []platform.Team     `json:"created,omitempty" yaml:"created,omitempty"`
	Findings  []reconcile.Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	TeamMap   projects.TeamMap    `json:"team_map,omitempty" yaml:"team_map,omitempty"`
	Unmatched []string            `json:"unmatched,omitempty" yaml:"unmatched,omitempty"` // project e-mails without a team

	TotalChanges int  `json:"total_changes" yaml:"total_changes"`
	DryRun       bool `json:"dry_run" yaml:"dry_run"`
}

// NewResult returns an empty result.
func NewResult(dryRun bool) *Result {
	return &Result{TeamMap: projects.TeamMap{}, DryRun: dryRun}
}

// AddTeam records a team outcome and its plan findings.
func (r *Result) AddTeam(tr TeamResult) {
	r.Teams = append(r.Teams, tr)
	if tr.Plan != nil {
		r.TotalChanges += tr.Plan.Summary.TotalChanges
		r.Findings = append(r.Findings, tr.Plan.Findings...)
	}
}

// AddFinding records a finding not tied to a plan.
func (r *Result) AddFinding(f reconcile.Finding) {
	r.Findings = append(r.Findings, f)
}

// Plans returns the plans with at least one operation.
func (r *Result) Plans() []*reconcile.Plan {
	var out []*reconcile.Plan
	for _, tr := range r.Teams {
		if tr.Plan != nil && tr.Plan.HasChanges() {
			out = append(out, tr.Plan)
		}
	}
	return out
}

// HasChanges returns true if any plan has operations.
func (r *Result) HasChanges() bool {
	return r.TotalChanges > 0
}

// Warnings counts warning findings.
func (r *Result) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == reconcile.SeverityWarning {
			n++
		}
	}
	return n
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	if !r.HasChanges() {
		return fmt.Sprintf("No changes across %d teams", len(r.Teams))
	}

	summary := fmt.Sprintf("%d changes across %d teams", r.TotalChanges, len(r.Plans()))
	var parts []string
	if len(r.Created) > 0 {
		parts = append(parts, fmt.Sprintf("(%d created)", len(r.Created)))
	}
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// AttributionResult is the outcome of a pull request scan.
type AttributionResult struct {
	Outcomes []attribution.Outcome `json:"outcomes" yaml:"outcomes"`
	Scanned  int                   `json:"scanned" yaml:"scanned"`
	DryRun   bool                  `json:"dry_run" yaml:"dry_run"`
}

// Count returns the number of outcomes with status s.
func (r *AttributionResult) Count(s attribution.Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Summary returns a human-readable summary.
func (r *AttributionResult) Summary() string {
	return fmt.Sprintf("%d pull requests scanned: %d recorded, %d mismatched, %d declined",
		r.Scanned, r.Count(attribution.StatusRecorded), r.Count(attribution.StatusMismatch), r.Count(attribution.StatusDeclined))
}

// MissingUser is a mapped username that does not exist on the platform.
type MissingUser struct {
	Login string `json:"login" yaml:"login"`
	Key   string `json:"key" yaml:"key"`
}

// VerifyResult is the outcome of an identity verification pass.
type VerifyResult struct {
	Checked  int           `json:"checked" yaml:"checked"`
	Requests int           `json:"requests" yaml:"requests"` // user lookups sent to the platform
	Missing  []MissingUser `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Summary returns a human-readable summary.
func (r *VerifyResult) Summary() string {
	if len(r.Missing) == 0 {
		return fmt.Sprintf("All %d usernames exist", r.Checked)
	}
	return fmt.Sprintf("%d of %d usernames not found", len(r.Missing), r.Checked)
}

// MirrorStatus is the outcome of updating one mirror repository.
type MirrorStatus string

// Mirror statuses
const (
	MirrorUpdated   MirrorStatus = "updated"
	MirrorUnchanged MirrorStatus = "unchanged"
	MirrorNotInOrg  MirrorStatus = "not-in-org"
	MirrorMissing   MirrorStatus = "missing"
	MirrorFailed    MirrorStatus = "failed"
)

// MirrorOutcome records what happened to one mirror repository.
type MirrorOutcome struct {
	Repo        string       `json:"repo" yaml:"repo"`
	Name        string       `json:"name" yaml:"name"`
	Status      MirrorStatus `json:"status" yaml:"status"`
	Description string       `json:"description" yaml:"description"`
	Homepage    string       `json:"homepage" yaml:"homepage"`
	Applied     bool         `json:"applied" yaml:"applied"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// MirrorResult is the outcome of a mirror description pass.
type MirrorResult struct {
	Outcomes []MirrorOutcome `json:"outcomes" yaml:"outcomes"`
	DryRun   bool            `json:"dry_run" yaml:"dry_run"`
}

// Count returns the number of outcomes with status s.
func (r *MirrorResult) Count(s MirrorStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Summary returns a human-readable summary.
func (r *MirrorResult) Summary() string {
	summary := fmt.Sprintf("%d mirrors: %d updated, %d unchanged, %d skipped",
		len(r.Outcomes), r.Count(MirrorUpdated), r.Count(MirrorUnchanged),
		r.Count(MirrorNotInOrg)+r.Count(MirrorMissing)+r.Count(MirrorFailed))
	if r.DryRun {
		summary += " (Dry run)"
	}
	return summary
}
