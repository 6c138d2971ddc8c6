package reconcile

import "fmt"

// FindingKind classifies a non-fatal condition found while reconciling.
type FindingKind string

const (
	// FindingUntrackedMember is a team member outside the identity map. It is
	// left on the team.
	FindingUntrackedMember FindingKind = "untracked-member"
	// FindingTeamHasRepositories is an empty team that still owns repositories
	// and therefore was not deleted.
	FindingTeamHasRepositories FindingKind = "team-has-repositories"
	// FindingUnmatchedTeam is a platform team with no project.
	FindingUnmatchedTeam FindingKind = "unmatched-team"
	// FindingNoDevelopers is a project without members or subprojects.
	FindingNoDevelopers FindingKind = "no-developers"
	// FindingOrganizational is a project whose only content is subprojects.
	FindingOrganizational FindingKind = "organizational"
	// FindingNoPlatformUsers is a project none of whose members has an account.
	FindingNoPlatformUsers FindingKind = "no-platform-users"
	// FindingNameTaken is a project whose every candidate team name is in use.
	FindingNameTaken FindingKind = "name-taken"
	// FindingDanglingSubproject is an inheriting reference to a missing project.
	FindingDanglingSubproject FindingKind = "dangling-subproject"
	// FindingDuplicateProject is a project e-mail declared more than once.
	FindingDuplicateProject FindingKind = "duplicate-project"
	// FindingDeclined is a team creation the operator turned down.
	FindingDeclined FindingKind = "declined"
)

// Severity grades a finding.
type Severity string

const (
	SeverityNote    Severity = "note"
	SeverityWarning Severity = "warning"
)

// Finding is a structured report entry. Findings never stop a run.
type Finding struct {
	Kind     FindingKind `json:"kind" yaml:"kind"`
	Severity Severity    `json:"severity" yaml:"severity"`
	Team     string      `json:"team,omitempty" yaml:"team,omitempty"`
	Project  string      `json:"project,omitempty" yaml:"project,omitempty"`
	Login    string      `json:"login,omitempty" yaml:"login,omitempty"`
	Message  string      `json:"message" yaml:"message"`
}

// String renders the finding as a log line.
func (f Finding) String() string {
	subject := f.Team
	if subject == "" {
		subject = f.Project
	}
	if f.Severity == SeverityWarning {
		return fmt.Sprintf("WARN: %s: %s", subject, f.Message)
	}
	return fmt.Sprintf("NOTE: %s: %s", subject, f.Message)
}

// NewFinding builds a finding with the default severity for its kind.
func NewFinding(kind FindingKind, message string) Finding {
	sev := SeverityNote
	switch kind {
	case FindingNoDevelopers, FindingTeamHasRepositories, FindingDanglingSubproject, FindingDuplicateProject:
		sev = SeverityWarning
	}
	return Finding{Kind: kind, Severity: sev, Message: message}
}
