package reconcile

import (
	"strings"

	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/sets"
)

// TeamProposal is a suggested team for a project that has none. The final
// name is chosen by the operator.
type TeamProposal struct {
	Project     string   `json:"project" yaml:"project"`
	Candidates  []string `json:"candidates" yaml:"candidates"`
	Suggested   int      `json:"suggested" yaml:"suggested"` // index into Candidates
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Emails      []string `json:"emails" yaml:"emails"`
	Members     []string `json:"members" yaml:"members"`
}

// SuggestedName returns the first candidate not already in use.
func (p *TeamProposal) SuggestedName() string {
	return p.Candidates[p.Suggested]
}

// Plan returns the operations that create the team as name and populate it.
func (p *TeamProposal) Plan(name string, admins sets.Set, opts Options) *Plan {
	plan := NewPlan(name)
	plan.add(Operation{
		Kind:        OpCreateTeam,
		Team:        name,
		Description: p.Description,
		Members:     append([]string(nil), p.Members...),
	})
	for _, login := range p.Members {
		plan.add(Operation{
			Kind:       OpAdd,
			Login:      login,
			Maintainer: opts.TrackRoles && !admins.Has(login),
		})
	}
	return plan
}

// ProposeTeam decides whether a project without a team should get one.
// effective is the resolved member e-mail set and logins the platform logins
// among them. taken holds existing team names, compared case-insensitively.
// Exactly one of the results is non-nil.
func ProposeTeam(project *projects.Project, effective, logins, taken sets.Set) (*TeamProposal, *Finding) {
	names := project.CandidateNames()
	label := project.Email
	if len(names) > 0 {
		label = names[0]
	}

	finding := func(kind FindingKind, msg string) (*TeamProposal, *Finding) {
		f := NewFinding(kind, label+" "+msg)
		f.Project = project.Email
		return nil, &f
	}

	switch {
	case effective.Len() == 0 && !project.HasSubprojects():
		return finding(FindingNoDevelopers, "project has no developers")
	case effective.Len() == 0:
		return finding(FindingOrganizational, "project purely organizational (no members)")
	case logins.Len() == 0:
		return finding(FindingNoPlatformUsers, "project has no platform users")
	}

	lowerTaken := make(sets.Set, taken.Len())
	for name := range taken {
		lowerTaken.Add(strings.ToLower(name))
	}
	suggested := -1
	for i, name := range names {
		if !lowerTaken.Has(strings.ToLower(name)) {
			suggested = i
			break
		}
	}
	if suggested < 0 {
		return finding(FindingNameTaken, "project has no free team name")
	}

	return &TeamProposal{
		Project:     project.Email,
		Candidates:  names,
		Suggested:   suggested,
		Description: project.Description,
		Emails:      effective.Sorted(),
		Members:     logins.Sorted(),
	}, nil
}
