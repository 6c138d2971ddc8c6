// Package reconcile computes the membership changes that bring a platform
// team in line with its project.
//
// Plans are transient: they are computed from the current roster and a
// snapshot of the remote team, applied right away, and never persisted.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/agentstation/teamsync/pkg/sets"
)

// OpKind is the type of a single plan operation.
type OpKind string

const (
	// OpAdd adds a login to the team.
	OpAdd OpKind = "add"
	// OpRemove removes a login from the team.
	OpRemove OpKind = "remove"
	// OpPromote raises a team member to the maintainer role.
	OpPromote OpKind = "promote"
	// OpDeleteTeam deletes the now empty team.
	OpDeleteTeam OpKind = "delete-team"
	// OpCreateTeam creates a team for a project that has none.
	OpCreateTeam OpKind = "create-team"
	// OpRemoveFromOrg removes a login from the whole organization.
	OpRemoveFromOrg OpKind = "remove-from-org"
)

// Operation is a single step of a plan.
type Operation struct {
	Kind        OpKind   `json:"kind" yaml:"kind"`
	Login       string   `json:"login,omitempty" yaml:"login,omitempty"`
	Maintainer  bool     `json:"maintainer,omitempty" yaml:"maintainer,omitempty"` // add with the maintainer role
	Team        string   `json:"team,omitempty" yaml:"team,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Members     []string `json:"members,omitempty" yaml:"members,omitempty"` // initial members of a created team
}

// String renders the operation the way it is logged.
func (o Operation) String() string {
	switch o.Kind {
	case OpAdd:
		if o.Maintainer {
			return "ADD " + o.Login + " (maintainer)"
		}
		return "ADD " + o.Login
	case OpRemove:
		return "REMOVE " + o.Login
	case OpPromote:
		return "PROMOTE " + o.Login
	case OpDeleteTeam:
		return "DELETE TEAM " + o.Team
	case OpCreateTeam:
		return "CREATE TEAM " + o.Team
	case OpRemoveFromOrg:
		return "REMOVE " + o.Login + " FROM ORG"
	}
	return string(o.Kind)
}

// RemoteTeam is a snapshot of a platform team.
type RemoteTeam struct {
	ID           int64
	Name         string
	Members      sets.Set
	Maintainers  sets.Set // subset of Members holding the maintainer role
	Admins       sets.Set // organization owners; their role is never changed
	Repositories []string // nil when not loaded
	Deleted      bool
}

// Options controls platform specific reconciliation behavior.
type Options struct {
	// TrackRoles enables maintainer role handling (ADD as maintainer, PROMOTE).
	TrackRoles bool
}

// Plan is the ordered list of operations for one team plus the findings
// raised while computing it.
type Plan struct {
	Team       string      `json:"team" yaml:"team"`
	Operations []Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
	Findings   []Finding   `json:"findings,omitempty" yaml:"findings,omitempty"`
	Summary    Summary     `json:"summary" yaml:"summary"`
}

// Summary counts the operations of a plan.
type Summary struct {
	Added        int  `json:"added" yaml:"added"`
	Removed      int  `json:"removed" yaml:"removed"`
	Promoted     int  `json:"promoted" yaml:"promoted"`
	Created      bool `json:"created,omitempty" yaml:"created,omitempty"`
	Deleted      bool `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	TotalChanges int  `json:"total" yaml:"total"`
}

// NewPlan returns an empty plan for team.
func NewPlan(team string) *Plan {
	return &Plan{Team: team}
}

func (p *Plan) add(op Operation) {
	p.Operations = append(p.Operations, op)
	switch op.Kind {
	case OpAdd:
		p.Summary.Added++
	case OpRemove, OpRemoveFromOrg:
		p.Summary.Removed++
	case OpPromote:
		p.Summary.Promoted++
	case OpCreateTeam:
		p.Summary.Created = true
	case OpDeleteTeam:
		p.Summary.Deleted = true
	}
	p.Summary.TotalChanges++
}

func (p *Plan) report(f Finding) {
	if f.Team == "" {
		f.Team = p.Team
	}
	p.Findings = append(p.Findings, f)
}

// IsEmpty returns true if the plan has no operations. Findings do not count.
func (p *Plan) IsEmpty() bool {
	return len(p.Operations) == 0
}

// HasChanges returns true if the plan has at least one operation.
func (p *Plan) HasChanges() bool {
	return !p.IsEmpty()
}

// DeletesTeam reports whether the plan ends by deleting the team.
func (p *Plan) DeletesTeam() bool {
	return p.Summary.Deleted
}

// Logins returns the logins of all operations of the given kind, in plan order.
func (p *Plan) Logins(kind OpKind) []string {
	var out []string
	for _, op := range p.Operations {
		if op.Kind == kind {
			out = append(out, op.Login)
		}
	}
	return out
}

// String returns a human-readable summary of the plan.
func (p *Plan) String() string {
	if p.IsEmpty() {
		return "No changes for " + p.Team
	}

	var parts []string
	if p.Summary.Created {
		parts = append(parts, "created")
	}
	if p.Summary.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", p.Summary.Added))
	}
	if p.Summary.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", p.Summary.Removed))
	}
	if p.Summary.Promoted > 0 {
		parts = append(parts, fmt.Sprintf("%d promoted", p.Summary.Promoted))
	}
	if p.Summary.Deleted {
		parts = append(parts, "deleted")
	}
	return fmt.Sprintf("%s: %s", p.Team, strings.Join(parts, ", "))
}
