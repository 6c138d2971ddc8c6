package reconcile

import (
	"github.com/agentstation/teamsync/pkg/sets"
)

// RosterOptions controls developers team reconciliation.
type RosterOptions struct {
	// OrgMembers, when set, makes removal organization wide: every
	// organization member outside the roster is removed from the
	// organization. Otherwise removal only drops team members.
	OrgMembers sets.Set
}

// ReconcileRoster computes the plan for the organization-wide developers
// team. Every roster login missing from the team is added, and every account
// outside the roster is removed. The developers team mirrors the whole
// identity map, so no tracked-identity filter applies.
func ReconcileRoster(roster sets.Set, remote RemoteTeam, opts RosterOptions) *Plan {
	plan := NewPlan(remote.Name)

	for _, login := range roster.Difference(remote.Members).Sorted() {
		plan.add(Operation{Kind: OpAdd, Login: login})
	}

	if opts.OrgMembers != nil {
		for _, login := range opts.OrgMembers.Difference(roster).Sorted() {
			plan.add(Operation{Kind: OpRemoveFromOrg, Login: login})
		}
		return plan
	}

	for _, login := range remote.Members.Difference(roster).Sorted() {
		plan.add(Operation{Kind: OpRemove, Login: login})
	}
	return plan
}
