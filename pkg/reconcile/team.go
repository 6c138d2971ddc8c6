package reconcile

import (
	"github.com/agentstation/teamsync/pkg/sets"
)

// Reconcile computes the plan that turns remote into a team whose members are
// target. known is the set of tracked logins; members outside it are never
// removed.
//
// Steps run in a fixed order: REMOVE tracked extras, ADD missing logins,
// PROMOTE kept members when roles are tracked, then DELETE_TEAM if nothing is
// left and the team owns no repositories. Logins are emitted in sorted order
// within each step.
func Reconcile(target sets.Set, remote RemoteTeam, known sets.Set, opts Options) *Plan {
	plan := NewPlan(remote.Name)
	if remote.Deleted {
		return plan
	}

	members := remote.Members.Clone()

	// 1. tracked accounts that left the project
	for _, login := range remote.Members.Difference(target).Sorted() {
		if !known.Has(login) {
			f := NewFinding(FindingUntrackedMember, "member "+login+" is not a tracked identity, left untouched")
			f.Login = login
			plan.report(f)
			continue
		}
		plan.add(Operation{Kind: OpRemove, Login: login})
		members.Remove(login)
	}

	// 2. project members not on the team
	added := sets.New()
	for _, login := range target.Difference(members).Sorted() {
		plan.add(Operation{
			Kind:       OpAdd,
			Login:      login,
			Maintainer: opts.TrackRoles && !remote.Admins.Has(login),
		})
		members.Add(login)
		added.Add(login)
	}

	// 3. kept members that lack the maintainer role
	if opts.TrackRoles {
		nonPromoted := members.Difference(added).Difference(remote.Maintainers).Difference(remote.Admins)
		for _, login := range nonPromoted.Sorted() {
			if known.Has(login) {
				plan.add(Operation{Kind: OpPromote, Login: login})
			}
		}
	}

	// 4. empty team
	if members.Len() == 0 {
		if len(remote.Repositories) == 0 {
			plan.add(Operation{Kind: OpDeleteTeam, Team: remote.Name})
		} else {
			plan.report(NewFinding(FindingTeamHasRepositories, "empty team with repositories, not deleted"))
		}
	}

	return plan
}

// Apply returns the team that results from carrying out plan on remote.
// remote is not modified.
func Apply(remote RemoteTeam, plan *Plan) RemoteTeam {
	out := remote
	out.Members = remote.Members.Clone()
	out.Maintainers = remote.Maintainers.Clone()
	out.Admins = remote.Admins.Clone()
	out.Repositories = append([]string(nil), remote.Repositories...)

	for _, op := range plan.Operations {
		switch op.Kind {
		case OpAdd:
			out.Members.Add(op.Login)
			if op.Maintainer {
				out.Maintainers.Add(op.Login)
			}
		case OpRemove, OpRemoveFromOrg:
			out.Members.Remove(op.Login)
			out.Maintainers.Remove(op.Login)
		case OpPromote:
			out.Maintainers.Add(op.Login)
		case OpCreateTeam:
			out.Name = op.Team
			out.Deleted = false
		case OpDeleteTeam:
			out.Deleted = true
		}
	}
	return out
}
