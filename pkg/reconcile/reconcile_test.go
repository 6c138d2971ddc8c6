package reconcile_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/reconcile"
	"github.com/agentstation/teamsync/pkg/sets"
)

func TestReconcileInheritedProjectScenario(t *testing.T) {
	target := sets.New("alice", "carol")
	remote := reconcile.RemoteTeam{ID: 1, Name: "p", Members: sets.New("alice", "dave")}
	known := sets.New("alice", "carol", "dave")

	plan := reconcile.Reconcile(target, remote, known, reconcile.Options{})

	want := []reconcile.Operation{
		{Kind: reconcile.OpRemove, Login: "dave"},
		{Kind: reconcile.OpAdd, Login: "carol"},
	}
	if diff := cmp.Diff(want, plan.Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, reconcile.Summary{Added: 1, Removed: 1, TotalChanges: 2}, plan.Summary)
	assert.Equal(t, "p: 1 added, 1 removed", plan.String())
}

func TestReconcileRoles(t *testing.T) {
	target := sets.New("alice", "bob", "carol", "root")
	remote := reconcile.RemoteTeam{
		Name:        "kde",
		Members:     sets.New("alice", "bob", "root", "guest"),
		Maintainers: sets.New("bob"),
		Admins:      sets.New("root", "owner"),
	}
	known := sets.New("alice", "bob", "carol", "root", "owner")

	plan := reconcile.Reconcile(target, remote, known, reconcile.Options{TrackRoles: true})

	want := []reconcile.Operation{
		{Kind: reconcile.OpAdd, Login: "carol", Maintainer: true},
		{Kind: reconcile.OpPromote, Login: "alice"},
	}
	if diff := cmp.Diff(want, plan.Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, plan.Findings, 1)
	assert.Equal(t, reconcile.FindingUntrackedMember, plan.Findings[0].Kind)
	assert.Equal(t, "guest", plan.Findings[0].Login)
}

func TestReconcileAddsAdminWithoutMaintainerRole(t *testing.T) {
	remote := reconcile.RemoteTeam{Name: "x", Members: sets.New(), Admins: sets.New("owner")}
	plan := reconcile.Reconcile(sets.New("owner"), remote, sets.New("owner"), reconcile.Options{TrackRoles: true})

	want := []reconcile.Operation{{Kind: reconcile.OpAdd, Login: "owner"}}
	if diff := cmp.Diff(want, plan.Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileEmptyTeam(t *testing.T) {
	known := sets.New("alice")

	t.Run("no repositories", func(t *testing.T) {
		remote := reconcile.RemoteTeam{Name: "old", Members: sets.New("alice"), Repositories: []string{}}
		plan := reconcile.Reconcile(sets.New(), remote, known, reconcile.Options{})
		assert.Equal(t, []string{"REMOVE alice", "DELETE TEAM old"}, opStrings(plan))
		assert.True(t, plan.DeletesTeam())
	})

	t.Run("with repositories", func(t *testing.T) {
		remote := reconcile.RemoteTeam{Name: "old", Members: sets.New("alice"), Repositories: []string{"gentoo/old"}}
		plan := reconcile.Reconcile(sets.New(), remote, known, reconcile.Options{})
		assert.Equal(t, []string{"REMOVE alice"}, opStrings(plan))
		assert.False(t, plan.DeletesTeam())
		require.Len(t, plan.Findings, 1)
		assert.Equal(t, reconcile.FindingTeamHasRepositories, plan.Findings[0].Kind)
		assert.Equal(t, reconcile.SeverityWarning, plan.Findings[0].Severity)
	})

	t.Run("untracked member keeps team alive", func(t *testing.T) {
		remote := reconcile.RemoteTeam{Name: "old", Members: sets.New("alice", "guest")}
		plan := reconcile.Reconcile(sets.New(), remote, known, reconcile.Options{})
		assert.Equal(t, []string{"REMOVE alice"}, opStrings(plan))
	})
}

func opStrings(plan *reconcile.Plan) []string {
	out := make([]string, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		out = append(out, op.String())
	}
	return out
}

func randomSet(rng *rand.Rand, universe []string) sets.Set {
	s := sets.New()
	for _, u := range universe {
		if rng.Intn(2) == 0 {
			s.Add(u)
		}
	}
	return s
}

func randomCase(rng *rand.Rand) (sets.Set, reconcile.RemoteTeam, sets.Set) {
	universe := make([]string, 10)
	for i := range universe {
		universe[i] = fmt.Sprintf("user%d", i)
	}
	known := randomSet(rng, universe)
	target := randomSet(rng, universe).Intersect(known)
	members := randomSet(rng, universe)
	remote := reconcile.RemoteTeam{
		Name:        "team",
		Members:     members,
		Maintainers: randomSet(rng, universe).Intersect(members),
		Admins:      randomSet(rng, universe[:2]),
	}
	if rng.Intn(2) == 0 {
		remote.Repositories = []string{"gentoo/repo"}
	}
	return target, remote, known
}

func TestReconcileIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		target, remote, known := randomCase(rng)
		for _, opts := range []reconcile.Options{{}, {TrackRoles: true}} {
			plan := reconcile.Reconcile(target, remote, known, opts)
			after := reconcile.Apply(remote, plan)

			if !after.Deleted {
				untracked := remote.Members.Difference(known)
				assert.True(t, after.Members.Equal(target.Union(untracked.Difference(target))),
					"case %d: applied plan must reach the target", i)
			}

			again := reconcile.Reconcile(target, after, known, opts)
			assert.True(t, again.IsEmpty(), "case %d: second pass produced %v", i, opStrings(again))
		}
	}
}

func TestReconcileNeverRemovesUntracked(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		target, remote, known := randomCase(rng)
		plan := reconcile.Reconcile(target, remote, known, reconcile.Options{TrackRoles: rng.Intn(2) == 0})
		for _, login := range plan.Logins(reconcile.OpRemove) {
			assert.True(t, known.Has(login), "case %d: removed untracked %s", i, login)
		}
	}
}

func TestReconcileNeverDeletesTeamWithRepositories(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		target, remote, known := randomCase(rng)
		remote.Repositories = []string{"gentoo/repo"}
		plan := reconcile.Reconcile(target, remote, known, reconcile.Options{})
		assert.False(t, plan.DeletesTeam(), "case %d", i)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	remote := reconcile.RemoteTeam{Name: "t", Members: sets.New("a"), Maintainers: sets.New()}
	plan := reconcile.Reconcile(sets.New("b"), remote, sets.New("a", "b"), reconcile.Options{TrackRoles: true})
	_ = reconcile.Apply(remote, plan)
	assert.Equal(t, []string{"a"}, remote.Members.Sorted())
	assert.Empty(t, remote.Maintainers.Sorted())
}

func TestProposeTeam(t *testing.T) {
	kde := &projects.Project{
		Email:       "kde@gentoo.org",
		Name:        "KDE",
		URL:         "https://wiki.gentoo.org/wiki/Project:KDE",
		Description: "KDE desktop",
	}
	umbrella := &projects.Project{
		Email:       "umbrella@gentoo.org",
		Name:        "Umbrella",
		Subprojects: []projects.Subproject{{Ref: "kde@gentoo.org"}},
	}

	t.Run("proposal", func(t *testing.T) {
		proposal, finding := reconcile.ProposeTeam(kde, sets.New("a@x", "b@x"), sets.New("bob", "alice"), sets.New("KDE-old"))
		require.Nil(t, finding)
		require.NotNil(t, proposal)
		assert.Equal(t, []string{"kde", "KDE"}, proposal.Candidates)
		assert.Equal(t, "kde", proposal.SuggestedName())
		assert.Equal(t, []string{"alice", "bob"}, proposal.Members)
		assert.Equal(t, []string{"a@x", "b@x"}, proposal.Emails)
		assert.Equal(t, "KDE desktop", proposal.Description)

		plan := proposal.Plan("kde", sets.New("bob"), reconcile.Options{TrackRoles: true})
		assert.Equal(t, []string{"CREATE TEAM kde", "ADD alice (maintainer)", "ADD bob"}, opStrings(plan))
		assert.True(t, plan.Summary.Created)
	})

	t.Run("first name taken", func(t *testing.T) {
		qt := &projects.Project{Email: "qt@gentoo.org", Name: "Qt Team"}
		proposal, finding := reconcile.ProposeTeam(qt, sets.New("a@x"), sets.New("alice"), sets.New("QT"))
		require.Nil(t, finding)
		assert.Equal(t, []string{"qt", "qt team", "Qt Team"}, proposal.Candidates)
		assert.Equal(t, "qt team", proposal.SuggestedName())
	})

	tests := []struct {
		name      string
		project   *projects.Project
		effective sets.Set
		logins    sets.Set
		taken     sets.Set
		want      reconcile.FindingKind
		severity  reconcile.Severity
	}{
		{name: "no developers", project: kde, effective: sets.New(), logins: sets.New(),
			want: reconcile.FindingNoDevelopers, severity: reconcile.SeverityWarning},
		{name: "organizational", project: umbrella, effective: sets.New(), logins: sets.New(),
			want: reconcile.FindingOrganizational, severity: reconcile.SeverityNote},
		{name: "no platform users", project: kde, effective: sets.New("a@x"), logins: sets.New(),
			want: reconcile.FindingNoPlatformUsers, severity: reconcile.SeverityNote},
		{name: "all names taken", project: kde, effective: sets.New("a@x"), logins: sets.New("alice"),
			taken: sets.New("kde"), want: reconcile.FindingNameTaken, severity: reconcile.SeverityNote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposal, finding := reconcile.ProposeTeam(tt.project, tt.effective, tt.logins, tt.taken)
			assert.Nil(t, proposal)
			require.NotNil(t, finding)
			assert.Equal(t, tt.want, finding.Kind)
			assert.Equal(t, tt.severity, finding.Severity)
			assert.Equal(t, tt.project.Email, finding.Project)
		})
	}
}

func TestReconcileRoster(t *testing.T) {
	roster := sets.New("alice", "bob", "carol")
	remote := reconcile.RemoteTeam{Name: "developers", Members: sets.New("alice", "ghost", "zed")}

	t.Run("team scope", func(t *testing.T) {
		plan := reconcile.ReconcileRoster(roster, remote, reconcile.RosterOptions{})
		assert.Equal(t, []string{"ADD bob", "ADD carol", "REMOVE ghost", "REMOVE zed"}, opStrings(plan))
	})

	t.Run("organization scope", func(t *testing.T) {
		plan := reconcile.ReconcileRoster(roster, remote, reconcile.RosterOptions{
			OrgMembers: sets.New("alice", "bob", "ghost", "outsider"),
		})
		assert.Equal(t, []string{
			"ADD bob", "ADD carol", "REMOVE ghost FROM ORG", "REMOVE outsider FROM ORG",
		}, opStrings(plan))
		assert.Equal(t, 2, plan.Summary.Removed)
	})
}

func TestPlanString(t *testing.T) {
	plan := reconcile.NewPlan("empty")
	assert.Equal(t, "No changes for empty", plan.String())
	assert.True(t, plan.IsEmpty())
	assert.False(t, plan.HasChanges())
}
