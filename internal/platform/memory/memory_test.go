package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	teamerrors "github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

func TestTeamLifecycle(t *testing.T) {
	g := New(platform.GitHub, "gentoo")
	ctx := context.Background()

	python := g.AddTeam("Python", "alice", "bob")
	g.SetMaintainers("python", "alice")

	maint, err := g.TeamMembers(ctx, python, platform.RoleMaintainer)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, maint)

	require.NoError(t, g.AddTeamMember(ctx, python, "bob", platform.RoleMaintainer))
	require.NoError(t, g.RemoveTeamMember(ctx, python, "alice"))
	members, maintainers, ok := g.Members("Python")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, members.Sorted())
	assert.Equal(t, []string{"bob"}, maintainers.Sorted())

	_, err = g.CreateTeam(ctx, platform.TeamSpec{Name: "python"})
	require.Error(t, err)

	kde, err := g.CreateTeam(ctx, platform.TeamSpec{Name: "KDE Team"})
	require.NoError(t, err)
	assert.Equal(t, "kde-team", kde.Slug)
	require.NoError(t, g.DeleteTeam(ctx, kde))
	assert.True(t, teamerrors.IsNotFound(g.DeleteTeam(ctx, kde)))

	assert.Equal(t, []string{
		"ADD Python bob maintainer",
		"REMOVE Python alice",
		"CREATE KDE Team",
		"DELETE KDE Team",
	}, g.Calls())
}

func TestCodebergIgnoresRoles(t *testing.T) {
	g := New(platform.Codeberg, "gentoo")
	team := g.AddTeam("python")
	require.NoError(t, g.AddTeamMember(context.Background(), team, "alice", platform.RoleMaintainer))

	_, maintainers, _ := g.Members("python")
	assert.Zero(t, maintainers.Len())
	assert.False(t, g.SupportsRoles())
	assert.True(t, g.RemovesFromOrg())
}

func TestOrgMembers(t *testing.T) {
	g := New(platform.Codeberg, "gentoo")
	ctx := context.Background()
	g.AddTeam("developers", "alice", "bob")
	g.AddOrgMember("root", true)

	owners, err := g.OrgMembers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, owners)

	require.NoError(t, g.RemoveOrgMember(ctx, "bob"))
	members, _, _ := g.Members("developers")
	assert.Equal(t, []string{"alice"}, members.Sorted())
	assert.Equal(t, []string{"alice", "root"}, g.OrgLogins().Sorted())
}

func TestUsersAndFailures(t *testing.T) {
	g := New(platform.GitHub, "gentoo")
	ctx := context.Background()
	g.AddUsers(platform.User{Login: "Carol", Name: "Carol"})

	u, err := g.GetUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol", u.Name)

	_, err = g.GetUser(ctx, "ghost")
	assert.True(t, teamerrors.IsNotFound(err))

	boom := errors.New("boom")
	g.Fail("ListTeams", boom)
	_, err = g.ListTeams(ctx)
	assert.ErrorIs(t, err, boom)
	g.Fail("ListTeams", nil)
	_, err = g.ListTeams(ctx)
	assert.NoError(t, err)
}

func TestRepositories(t *testing.T) {
	g := New(platform.GitHub, "gentoo")
	ctx := context.Background()
	g.AddRepository(platform.Repository{Name: "Guru", Description: "old"})

	repo, err := g.Repository(ctx, "guru")
	require.NoError(t, err)
	assert.Equal(t, "gentoo", repo.Owner)

	edit := platform.RepositoryEdit{Description: "[MIRROR] Guru", Homepage: "https://gitweb.gentoo.org/proj/guru.git"}
	require.NoError(t, g.EditRepository(ctx, "guru", edit))
	repo, err = g.Repository(ctx, "GURU")
	require.NoError(t, err)
	assert.Equal(t, edit.Homepage, repo.Homepage)
	assert.Equal(t, []string{"EDIT guru"}, g.Calls())

	_, err = g.Repository(ctx, "gone")
	assert.True(t, teamerrors.IsNotFound(err))
	assert.True(t, teamerrors.IsNotFound(g.EditRepository(ctx, "gone", edit)))
}
