package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

type fakeGitHub struct {
	srv   *httptest.Server
	calls []string
	body  map[string]any
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /orgs/gentoo/teams", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/orgs/gentoo/teams?page=2>; rel="next"`, f.srv.URL))
			_, _ = w.Write([]byte(`[{"id":1,"name":"Python","slug":"python"}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":2,"name":"KDE Team","slug":"kde-team"}]`))
	})
	mux.HandleFunc("GET /orgs/gentoo/teams/python/members", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("role") == "maintainer" {
			_, _ = w.Write([]byte(`[{"login":"alice"}]`))
			return
		}
		assert.Equal(t, "all", r.URL.Query().Get("role"))
		_, _ = w.Write([]byte(`[{"login":"alice"},{"login":"bob"}]`))
	})
	mux.HandleFunc("GET /orgs/gentoo/teams/python/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /orgs/gentoo/members", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "admin", r.URL.Query().Get("role"))
		_, _ = w.Write([]byte(`[{"login":"root"}]`))
	})
	mux.HandleFunc("PUT /orgs/gentoo/teams/python/memberships/{login}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.body))
		_, _ = w.Write([]byte(`{"state":"active"}`))
	})
	mux.HandleFunc("POST /orgs/gentoo/teams", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"name":"KDE Team","slug":"kde-team"}`))
	})
	mux.HandleFunc("GET /repos/gentoo/gentoo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		_, _ = w.Write([]byte(`[{"number":5,"state":"open","html_url":"https://github.com/gentoo/gentoo/pull/5","patch_url":"https://github.com/gentoo/gentoo/pull/5.patch","user":{"login":"carol"}}]`))
	})
	mux.HandleFunc("GET /repos/gentoo/gentoo/pulls/5/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"author":{"login":"carol"},"committer":{"login":"web-flow"},"commit":{"author":{"name":"Carol","email":"carol@x.org"},"committer":{"name":"GitHub","email":"noreply@github.com"}}}]`))
	})
	mux.HandleFunc("GET /users/{login}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("login") == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"login":%q,"name":"Someone"}`, r.PathValue("login"))
	})
	mux.HandleFunc("GET /repos/gentoo/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") == "gone" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"name":%q,"owner":{"login":"gentoo"},"description":"old","homepage":""}`, r.PathValue("name"))
	})
	mux.HandleFunc("PATCH /repos/gentoo/{name}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.body))
		_, _ = fmt.Fprintf(w, `{"name":%q}`, r.PathValue("name"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newGateway(t *testing.T, f *fakeGitHub) *Gateway {
	g, err := New("secret", "gentoo", "gentoo/gentoo", WithBaseURL(f.srv.URL), WithHTTPClient(f.srv.Client()))
	require.NoError(t, err)
	return g
}

func TestListTeamsPaginates(t *testing.T) {
	g := newGateway(t, newFakeGitHub(t))
	teams, err := g.ListTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, platform.Team{ID: 2, Name: "KDE Team", Slug: "kde-team"}, teams[1])
}

func TestTeamMembersByRole(t *testing.T) {
	g := newGateway(t, newFakeGitHub(t))
	ctx := context.Background()
	team := platform.Team{Name: "Python", Slug: "python"}

	all, err := g.TeamMembers(ctx, team, platform.RoleAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, all)

	maintainers, err := g.TeamMembers(ctx, team, platform.RoleMaintainer)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, maintainers)

	repos, err := g.TeamRepositories(ctx, team)
	require.NoError(t, err)
	assert.NotNil(t, repos)
	assert.Empty(t, repos)

	owners, err := g.OrgMembers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, owners)
}

func TestMembershipChanges(t *testing.T) {
	f := newFakeGitHub(t)
	g := newGateway(t, f)
	ctx := context.Background()
	team := platform.Team{Name: "Python", Slug: "python"}

	require.NoError(t, g.AddTeamMember(ctx, team, "carol", platform.RoleMaintainer))
	assert.Equal(t, "maintainer", f.body["role"])

	require.NoError(t, g.AddTeamMember(ctx, team, "root", platform.RoleMember))
	assert.Equal(t, "member", f.body["role"])

	require.NoError(t, g.RemoveTeamMember(ctx, team, "bob"))
	require.NoError(t, g.DeleteTeam(ctx, platform.Team{Name: "Old Team"}))
	require.NoError(t, g.RemoveOrgMember(ctx, "dave"))

	assert.Equal(t, []string{
		"PUT /orgs/gentoo/teams/python/memberships/carol",
		"PUT /orgs/gentoo/teams/python/memberships/root",
		"DELETE /orgs/gentoo/teams/python/memberships/bob",
		"DELETE /orgs/gentoo/teams/old-team",
		"DELETE /orgs/gentoo/members/dave",
	}, f.calls)
}

func TestCreateTeam(t *testing.T) {
	f := newFakeGitHub(t)
	g := newGateway(t, f)

	team, err := g.CreateTeam(context.Background(), platform.TeamSpec{Name: "KDE Team", Description: "KDE desktop"})
	require.NoError(t, err)
	assert.Equal(t, "kde-team", team.Slug)
	assert.Equal(t, "closed", f.body["privacy"])
	assert.Equal(t, "KDE desktop", f.body["description"])
}

func TestPullRequestsAndCommits(t *testing.T) {
	g := newGateway(t, newFakeGitHub(t))
	ctx := context.Background()

	pulls, err := g.ListPullRequests(ctx, platform.PullsAll)
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, "carol", pulls[0].Submitter.Login)
	assert.Equal(t, "https://github.com/gentoo/gentoo/pull/5.patch", pulls[0].PatchURL)

	c, err := g.FirstCommit(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "carol", c.Author.Login)
	assert.Equal(t, "web-flow", c.Committer.Login)
	assert.Equal(t, "carol@x.org", c.AuthorSig.Email)
	assert.Equal(t, "noreply@github.com", c.CommitterSig.Email)
}

func TestGetUserNotFound(t *testing.T) {
	g := newGateway(t, newFakeGitHub(t))

	u, err := g.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Someone", u.Name)

	_, err = g.GetUser(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "github", apiErr.Platform)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "given", slug(platform.Team{Name: "Whatever", Slug: "given"}))
	assert.Equal(t, "kde-team", slug(platform.Team{Name: "KDE Team"}))
}

func TestRepositories(t *testing.T) {
	f := newFakeGitHub(t)
	g := newGateway(t, f)
	ctx := context.Background()

	repo, err := g.Repository(ctx, "guru")
	require.NoError(t, err)
	assert.Equal(t, platform.Repository{Name: "guru", Owner: "gentoo", Description: "old"}, repo)

	_, err = g.Repository(ctx, "gone")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, g.EditRepository(ctx, "guru", platform.RepositoryEdit{
		Description: "[MIRROR] Gentoo user repository",
		Homepage:    "https://gitweb.gentoo.org/repo/proj/guru.git",
	}))
	assert.Equal(t, "[MIRROR] Gentoo user repository", f.body["description"])
	assert.Equal(t, "https://gitweb.gentoo.org/repo/proj/guru.git", f.body["homepage"])
	assert.Contains(t, f.calls, "PATCH /repos/gentoo/guru")
}
