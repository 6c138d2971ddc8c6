// Package memory is an in-process platform gateway. It backs dry-run
// rehearsals and the orchestration tests.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/sets"
)

type team struct {
	platform.Team
	members     sets.Set
	maintainers sets.Set
	repos       []string
}

// Gateway keeps an organization in memory. The zero value is not usable; use
// New.
type Gateway struct {
	mu             sync.Mutex
	name           platform.Name
	org            string
	roles          bool
	removesFromOrg bool
	nextID         int64

	teams   []*team
	members sets.Set
	owners  sets.Set
	users   map[string]platform.User
	pulls   []platform.PullRequest
	commits map[int]*attribution.Commit
	repos   map[string]platform.Repository

	calls []string
	fail  map[string]error
}

// New creates an empty organization that behaves like the named platform:
// GitHub tracks maintainer roles, Codeberg removes dropped developers from
// the organization.
func New(name platform.Name, org string) *Gateway {
	return &Gateway{
		name:           name,
		org:            org,
		roles:          name == platform.GitHub,
		removesFromOrg: name == platform.Codeberg,
		members:        sets.New(),
		owners:         sets.New(),
		users:          map[string]platform.User{},
		commits:        map[int]*attribution.Commit{},
		repos:          map[string]platform.Repository{},
		fail:           map[string]error{},
	}
}

// AddTeam creates a team with the given members and returns it.
func (g *Gateway) AddTeam(name string, members ...string) platform.Team {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.newTeam(name, "")
	t.members.Add(members...)
	g.members.Add(members...)
	return t.Team
}

// SetMaintainers grants the maintainer role to logins on the named team.
func (g *Gateway) SetMaintainers(teamName string, logins ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t := g.find(teamName); t != nil {
		t.maintainers.Add(logins...)
	}
}

// SetRepositories attaches repositories to the named team.
func (g *Gateway) SetRepositories(teamName string, repos ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t := g.find(teamName); t != nil {
		t.repos = append(t.repos, repos...)
	}
}

// AddOrgMember adds login to the organization, as an owner when owner is set.
func (g *Gateway) AddOrgMember(login string, owner bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members.Add(login)
	if owner {
		g.owners.Add(login)
	}
}

// AddUsers registers existing platform accounts.
func (g *Gateway) AddUsers(users ...platform.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range users {
		g.users[strings.ToLower(u.Login)] = u
	}
}

// AddPullRequest registers a pull request and its first commit. A nil commit
// means the pull request has none.
func (g *Gateway) AddPullRequest(pr platform.PullRequest, first *attribution.Commit) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pulls = append(g.pulls, pr)
	if first != nil {
		g.commits[pr.Number] = first
	}
}

// AddRepository registers a repository under repo.Name. An empty Owner
// means the organization.
func (g *Gateway) AddRepository(repo platform.Repository) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if repo.Owner == "" {
		repo.Owner = g.org
	}
	g.repos[strings.ToLower(repo.Name)] = repo
}

// Fail makes the named method return err until cleared with a nil err.
func (g *Gateway) Fail(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, method)
		return
	}
	g.fail[method] = err
}

// Calls returns the mutations performed so far, one line each.
func (g *Gateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// Members returns the members and maintainers of the named team.
func (g *Gateway) Members(teamName string) (members, maintainers sets.Set, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.find(teamName)
	if t == nil {
		return nil, nil, false
	}
	return t.members.Clone(), t.maintainers.Clone(), true
}

// OrgLogins returns the organization members.
func (g *Gateway) OrgLogins() sets.Set {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members.Clone()
}

func (g *Gateway) newTeam(name, description string) *team {
	g.nextID++
	t := &team{
		Team: platform.Team{
			ID:          g.nextID,
			Name:        name,
			Slug:        strings.ToLower(strings.ReplaceAll(name, " ", "-")),
			Description: description,
		},
		members:     sets.New(),
		maintainers: sets.New(),
	}
	g.teams = append(g.teams, t)
	return t
}

func (g *Gateway) find(name string) *team {
	for _, t := range g.teams {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func (g *Gateway) lookup(ref platform.Team) (*team, error) {
	for _, t := range g.teams {
		if (ref.ID != 0 && t.ID == ref.ID) || (ref.ID == 0 && strings.EqualFold(t.Name, ref.Name)) {
			return t, nil
		}
	}
	return nil, g.notFound("team " + ref.Name)
}

func (g *Gateway) notFound(what string) error {
	return &errors.APIError{Platform: string(g.name), StatusCode: http.StatusNotFound, Message: what + " not found"}
}

func (g *Gateway) check(method string) error {
	return g.fail[method]
}

func (g *Gateway) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

// Name implements platform.Gateway.
func (g *Gateway) Name() platform.Name { return g.name }

// Org implements platform.Gateway.
func (g *Gateway) Org() string { return g.org }

// SupportsRoles implements platform.Gateway.
func (g *Gateway) SupportsRoles() bool { return g.roles }

// RemovesFromOrg implements platform.Gateway.
func (g *Gateway) RemovesFromOrg() bool { return g.removesFromOrg }

// ListTeams implements platform.Teams.
func (g *Gateway) ListTeams(context.Context) ([]platform.Team, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("ListTeams"); err != nil {
		return nil, err
	}
	out := make([]platform.Team, 0, len(g.teams))
	for _, t := range g.teams {
		out = append(out, t.Team)
	}
	return out, nil
}

// TeamMembers implements platform.Teams.
func (g *Gateway) TeamMembers(_ context.Context, ref platform.Team, role platform.Role) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("TeamMembers"); err != nil {
		return nil, err
	}
	t, err := g.lookup(ref)
	if err != nil {
		return nil, err
	}
	switch {
	case role == platform.RoleMaintainer && g.roles:
		return t.maintainers.Sorted(), nil
	case role == platform.RoleMember && g.roles:
		return t.members.Difference(t.maintainers).Sorted(), nil
	}
	return t.members.Sorted(), nil
}

// TeamRepositories implements platform.Teams.
func (g *Gateway) TeamRepositories(_ context.Context, ref platform.Team) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("TeamRepositories"); err != nil {
		return nil, err
	}
	t, err := g.lookup(ref)
	if err != nil {
		return nil, err
	}
	return append([]string{}, t.repos...), nil
}

// AddTeamMember implements platform.Teams.
func (g *Gateway) AddTeamMember(_ context.Context, ref platform.Team, login string, role platform.Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("AddTeamMember"); err != nil {
		return err
	}
	t, err := g.lookup(ref)
	if err != nil {
		return err
	}
	t.members.Add(login)
	g.members.Add(login)
	if g.roles && role == platform.RoleMaintainer {
		t.maintainers.Add(login)
		g.record("ADD %s %s maintainer", t.Name, login)
		return nil
	}
	t.maintainers.Remove(login)
	g.record("ADD %s %s", t.Name, login)
	return nil
}

// RemoveTeamMember implements platform.Teams.
func (g *Gateway) RemoveTeamMember(_ context.Context, ref platform.Team, login string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("RemoveTeamMember"); err != nil {
		return err
	}
	t, err := g.lookup(ref)
	if err != nil {
		return err
	}
	if !t.members.Has(login) {
		return g.notFound("member " + login)
	}
	t.members.Remove(login)
	t.maintainers.Remove(login)
	g.record("REMOVE %s %s", t.Name, login)
	return nil
}

// CreateTeam implements platform.Teams. Team names are unique
// case-insensitively.
func (g *Gateway) CreateTeam(_ context.Context, spec platform.TeamSpec) (platform.Team, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("CreateTeam"); err != nil {
		return platform.Team{}, err
	}
	if g.find(spec.Name) != nil {
		return platform.Team{}, &errors.APIError{
			Platform:   string(g.name),
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "team " + spec.Name + " already exists",
		}
	}
	t := g.newTeam(spec.Name, spec.Description)
	g.record("CREATE %s", spec.Name)
	return t.Team, nil
}

// DeleteTeam implements platform.Teams.
func (g *Gateway) DeleteTeam(_ context.Context, ref platform.Team) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("DeleteTeam"); err != nil {
		return err
	}
	for i, t := range g.teams {
		if (ref.ID != 0 && t.ID == ref.ID) || (ref.ID == 0 && strings.EqualFold(t.Name, ref.Name)) {
			g.teams = append(g.teams[:i], g.teams[i+1:]...)
			g.record("DELETE %s", t.Name)
			return nil
		}
	}
	return g.notFound("team " + ref.Name)
}

// OrgMembers implements platform.Members.
func (g *Gateway) OrgMembers(_ context.Context, admins bool) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("OrgMembers"); err != nil {
		return nil, err
	}
	if admins {
		return g.owners.Sorted(), nil
	}
	return g.members.Sorted(), nil
}

// RemoveOrgMember implements platform.Members.
func (g *Gateway) RemoveOrgMember(_ context.Context, login string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("RemoveOrgMember"); err != nil {
		return err
	}
	if !g.members.Has(login) {
		return g.notFound("member " + login)
	}
	g.members.Remove(login)
	g.owners.Remove(login)
	for _, t := range g.teams {
		t.members.Remove(login)
		t.maintainers.Remove(login)
	}
	g.record("REMOVE-ORG %s", login)
	return nil
}

// ListPullRequests implements platform.Pulls.
func (g *Gateway) ListPullRequests(_ context.Context, state platform.PullState) ([]platform.PullRequest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("ListPullRequests"); err != nil {
		return nil, err
	}
	if state == "" {
		state = platform.PullsOpen
	}
	var out []platform.PullRequest
	for _, pr := range g.pulls {
		if state == platform.PullsAll || pr.State == string(state) {
			out = append(out, pr)
		}
	}
	return out, nil
}

// FirstCommit implements platform.Pulls.
func (g *Gateway) FirstCommit(_ context.Context, number int) (*attribution.Commit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("FirstCommit"); err != nil {
		return nil, err
	}
	c, ok := g.commits[number]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// GetUser implements platform.Users. Registered accounts and organization
// members exist.
func (g *Gateway) GetUser(_ context.Context, login string) (platform.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("GetUser"); err != nil {
		return platform.User{}, err
	}
	if u, ok := g.users[strings.ToLower(login)]; ok {
		return u, nil
	}
	if g.members.Has(login) {
		return platform.User{Login: login}, nil
	}
	return platform.User{}, g.notFound("user " + login)
}

// Repository implements platform.Repositories.
func (g *Gateway) Repository(_ context.Context, name string) (platform.Repository, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("Repository"); err != nil {
		return platform.Repository{}, err
	}
	repo, ok := g.repos[strings.ToLower(name)]
	if !ok {
		return platform.Repository{}, g.notFound("repository " + name)
	}
	return repo, nil
}

// EditRepository implements platform.Repositories.
func (g *Gateway) EditRepository(_ context.Context, name string, edit platform.RepositoryEdit) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check("EditRepository"); err != nil {
		return err
	}
	key := strings.ToLower(name)
	repo, ok := g.repos[key]
	if !ok {
		return g.notFound("repository " + name)
	}
	repo.Description = edit.Description
	repo.Homepage = edit.Homepage
	g.repos[key] = repo
	g.record("EDIT %s", name)
	return nil
}

var _ platform.Gateway = (*Gateway)(nil)
