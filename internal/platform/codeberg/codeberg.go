// Package codeberg implements the platform gateway for Codeberg and other
// Forgejo/Gitea instances over the v1 REST API.
package codeberg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/teamsync/internal/transport"
	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

// Gateway talks to a Forgejo organization and repository.
type Gateway struct {
	client   *transport.Client
	org      string
	owner    string
	repo     string
	pageSize int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPageSize overrides the page size used for listings.
func WithPageSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.pageSize = n
		}
	}
}

// New creates a gateway for org whose pull requests live in repo
// ("owner/name"). An empty baseURL selects codeberg.org.
func New(baseURL, token, org, repo string, opts ...Option) (*Gateway, error) {
	if baseURL == "" {
		baseURL = constants.CodebergAPIURL
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, errors.NewValidationError("repo", repo, "repository must be owner/name")
	}

	g := &Gateway{
		client:   transport.New(string(platform.Codeberg), baseURL, transport.WithAuth(&transport.TokenAuth{}, token)),
		org:      org,
		owner:    owner,
		repo:     name,
		pageSize: constants.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name implements platform.Gateway.
func (g *Gateway) Name() platform.Name { return platform.Codeberg }

// Org implements platform.Gateway.
func (g *Gateway) Org() string { return g.org }

// SupportsRoles implements platform.Gateway. Forgejo teams have no
// maintainer role.
func (g *Gateway) SupportsRoles() bool { return false }

// RemovesFromOrg implements platform.Gateway.
func (g *Gateway) RemovesFromOrg() bool { return true }

type apiTeam struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type apiUser struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

func (u *apiUser) attribution() *attribution.User {
	if u == nil || u.Login == "" {
		return nil
	}
	return &attribution.User{Login: u.Login, Name: u.FullName}
}

type apiRepo struct {
	FullName    string  `json:"full_name"`
	Name        string  `json:"name"`
	Owner       apiUser `json:"owner"`
	Description string  `json:"description"`
	Website     string  `json:"website"`
}

type editRepoRequest struct {
	Description string `json:"description"`
	Website     string `json:"website"`
}

type apiPull struct {
	Number   int     `json:"number"`
	State    string  `json:"state"`
	HTMLURL  string  `json:"html_url"`
	PatchURL string  `json:"patch_url"`
	User     apiUser `json:"user"`
}

type apiSignature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type apiCommit struct {
	Author    *apiUser `json:"author"`
	Committer *apiUser `json:"committer"`
	Commit    struct {
		Author    apiSignature `json:"author"`
		Committer apiSignature `json:"committer"`
	} `json:"commit"`
}

// ListTeams implements platform.Teams. The teams endpoint reports
// X-Total-Count but no Link header.
func (g *Gateway) ListTeams(ctx context.Context) ([]platform.Team, error) {
	items, err := transport.GetAllCounted[apiTeam](ctx, g.client, "orgs/"+url.PathEscape(g.org)+"/teams", nil, g.pageSize)
	if err != nil {
		return nil, err
	}
	teams := make([]platform.Team, 0, len(items))
	for _, t := range items {
		teams = append(teams, platform.Team{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return teams, nil
}

// TeamMembers implements platform.Teams. role is ignored.
func (g *Gateway) TeamMembers(ctx context.Context, team platform.Team, _ platform.Role) ([]string, error) {
	return g.logins(ctx, fmt.Sprintf("teams/%d/members", team.ID))
}

// TeamRepositories implements platform.Teams.
func (g *Gateway) TeamRepositories(ctx context.Context, team platform.Team) ([]string, error) {
	items, err := transport.GetAll[apiRepo](ctx, g.client, fmt.Sprintf("teams/%d/repos", team.ID), nil, g.pageSize)
	if err != nil {
		return nil, err
	}
	repos := make([]string, 0, len(items))
	for _, r := range items {
		repos = append(repos, r.FullName)
	}
	return repos, nil
}

// AddTeamMember implements platform.Teams. role is ignored.
func (g *Gateway) AddTeamMember(ctx context.Context, team platform.Team, login string, _ platform.Role) error {
	return g.client.Send(ctx, http.MethodPut, fmt.Sprintf("teams/%d/members/%s", team.ID, url.PathEscape(login)), nil, nil)
}

// RemoveTeamMember implements platform.Teams.
func (g *Gateway) RemoveTeamMember(ctx context.Context, team platform.Team, login string) error {
	return g.client.Send(ctx, http.MethodDelete, fmt.Sprintf("teams/%d/members/%s", team.ID, url.PathEscape(login)), nil, nil)
}

// teamUnits is the permission profile of project teams: read access to code
// and write access to pull requests.
var teamUnits = map[string]string{
	"repo.actions":    "none",
	"repo.code":       "read",
	"repo.ext_issues": "read",
	"repo.ext_wiki":   "read",
	"repo.issues":     "none",
	"repo.packages":   "none",
	"repo.projects":   "none",
	"repo.pulls":      "write",
	"repo.releases":   "none",
	"repo.wiki":       "none",
}

type createTeamRequest struct {
	Name                    string            `json:"name"`
	Description             string            `json:"description"`
	IncludesAllRepositories bool              `json:"includes_all_repositories"`
	Permission              string            `json:"permission"`
	Units                   []string          `json:"units"`
	UnitsMap                map[string]string `json:"units_map"`
	CanCreateOrgRepo        bool              `json:"can_create_org_repo"`
}

// CreateTeam implements platform.Teams. Descriptions longer than the API
// limit are truncated with an ellipsis.
func (g *Gateway) CreateTeam(ctx context.Context, spec platform.TeamSpec) (platform.Team, error) {
	req := createTeamRequest{
		Name:        spec.Name,
		Description: TruncateDescription(spec.Description, constants.MaxTeamDescriptionLength),
		Permission:  "write",
		Units: []string{
			"repo.code", "repo.issues", "repo.pulls", "repo.releases", "repo.wiki",
			"repo.ext_wiki", "repo.ext_issues", "repo.projects", "repo.packages", "repo.actions",
		},
		UnitsMap: teamUnits,
	}

	var created apiTeam
	if err := g.client.Send(ctx, http.MethodPost, "orgs/"+url.PathEscape(g.org)+"/teams", req, &created); err != nil {
		return platform.Team{}, err
	}
	return platform.Team{ID: created.ID, Name: created.Name, Description: created.Description}, nil
}

// DeleteTeam implements platform.Teams.
func (g *Gateway) DeleteTeam(ctx context.Context, team platform.Team) error {
	return g.client.Send(ctx, http.MethodDelete, fmt.Sprintf("teams/%d", team.ID), nil, nil)
}

// OrgMembers implements platform.Members. Forgejo has no owner role filter,
// so admins selects the members of the Owners team.
func (g *Gateway) OrgMembers(ctx context.Context, admins bool) ([]string, error) {
	if !admins {
		return g.logins(ctx, "orgs/"+url.PathEscape(g.org)+"/members")
	}
	teams, err := g.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if t.Name == constants.CodebergOwnersTeam {
			return g.TeamMembers(ctx, t, platform.RoleAny)
		}
	}
	return nil, nil
}

// RemoveOrgMember implements platform.Members.
func (g *Gateway) RemoveOrgMember(ctx context.Context, login string) error {
	return g.client.Send(ctx, http.MethodDelete, "orgs/"+url.PathEscape(g.org)+"/members/"+url.PathEscape(login), nil, nil)
}

// ListPullRequests implements platform.Pulls.
func (g *Gateway) ListPullRequests(ctx context.Context, state platform.PullState) ([]platform.PullRequest, error) {
	q := url.Values{}
	if state != "" {
		q.Set("state", string(state))
	}
	items, err := transport.GetAll[apiPull](ctx, g.client, g.repoPath("pulls"), q, g.pageSize)
	if err != nil {
		return nil, err
	}
	pulls := make([]platform.PullRequest, 0, len(items))
	for _, p := range items {
		pulls = append(pulls, platform.PullRequest{
			Number:    p.Number,
			State:     p.State,
			HTMLURL:   p.HTMLURL,
			PatchURL:  p.PatchURL,
			Submitter: platform.User{Login: p.User.Login, Name: p.User.FullName},
		})
	}
	return pulls, nil
}

// FirstCommit implements platform.Pulls.
func (g *Gateway) FirstCommit(ctx context.Context, number int) (*attribution.Commit, error) {
	var commits []apiCommit
	if _, err := g.client.Get(ctx, g.repoPath(fmt.Sprintf("pulls/%d/commits", number)), nil, &commits); err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	c := commits[0]
	return &attribution.Commit{
		Author:       c.Author.attribution(),
		AuthorSig:    attribution.Signature{Email: c.Commit.Author.Email, Name: c.Commit.Author.Name},
		Committer:    c.Committer.attribution(),
		CommitterSig: attribution.Signature{Email: c.Commit.Committer.Email, Name: c.Commit.Committer.Name},
	}, nil
}

// GetUser implements platform.Users.
func (g *Gateway) GetUser(ctx context.Context, login string) (platform.User, error) {
	var u apiUser
	if _, err := g.client.Get(ctx, "users/"+url.PathEscape(login), nil, &u); err != nil {
		return platform.User{}, err
	}
	return platform.User{Login: u.Login, Name: u.FullName}, nil
}

// Repository implements platform.Repositories.
func (g *Gateway) Repository(ctx context.Context, name string) (platform.Repository, error) {
	var r apiRepo
	if _, err := g.client.Get(ctx, g.orgRepoPath(name), nil, &r); err != nil {
		return platform.Repository{}, err
	}
	return platform.Repository{Name: r.Name, Owner: r.Owner.Login, Description: r.Description, Homepage: r.Website}, nil
}

// EditRepository implements platform.Repositories.
func (g *Gateway) EditRepository(ctx context.Context, name string, edit platform.RepositoryEdit) error {
	req := editRepoRequest{Description: edit.Description, Website: edit.Homepage}
	return g.client.Send(ctx, http.MethodPatch, g.orgRepoPath(name), req, nil)
}

func (g *Gateway) orgRepoPath(name string) string {
	return "repos/" + url.PathEscape(g.org) + "/" + url.PathEscape(name)
}

func (g *Gateway) logins(ctx context.Context, path string) ([]string, error) {
	users, err := transport.GetAll[apiUser](ctx, g.client, path, nil, g.pageSize)
	if err != nil {
		return nil, err
	}
	logins := make([]string, 0, len(users))
	for _, u := range users {
		logins = append(logins, u.Login)
	}
	return logins, nil
}

func (g *Gateway) repoPath(suffix string) string {
	return "repos/" + url.PathEscape(g.owner) + "/" + url.PathEscape(g.repo) + "/" + suffix
}

// TruncateDescription shortens s to at most limit runes, ending in an
// ellipsis when cut.
func TruncateDescription(s string, limit int) string {
	if utf8.RuneCountInString(s) < limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

var _ platform.Gateway = (*Gateway)(nil)
