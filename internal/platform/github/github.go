// Package github implements the platform gateway for GitHub organizations
// on top of google/go-github.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v71/github"

	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/platform"
)

// Gateway talks to a GitHub organization and repository.
type Gateway struct {
	client   *gh.Client
	org      string
	owner    string
	repo     string
	pageSize int
}

// Option configures a Gateway.
type Option func(*gatewayConfig)

type gatewayConfig struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *gatewayConfig) {
		c.httpClient = hc
	}
}

// WithBaseURL points the gateway at a GitHub Enterprise or test API root.
func WithBaseURL(u string) Option {
	return func(c *gatewayConfig) {
		c.baseURL = u
	}
}

// WithPageSize overrides the page size used for listings.
func WithPageSize(n int) Option {
	return func(c *gatewayConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a gateway for org whose pull requests live in repo
// ("owner/name").
func New(token, org, repo string, opts ...Option) (*Gateway, error) {
	cfg := &gatewayConfig{
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		pageSize:   constants.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, errors.NewValidationError("repo", repo, "repository must be owner/name")
	}

	client := gh.NewClient(cfg.httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if cfg.baseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, errors.NewConfigError("github", "invalid API URL "+cfg.baseURL, err)
		}
		client.BaseURL = u
	}

	return &Gateway{
		client:   client,
		org:      org,
		owner:    owner,
		repo:     name,
		pageSize: cfg.pageSize,
	}, nil
}

// Name implements platform.Gateway.
func (g *Gateway) Name() platform.Name { return platform.GitHub }

// Org implements platform.Gateway.
func (g *Gateway) Org() string { return g.org }

// SupportsRoles implements platform.Gateway.
func (g *Gateway) SupportsRoles() bool { return true }

// RemovesFromOrg implements platform.Gateway. Dropped developers only leave
// the developers team.
func (g *Gateway) RemovesFromOrg() bool { return false }

func (g *Gateway) listOptions(page int) gh.ListOptions {
	return gh.ListOptions{PerPage: g.pageSize, Page: page}
}

// ListTeams implements platform.Teams.
func (g *Gateway) ListTeams(ctx context.Context) ([]platform.Team, error) {
	var teams []platform.Team
	opts := g.listOptions(0)
	for {
		page, resp, err := g.client.Teams.ListTeams(ctx, g.org, &opts)
		if err != nil {
			return nil, wrap(err, "list teams")
		}
		for _, t := range page {
			teams = append(teams, platform.Team{
				ID:          t.GetID(),
				Name:        t.GetName(),
				Slug:        t.GetSlug(),
				Description: t.GetDescription(),
			})
		}
		if resp.NextPage == 0 {
			return teams, nil
		}
		opts.Page = resp.NextPage
	}
}

// TeamMembers implements platform.Teams.
func (g *Gateway) TeamMembers(ctx context.Context, team platform.Team, role platform.Role) ([]string, error) {
	opts := &gh.TeamListTeamMembersOptions{Role: "all", ListOptions: g.listOptions(0)}
	if role != platform.RoleAny {
		opts.Role = string(role)
	}

	var logins []string
	for {
		page, resp, err := g.client.Teams.ListTeamMembersBySlug(ctx, g.org, slug(team), opts)
		if err != nil {
			return nil, wrap(err, "list team members")
		}
		logins = appendLogins(logins, page)
		if resp.NextPage == 0 {
			return logins, nil
		}
		opts.Page = resp.NextPage
	}
}

// TeamRepositories implements platform.Teams.
func (g *Gateway) TeamRepositories(ctx context.Context, team platform.Team) ([]string, error) {
	repos := []string{}
	opts := g.listOptions(0)
	for {
		page, resp, err := g.client.Teams.ListTeamReposBySlug(ctx, g.org, slug(team), &opts)
		if err != nil {
			return nil, wrap(err, "list team repositories")
		}
		for _, r := range page {
			repos = append(repos, r.GetFullName())
		}
		if resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

// AddTeamMember implements platform.Teams. Adding an existing member changes
// its role.
func (g *Gateway) AddTeamMember(ctx context.Context, team platform.Team, login string, role platform.Role) error {
	opts := &gh.TeamAddTeamMembershipOptions{Role: string(platform.RoleMember)}
	if role == platform.RoleMaintainer {
		opts.Role = string(platform.RoleMaintainer)
	}
	_, _, err := g.client.Teams.AddTeamMembershipBySlug(ctx, g.org, slug(team), login, opts)
	return wrap(err, "add team member")
}

// RemoveTeamMember implements platform.Teams.
func (g *Gateway) RemoveTeamMember(ctx context.Context, team platform.Team, login string) error {
	_, err := g.client.Teams.RemoveTeamMembershipBySlug(ctx, g.org, slug(team), login)
	return wrap(err, "remove team member")
}

// CreateTeam implements platform.Teams. Teams are created closed, visible to
// all organization members.
func (g *Gateway) CreateTeam(ctx context.Context, spec platform.TeamSpec) (platform.Team, error) {
	t, _, err := g.client.Teams.CreateTeam(ctx, g.org, gh.NewTeam{
		Name:        spec.Name,
		Description: gh.Ptr(spec.Description),
		Privacy:     gh.Ptr("closed"),
	})
	if err != nil {
		return platform.Team{}, wrap(err, "create team")
	}
	return platform.Team{ID: t.GetID(), Name: t.GetName(), Slug: t.GetSlug(), Description: t.GetDescription()}, nil
}

// DeleteTeam implements platform.Teams.
func (g *Gateway) DeleteTeam(ctx context.Context, team platform.Team) error {
	_, err := g.client.Teams.DeleteTeamBySlug(ctx, g.org, slug(team))
	return wrap(err, "delete team")
}

// OrgMembers implements platform.Members.
func (g *Gateway) OrgMembers(ctx context.Context, admins bool) ([]string, error) {
	opts := &gh.ListMembersOptions{Role: "all", ListOptions: g.listOptions(0)}
	if admins {
		opts.Role = "admin"
	}

	var logins []string
	for {
		page, resp, err := g.client.Organizations.ListMembers(ctx, g.org, opts)
		if err != nil {
			return nil, wrap(err, "list organization members")
		}
		logins = appendLogins(logins, page)
		if resp.NextPage == 0 {
			return logins, nil
		}
		opts.Page = resp.NextPage
	}
}

// RemoveOrgMember implements platform.Members.
func (g *Gateway) RemoveOrgMember(ctx context.Context, login string) error {
	_, err := g.client.Organizations.RemoveMember(ctx, g.org, login)
	return wrap(err, "remove organization member")
}

// ListPullRequests implements platform.Pulls.
func (g *Gateway) ListPullRequests(ctx context.Context, state platform.PullState) ([]platform.PullRequest, error) {
	opts := &gh.PullRequestListOptions{State: string(state), ListOptions: g.listOptions(0)}
	if state == "" {
		opts.State = string(platform.PullsOpen)
	}

	var pulls []platform.PullRequest
	for {
		page, resp, err := g.client.PullRequests.List(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, wrap(err, "list pull requests")
		}
		for _, p := range page {
			pulls = append(pulls, platform.PullRequest{
				Number:    p.GetNumber(),
				State:     p.GetState(),
				HTMLURL:   p.GetHTMLURL(),
				PatchURL:  p.GetPatchURL(),
				Submitter: platform.User{Login: p.GetUser().GetLogin(), Name: p.GetUser().GetName()},
			})
		}
		if resp.NextPage == 0 {
			return pulls, nil
		}
		opts.Page = resp.NextPage
	}
}

// FirstCommit implements platform.Pulls.
func (g *Gateway) FirstCommit(ctx context.Context, number int) (*attribution.Commit, error) {
	commits, _, err := g.client.PullRequests.ListCommits(ctx, g.owner, g.repo, number, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return nil, wrap(err, "list pull request commits")
	}
	if len(commits) == 0 {
		return nil, nil
	}

	c := commits[0]
	return &attribution.Commit{
		Author:       user(c.GetAuthor()),
		AuthorSig:    signature(c.GetCommit().GetAuthor()),
		Committer:    user(c.GetCommitter()),
		CommitterSig: signature(c.GetCommit().GetCommitter()),
	}, nil
}

// GetUser implements platform.Users.
func (g *Gateway) GetUser(ctx context.Context, login string) (platform.User, error) {
	u, _, err := g.client.Users.Get(ctx, login)
	if err != nil {
		return platform.User{}, wrap(err, "get user")
	}
	return platform.User{Login: u.GetLogin(), Name: u.GetName()}, nil
}

// Repository implements platform.Repositories. GitHub redirects transferred
// repositories, so Owner reports where the repository lives now.
func (g *Gateway) Repository(ctx context.Context, name string) (platform.Repository, error) {
	r, _, err := g.client.Repositories.Get(ctx, g.org, name)
	if err != nil {
		return platform.Repository{}, wrap(err, "get repository")
	}
	return platform.Repository{
		Name:        r.GetName(),
		Owner:       r.GetOwner().GetLogin(),
		Description: r.GetDescription(),
		Homepage:    r.GetHomepage(),
	}, nil
}

// EditRepository implements platform.Repositories.
func (g *Gateway) EditRepository(ctx context.Context, name string, edit platform.RepositoryEdit) error {
	_, _, err := g.client.Repositories.Edit(ctx, g.org, name, &gh.Repository{
		Description: gh.Ptr(edit.Description),
		Homepage:    gh.Ptr(edit.Homepage),
	})
	return wrap(err, "edit repository")
}

func slug(team platform.Team) string {
	if team.Slug != "" {
		return team.Slug
	}
	return strings.ToLower(strings.ReplaceAll(team.Name, " ", "-"))
}

func appendLogins(logins []string, users []*gh.User) []string {
	for _, u := range users {
		logins = append(logins, u.GetLogin())
	}
	return logins
}

func user(u *gh.User) *attribution.User {
	if u == nil || u.GetLogin() == "" {
		return nil
	}
	return &attribution.User{Login: u.GetLogin(), Name: u.GetName()}
}

func signature(a *gh.CommitAuthor) attribution.Signature {
	return attribution.Signature{Email: a.GetEmail(), Name: a.GetName()}
}

// wrap converts go-github errors into *errors.APIError so that status-based
// checks such as errors.IsNotFound work across platforms.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}

	apiErr := &errors.APIError{Platform: string(platform.GitHub), Endpoint: op, Message: err.Error(), Err: err}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		apiErr.StatusCode = http.StatusTooManyRequests
	case errors.As(err, &respErr) && respErr.Response != nil:
		apiErr.StatusCode = respErr.Response.StatusCode
		apiErr.Message = respErr.Message
	}
	return apiErr
}

var _ platform.Gateway = (*Gateway)(nil)
