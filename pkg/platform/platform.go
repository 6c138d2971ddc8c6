// Package platform defines the contract teamsync needs from a hosting
// platform's team, membership and pull request APIs.
//
// Every listing call exhausts pagination before it returns: a partial member
// list diffed against a complete roster would produce spurious removals.
package platform

import (
	"context"

	"github.com/agentstation/teamsync/pkg/attribution"
)

// Name identifies a platform implementation.
type Name string

const (
	// GitHub is github.com or a GitHub Enterprise instance.
	GitHub Name = "github"
	// Codeberg is codeberg.org or another Forgejo/Gitea instance.
	Codeberg Name = "codeberg"
)

// Role is a team membership role.
type Role string

const (
	// RoleAny selects all members when listing.
	RoleAny Role = ""
	// RoleMember is a plain team member.
	RoleMember Role = "member"
	// RoleMaintainer can manage the team.
	RoleMaintainer Role = "maintainer"
)

// Team is an organization team.
type Team struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug,omitempty" yaml:"slug,omitempty"` // URL name where the platform uses one
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TeamSpec describes a team to create.
type TeamSpec struct {
	Name        string
	Description string
}

// User is a platform account.
type User struct {
	Login string `json:"login" yaml:"login"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// PullRequest is a pull request of the tracked repository.
type PullRequest struct {
	Number    int    `json:"number" yaml:"number"`
	State     string `json:"state" yaml:"state"`
	HTMLURL   string `json:"html_url" yaml:"html_url"`
	PatchURL  string `json:"patch_url" yaml:"patch_url"`
	Submitter User   `json:"submitter" yaml:"submitter"`
}

// PullState filters pull request listings.
type PullState string

const (
	PullsOpen   PullState = "open"
	PullsClosed PullState = "closed"
	PullsAll    PullState = "all"
)

// Teams manages organization teams.
type Teams interface {
	ListTeams(ctx context.Context) ([]Team, error)
	TeamMembers(ctx context.Context, team Team, role Role) ([]string, error)
	TeamRepositories(ctx context.Context, team Team) ([]string, error)
	// AddTeamMember adds login to team, or changes its role when it is
	// already a member. Platforms without roles ignore role.
	AddTeamMember(ctx context.Context, team Team, login string, role Role) error
	RemoveTeamMember(ctx context.Context, team Team, login string) error
	CreateTeam(ctx context.Context, spec TeamSpec) (Team, error)
	DeleteTeam(ctx context.Context, team Team) error
}

// Members manages organization membership.
type Members interface {
	// OrgMembers lists organization members; with admins set, only owners.
	OrgMembers(ctx context.Context, admins bool) ([]string, error)
	RemoveOrgMember(ctx context.Context, login string) error
}

// Pulls reads pull requests of the tracked repository.
type Pulls interface {
	ListPullRequests(ctx context.Context, state PullState) ([]PullRequest, error)
	// FirstCommit returns the first commit of a pull request, nil when it has
	// none.
	FirstCommit(ctx context.Context, number int) (*attribution.Commit, error)
}

// Users looks up accounts.
type Users interface {
	// GetUser returns the account, or an error satisfying errors.IsNotFound.
	GetUser(ctx context.Context, login string) (User, error)
}

// Repository is an organization repository.
type Repository struct {
	Name        string `json:"name" yaml:"name"`
	Owner       string `json:"owner" yaml:"owner"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty" yaml:"homepage,omitempty"`
}

// RepositoryEdit holds the repository fields a sync may change.
type RepositoryEdit struct {
	Description string
	Homepage    string
}

// Repositories reads and edits organization repositories.
type Repositories interface {
	// Repository returns the named repository of the organization. Platforms
	// follow renames and transfers, so Owner may differ from the
	// organization.
	Repository(ctx context.Context, name string) (Repository, error)
	EditRepository(ctx context.Context, name string, edit RepositoryEdit) error
}

// Gateway is a complete platform implementation.
type Gateway interface {
	Teams
	Members
	Pulls
	Users
	Repositories

	// Name returns the platform name.
	Name() Name
	// Org returns the managed organization.
	Org() string
	// SupportsRoles reports whether teams have a maintainer role.
	SupportsRoles() bool
	// RemovesFromOrg reports whether developers leave the organization,
	// rather than the developers team, when dropped from the roster.
	RemovesFromOrg() bool
}

// CommitSource adapts a Pulls implementation to attribution.CommitSource.
func CommitSource(p Pulls) attribution.CommitSource {
	return attribution.CommitSourceFunc(p.FirstCommit)
}
