// Package constants provides shared constants used throughout teamsync.
// This includes timeouts, file permissions, default file names and platform
// limits that should be consistent across the application.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to platform APIs
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like API tokens (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants
const (
	// DefaultPageSize is the number of items requested per page from platform APIs
	DefaultPageSize = 100

	// MaxTeamDescriptionLength is the longest team description Forgejo accepts
	MaxTeamDescriptionLength = 255
)

// Default file names used by CLI commands when no path is given.
const (
	// DefaultDevsFile maps developer keys to platform usernames
	DefaultDevsFile = "devs.json"

	// DefaultProjectsFile is the projects registry
	DefaultProjectsFile = "projects.xml"

	// DefaultProjectMapFile maps project e-mails to platform teams
	DefaultProjectMapFile = "proj-map.json"

	// DefaultAttributionFile caches pull request submitter attributions
	DefaultAttributionFile = "proxied-maints.json"

	// DefaultMergedFile is the merged developers and proxied maintainers map
	DefaultMergedFile = "all.json"

	// DefaultDevsListFile is the plain-text or LDAP dump input for ingestion
	DefaultDevsListFile = "devs.txt"

	// DefaultAliasesFile lists mail aliases used by project reports
	DefaultAliasesFile = "master.aliases"

	// DefaultReportsDir receives generated project reports
	DefaultReportsDir = "proj-reports"

	// NewFileSuffix is appended to a file while it is being rewritten
	NewFileSuffix = ".new"
)

// Platform defaults
const (
	// PlatformGitHub selects the GitHub gateway
	PlatformGitHub = "github"

	// PlatformCodeberg selects the Codeberg (Forgejo) gateway
	PlatformCodeberg = "codeberg"

	// DefaultOrg is the organization whose teams are synced
	DefaultOrg = "gentoo"

	// DefaultRepo is the repository scanned for pull requests
	DefaultRepo = "gentoo/gentoo"

	// DefaultDevelopersTeam holds every mapped developer
	DefaultDevelopersTeam = "developers"

	// DefaultMailDomain qualifies bare alias entries in project reports
	DefaultMailDomain = "gentoo.org"

	// CodebergAPIURL is the default Forgejo API root
	CodebergAPIURL = "https://codeberg.org/api/v1"

	// CodebergOwnersTeam is the built-in team that is never reconciled
	CodebergOwnersTeam = "Owners"
)

// Mirror defaults
const (
	// DefaultMirrorWebRoot is prefixed to a gitolite repository path to form
	// the homepage of its mirror
	DefaultMirrorWebRoot = "https://gitweb.gentoo.org/"

	// MirrorDescriptionPrefix marks the description of a mirror repository
	MirrorDescriptionPrefix = "[MIRROR] "
)

// MirrorURLPrefix returns the push URL prefix that marks a gitolite
// repository as mirrored into org on the named platform.
func MirrorURLPrefix(platform, org string) string {
	host := "github.com"
	if platform == PlatformCodeberg {
		host = "codeberg.org"
	}
	return "git@" + host + ":" + org + "/"
}

// DefaultTokenFile returns the default credential file for a platform.
func DefaultTokenFile(platform string) string {
	return "~/." + platform + "-token"
}
