package projects

import (
	"sort"
	"strings"

	"github.com/agentstation/teamsync/pkg/identity"
)

// TeamMap maps canonical project e-mails to "org/team" references. It is
// stored in the same flat JSON layout as the identity files.
type TeamMap map[string]string

// LoadTeamMap reads a project map. A missing file yields an empty map.
func LoadTeamMap(path string) (TeamMap, error) {
	m, err := identity.LoadOrEmpty(path)
	if err != nil {
		return nil, err
	}
	return TeamMap(m.Entries()), nil
}

// Save writes the map with sorted keys.
func (tm TeamMap) Save(path string) error {
	return identity.New(tm).Save(path)
}

// Set records that the project with email is served by org's team.
func (tm TeamMap) Set(email, org, team string) {
	tm[canonical(email)] = org + "/" + team
}

// Team returns the organization and team name for a project.
func (tm TeamMap) Team(email string) (org, team string, ok bool) {
	ref, ok := tm[canonical(email)]
	if !ok || ref == "" {
		return "", "", false
	}
	org, team, ok = strings.Cut(ref, "/")
	return org, team, ok
}

// Emails returns the mapped project e-mails in sorted order.
func (tm TeamMap) Emails() []string {
	out := make([]string, 0, len(tm))
	for k := range tm {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
