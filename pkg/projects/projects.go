// Package projects holds the in-memory projects registry.
//
// Projects live in an arena in registry order and are addressed by their
// canonical e-mail. Subproject references are plain e-mail keys, so a
// reference graph with cycles never produces cyclic Go pointers.
package projects

import (
	"strings"
)

// Member is a direct member of a project.
type Member struct {
	Email  string // lower-cased
	Name   string
	Role   string
	IsLead bool
}

// Subproject references another project by canonical e-mail.
type Subproject struct {
	Ref     string // lower-cased e-mail of the referenced project
	Inherit bool   // members of Ref count as members of the parent
}

// Project is a single registry entry.
type Project struct {
	Email       string // canonical, lower-cased
	Name        string
	URL         string
	Description string
	Members     []Member
	Subprojects []Subproject
}

// LocalPart returns the part of the project e-mail before '@'.
func (p *Project) LocalPart() string {
	return localPart(p.Email)
}

// URLName returns the page name segment of the project URL, the text after
// the second ':' (https://wiki.example.org/wiki/Project:Name).
func (p *Project) URLName() string {
	parts := strings.Split(p.URL, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// HasSubprojects reports whether the project declares any subproject.
func (p *Project) HasSubprojects() bool {
	return len(p.Subprojects) > 0
}

// MemberEmails returns the direct member e-mails in registry order.
func (p *Project) MemberEmails() []string {
	emails := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		emails = append(emails, m.Email)
	}
	return emails
}

// CandidateNames returns team name candidates in priority order: e-mail local
// part, lower-cased name, name, lower-cased URL name, URL name. Empty and
// repeated candidates are dropped.
func (p *Project) CandidateNames() []string {
	urlName := p.URLName()
	raw := []string{
		p.LocalPart(),
		strings.ToLower(p.Name),
		p.Name,
		strings.ToLower(urlName),
		urlName,
	}

	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

// matchKeys returns the lower-cased keys under which a platform team name
// identifies this project.
func (p *Project) matchKeys() []string {
	keys := []string{
		strings.ToLower(p.LocalPart()),
		strings.ToLower(localPart(p.Name)),
		strings.ToLower(p.URLName()),
	}
	out := keys[:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func localPart(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return s[:i]
	}
	return s
}

// Tree is the projects registry: an arena of projects in registry order and
// an index by canonical e-mail.
type Tree struct {
	projects   []Project
	byEmail    map[string]int
	byTeamKey  map[string]int
	duplicates []string
}

// NewTree builds a tree from projects in registry order.
func NewTree(projects ...Project) *Tree {
	t := &Tree{
		projects:  make([]Project, 0, len(projects)),
		byEmail:   make(map[string]int, len(projects)),
		byTeamKey: make(map[string]int, len(projects)*3),
	}
	for _, p := range projects {
		t.add(p)
	}
	return t
}

func (t *Tree) add(p Project) {
	p.Email = canonical(p.Email)
	p.Members = append([]Member(nil), p.Members...)
	p.Subprojects = append([]Subproject(nil), p.Subprojects...)
	for i := range p.Members {
		p.Members[i].Email = canonical(p.Members[i].Email)
	}
	for i := range p.Subprojects {
		p.Subprojects[i].Ref = canonical(p.Subprojects[i].Ref)
	}

	idx := len(t.projects)
	t.projects = append(t.projects, p)

	if _, ok := t.byEmail[p.Email]; ok {
		t.duplicates = append(t.duplicates, p.Email)
	} else {
		t.byEmail[p.Email] = idx
	}

	// later projects win on shared team keys
	for _, k := range p.matchKeys() {
		t.byTeamKey[k] = idx
	}
}

// Get returns the project with the given canonical e-mail.
func (t *Tree) Get(email string) (*Project, bool) {
	idx, ok := t.byEmail[canonical(email)]
	if !ok {
		return nil, false
	}
	return &t.projects[idx], true
}

// Projects returns the projects in registry order.
func (t *Tree) Projects() []*Project {
	out := make([]*Project, len(t.projects))
	for i := range t.projects {
		out[i] = &t.projects[i]
	}
	return out
}

// Len returns the number of projects, duplicates included.
func (t *Tree) Len() int {
	return len(t.projects)
}

// Duplicates returns e-mails declared by more than one project. Only the
// first such project is reachable through Get.
func (t *Tree) Duplicates() []string {
	out := make([]string, len(t.duplicates))
	copy(out, t.duplicates)
	return out
}

// MatchTeam finds the project a platform team stands for. The team name is
// compared case-insensitively against each project's e-mail local part, name
// (up to any '@') and URL name.
func (t *Tree) MatchTeam(teamName string) (*Project, bool) {
	idx, ok := t.byTeamKey[strings.ToLower(teamName)]
	if !ok {
		return nil, false
	}
	return &t.projects[idx], true
}

func canonical(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
