// Package report renders per-project status mails, a summary index and voter
// lists from the projects registry.
package report

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
)

// descriptionWidth is the column at which project descriptions are wrapped.
const descriptionWidth = 70

// Generator builds status reports.
type Generator struct {
	ids      *identity.Map
	teams    projects.TeamMap
	aliases  Aliases
	platform platform.Name
	webURL   string
	from     mail.Address
	domain   string
	now      func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSender sets the From and Bcc address of generated mails.
func WithSender(name, address string) Option {
	return func(g *Generator) {
		g.from = mail.Address{Name: name, Address: address}
	}
}

// WithPlatform selects the platform whose team pages are linked. An empty
// webURL selects the public instance.
func WithPlatform(name platform.Name, webURL string) Option {
	return func(g *Generator) {
		g.platform = name
		g.webURL = strings.TrimRight(webURL, "/")
	}
}

// WithMailDomain sets the domain used for Message-Id headers.
func WithMailDomain(domain string) Option {
	return func(g *Generator) {
		g.domain = domain
	}
}

// WithClock replaces time.Now for the Date header.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a Generator.
func New(ids *identity.Map, teams projects.TeamMap, aliases Aliases, opts ...Option) *Generator {
	g := &Generator{
		ids:      ids,
		teams:    teams,
		aliases:  aliases,
		platform: platform.GitHub,
		domain:   constants.DefaultMailDomain,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.webURL == "" {
		g.webURL = defaultWebURL(g.platform)
	}
	if g.from.Address == "" {
		g.from = mail.Address{Address: "teamsync@" + g.domain}
	}
	return g
}

func defaultWebURL(name platform.Name) string {
	if name == platform.Codeberg {
		return "https://codeberg.org"
	}
	return "https://github.com"
}

// MemberStatus is one member row of a report.
type MemberStatus struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Lead    bool   `json:"lead"`
	OnAlias bool   `json:"on_alias"`
	OnTeam  bool   `json:"on_team"`
}

// Flags renders the L, A and G columns.
func (m MemberStatus) Flags() string {
	flag := func(set bool, c string) string {
		if set {
			return c
		}
		return " "
	}
	return flag(m.Lead, "L") + " " + flag(m.OnAlias, "A") + " " + flag(m.OnTeam, "G")
}

// ProjectStatus is the data reported for one project.
type ProjectStatus struct {
	Email       string                `json:"email"`
	Name        string                `json:"name"`
	URL         string                `json:"url"`
	Description string                `json:"description"`
	TeamURL     string                `json:"team_url,omitempty"`
	Members     []MemberStatus        `json:"members"`
	Subprojects []projects.Subproject `json:"subprojects,omitempty"`
}

// LocalPart returns the alias name of the project.
func (s ProjectStatus) LocalPart() string {
	local, _, _ := strings.Cut(s.Email, "@")
	return local
}

// Leads counts project leads.
func (s ProjectStatus) Leads() int {
	n := 0
	for _, m := range s.Members {
		if m.Lead {
			n++
		}
	}
	return n
}

// WithoutAccount counts members with no linked platform account.
func (s ProjectStatus) WithoutAccount() int {
	n := 0
	for _, m := range s.Members {
		if !m.OnTeam {
			n++
		}
	}
	return n
}

// Status collects the report data for p.
func (g *Generator) Status(p *projects.Project) ProjectStatus {
	s := ProjectStatus{
		Email:       p.Email,
		Name:        p.Name,
		URL:         p.URL,
		Description: p.Description,
		Subprojects: p.Subprojects,
	}
	if org, team, ok := g.teams.Team(p.Email); ok {
		s.TeamURL = g.teamURL(org, team)
	}

	alias := p.LocalPart()
	for _, m := range p.Members {
		_, linked := g.ids.Lookup(m.Email)
		s.Members = append(s.Members, MemberStatus{
			Email:   m.Email,
			Name:    m.Name,
			Role:    m.Role,
			Lead:    m.IsLead,
			OnAlias: g.aliases.Has(alias, m.Email),
			OnTeam:  linked,
		})
	}
	return s
}

func (g *Generator) teamURL(org, team string) string {
	slug := strings.ToLower(strings.ReplaceAll(team, " ", "-"))
	if g.platform == platform.Codeberg {
		return fmt.Sprintf("%s/org/%s/teams/%s", g.webURL, org, slug)
	}
	return fmt.Sprintf("%s/orgs/%s/teams/%s/members", g.webURL, org, slug)
}

func (g *Generator) platformLabel() string {
	if g.platform == platform.Codeberg {
		return "Codeberg"
	}
	return "GitHub"
}

// Subject returns the mail subject for a project.
func Subject(s ProjectStatus) string {
	return "Status report for " + s.Email + " project"
}

// Body renders the plain-text mail body.
func (g *Generator) Body(s ProjectStatus) string {
	var b strings.Builder
	label := g.platformLabel()
	team := s.TeamURL
	if team == "" {
		team = "(none)"
	}

	b.WriteString("Hi,\n\n")
	b.WriteString("This is a periodic check of every project's registration. Below is\n")
	b.WriteString("the data we have on record, followed by instructions. Please look\n")
	b.WriteString("through it and reply accordingly.\n\n\n")
	fmt.Fprintf(&b, "Project name: %s\n", s.Name)
	fmt.Fprintf(&b, "Contact address: %s\n", s.Email)
	fmt.Fprintf(&b, "Wiki URL: %s [1]\n", s.URL)
	fmt.Fprintf(&b, "%s URL: %s\n", label, team)
	fmt.Fprintf(&b, "Description: %s\n", wrap(s.Description, descriptionWidth))
	b.WriteString("\nMember list:\n\n")
	for _, m := range s.Members {
		fmt.Fprintf(&b, "  %24s  %s\n", m.Email, m.Flags())
	}
	b.WriteString("\nLegend:\n")
	b.WriteString("  L - project lead\n")
	b.WriteString("  A - on project alias\n")
	fmt.Fprintf(&b, "  G - on %s team\n", label)

	if len(s.Subprojects) > 0 {
		b.WriteString("\nSubprojects:\n\n")
		for _, sp := range s.Subprojects {
			suffix := ""
			if sp.Inherit {
				suffix = "  [members inherited]"
			}
			fmt.Fprintf(&b, "  %24s%s\n", sp.Ref, suffix)
		}
	}

	b.WriteString("\n\nInstructions\n------------\n\n")
	b.WriteString("1. Project data and members come from the wiki. Fix anything wrong\n")
	b.WriteString("through the edit form at [1].\n\n")
	fmt.Fprintf(&b, "2. Alias state counts direct membership only. Alias files live in\n")
	fmt.Fprintf(&b, "/var/mail/alias/*/%s.\n\n", s.LocalPart())
	fmt.Fprintf(&b, "3. %s membership is synced from the usernames recorded in LDAP.\n", label)
	b.WriteString("Make sure yours is set correctly.\n\n")
	b.WriteString("4. If the project needs more people, or should be disbanded, say so\n")
	b.WriteString("in your reply.\n\n")
	b.WriteString("5. If everything is fine, reply with a simple 'ACK' and keep the\n")
	b.WriteString("project CC-ed.\n")

	if g.from.Name != "" {
		fmt.Fprintf(&b, "\n--\nYours sincerely,\n%s\n", g.from.Name)
	}
	return b.String()
}

// Message renders an RFC 5322 message with a quoted-printable UTF-8 body.
func (g *Generator) Message(s ProjectStatus) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	to := mail.Address{Name: s.Name, Address: s.Email}
	header("From", g.from.String())
	header("To", to.String())
	header("Bcc", g.from.String())
	header("Subject", mime.QEncoding.Encode("utf-8", Subject(s)))
	header("Date", g.now().Format(time.RFC1123Z))
	header("Message-Id", fmt.Sprintf("<%s@%s>", uuid.NewString(), g.domain))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(g.Body(s))); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAll writes one mail per project into dir, named after the project's
// e-mail local part, plus an index.md summary. Statuses are returned in
// registry order.
func (g *Generator) WriteAll(dir string, tree *projects.Tree) ([]ProjectStatus, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	var statuses []ProjectStatus
	for _, p := range tree.Projects() {
		s := g.Status(p)
		msg, err := g.Message(s)
		if err != nil {
			return nil, errors.WrapResource("render", "report", s.Email, err)
		}
		path := filepath.Join(dir, s.LocalPart())
		if err := os.WriteFile(path, msg, constants.FilePermissions); err != nil {
			return nil, errors.WrapIO("write", path, err)
		}
		statuses = append(statuses, s)
	}

	path := filepath.Join(dir, "index.md")
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapIO("create", path, err)
	}
	defer f.Close()
	if err := Index(f, statuses); err != nil {
		return nil, errors.WrapIO("write", path, err)
	}
	return statuses, nil
}

func wrap(s string, width int) string {
	words := strings.Fields(s)
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
