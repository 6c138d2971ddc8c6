package projects

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/agentstation/teamsync/pkg/errors"
)

type xmlRegistry struct {
	Projects []xmlProject `xml:"project"`
}

type xmlProject struct {
	Email       string          `xml:"email"`
	Name        string          `xml:"name"`
	URL         string          `xml:"url"`
	Description string          `xml:"description"`
	Members     []xmlMember     `xml:"member"`
	Subprojects []xmlSubproject `xml:"subproject"`
}

type xmlMember struct {
	IsLead string `xml:"is-lead,attr"`
	Email  string `xml:"email"`
	Name   string `xml:"name"`
	Role   string `xml:"role"`
}

type xmlSubproject struct {
	Ref            string `xml:"ref,attr"`
	InheritMembers string `xml:"inherit-members,attr"`
}

// Parse decodes a projects registry document.
func Parse(r io.Reader) (*Tree, error) {
	return parse("", r)
}

// Load reads and decodes the projects registry at path.
func Load(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()
	return parse(path, f)
}

func parse(path string, r io.Reader) (*Tree, error) {
	var doc xmlRegistry
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.WrapParse("xml", path, err)
	}

	projects := make([]Project, 0, len(doc.Projects))
	for _, xp := range doc.Projects {
		if strings.TrimSpace(xp.Email) == "" {
			return nil, &errors.ParseError{
				Format:  "xml",
				File:    path,
				Message: "project " + xp.Name + " has no email",
			}
		}
		p := Project{
			Email:       xp.Email,
			Name:        strings.TrimSpace(xp.Name),
			URL:         strings.TrimSpace(xp.URL),
			Description: strings.TrimSpace(xp.Description),
		}
		for _, xm := range xp.Members {
			p.Members = append(p.Members, Member{
				Email:  xm.Email,
				Name:   strings.TrimSpace(xm.Name),
				Role:   strings.TrimSpace(xm.Role),
				IsLead: xm.IsLead == "1",
			})
		}
		for _, xs := range xp.Subprojects {
			p.Subprojects = append(p.Subprojects, Subproject{
				Ref:     xs.Ref,
				Inherit: xs.InheritMembers == "1",
			})
		}
		projects = append(projects, p)
	}
	return NewTree(projects...), nil
}
