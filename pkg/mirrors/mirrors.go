// Package mirrors reads the repositories that gitolite pushes to a hosting
// platform, so their platform descriptions can be kept in line.
//
// A gitolite configuration declares each repository in a block:
//
//	repo proj/foo
//	    desc = "Foo overlay"
//	    config gentoo.mirror.url = "git@github.com:gentoo/foo.git"
//
// Lines are split with /bin/sh word rules. Only repositories whose mirror
// URL starts with the configured push prefix are mirrors.
package mirrors

import (
	"bufio"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
)

// MirrorURLKey is the gitolite config key holding the push URL of a mirror.
const MirrorURLKey = "gentoo.mirror.url"

// Mirror is a gitolite repository mirrored to the platform.
type Mirror struct {
	Repo    string `json:"repo" yaml:"repo"`       // gitolite path
	Name    string `json:"name" yaml:"name"`       // platform repository name
	Summary string `json:"summary" yaml:"summary"` // gitolite desc
}

// Description returns the platform description of the mirror.
func (m Mirror) Description() string {
	return constants.MirrorDescriptionPrefix + m.Summary
}

// Homepage returns the web page of the mirrored repository under webRoot.
func (m Mirror) Homepage(webRoot string) string {
	if webRoot != "" && !strings.HasSuffix(webRoot, "/") {
		webRoot += "/"
	}
	return webRoot + m.Repo + ".git"
}

// Parse reads a gitolite configuration and returns its mirrors in file
// order. urlPrefix is the push URL prefix of the platform organization, for
// example "git@github.com:gentoo/".
func Parse(r io.Reader, urlPrefix string) ([]Mirror, error) {
	p := &parser{prefix: urlPrefix}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", "gitolite config", err)
	}
	if err := p.commit(); err != nil {
		return nil, err
	}
	return p.mirrors, nil
}

type parser struct {
	prefix  string
	line    int
	current *Mirror
	start   int
	mirrors []Mirror
}

func (p *parser) errorAt(line int, msg string, err error) error {
	e := errors.NewParseError("gitolite", "", msg, err)
	e.Line = line
	return e
}

func (p *parser) errorf(msg string) error {
	return p.errorAt(p.line, msg, nil)
}

func (p *parser) parseLine(text string) error {
	if strings.HasPrefix(strings.TrimSpace(text), "#") {
		return nil
	}
	words, err := shellquote.Split(text)
	if err != nil {
		return p.errorAt(p.line, strings.ToLower(err.Error()), err)
	}
	if len(words) == 0 {
		return nil
	}

	switch {
	case words[0] == "repo":
		if err := p.commit(); err != nil {
			return err
		}
		if len(words) < 2 {
			return p.errorf("repo without a name")
		}
		p.current = &Mirror{Repo: words[1]}
		p.start = p.line
	case words[0] == "desc":
		if p.current == nil {
			return p.errorf("desc outside a repo block")
		}
		if len(words) < 3 || words[1] != "=" {
			return p.errorf("expected 'desc = text'")
		}
		p.current.Summary = words[2]
	case len(words) >= 2 && words[0] == "config" && words[1] == MirrorURLKey:
		if p.current == nil {
			return p.errorf("config outside a repo block")
		}
		if len(words) < 3 || words[2] != "=" {
			return p.errorf("expected 'config " + MirrorURLKey + " = url'")
		}
		if len(words) == 3 || !strings.HasPrefix(words[3], p.prefix) {
			return nil
		}
		p.current.Name = strings.TrimSuffix(strings.TrimPrefix(words[3], p.prefix), ".git")
	}
	return nil
}

// commit closes the current repo block.
func (p *parser) commit() error {
	m := p.current
	p.current = nil
	if m == nil || m.Name == "" {
		return nil
	}
	if m.Summary == "" {
		return p.errorAt(p.start, "mirrored repo "+m.Repo+" has no desc", nil)
	}
	p.mirrors = append(p.mirrors, *m)
	return nil
}
