package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/agentstation/teamsync/pkg/errors"
)

// Aliases maps mail alias names to their lower-cased recipient addresses.
type Aliases map[string][]string

// ParseAliases reads "name: a, b" lines. Recipients without a domain are
// qualified with domain; file and pipe targets (starting with "/" or "|")
// are kept as written. Blank lines and "#" comments are skipped.
func ParseAliases(r io.Reader, domain string) (Aliases, error) {
	out := Aliases{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, rest, ok := strings.Cut(text, ":")
		if !ok {
			return nil, &errors.ParseError{Format: "aliases", Line: line, Message: "missing ':' separator"}
		}

		var recipients []string
		for _, r := range strings.Split(rest, ",") {
			r = strings.ToLower(strings.TrimSpace(r))
			if r == "" {
				continue
			}
			recipients = append(recipients, qualify(r, domain))
		}
		out[strings.ToLower(strings.TrimSpace(name))] = recipients
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapIO("read", "aliases", err)
	}
	return out, nil
}

func qualify(addr, domain string) string {
	if strings.Contains(addr, "@") || strings.HasPrefix(addr, "/") || strings.HasPrefix(addr, "|") || domain == "" {
		return addr
	}
	return addr + "@" + domain
}

// Has reports whether addr is a direct recipient of alias.
func (a Aliases) Has(alias, addr string) bool {
	addr = strings.ToLower(addr)
	for _, r := range a[strings.ToLower(alias)] {
		if r == addr {
			return true
		}
	}
	return false
}
