package report

import (
	"bytes"
	"io"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
)

const aliasesFile = `# comment
python: alice, Carol@example.org

pypy: /var/log/pypy, |pipe
`

func testTree() *projects.Tree {
	return projects.NewTree(
		projects.Project{
			Email:       "python@gentoo.org",
			Name:        "Python",
			URL:         "https://wiki.gentoo.org/wiki/Project:Python",
			Description: "The Python project maintains the Python interpreters and a large number of packages written in Python.",
			Members: []projects.Member{
				{Email: "alice@gentoo.org", Name: "Alice", IsLead: true},
				{Email: "bob@gentoo.org", Name: "Bob Zębaty"},
			},
			Subprojects: []projects.Subproject{{Ref: "pypy@gentoo.org", Inherit: true}},
		},
		projects.Project{Email: "pypy@gentoo.org", Name: "PyPy", URL: "https://wiki.gentoo.org/wiki/Project:PyPy"},
	)
}

func testGenerator(t *testing.T, opts ...Option) *Generator {
	aliases, err := ParseAliases(strings.NewReader(aliasesFile), "gentoo.org")
	require.NoError(t, err)
	ids := identity.New(map[string]string{"alice@gentoo.org": "alice-gh", "bob@gentoo.org": ""})
	teams := projects.TeamMap{"python@gentoo.org": "gentoo/Python"}
	opts = append([]Option{
		WithSender("Report Bot", "bot@gentoo.org"),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)
	return New(ids, teams, aliases, opts...)
}

func TestParseAliases(t *testing.T) {
	aliases, err := ParseAliases(strings.NewReader(aliasesFile), "gentoo.org")
	require.NoError(t, err)
	assert.Equal(t, Aliases{
		"python": {"alice@gentoo.org", "carol@example.org"},
		"pypy":   {"/var/log/pypy", "|pipe"},
	}, aliases)
	assert.True(t, aliases.Has("Python", "Alice@gentoo.org"))
	assert.False(t, aliases.Has("python", "bob@gentoo.org"))

	_, err = ParseAliases(strings.NewReader("python alice\n"), "gentoo.org")
	var parseErr *errors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Line)
}

func TestStatus(t *testing.T) {
	g := testGenerator(t)
	p, ok := testTree().Get("python@gentoo.org")
	require.True(t, ok)

	s := g.Status(p)
	assert.Equal(t, "https://github.com/orgs/gentoo/teams/python/members", s.TeamURL)
	require.Len(t, s.Members, 2)
	assert.Equal(t, "L A G", s.Members[0].Flags())
	assert.Equal(t, "     ", s.Members[1].Flags())
	assert.Equal(t, 1, s.Leads())
	assert.Equal(t, 1, s.WithoutAccount())

	cb := testGenerator(t, WithPlatform(platform.Codeberg, ""))
	assert.Equal(t, "https://codeberg.org/org/gentoo/teams/python", cb.Status(p).TeamURL)
}

func TestBody(t *testing.T) {
	g := testGenerator(t)
	p, _ := testTree().Get("python@gentoo.org")
	body := g.Body(g.Status(p))

	assert.Contains(t, body, "GitHub URL: https://github.com/orgs/gentoo/teams/python/members\n")
	assert.Contains(t, body, "          alice@gentoo.org  L A G\n")
	assert.Contains(t, body, "           pypy@gentoo.org  [members inherited]\n")
	assert.Contains(t, body, "/var/mail/alias/*/python.")
	assert.Contains(t, body, "Yours sincerely,\nReport Bot\n")
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "Description: ") {
			assert.LessOrEqual(t, len(line), len("Description: ")+descriptionWidth)
		}
	}

	p, _ = testTree().Get("pypy@gentoo.org")
	assert.Contains(t, g.Body(g.Status(p)), "GitHub URL: (none)\n")
}

func TestMessage(t *testing.T) {
	g := testGenerator(t)
	p, _ := testTree().Get("python@gentoo.org")

	raw, err := g.Message(g.Status(p))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Status report for python@gentoo.org project", msg.Header.Get("Subject"))
	assert.Equal(t, `"Python" <python@gentoo.org>`, msg.Header.Get("To"))
	assert.Equal(t, `"Report Bot" <bot@gentoo.org>`, msg.Header.Get("From"))
	assert.Equal(t, "quoted-printable", msg.Header.Get("Content-Transfer-Encoding"))
	assert.True(t, strings.HasSuffix(msg.Header.Get("Message-Id"), "@gentoo.org>"))

	date, err := msg.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	body, err := io.ReadAll(quotedprintable.NewReader(msg.Body))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Project name: Python")
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	g := testGenerator(t)

	statuses, err := g.WriteAll(dir, testTree())
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	for _, name := range []string{"python", "pypy", "index.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "# Project status reports")
	assert.Contains(t, string(index), "2 projects, 1 without a platform team.")
	assert.Contains(t, string(index), "[Python](https://wiki.gentoo.org/wiki/Project:Python)")
}

func TestVoters(t *testing.T) {
	p, _ := testTree().Get("python@gentoo.org")
	var buf bytes.Buffer
	require.NoError(t, Voters(&buf, p))
	assert.Equal(t, "alice,alice@gentoo.org,Alice\nbob,bob@gentoo.org,Bob Zębaty\n", buf.String())

	assert.Equal(t, "python@gentoo.org", QualifyProject("Python", "gentoo.org"))
	assert.Equal(t, "qa@example.org", QualifyProject("qa@example.org", "gentoo.org"))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestVotersWriteError(t *testing.T) {
	p, _ := testTree().Get("python@gentoo.org")
	err := Voters(brokenWriter{}, p)
	var ioErr *errors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Operation)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", wrap("aaa  bbb\nccc", 7))
	assert.Equal(t, "", wrap("   ", 10))
}
