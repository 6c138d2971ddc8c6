package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/internal/platform/memory"
	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
)

const registryXML = `<?xml version="1.0" encoding="UTF-8"?>
<projects>
  <project>
    <email>python@gentoo.org</email>
    <name>Python</name>
    <url>https://wiki.gentoo.org/wiki/Project:Python</url>
    <description>Python language and modules</description>
    <member is-lead="1">
      <email>alice@x.org</email>
      <name>Alice</name>
    </member>
    <member>
      <email>bob@x.org</email>
      <name>Bob</name>
    </member>
  </project>
</projects>`

type fixture struct {
	dir string
	gw  *memory.Gateway
	out *bytes.Buffer
	app *App
}

func newFixture(t *testing.T, format string) *fixture {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.xml"), []byte(registryXML), 0o600))
	require.NoError(t, identity.New(map[string]string{
		"alice@x.org": "alice",
		"bob@x.org":   "bob",
		"dave@x.org":  "dave",
	}).Save(filepath.Join(dir, "devs.json")))

	gw := memory.New(platform.Codeberg, "gentoo")
	gw.AddTeam("python", "alice", "dave")

	out := &bytes.Buffer{}
	logger := zerolog.Nop()
	a := &App{
		version: "1.2.3",
		commit:  "abc123",
		date:    "2026-01-01",
		builtBy: "test",
		config: &Config{
			Platform:       "codeberg",
			Org:            "gentoo",
			Repo:           "gentoo/gentoo",
			Format:         format,
			DevelopersTeam: "developers",
			MailDomain:     "gentoo.org",
			LogOutput:      "discard",
			LogFormat:      "json",
		},
		logger: &logger,
	}
	for _, opt := range []Option{WithGateway(gw), WithOutput(out), WithConfirmer(confirm.Always(confirm.NO))} {
		require.NoError(t, opt(a))
	}
	return &fixture{dir: dir, gw: gw, out: out, app: a}
}

func (f *fixture) run(args ...string) error {
	return f.app.Execute(context.Background(), args)
}

func TestVersionCommand(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.run("version"))
	assert.Contains(t, f.out.String(), "teamsync version 1.2.3")
	assert.Contains(t, f.out.String(), "commit: abc123")
}

func TestSyncProjectsCommand(t *testing.T) {
	f := newFixture(t, "json")
	require.NoError(t, f.run("sync-projects"))

	assert.Equal(t, []string{"REMOVE python dave", "ADD python bob"}, f.gw.Calls())

	var result struct {
		TotalChanges int  `json:"total_changes"`
		DryRun       bool `json:"dry_run"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &result))
	assert.Equal(t, 2, result.TotalChanges)
	assert.False(t, result.DryRun)

	tm, err := projects.LoadTeamMap(filepath.Join(f.dir, "proj-map.json"))
	require.NoError(t, err)
	assert.Equal(t, projects.TeamMap{"python@gentoo.org": "gentoo/python"}, tm)
}

func TestSyncProjectsDryRun(t *testing.T) {
	f := newFixture(t, "table")
	require.NoError(t, f.run("--dry-run", "sync-projects"))

	assert.Empty(t, f.gw.Calls())
	assert.Contains(t, f.out.String(), "dave")
	assert.NoFileExists(t, filepath.Join(f.dir, "proj-map.json"))
}

func TestSyncProjectsMissingRegistry(t *testing.T) {
	f := newFixture(t, "json")
	err := f.run("sync-projects", "devs.json", "missing.xml")
	require.Error(t, err)
	assert.Empty(t, f.gw.Calls())
}

func TestUpdateProjMapCommand(t *testing.T) {
	f := newFixture(t, "yaml")
	f.gw.AddTeam("kde", "carol")
	require.NoError(t, f.run("update-proj-map"))

	assert.Empty(t, f.gw.Calls())
	assert.Contains(t, f.out.String(), "python@gentoo.org: gentoo/python")

	tm, err := projects.LoadTeamMap(filepath.Join(f.dir, "proj-map.json"))
	require.NoError(t, err)
	assert.Len(t, tm, 1)
}

func TestSyncDevsCommand(t *testing.T) {
	f := newFixture(t, "json")
	f.gw.AddTeam("developers", "alice", "eve")
	f.gw.AddOrgMember("eve", false)

	require.NoError(t, f.run("sync-devs"))
	assert.Contains(t, f.gw.Calls(), "ADD developers bob")
	assert.NotContains(t, f.gw.OrgLogins().Sorted(), "eve")
}

func TestDevsSubcommands(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.WriteFile("ldap.txt", []byte("Searching...\nzoe@x.org -> zoe\nyan@x.org -> undefined\n"), 0o600))
	require.NoError(t, f.run("devs", "ldap", "ldap.txt", "new.json"))

	m, err := identity.Load("new.json")
	require.NoError(t, err)
	login, ok := m.Lookup("zoe@x.org")
	assert.True(t, ok)
	assert.Equal(t, "zoe", login)
	assert.True(t, m.Has("yan@x.org"))

	require.NoError(t, os.WriteFile("list.txt", []byte("xavier@x.org\nzoe@x.org\n"), 0o600))
	require.NoError(t, f.run("devs", "add", "list.txt", "new.json"))
	m, err = identity.Load("new.json")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	require.NoError(t, identity.New(map[string]string{"proxy@x.org": "proxy"}).Save("cache.json"))
	require.NoError(t, f.run("devs", "merge", "new.json", "cache.json", "all.json"))
	m, err = identity.Load("all.json")
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
}

func TestVotersCommand(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.run("voters", "python"))
	assert.Equal(t, "alice,alice@x.org,Alice\nbob,bob@x.org,Bob\n", f.out.String())

	err := f.run("voters", "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestReportCommand(t *testing.T) {
	f := newFixture(t, "json")
	require.NoError(t, f.run("report"))

	assert.FileExists(t, filepath.Join(f.dir, "proj-reports", "python"))
	assert.FileExists(t, filepath.Join(f.dir, "proj-reports", "index.md"))
	assert.Contains(t, f.out.String(), "python@gentoo.org")
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t, "")
	err := f.run("--format", "xml", "version")
	assert.True(t, errors.IsValidationError(err))
}

func TestConfigFileFromArgs(t *testing.T) {
	assert.Equal(t, "x.yaml", configFileFromArgs([]string{"--org", "kde", "--config", "x.yaml", "sync-projects", "-y"}))
	assert.Equal(t, "y.yaml", configFileFromArgs([]string{"--config=y.yaml"}))
	assert.Empty(t, configFileFromArgs([]string{"sync-projects", "--dry-run"}))
}

func TestSetMirrorDescsCommand(t *testing.T) {
	f := newFixture(t, "json")
	require.NoError(t, os.WriteFile("gitolite.conf", []byte(`repo proj/guru
    desc = "Gentoo user repository"
    config gentoo.mirror.url = "git@codeberg.org:gentoo/guru.git"
repo proj/kde
    desc = "KDE"
    config gentoo.mirror.url = "git@github.com:gentoo/kde.git"
`), 0o600))
	f.gw.AddRepository(platform.Repository{Name: "guru"})

	require.NoError(t, f.run("set-mirror-descs", "gitolite.conf"))
	assert.Equal(t, []string{"EDIT guru"}, f.gw.Calls())
	assert.Contains(t, f.out.String(), `"updated"`)

	require.NoError(t, os.WriteFile("bad.conf", []byte("desc = x\n"), 0o600))
	err := f.run("set-mirror-descs", "bad.conf")
	var parseErr *errors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "bad.conf", parseErr.File)
}
