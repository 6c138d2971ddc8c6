package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/reconcile"
	"github.com/agentstation/teamsync/pkg/sync"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("yaml"))
}

func samplePlan() *sync.Result {
	plan := &reconcile.Plan{
		Team: "python",
		Operations: []reconcile.Operation{
			{Kind: reconcile.OpAdd, Login: "carol", Maintainer: true},
			{Kind: reconcile.OpRemove, Login: "dave"},
		},
	}
	r := sync.NewResult(false)
	r.AddTeam(sync.TeamResult{Plan: plan, Applied: true})
	r.AddFinding(reconcile.Finding{Kind: reconcile.FindingUntrackedMember, Severity: reconcile.SeverityNote, Team: "python", Login: "eve", Message: "untracked"})
	return r
}

func TestPlanTable(t *testing.T) {
	data := PlanTable(samplePlan(), false)
	assert.Equal(t, [][]string{
		{"python", "ADD (maintainer)", "carol", "yes"},
		{"python", "REMOVE", "dave", "yes"},
	}, data.Rows)

	wide := PlanTable(samplePlan(), true)
	require.Len(t, wide.Rows, 3)
	assert.Equal(t, []string{"python", "untracked-member", "eve", "untracked"}, wide.Rows[2])
}

func TestFindingsTableWarningsFirst(t *testing.T) {
	data := FindingsTable([]reconcile.Finding{
		{Kind: reconcile.FindingUnmatchedTeam, Severity: reconcile.SeverityNote, Team: "misc", Message: "no project"},
		{Kind: reconcile.FindingNameTaken, Severity: reconcile.SeverityWarning, Project: "kde@gentoo.org", Message: "taken"},
	})
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "kde@gentoo.org", data.Rows[0][2])
	assert.Equal(t, "misc", data.Rows[1][2])
}

func TestAttributionTableWide(t *testing.T) {
	r := &sync.AttributionResult{Outcomes: []attribution.Outcome{
		{Number: 4, Status: attribution.StatusRecorded, Submitter: "carol", Email: "carol@x.org", Message: "ok"},
	}}
	assert.Len(t, AttributionTable(r, false).Headers, 4)
	wide := AttributionTable(r, true)
	assert.Equal(t, []string{"4", "recorded", "carol", "carol@x.org", "ok"}, wide.Rows[0])
}

func TestTeamMapTable(t *testing.T) {
	tm := projects.TeamMap{}
	tm.Set("python@gentoo.org", "gentoo", "python")
	data := TeamMapTable(tm, []string{"kde@gentoo.org"})
	assert.Equal(t, [][]string{
		{"python@gentoo.org", "gentoo/python"},
		{"kde@gentoo.org", "?"},
	}, data.Rows)
}

func TestWriteTableAndJSON(t *testing.T) {
	r := &sync.VerifyResult{Checked: 2, Missing: []sync.MissingUser{{Login: "ghost", Key: "ghost@gentoo.org"}}}
	toTable := func(bool) Data { return MissingUsersTable(r) }

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, r, toTable))
	assert.Contains(t, buf.String(), "ghost@gentoo.org")
	assert.Contains(t, strings.ToLower(buf.String()), "login")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatJSON, r, toTable))
	assert.Contains(t, buf.String(), `"checked": 2`)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, r, toTable))
	assert.Contains(t, buf.String(), "login: ghost")
}

func TestTableFallsBackToReflection(t *testing.T) {
	type row struct {
		Login string `json:"login"`
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, []row{{Login: "alice"}}))
	assert.Contains(t, buf.String(), "alice")
}

func TestMirrorTable(t *testing.T) {
	r := &sync.MirrorResult{Outcomes: []sync.MirrorOutcome{
		{Repo: "proj/guru", Name: "guru", Status: sync.MirrorUpdated, Applied: true, Description: "[MIRROR] Guru", Homepage: "https://gitweb.gentoo.org/proj/guru.git"},
		{Repo: "proj/lost", Name: "lost", Status: sync.MirrorMissing},
	}}
	narrow := MirrorTable(r, false)
	assert.Equal(t, []string{"proj/lost", "lost", "missing", "no"}, narrow.Rows[1])
	wide := MirrorTable(r, true)
	assert.Len(t, wide.Headers, 6)
	assert.Equal(t, "https://gitweb.gentoo.org/proj/guru.git", wide.Rows[0][5])
}

func TestColumnName(t *testing.T) {
	typ := reflect.TypeOf(struct {
		TotalChanges int    `json:"total_changes,omitempty"`
		Hidden       string `json:"-"`
		Plain        bool
	}{})
	assert.Equal(t, "Total Changes", columnName(typ.Field(0)))
	assert.Equal(t, "Hidden", columnName(typ.Field(1)))
	assert.Equal(t, "Plain", columnName(typ.Field(2)))
}
