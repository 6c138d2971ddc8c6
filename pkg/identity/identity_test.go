package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/errors"
)

func TestLookup(t *testing.T) {
	m := New(map[string]string{
		"Alice@Example.org": "alice",
		"bob@example.org":   "",
		"old@example.org":   "alice",
	})

	login, ok := m.Lookup("alice@example.org")
	assert.True(t, ok)
	assert.Equal(t, "alice", login)

	_, ok = m.Lookup("ALICE@example.org")
	assert.True(t, ok, "lookups are case-insensitive")

	_, ok = m.Lookup("bob@example.org")
	assert.False(t, ok, "an empty username is not a linked account")
	assert.True(t, m.Has("bob@example.org"))

	_, ok = m.Lookup("nobody@example.org")
	assert.False(t, ok)

	assert.Equal(t, []string{"alice@example.org", "old@example.org"}, m.ReverseLookup("alice"))
	assert.Empty(t, m.ReverseLookup("bob"))
	assert.Equal(t, []string{"alice"}, m.Image().Sorted())
	assert.Equal(t, 3, m.Len())
}

func TestNewCollisionKeepsLinkedAccount(t *testing.T) {
	m := New(map[string]string{
		"Carol@example.org": "",
		"carol@example.org": "carol",
	})
	login, ok := m.Lookup("carol@example.org")
	assert.True(t, ok)
	assert.Equal(t, "carol", login)
	assert.Equal(t, 1, m.Len())

	m = New(map[string]string{
		"A@x.org": "alice",
		"a@x.org": "bob",
	})
	login, ok = m.Lookup("a@x.org")
	assert.True(t, ok)
	assert.Equal(t, "alice", login)
	assert.Equal(t, []string{"a@x.org"}, m.ReverseLookup("alice"))
	assert.Empty(t, m.ReverseLookup("bob"))
}

func TestPutAndMerge(t *testing.T) {
	m := New(map[string]string{"a@x": "a", "b@x": "b"})
	m.Put("a@x", "alpha")
	assert.Empty(t, m.ReverseLookup("a"))
	assert.Equal(t, []string{"a@x"}, m.ReverseLookup("alpha"))

	m.Put("b@x", "")
	_, ok := m.Lookup("b@x")
	assert.False(t, ok, "Put replaces even with an empty username")

	m.Merge(New(map[string]string{"b@x": "beta", "c@x": "c"}))
	assert.Equal(t, map[string]string{"a@x": "alpha", "b@x": "beta", "c@x": "c"}, m.Entries())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantKey string
	}{
		{name: "flat object", input: `{"a@x": "a", "b@x": ""}`},
		{name: "empty object", input: `{}`},
		{name: "array", input: `["a"]`, wantErr: true},
		{name: "nested value", input: `{"a@x": {"login": "a"}}`, wantErr: true, wantKey: "a@x"},
		{name: "number value", input: `{"a@x": 1}`, wantErr: true, wantKey: "a@x"},
		{name: "not json", input: `a -> b`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.input))
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, m)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsMalformedMapping(err))
			var mErr *errors.MalformedMappingError
			require.True(t, errors.As(err, &mErr))
			assert.Equal(t, tt.wantKey, mErr.Key)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devs.json")

	m := New(map[string]string{"zed@x": "zed", "amy@x": "", "bo@x": "bo"})
	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n\"amy@x\": \"\",\n\"bo@x\": \"bo\",\n\"zed@x\": \"zed\"\n}\n", string(data))

	_, err = os.Stat(path + ".new")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Entries(), loaded.Entries())
}

func TestLoadOrEmpty(t *testing.T) {
	m, err := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseLDAPDump(t *testing.T) {
	dump := strings.Join([]string{
		"Searching for developers...",
		"",
		"alice -> alice-gh",
		"bob -> undefined",
		"  carol  ->  carol  ",
	}, "\n")

	m, err := ParseLDAPDump(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"alice": "alice-gh",
		"bob":   "",
		"carol": "carol",
	}, m.Entries())

	_, err = ParseLDAPDump(strings.NewReader("garbage line"))
	assert.True(t, errors.IsValidationError(err))
}

func TestAddKeys(t *testing.T) {
	m := New(map[string]string{"alice": "alice-gh"})
	added, err := m.AddKeys(strings.NewReader("alice\nbob\n\ncarol\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	login, _ := m.Lookup("alice")
	assert.Equal(t, "alice-gh", login, "existing usernames are kept")
	assert.True(t, m.Has("bob"))
	assert.True(t, m.Has("carol"))
}
