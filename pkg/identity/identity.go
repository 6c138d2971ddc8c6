// Package identity maps canonical person keys (e-mail or LDAP uid) to
// platform usernames.
//
// The map is a read-only snapshot per run: it is loaded whole, consulted,
// and written back whole by the ingestion tools. An empty username means the
// person has no linked platform account.
package identity

import (
	"sort"
	"strings"

	"github.com/agentstation/teamsync/pkg/sets"
)

// Map is a bidirectional person-key to platform-username lookup.
type Map struct {
	byKey   map[string]string
	byLogin map[string][]string
}

// New creates a Map from a flat key to username table. Keys are lower-cased;
// when two keys collide after lower-casing the first non-empty username in
// sorted key order wins.
func New(entries map[string]string) *Map {
	m := &Map{
		byKey:   make(map[string]string, len(entries)),
		byLogin: make(map[string][]string),
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if old := m.byKey[canonicalKey(k)]; old != "" {
			continue
		}
		m.set(k, entries[k])
	}
	return m
}

// set inserts or replaces a single entry, keeping the reverse index in step.
func (m *Map) set(key, login string) {
	key = canonicalKey(key)
	login = strings.TrimSpace(login)

	if old, ok := m.byKey[key]; ok {
		if login == "" && old != "" {
			return
		}
		m.unindex(key, old)
	}

	m.byKey[key] = login
	if login != "" {
		m.byLogin[login] = insertSorted(m.byLogin[login], key)
	}
}

func (m *Map) unindex(key, login string) {
	if login == "" {
		return
	}
	keys := m.byLogin[login]
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(keys) == 0 {
		delete(m.byLogin, login)
		return
	}
	m.byLogin[login] = keys
}

// Lookup returns the platform username for a person key. ok is false when the
// key is unknown or the person has no linked account.
func (m *Map) Lookup(key string) (string, bool) {
	login := m.byKey[canonicalKey(key)]
	return login, login != ""
}

// Has reports whether the key is present at all, with or without an account.
func (m *Map) Has(key string) bool {
	_, ok := m.byKey[canonicalKey(key)]
	return ok
}

// ReverseLookup returns every person key mapped to login, sorted. Several
// historical e-mails may map to the same username.
func (m *Map) ReverseLookup(login string) []string {
	keys := m.byLogin[login]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Image returns the set of all linked platform usernames.
func (m *Map) Image() sets.Set {
	image := make(sets.Set, len(m.byLogin))
	for login := range m.byLogin {
		image.Add(login)
	}
	return image
}

// Keys returns all person keys, sorted.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of person keys.
func (m *Map) Len() int {
	return len(m.byKey)
}

// Entries returns a copy of the flat key to username table.
func (m *Map) Entries() map[string]string {
	out := make(map[string]string, len(m.byKey))
	for k, v := range m.byKey {
		out[k] = v
	}
	return out
}

// Put sets the username for a key, replacing any previous value.
func (m *Map) Put(key, login string) {
	key = canonicalKey(key)
	if old, ok := m.byKey[key]; ok {
		m.unindex(key, old)
		delete(m.byKey, key)
	}
	m.set(key, login)
}

// Merge overlays other onto m. Entries in other replace entries in m.
func (m *Map) Merge(other *Map) {
	for _, k := range other.Keys() {
		m.Put(k, other.byKey[k])
	}
}

func canonicalKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func insertSorted(keys []string, key string) []string {
	i := sort.SearchStrings(keys, key)
	if i < len(keys) && keys[i] == key {
		return keys
	}
	keys = append(keys, "")
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}
