package identity

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
)

// Parse decodes a flat JSON object of string keys to string usernames.
func Parse(data []byte) (*Map, error) {
	return parse("", data)
}

// Load reads a mapping file. The whole file is read at startup; a document
// that is not a flat string-to-string object is a *errors.MalformedMappingError.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parse(path, data)
}

// LoadOrEmpty is Load, except that a missing file yields an empty map.
func LoadOrEmpty(path string) (*Map, error) {
	m, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	return m, err
}

func parse(path string, data []byte) (*Map, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errors.MalformedMappingError{Path: path, Message: "invalid JSON", Err: err}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &errors.MalformedMappingError{Path: path, Message: "top level is not an object"}
	}

	entries := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, &errors.MalformedMappingError{Path: path, Key: k, Message: "value is not a string"}
		}
		entries[k] = s
	}
	return New(entries), nil
}

// Marshal encodes the map as a JSON object with sorted keys, one per line.
func (m *Map) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m.byKey, "", "")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes the whole map to path. The file is written next to the target
// and renamed into place, so readers never observe a partial mapping.
func (m *Map) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path via a temporary sibling and rename.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + constants.NewFileSuffix
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// ParseLDAPDump builds a map from an LDAP search dump with one
// "key -> username" line per person. "Searching" banners and blank lines are
// skipped and the literal "undefined" marks a person with no account.
func ParseLDAPDump(r io.Reader) (*Map, error) {
	entries := make(map[string]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "Searching") || strings.TrimSpace(text) == "" {
			continue
		}

		parts := strings.Split(text, "->")
		if len(parts) != 2 {
			return nil, &errors.ParseError{Format: "ldap", Line: line, Message: "expected 'key -> username'"}
		}
		key := strings.TrimSpace(parts[0])
		login := strings.TrimSpace(parts[1])
		if login == "undefined" {
			login = ""
		}
		entries[key] = login
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", "ldap dump", err)
	}
	return New(entries), nil
}

// AddKeys adds every non-blank line of r as a person key without an account.
// Keys already present keep their username. It returns the number of keys added.
func (m *Map) AddKeys(r io.Reader) (int, error) {
	added := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key == "" || m.Has(key) {
			continue
		}
		m.set(key, "")
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, errors.WrapIO("read", "developer list", err)
	}
	return added, nil
}

// String renders the map as its JSON file form.
func (m *Map) String() string {
	data, err := m.Marshal()
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(data))
}
