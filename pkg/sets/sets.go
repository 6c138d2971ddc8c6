// Package sets provides a small string set used for member e-mails and
// platform logins.
package sets

import "sort"

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// New creates a set holding the given items.
func New(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts items into the set.
func (s Set) Add(items ...string) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Remove deletes an item from the set.
func (s Set) Remove(item string) {
	delete(s, item)
}

// Has reports whether item is in the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int {
	return len(s)
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for item := range s {
		c[item] = struct{}{}
	}
	return c
}

// Union returns a new set with the items of s and other.
func (s Set) Union(other Set) Set {
	u := s.Clone()
	for item := range other {
		u[item] = struct{}{}
	}
	return u
}

// Difference returns the items of s that are not in other.
func (s Set) Difference(other Set) Set {
	d := make(Set)
	for item := range s {
		if !other.Has(item) {
			d[item] = struct{}{}
		}
	}
	return d
}

// Intersect returns the items present in both s and other.
func (s Set) Intersect(other Set) Set {
	i := make(Set)
	for item := range s {
		if other.Has(item) {
			i[item] = struct{}{}
		}
	}
	return i
}

// Equal reports whether both sets hold the same items.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for item := range s {
		if !other.Has(item) {
			return false
		}
	}
	return true
}

// Sorted returns the items in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
