package sets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/teamsync/pkg/sets"
)

func TestSetOperations(t *testing.T) {
	a := sets.New("alice", "bob", "carol")
	b := sets.New("bob", "dave")

	assert.Equal(t, []string{"alice", "carol"}, a.Difference(b).Sorted())
	assert.Equal(t, []string{"bob"}, a.Intersect(b).Sorted())
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, a.Union(b).Sorted())
	assert.Equal(t, 3, a.Len(), "operations must not mutate the receiver")

	c := a.Clone()
	c.Remove("alice")
	assert.True(t, a.Has("alice"))
	assert.False(t, c.Has("alice"))
	assert.False(t, a.Equal(c))

	c.Add("alice")
	assert.True(t, a.Equal(c))
}

func TestSortedEmpty(t *testing.T) {
	assert.Empty(t, sets.New().Sorted())
}
