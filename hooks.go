package teamsync

import (
	"sync"

	"github.com/agentstation/teamsync/pkg/platform"
)

// Hook function types for applied changes
type (
	// MemberAddedHook is called after a login joins a team or gains a role
	MemberAddedHook func(team platform.Team, login string, role platform.Role)

	// MemberRemovedHook is called after a login leaves a team or the organization
	MemberRemovedHook func(team platform.Team, login string)

	// TeamCreatedHook is called after a team is created
	TeamCreatedHook func(team platform.Team)

	// TeamDeletedHook is called after a team is deleted
	TeamDeletedHook func(team platform.Team)
)

// hooks manages event callbacks for applied operations
type hooks struct {
	mu              sync.RWMutex
	onMemberAdded   []MemberAddedHook
	onMemberRemoved []MemberRemovedHook
	onTeamCreated   []TeamCreatedHook
	onTeamDeleted   []TeamDeletedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnMemberAdded registers a callback for added or promoted members.
func (s *Syncer) OnMemberAdded(fn MemberAddedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onMemberAdded = append(s.hooks.onMemberAdded, fn)
}

// OnMemberRemoved registers a callback for removed members.
func (s *Syncer) OnMemberRemoved(fn MemberRemovedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onMemberRemoved = append(s.hooks.onMemberRemoved, fn)
}

// OnTeamCreated registers a callback for created teams.
func (s *Syncer) OnTeamCreated(fn TeamCreatedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onTeamCreated = append(s.hooks.onTeamCreated, fn)
}

// OnTeamDeleted registers a callback for deleted teams.
func (s *Syncer) OnTeamDeleted(fn TeamDeletedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onTeamDeleted = append(s.hooks.onTeamDeleted, fn)
}

func (h *hooks) memberAdded(team platform.Team, login string, role platform.Role) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMemberAdded {
		fn(team, login, role)
	}
}

func (h *hooks) memberRemoved(team platform.Team, login string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMemberRemoved {
		fn(team, login)
	}
}

func (h *hooks) teamCreated(team platform.Team) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onTeamCreated {
		fn(team)
	}
}

func (h *hooks) teamDeleted(team platform.Team) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onTeamDeleted {
		fn(team)
	}
}
