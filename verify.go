package teamsync

import (
	"context"

	"github.com/agentstation/teamsync/internal/usercache"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/sync"
)

// VerifyIdentities checks that every linked username of the identity map
// exists on the platform. Lookups go through a user cache owned by this
// pass: organization members are seeded from one listing, and a login shared
// by several keys is requested once.
func (s *Syncer) VerifyIdentities(ctx context.Context) (*sync.VerifyResult, error) {
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))
	logger := logging.FromContext(ctx)
	result := &sync.VerifyResult{}

	members, err := s.gateway.OrgMembers(ctx, false)
	if err != nil {
		return result, errors.WrapResource("list", "organization members", s.gateway.Org(), err)
	}
	users := usercache.New(s.gateway, 0)
	for _, login := range members {
		users.Seed(platform.User{Login: login})
	}

	for _, key := range s.ids.Keys() {
		login, ok := s.ids.Lookup(key)
		if !ok {
			continue
		}
		exists, err := users.Exists(ctx, login)
		if err != nil {
			return result, errors.WrapResource("get", "user", login, err)
		}
		result.Checked++
		if !exists {
			logger.Warn().Str("login", login).Str("key", key).Msgf("Dev not found: %s (%s)", login, key)
			result.Missing = append(result.Missing, sync.MissingUser{Login: login, Key: key})
		}
	}

	stats := users.Stats()
	result.Requests = int(stats.Misses)
	logger.Debug().Int64("hits", stats.Hits).Int64("misses", stats.Misses).Msg("user cache")
	return result, nil
}
