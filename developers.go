package teamsync

import (
	"context"
	"strings"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/reconcile"
	"github.com/agentstation/teamsync/pkg/sets"
	"github.com/agentstation/teamsync/pkg/sync"
)

// SyncDevelopers makes the developers team mirror every linked login of the
// identity map. On platforms that remove dropped developers from the whole
// organization, every non-owner organization member outside the roster is
// removed from the organization.
func (s *Syncer) SyncDevelopers(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	options := s.options(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))

	teams, err := s.gateway.ListTeams(ctx)
	if err != nil {
		return nil, errors.WrapResource("list", "teams", s.gateway.Org(), err)
	}
	var team platform.Team
	found := false
	for _, t := range teams {
		if strings.EqualFold(t.Name, options.DevelopersTeam) {
			team, found = t, true
			break
		}
	}
	if !found {
		return nil, errors.NewNotFoundError("team", options.DevelopersTeam)
	}
	ctx = logging.WithTeam(ctx, team.Name)
	logger := logging.FromContext(ctx)

	members, err := s.gateway.TeamMembers(ctx, team, platform.RoleAny)
	if err != nil {
		return nil, errors.NewSyncError(team.Name, "load members", err)
	}
	remote := reconcile.RemoteTeam{ID: team.ID, Name: team.Name, Members: sets.New(members...)}

	var ropts reconcile.RosterOptions
	if s.gateway.RemovesFromOrg() {
		org, err := s.gateway.OrgMembers(ctx, false)
		if err != nil {
			return nil, errors.WrapResource("list", "members", s.gateway.Org(), err)
		}
		owners, err := s.gateway.OrgMembers(ctx, true)
		if err != nil {
			return nil, errors.WrapResource("list", "owners", s.gateway.Org(), err)
		}
		ropts.OrgMembers = sets.New(org...).Difference(sets.New(owners...))
	}

	roster := s.ids.Image()
	logger.Info().Int("roster", roster.Len()).Int("members", remote.Members.Len()).Msg("syncing developers team")

	plan := reconcile.ReconcileRoster(roster, remote, ropts)
	result := sync.NewResult(options.DryRun)
	tr := sync.TeamResult{Team: team, Plan: plan}

	switch {
	case !plan.HasChanges():
		logger.Info().Msg(plan.String())
	case options.DryRun:
		logPlan(ctx, plan)
	default:
		if _, err := s.apply(ctx, team, plan); err != nil {
			tr.Error = err.Error()
			result.AddTeam(tr)
			return result, err
		}
		tr.Applied = true
	}
	result.AddTeam(tr)
	return result, nil
}
