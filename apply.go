package teamsync

import (
	"context"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/reconcile"
)

// apply carries out plan against team in order. It stops at the first failed
// operation; earlier operations stay applied. The returned team is the one
// created by the plan, or team itself.
func (s *Syncer) apply(ctx context.Context, team platform.Team, plan *reconcile.Plan) (platform.Team, error) {
	logger := logging.FromContext(ctx)

	for _, op := range plan.Operations {
		var err error
		switch op.Kind {
		case reconcile.OpCreateTeam:
			var created platform.Team
			created, err = s.gateway.CreateTeam(ctx, platform.TeamSpec{Name: op.Team, Description: op.Description})
			if err == nil {
				team = created
				s.hooks.teamCreated(team)
			}
		case reconcile.OpAdd:
			role := platform.RoleMember
			if op.Maintainer {
				role = platform.RoleMaintainer
			}
			if err = s.gateway.AddTeamMember(ctx, team, op.Login, role); err == nil {
				s.hooks.memberAdded(team, op.Login, role)
			}
		case reconcile.OpPromote:
			if err = s.gateway.AddTeamMember(ctx, team, op.Login, platform.RoleMaintainer); err == nil {
				s.hooks.memberAdded(team, op.Login, platform.RoleMaintainer)
			}
		case reconcile.OpRemove:
			if err = s.gateway.RemoveTeamMember(ctx, team, op.Login); err == nil {
				s.hooks.memberRemoved(team, op.Login)
			}
		case reconcile.OpRemoveFromOrg:
			if err = s.gateway.RemoveOrgMember(ctx, op.Login); err == nil {
				s.hooks.memberRemoved(team, op.Login)
			}
		case reconcile.OpDeleteTeam:
			if err = s.gateway.DeleteTeam(ctx, team); err == nil {
				s.hooks.teamDeleted(team)
			}
		default:
			err = errors.NewValidationError("operation", op.Kind, "unknown operation")
		}
		if err != nil {
			name := team.Name
			if name == "" {
				name = plan.Team
			}
			return team, errors.NewSyncError(name, op.String(), err)
		}
		logger.Info().Str("op", string(op.Kind)).Str("login", op.Login).Msg(op.String())
	}
	return team, nil
}

// logPlan reports a plan that is not going to be applied.
func logPlan(ctx context.Context, plan *reconcile.Plan) {
	logger := logging.FromContext(ctx)
	for _, op := range plan.Operations {
		logger.Info().Str("op", string(op.Kind)).Str("login", op.Login).Bool("dry_run", true).Msg(op.String())
	}
}

// logFinding writes a finding at the level matching its severity.
func logFinding(ctx context.Context, f reconcile.Finding) {
	logger := logging.FromContext(ctx)
	event := logger.Info()
	if f.Severity == reconcile.SeverityWarning {
		event = logger.Warn()
	}
	event.Str("kind", string(f.Kind)).Msg(f.String())
}
