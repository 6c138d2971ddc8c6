package teamsync

import (
	"context"
	"strings"

	"github.com/agentstation/teamsync/pkg/confirm"
	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/membership"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/reconcile"
	"github.com/agentstation/teamsync/pkg/sets"
	"github.com/agentstation/teamsync/pkg/sync"
)

// projectPass holds the state of one SyncProjects run.
type projectPass struct {
	*Syncer
	opts     *sync.Options
	ropts    reconcile.Options
	admins   sets.Set
	known    sets.Set
	taken    sets.Set
	matched  sets.Set
	dangling sets.Set
	result   *sync.Result
}

// SyncProjects reconciles every platform team that stands for a project,
// then offers to create teams for projects that have none.
//
// Teams are handled one at a time in listing order. A remote failure aborts
// the pass unless ContinueOnError is set, in which case the failing team is
// recorded and the joined errors are returned with the result.
func (s *Syncer) SyncProjects(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	options := s.options(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if s.gateway.Name() == platform.Codeberg {
		options.IgnoreTeams = append(options.IgnoreTeams, constants.CodebergOwnersTeam)
	}
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))
	logger := logging.FromContext(ctx)

	teams, err := s.gateway.ListTeams(ctx)
	if err != nil {
		return nil, errors.WrapResource("list", "teams", s.gateway.Org(), err)
	}
	admins := sets.New()
	if s.gateway.SupportsRoles() {
		owners, err := s.gateway.OrgMembers(ctx, true)
		if err != nil {
			return nil, errors.WrapResource("list", "owners", s.gateway.Org(), err)
		}
		admins.Add(owners...)
	}

	p := &projectPass{
		Syncer:   s,
		opts:     options,
		ropts:    reconcile.Options{TrackRoles: s.gateway.SupportsRoles()},
		admins:   admins,
		known:    s.knownLogins(),
		taken:    sets.New(),
		matched:  sets.New(),
		dangling: sets.New(),
		result:   sync.NewResult(options.DryRun),
	}
	for _, t := range teams {
		p.taken.Add(strings.ToLower(t.Name))
	}
	for _, dup := range s.tree.Duplicates() {
		f := reconcile.NewFinding(reconcile.FindingDuplicateProject, dup+" declared more than once, first entry used")
		f.Project = dup
		p.report(ctx, f)
	}

	logger.Info().Int("teams", len(teams)).Int("projects", s.tree.Len()).Bool("dry_run", options.DryRun).Msg("syncing project teams")

	var errs []error
	for _, team := range teams {
		if options.Ignored(team.Name) {
			logger.Debug().Str("team", team.Name).Msg("team ignored")
			continue
		}
		if err := p.syncTeam(ctx, team); err != nil {
			if !options.ContinueOnError {
				return p.result, err
			}
			logger.Error().Err(err).Str("team", team.Name).Msg("team failed, continuing")
			errs = append(errs, err)
		}
	}

	if !options.SkipProposals {
		if err := p.proposeTeams(ctx); err != nil {
			return p.result, err
		}
	} else {
		p.collectUnmatched()
	}

	logger.Info().Msg(p.result.Summary())
	return p.result, errors.Join(errs...)
}

func (p *projectPass) report(ctx context.Context, f reconcile.Finding) {
	p.result.AddFinding(f)
	logFinding(ctx, f)
}

// targets resolves the effective members of project and their logins.
// Dangling references are reported once per pass.
func (p *projectPass) targets(ctx context.Context, project *projects.Project) (effective, logins sets.Set) {
	res := membership.Resolve(p.tree, project)
	for _, d := range res.Dangling {
		key := d.Project + " " + d.Ref
		if p.dangling.Has(key) {
			continue
		}
		p.dangling.Add(key)
		f := reconcile.NewFinding(reconcile.FindingDanglingSubproject, "subproject "+d.Ref+" does not exist")
		f.Project = d.Project
		p.report(ctx, f)
	}

	logins, unmapped := membership.Logins(res.Members, p.ids)
	if len(unmapped) > 0 {
		logging.FromContext(ctx).Debug().Strs("unmapped", unmapped).Msg("members without a platform account")
	}
	return res.Members, logins
}

// remoteTeam snapshots team. Repositories are left unloaded.
func (p *projectPass) remoteTeam(ctx context.Context, team platform.Team) (reconcile.RemoteTeam, error) {
	members, err := p.gateway.TeamMembers(ctx, team, platform.RoleAny)
	if err != nil {
		return reconcile.RemoteTeam{}, err
	}
	remote := reconcile.RemoteTeam{
		ID:          team.ID,
		Name:        team.Name,
		Members:     sets.New(members...),
		Maintainers: sets.New(),
		Admins:      p.admins,
	}
	if p.ropts.TrackRoles {
		maintainers, err := p.gateway.TeamMembers(ctx, team, platform.RoleMaintainer)
		if err != nil {
			return reconcile.RemoteTeam{}, err
		}
		remote.Maintainers.Add(maintainers...)
	}
	return remote, nil
}

func (p *projectPass) syncTeam(ctx context.Context, team platform.Team) error {
	ctx = logging.WithTeam(ctx, team.Name)
	logger := logging.FromContext(ctx)

	project, ok := p.tree.MatchTeam(team.Name)
	if !ok {
		f := reconcile.NewFinding(reconcile.FindingUnmatchedTeam, "no project for team")
		f.Team = team.Name
		p.report(ctx, f)
		return nil
	}
	p.matched.Add(project.Email)
	ctx = logging.WithProject(ctx, project.Email)

	_, target := p.targets(ctx, project)
	remote, err := p.remoteTeam(ctx, team)
	if err != nil {
		return errors.NewSyncError(team.Name, "load members", err)
	}

	plan := reconcile.Reconcile(target, remote, p.known, p.ropts)
	if plan.DeletesTeam() {
		repos, err := p.gateway.TeamRepositories(ctx, team)
		if err != nil {
			return errors.NewSyncError(team.Name, "load repositories", err)
		}
		remote.Repositories = repos
		plan = reconcile.Reconcile(target, remote, p.known, p.ropts)
	}
	for _, f := range plan.Findings {
		logFinding(ctx, f)
	}

	tr := sync.TeamResult{Team: team, Project: project.Email, Plan: plan}
	if !plan.DeletesTeam() {
		p.result.TeamMap.Set(project.Email, p.gateway.Org(), team.Name)
	}

	if !plan.HasChanges() {
		logger.Debug().Msg(plan.String())
		p.result.AddTeam(tr)
		return nil
	}
	if p.opts.DryRun {
		logPlan(ctx, plan)
		p.result.AddTeam(tr)
		return nil
	}

	_, err = p.apply(ctx, team, plan)
	if err != nil {
		tr.Error = err.Error()
		p.result.AddTeam(tr)
		return err
	}
	tr.Applied = true
	p.result.AddTeam(tr)
	return nil
}

// proposeTeams walks unmatched projects in registry order.
func (p *projectPass) proposeTeams(ctx context.Context) error {
	seen := sets.New()
	for _, project := range p.tree.Projects() {
		if seen.Has(project.Email) {
			continue
		}
		seen.Add(project.Email)
		if p.matched.Has(project.Email) {
			continue
		}
		if err := p.proposeTeam(logging.WithProject(ctx, project.Email), project); err != nil {
			return err
		}
	}
	return nil
}

func (p *projectPass) collectUnmatched() {
	seen := sets.New()
	for _, project := range p.tree.Projects() {
		if seen.Has(project.Email) || p.matched.Has(project.Email) {
			continue
		}
		seen.Add(project.Email)
		p.result.Unmatched = append(p.result.Unmatched, project.Email)
	}
}

func (p *projectPass) proposeTeam(ctx context.Context, project *projects.Project) error {
	effective, logins := p.targets(ctx, project)
	proposal, finding := reconcile.ProposeTeam(project, effective, logins, p.taken)
	if finding != nil {
		p.report(ctx, *finding)
		p.result.Unmatched = append(p.result.Unmatched, project.Email)
		return nil
	}

	name, ok, err := p.chooseName(ctx, project, proposal)
	if err != nil {
		return err
	}
	if !ok {
		f := reconcile.NewFinding(reconcile.FindingDeclined, "team creation declined")
		f.Project = project.Email
		p.report(ctx, f)
		p.result.Unmatched = append(p.result.Unmatched, project.Email)
		return nil
	}
	if p.taken.Has(strings.ToLower(name)) {
		f := reconcile.NewFinding(reconcile.FindingNameTaken, "team name "+name+" is already in use")
		f.Project = project.Email
		p.report(ctx, f)
		p.result.Unmatched = append(p.result.Unmatched, project.Email)
		return nil
	}

	ctx = logging.WithTeam(ctx, name)
	plan := proposal.Plan(name, p.admins, p.ropts)
	tr := sync.TeamResult{
		Team:    platform.Team{Name: name, Description: proposal.Description},
		Project: project.Email,
		Plan:    plan,
	}

	if p.opts.DryRun {
		logPlan(ctx, plan)
	} else {
		created, err := p.apply(ctx, tr.Team, plan)
		if err != nil {
			tr.Error = err.Error()
			p.result.AddTeam(tr)
			return err
		}
		tr.Team = created
		tr.Applied = true
		p.result.Created = append(p.result.Created, created)
	}

	p.taken.Add(strings.ToLower(name))
	p.result.TeamMap.Set(project.Email, p.gateway.Org(), name)
	p.result.AddTeam(tr)
	return nil
}

// chooseName asks the operator to confirm or pick the team name. Auto
// approval and dry runs take the suggested name.
func (p *projectPass) chooseName(ctx context.Context, project *projects.Project, proposal *reconcile.TeamProposal) (string, bool, error) {
	if p.opts.AutoApprove || p.opts.DryRun {
		return proposal.SuggestedName(), true, nil
	}

	var details []string
	if project.Description != "" {
		details = append(details, project.Description)
	}
	details = append(details, "members: "+strings.Join(proposal.Members, ", "))

	d, err := p.config.confirmer.Ask(ctx, confirm.Question{
		Title:   "NEW PROJECT: " + project.Email,
		Details: details,
		Options: proposal.Candidates,
		Default: proposal.Suggested,
	})
	if err != nil {
		return "", false, err
	}
	if !d.Accepted() {
		return "", false, nil
	}
	idx := d.Pick(proposal.Suggested)
	if idx < 0 || idx >= len(proposal.Candidates) {
		return "", false, errors.NewValidationError("choice", d.Choice, "option out of range")
	}
	return proposal.Candidates[idx], true, nil
}

// ProjectMap matches platform teams to projects without changing anything.
// It returns the project e-mail to "org/team" map and, in registry order,
// the projects no team stands for.
func (s *Syncer) ProjectMap(ctx context.Context) (projects.TeamMap, []string, error) {
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))
	logger := logging.FromContext(ctx)

	teams, err := s.gateway.ListTeams(ctx)
	if err != nil {
		return nil, nil, errors.WrapResource("list", "teams", s.gateway.Org(), err)
	}

	tm := projects.TeamMap{}
	for _, team := range teams {
		project, ok := s.tree.MatchTeam(team.Name)
		if !ok {
			logger.Info().Str("team", team.Name).Msg(team.Name + " <-> ?")
			continue
		}
		logger.Info().Str("team", team.Name).Str("project", project.Email).Msg(team.Name + " <-> " + project.Email)
		tm.Set(project.Email, s.gateway.Org(), team.Name)
	}

	var missing []string
	seen := sets.New()
	for _, project := range s.tree.Projects() {
		if seen.Has(project.Email) {
			continue
		}
		seen.Add(project.Email)
		if _, _, ok := tm.Team(project.Email); !ok {
			missing = append(missing, project.Email)
		}
	}
	return tm, missing, nil
}
