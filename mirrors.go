package teamsync

import (
	"context"
	"strings"

	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/mirrors"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/sync"
)

// UpdateMirrors sets the description and homepage of every mirror
// repository to "[MIRROR] <desc>" and the gitolite web page of its source.
// Repositories already up to date are not touched, and repositories that
// were transferred out of the organization are skipped.
func (s *Syncer) UpdateMirrors(ctx context.Context, list []mirrors.Mirror, opts ...sync.Option) (*sync.MirrorResult, error) {
	options := s.options(opts...)
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))
	logger := logging.FromContext(ctx)
	result := &sync.MirrorResult{DryRun: options.DryRun}

	var errs []error
	for _, m := range list {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out, err := s.updateMirror(ctx, m, options)
		if err != nil {
			out.Status = sync.MirrorFailed
			out.Error = err.Error()
			result.Outcomes = append(result.Outcomes, out)
			if !options.ContinueOnError {
				return result, err
			}
			logger.Error().Err(err).Str("repo", m.Repo).Msg("mirror failed, continuing")
			errs = append(errs, err)
			continue
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	logger.Info().Msg(result.Summary())
	return result, errors.Join(errs...)
}

func (s *Syncer) updateMirror(ctx context.Context, m mirrors.Mirror, options *sync.Options) (sync.MirrorOutcome, error) {
	logger := logging.FromContext(ctx).With().Str("repo", m.Repo).Str("mirror", m.Name).Logger()
	out := sync.MirrorOutcome{
		Repo:        m.Repo,
		Name:        m.Name,
		Description: m.Description(),
		Homepage:    m.Homepage(options.MirrorWebRoot),
	}
	logger.Debug().Msg(m.Repo + " -> " + m.Name)

	repo, err := s.gateway.Repository(ctx, m.Name)
	if errors.IsNotFound(err) {
		out.Status = sync.MirrorMissing
		logger.Warn().Msg("mirror repository not found")
		return out, nil
	}
	if err != nil {
		return out, errors.WrapResource("get", "repository", m.Name, err)
	}
	if !strings.EqualFold(repo.Owner, s.gateway.Org()) {
		out.Status = sync.MirrorNotInOrg
		logger.Warn().Str("owner", repo.Owner).Msg("not in " + s.gateway.Org())
		return out, nil
	}
	if repo.Description == out.Description && repo.Homepage == out.Homepage {
		out.Status = sync.MirrorUnchanged
		return out, nil
	}

	out.Status = sync.MirrorUpdated
	if options.DryRun {
		logger.Info().Bool("dry_run", true).Str("description", out.Description).Str("homepage", out.Homepage).Msg("would update")
		return out, nil
	}
	edit := platform.RepositoryEdit{Description: out.Description, Homepage: out.Homepage}
	if err := s.gateway.EditRepository(ctx, m.Name, edit); err != nil {
		return out, errors.WrapResource("edit", "repository", m.Name, err)
	}
	out.Applied = true
	logger.Info().Msg("updated")
	return out, nil
}
