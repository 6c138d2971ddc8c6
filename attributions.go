package teamsync

import (
	"context"
	"fmt"

	"github.com/agentstation/teamsync/pkg/attribution"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
	"github.com/agentstation/teamsync/pkg/platform"
	"github.com/agentstation/teamsync/pkg/sync"
)

// UpdateAttributions scans the tracked repository's pull requests and
// records the e-mail of each submitter not yet in cache. Every recorded
// entry is persisted immediately, so an interrupted scan keeps its progress.
// In a dry run an in-memory copy of cache is updated instead.
func (s *Syncer) UpdateAttributions(ctx context.Context, cache *attribution.Cache, opts ...sync.Option) (*sync.AttributionResult, error) {
	if cache == nil {
		return nil, errors.NewValidationError("cache", nil, "attribution cache is required")
	}
	options := s.options(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	ctx = logging.WithPlatform(ctx, string(s.gateway.Name()))
	logger := logging.FromContext(ctx)

	if options.DryRun {
		cache = attribution.NewMemoryCache(cache.Map().Entries())
	}

	pulls, err := s.gateway.ListPullRequests(ctx, options.PullState)
	if err != nil {
		return nil, errors.WrapResource("list", "pull requests", string(options.PullState), err)
	}
	logger.Info().Int("pulls", len(pulls)).Int("cached", cache.Len()).Msg("scanning pull requests")

	resolver := attribution.NewResolver(cache, platform.CommitSource(s.gateway), s.config.confirmer)
	result := &sync.AttributionResult{DryRun: options.DryRun}

	reporter := s.config.progress
	reporter.Start(len(pulls))
	defer reporter.Finish()

	for i, pr := range pulls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		reporter.Update(i+1, fmt.Sprintf("PR #%04d", pr.Number))

		out, err := resolver.Resolve(logging.WithPullRequest(ctx, pr.Number), attribution.Input{
			Number:    pr.Number,
			HTMLURL:   pr.HTMLURL,
			PatchURL:  pr.PatchURL,
			Submitter: attribution.User{Login: pr.Submitter.Login, Name: pr.Submitter.Name},
		})
		result.Scanned++
		if err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	logger.Info().Msg(result.Summary())
	return result, nil
}
