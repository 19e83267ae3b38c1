package miner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/fetcher"
	"github.com/IshaanNene/RepoMiner/internal/observability"
	"github.com/IshaanNene/RepoMiner/internal/parser"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Stage names, in execution order.
const (
	StageOverview     = "overview"
	StageIssues       = "issues"
	StagePullRequests = "pull_requests"
	StageLastCommit   = "last_commit"
)

// Miner runs the extraction stages against one repository at a time.
// A Miner holds no per-run state and may be shared by concurrent runs.
type Miner struct {
	fetcher   fetcher.Fetcher
	selectors config.SelectorConfig
	fallback  ContributorCounter
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Option configures a Miner.
type Option func(*Miner)

// WithFallback sets the contributor fallback used when the landing page truncates the count.
func WithFallback(c ContributorCounter) Option {
	return func(m *Miner) {
		if c != nil {
			m.fallback = c
		}
	}
}

// WithMetrics records fetches, stages and fallbacks into metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Miner) { m.metrics = metrics }
}

// New creates a Miner that fetches pages with f and extracts them with selectors.
func New(f fetcher.Fetcher, selectors config.SelectorConfig, logger *slog.Logger, opts ...Option) *Miner {
	m := &Miner{
		fetcher:   f,
		selectors: selectors,
		fallback:  disabledFallback{},
		logger:    logger.With("component", "miner"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mine extracts every metric for the repository at locator. Stages run in
// order and the first fatal error stops the run: the returned record then
// holds what the completed stages produced and defaults everywhere else.
func (m *Miner) Mine(ctx context.Context, locator string) (*types.RepositoryMetrics, error) {
	target, err := ParseTarget(locator)
	if err != nil {
		return nil, err
	}

	rec := types.NewRepositoryMetrics(locator)
	rec.RunID = uuid.NewString()
	log := m.logger.With("repository", locator, "run_id", rec.RunID)
	log.Info("mining data for repository")

	stages := []struct {
		name string
		run  func() error
	}{
		{StageOverview, func() error {
			o, err := m.Overview(ctx, target)
			if err == nil {
				rec.ApplyOverview(o)
			}
			return err
		}},
		{StageIssues, func() error {
			s, err := m.Issues(ctx, target)
			if err == nil {
				rec.ApplyIssues(s)
			}
			return err
		}},
		{StagePullRequests, func() error {
			s, err := m.PullRequests(ctx, target)
			if err == nil {
				rec.ApplyPullRequests(s)
			}
			return err
		}},
		{StageLastCommit, func() error {
			c, err := m.LastCommit(ctx, target)
			if err == nil {
				rec.ApplyLastCommit(c)
			}
			return err
		}},
	}

	for _, stage := range stages {
		start := time.Now()
		err := stage.run()
		m.metrics.ObserveStage(stage.name, time.Since(start), err)
		if err != nil {
			log.Error("stage failed", "stage", stage.name, "error", err)
			err = &types.StageError{Stage: stage.name, Err: err}
			m.metrics.RecordRun(err)
			return rec, err
		}
		log.Debug("stage complete", "stage", stage.name, "duration", time.Since(start))
	}

	rec.MinedAt = time.Now().UTC()
	m.metrics.RecordRun(nil)
	log.Info("mining complete",
		"commits", rec.Commits,
		"contributors", rec.Contributors,
		"stars", rec.Stars,
		"open_issues", rec.OpenIssues,
	)
	return rec, nil
}

// Overview fetches the landing page and returns its counts, invoking the
// contributor fallback at most once when the page truncates that count.
func (m *Miner) Overview(ctx context.Context, t *Target) (types.Overview, error) {
	page, err := m.fetchPage(ctx, t.String(), types.PageOverview)
	if err != nil {
		return types.Overview{}, err
	}

	counts, err := ExtractLanding(page, &m.selectors)
	if err != nil {
		return types.Overview{}, err
	}

	o := types.Overview{
		Commits:            counts.Commits,
		Branches:           counts.Branches,
		Releases:           counts.Releases,
		Contributors:       counts.Contributors,
		Watchers:           counts.Watchers,
		Stars:              counts.Stars,
		ContributorsSource: types.ContributorsFromPage,
	}
	if !counts.ContributorsTruncated {
		return o, nil
	}

	m.logger.Info("contributor count not rendered, using browser fallback", "repository", t.String())
	res, err := m.fallback.CountContributors(ctx, t.String())
	if err != nil {
		m.metrics.RecordFallback(observability.OutcomeError)
		return types.Overview{}, fmt.Errorf("contributor fallback: %w", err)
	}
	m.metrics.RecordFallback(fallbackOutcome(res.Status))

	o.Contributors = res.Contributors()
	o.ContributorsSource = res.Source()
	return o, nil
}

// Issues returns the open and closed issue counts.
func (m *Miner) Issues(ctx context.Context, t *Target) (types.StateCounts, error) {
	return m.states(ctx, t.PageURL("/issues"), types.PageIssues)
}

// PullRequests returns the open and closed pull request counts.
func (m *Miner) PullRequests(ctx context.Context, t *Target) (types.StateCounts, error) {
	return m.states(ctx, t.PageURL("/pulls"), types.PagePulls)
}

func (m *Miner) states(ctx context.Context, url, kind string) (types.StateCounts, error) {
	page, err := m.fetchPage(ctx, url, kind)
	if err != nil {
		return types.StateCounts{}, err
	}
	return ExtractStates(page, &m.selectors, kind)
}

// LastCommit reads the commits listing, follows the newest commit link and
// returns that commit's time and full hash.
func (m *Miner) LastCommit(ctx context.Context, t *Target) (types.LastCommit, error) {
	listing, err := m.fetchPage(ctx, t.PageURL("/commits"), types.PageCommits)
	if err != nil {
		return types.LastCommit{}, err
	}

	href, err := ExtractCommitLink(listing, &m.selectors)
	if err != nil {
		return types.LastCommit{}, err
	}
	detailURL, err := t.Resolve(href)
	if err != nil {
		return types.LastCommit{}, err
	}

	detail, err := m.fetchPage(ctx, detailURL, types.PageCommitDetail)
	if err != nil {
		return types.LastCommit{}, err
	}
	return ExtractCommitDetail(detail, &m.selectors)
}

// fetchPage fetches and parses one page. Every fetch failure comes back as a *types.FetchError.
func (m *Miner) fetchPage(ctx context.Context, url, kind string) (*parser.Page, error) {
	req, err := types.NewPageRequest(url, kind)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}

	resp, err := m.fetcher.Fetch(ctx, req)
	m.metrics.RecordFetch(kind, err)
	if err != nil {
		if !types.IsFetchError(err) {
			err = &types.FetchError{URL: url, Err: err}
		}
		return nil, err
	}

	return parser.NewPage(resp)
}

func fallbackOutcome(s FallbackStatus) string {
	switch s {
	case FallbackCounted:
		return observability.OutcomeSuccess
	case FallbackUnreachable:
		return observability.OutcomeUnreachable
	default:
		return s.String()
	}
}
