package miner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/fetcher"
	"github.com/IshaanNene/RepoMiner/internal/observability"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// site serves a fake repository under /org/repo. Pages can be replaced or
// made to fail per path.
type site struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
	srv    *httptest.Server
}

func newSite(t *testing.T, landing string) *site {
	t.Helper()
	s := &site{
		pages: map[string]string{
			"/org/repo":                    landing,
			"/org/repo/issues":             statesHTML("5", "15"),
			"/org/repo/pulls":              statesHTML("2", "8"),
			"/org/repo/commits":            commitsHTML("/org/repo/commit/" + testSHA),
			"/org/repo/commit/" + testSHA: commitDetailHTML("2023-01-01T00:00:00Z", testSHA),
		},
		status: map[string]int{},
		hits:   map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hits[r.URL.Path]++
		if code, ok := s.status[r.URL.Path]; ok {
			http.Error(w, "unavailable", code)
			return
		}
		body, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *site) locator() string { return s.srv.URL + "/org/repo" }

func (s *site) fail(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = code
}

func (s *site) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// countingCounter records how often the fallback is invoked.
type countingCounter struct {
	result FallbackResult
	err    error
	calls  int
	urls   []string
}

func (c *countingCounter) CountContributors(ctx context.Context, repoURL string) (FallbackResult, error) {
	c.calls++
	c.urls = append(c.urls, repoURL)
	return c.result, c.err
}

func newTestMiner(t *testing.T, opts ...Option) *Miner {
	t.Helper()
	f, err := fetcher.NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return New(f, config.DefaultSelectors(), testLogger, opts...)
}

func TestMineEndToEnd(t *testing.T) {
	s := newSite(t, landingHTML(contributorsFull))
	fallback := &countingCounter{}
	metrics := observability.NewMetrics(testLogger)

	rec, err := newTestMiner(t, WithFallback(fallback), WithMetrics(metrics)).Mine(context.Background(), s.locator())
	if err != nil {
		t.Fatalf("mine: %v", err)
	}

	want := types.RepositoryMetrics{
		Repository:         s.locator(),
		Commits:            500,
		Branches:           3,
		Releases:           10,
		Contributors:       12,
		ContributorsSource: types.ContributorsFromPage,
		Watchers:           42,
		Stars:              7000,
		TotalIssues:        20,
		OpenIssues:         5,
		TotalPullRequests:  10,
		OpenPullRequests:   2,
		LastCommitSHA:      testSHA,
	}
	got := *rec
	got.LastCommit, got.RunID, got.MinedAt = nil, "", time.Time{}
	if got != want {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}

	if rec.LastCommit == nil || !rec.LastCommit.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected last commit %v", rec.LastCommit)
	}
	if rec.RunID == "" || rec.MinedAt.IsZero() {
		t.Error("expected run id and mined-at to be set")
	}
	if fallback.calls != 0 {
		t.Errorf("fallback must not run for a rendered count, ran %d times", fallback.calls)
	}
	if n := s.hitCount("/org/repo/commit/" + testSHA); n != 1 {
		t.Errorf("expected commit detail fetched once, got %d", n)
	}

	if got := counterTotal(t, metrics, "repominer_fetches_total"); got != 5 {
		t.Errorf("expected 5 recorded fetches, got %v", got)
	}
}

func TestMineTruncatedContributors(t *testing.T) {
	tests := []struct {
		name       string
		result     FallbackResult
		want       int64
		wantSource string
	}{
		{"counted", FallbackResult{Status: FallbackCounted, Count: 37}, 37, types.ContributorsFromBrowser},
		{"unreachable", FallbackResult{Status: FallbackUnreachable}, types.ContributorsUnknown, types.ContributorsFromUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSite(t, landingHTML(contributorsTruncated))
			fallback := &countingCounter{result: tt.result}

			rec, err := newTestMiner(t, WithFallback(fallback)).Mine(context.Background(), s.locator())
			if err != nil {
				t.Fatalf("mine: %v", err)
			}
			if fallback.calls != 1 {
				t.Fatalf("expected exactly one fallback call, got %d", fallback.calls)
			}
			if fallback.urls[0] != s.locator() {
				t.Errorf("fallback navigated to %q", fallback.urls[0])
			}
			if rec.Contributors != tt.want || rec.ContributorsSource != tt.wantSource {
				t.Errorf("contributors = %d (%s), want %d (%s)", rec.Contributors, rec.ContributorsSource, tt.want, tt.wantSource)
			}
			if rec.Commits != 500 || rec.TotalIssues != 20 || rec.LastCommitSHA != testSHA {
				t.Errorf("later stages should still run: %+v", rec)
			}
		})
	}
}

func TestMineWithoutFallbackConfigured(t *testing.T) {
	s := newSite(t, landingHTML(contributorsTruncated))

	rec, err := newTestMiner(t).Mine(context.Background(), s.locator())
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if rec.ContributorsKnown() {
		t.Errorf("expected unknown contributors, got %d", rec.Contributors)
	}
}

func TestMineBrowserFallbackUnreachable(t *testing.T) {
	s := newSite(t, landingHTML(contributorsTruncated))
	b := &fakeBrowser{openErr: fmt.Errorf("%w: connect: refused", fetcher.ErrBrowserUnreachable)}
	fb := NewBrowserFallback(b, config.DefaultSelectors().FallbackContributors, time.Second, testLogger)

	rec, err := newTestMiner(t, WithFallback(fb)).Mine(context.Background(), s.locator())
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if rec.Contributors != -1 {
		t.Errorf("expected -1 contributors, got %d", rec.Contributors)
	}
	if b.opens != 1 {
		t.Errorf("expected one browser launch, got %d", b.opens)
	}
}

func TestMineFallbackFatal(t *testing.T) {
	s := newSite(t, landingHTML(contributorsTruncated))
	b := &fakeBrowser{session: &fakeSession{waitErr: context.DeadlineExceeded}}
	fb := NewBrowserFallback(b, config.DefaultSelectors().FallbackContributors, time.Second, testLogger)

	rec, err := newTestMiner(t, WithFallback(fb)).Mine(context.Background(), s.locator())
	var stageErr *types.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageOverview {
		t.Fatalf("expected overview stage error, got %v", err)
	}
	if b.session.closed != 1 {
		t.Errorf("expected browser session closed, got %d", b.session.closed)
	}
	if rec.Commits != 0 || rec.TotalIssues != 0 {
		t.Errorf("expected defaults after overview failure, got %+v", rec)
	}
	if s.hitCount("/org/repo/issues") != 0 {
		t.Error("issues page must not be fetched after a fatal overview error")
	}
}

func TestMineAbortsOnFetchFailure(t *testing.T) {
	s := newSite(t, landingHTML(contributorsFull))
	s.fail("/org/repo/pulls", http.StatusServiceUnavailable)

	rec, err := newTestMiner(t).Mine(context.Background(), s.locator())
	if err == nil {
		t.Fatal("expected error")
	}

	var stageErr *types.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePullRequests {
		t.Fatalf("expected pull request stage error, got %v", err)
	}
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected fetch error with status 503, got %v", err)
	}

	if rec.Commits != 500 || rec.TotalIssues != 20 {
		t.Errorf("completed stages should be kept: %+v", rec)
	}
	if rec.TotalPullRequests != 0 || rec.OpenPullRequests != 0 {
		t.Errorf("failed stage should leave defaults: %+v", rec)
	}
	if rec.LastCommit != nil || rec.LastCommitSHA != "" {
		t.Errorf("later stages should not run: %+v", rec)
	}
	if s.hitCount("/org/repo/commits") != 0 {
		t.Error("commits page must not be fetched after abort")
	}
	if !rec.MinedAt.IsZero() {
		t.Error("mined-at should only be set on success")
	}
}

func TestMineCommitDetailMissing(t *testing.T) {
	s := newSite(t, landingHTML(contributorsFull))
	s.fail("/org/repo/commit/"+testSHA, http.StatusNotFound)

	rec, err := newTestMiner(t).Mine(context.Background(), s.locator())
	if !types.IsFetchError(err) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if rec.TotalPullRequests != 10 || rec.LastCommit != nil {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestMineInvalidLocator(t *testing.T) {
	rec, err := newTestMiner(t).Mine(context.Background(), "not a url")
	if !errors.Is(err, types.ErrInvalidURL) || rec != nil {
		t.Fatalf("expected ErrInvalidURL and no record, got %v, %v", rec, err)
	}
}

func counterTotal(t *testing.T, m *observability.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
