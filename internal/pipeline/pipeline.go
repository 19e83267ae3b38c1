package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/IshaanNene/RepoMiner/internal/types"
)

// ErrInvariant is returned when a record contradicts itself.
var ErrInvariant = errors.New("record invariant violated")

// Middleware processes a mined record before it is stored.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process inspects or transforms a record. Return nil to drop it.
	Process(rec *types.RepositoryMetrics) (*types.RepositoryMetrics, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(rec *types.RepositoryMetrics) (*types.RepositoryMetrics, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Middleware: mw.Name(),
				Repository: rec.Repository,
				Err:        err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "repository", rec.Repository)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every record through the pipeline, keeping the survivors.
// Records that fail are logged and left out.
func (p *Pipeline) ProcessAll(records []*types.RepositoryMetrics) ([]*types.RepositoryMetrics, []error) {
	var kept []*types.RepositoryMetrics
	var errs []error
	for _, rec := range records {
		out, err := p.Process(rec)
		if err != nil {
			p.logger.Warn("record rejected", "repository", rec.Repository, "error", err)
			errs = append(errs, err)
			continue
		}
		if out != nil {
			kept = append(kept, out)
		}
	}
	return kept, errs
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// InvariantMiddleware rejects records whose counts contradict each other.
type InvariantMiddleware struct{}

func (m *InvariantMiddleware) Name() string { return "invariants" }

func (m *InvariantMiddleware) Process(rec *types.RepositoryMetrics) (*types.RepositoryMetrics, error) {
	for name, n := range map[string]int64{
		"commits":             rec.Commits,
		"branches":            rec.Branches,
		"releases":            rec.Releases,
		"watchers":            rec.Watchers,
		"stars":               rec.Stars,
		"open_issues":         rec.OpenIssues,
		"open_pull_requests":  rec.OpenPullRequests,
		"total_issues":        rec.TotalIssues,
		"total_pull_requests": rec.TotalPullRequests,
	} {
		if n < 0 {
			return nil, fmt.Errorf("%w: %s is negative (%d)", ErrInvariant, name, n)
		}
	}
	if rec.Contributors < types.ContributorsUnknown {
		return nil, fmt.Errorf("%w: contributors is %d", ErrInvariant, rec.Contributors)
	}
	if rec.OpenIssues > rec.TotalIssues {
		return nil, fmt.Errorf("%w: %d open issues exceed total %d", ErrInvariant, rec.OpenIssues, rec.TotalIssues)
	}
	if rec.OpenPullRequests > rec.TotalPullRequests {
		return nil, fmt.Errorf("%w: %d open pull requests exceed total %d", ErrInvariant, rec.OpenPullRequests, rec.TotalPullRequests)
	}
	if (rec.LastCommit == nil) != (rec.LastCommitSHA == "") {
		return nil, fmt.Errorf("%w: last commit time and hash must be set together", ErrInvariant)
	}
	return rec, nil
}

// DedupMiddleware drops records for a repository that was already seen,
// comparing locators without scheme case, trailing slash or ".git" suffix.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *types.RepositoryMetrics) (*types.RepositoryMetrics, error) {
	key := repositoryKey(rec.Repository)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[key]; exists {
		return nil, nil
	}
	m.seen[key] = struct{}{}
	return rec, nil
}

func repositoryKey(locator string) string {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return locator
	}
	path := strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	return strings.ToLower(u.Host) + strings.ToLower(path)
}
