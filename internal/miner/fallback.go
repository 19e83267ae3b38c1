package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/RepoMiner/internal/fetcher"
	"github.com/IshaanNene/RepoMiner/internal/parser"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// FallbackStatus tells how a contributor fallback ended.
type FallbackStatus int

const (
	// FallbackCounted means the rendered page yielded a count.
	FallbackCounted FallbackStatus = iota
	// FallbackUnreachable means the browser could not be started or could not reach the host.
	FallbackUnreachable
	// FallbackDisabled means no browser is configured.
	FallbackDisabled
)

func (s FallbackStatus) String() string {
	switch s {
	case FallbackCounted:
		return "counted"
	case FallbackUnreachable:
		return "unreachable"
	case FallbackDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// FallbackResult is the outcome of a contributor fallback that did not fail fatally.
type FallbackResult struct {
	Status FallbackStatus
	Count  int64
}

// Contributors maps the result to the record value: the count, or
// types.ContributorsUnknown when nothing was counted.
func (r FallbackResult) Contributors() int64 {
	if r.Status == FallbackCounted {
		return r.Count
	}
	return types.ContributorsUnknown
}

// Source maps the result to one of the types.ContributorsFrom* values.
func (r FallbackResult) Source() string {
	if r.Status == FallbackCounted {
		return types.ContributorsFromBrowser
	}
	return types.ContributorsFromUnavailable
}

// ContributorCounter obtains the contributor count from a rendered landing page.
type ContributorCounter interface {
	CountContributors(ctx context.Context, repoURL string) (FallbackResult, error)
}

// BrowserFallback counts contributors by rendering the landing page in a
// headless browser and waiting for the count element to appear.
type BrowserFallback struct {
	browser  fetcher.Browser
	selector string
	wait     time.Duration
	logger   *slog.Logger
}

// NewBrowserFallback creates a fallback that reads selector after at most wait.
func NewBrowserFallback(browser fetcher.Browser, selector string, wait time.Duration, logger *slog.Logger) *BrowserFallback {
	return &BrowserFallback{
		browser:  browser,
		selector: selector,
		wait:     wait,
		logger:   logger.With("component", "contributor_fallback"),
	}
}

// CountContributors opens one browser session, reads the count and closes the
// session. An unreachable browser is reported as FallbackUnreachable with a
// nil error; every other failure is returned.
func (f *BrowserFallback) CountContributors(ctx context.Context, repoURL string) (FallbackResult, error) {
	session, err := f.browser.Open(ctx)
	if err != nil {
		if errors.Is(err, fetcher.ErrBrowserUnreachable) {
			f.logger.Warn("browser unreachable, contributor count unknown", "url", repoURL, "error", err)
			return FallbackResult{Status: FallbackUnreachable}, nil
		}
		return FallbackResult{}, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			f.logger.Debug("browser session close failed", "error", cerr)
		}
	}()

	if err := session.Navigate(repoURL); err != nil {
		if errors.Is(err, fetcher.ErrBrowserUnreachable) {
			f.logger.Warn("browser could not reach host, contributor count unknown", "url", repoURL, "error", err)
			return FallbackResult{Status: FallbackUnreachable}, nil
		}
		return FallbackResult{}, fmt.Errorf("navigate %s: %w", repoURL, err)
	}

	text, err := session.WaitVisibleText(f.selector, f.wait)
	if err != nil {
		return FallbackResult{}, &types.StructuralError{
			URL:      repoURL,
			Query:    "fallback.contributors",
			Selector: f.selector,
			Err:      fmt.Errorf("%w: %w", types.ErrElementNotFound, err),
		}
	}

	n, err := parser.ParseCount(text)
	if err != nil {
		return FallbackResult{}, &types.StructuralError{
			URL:      repoURL,
			Query:    "fallback.contributors",
			Selector: f.selector,
			Err:      fmt.Errorf("%w: %w", types.ErrUnexpectedShape, err),
		}
	}

	f.logger.Debug("contributors counted in browser", "url", repoURL, "count", n)
	return FallbackResult{Status: FallbackCounted, Count: n}, nil
}

// disabledFallback is used when no browser is configured.
type disabledFallback struct{}

func (disabledFallback) CountContributors(context.Context, string) (FallbackResult, error) {
	return FallbackResult{Status: FallbackDisabled}, nil
}
