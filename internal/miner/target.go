package miner

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Target is a repository locator plus the host origin derived from it.
type Target struct {
	locator string
	origin  *url.URL
}

// ParseTarget validates a repository locator such as https://github.com/org/repo.
func ParseTarget(locator string) (*Target, error) {
	if err := config.ValidateURL(locator); err != nil {
		return nil, fmt.Errorf("%w %q: %v", types.ErrInvalidURL, locator, err)
	}
	u, _ := url.Parse(locator)
	return &Target{
		locator: locator,
		origin:  &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
	}, nil
}

// String returns the locator as given.
func (t *Target) String() string { return t.locator }

// PageURL appends a path suffix such as "/issues" to the locator.
func (t *Target) PageURL(suffix string) string {
	return strings.TrimSuffix(t.locator, "/") + suffix
}

// Resolve resolves a link found on one of the repository's pages against the host origin.
func (t *Target) Resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", types.ErrInvalidURL, href, err)
	}
	return t.origin.ResolveReference(ref).String(), nil
}
