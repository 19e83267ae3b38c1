package miner

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

func TestExtractLanding(t *testing.T) {
	sel := config.DefaultSelectors()
	c, err := ExtractLanding(pageFromHTML(t, landingHTML(contributorsFull)), &sel)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := LandingCounts{Commits: 500, Branches: 3, Releases: 10, Contributors: 12, Watchers: 42, Stars: 7000}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestExtractLandingTruncated(t *testing.T) {
	sel := config.DefaultSelectors()
	c, err := ExtractLanding(pageFromHTML(t, landingHTML(contributorsTruncated)), &sel)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !c.ContributorsTruncated {
		t.Error("expected contributors to be reported as truncated")
	}
	if c.Contributors != 0 || c.Commits != 500 || c.Stars != 7000 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestExtractLandingStructuralErrors(t *testing.T) {
	sel := config.DefaultSelectors()
	tests := []struct {
		name  string
		html  string
		query string
	}{
		{
			name:  "no summary",
			html:  strings.Replace(landingHTML(contributorsFull), "numbers-summary", "numbers", 1),
			query: "overview.summary",
		},
		{
			name:  "no releases link",
			html:  strings.Replace(landingHTML(contributorsFull), "/org/repo/releases", "/org/repo/tags", 1),
			query: "overview.releases",
		},
		{
			name:  "non-numeric commits",
			html:  strings.Replace(landingHTML(contributorsFull), ">500<", ">lots<", 1),
			query: "overview.commits.count",
		},
		{
			name:  "no page actions",
			html:  strings.Replace(landingHTML(contributorsFull), "pagehead-actions", "actions", 1),
			query: "overview.page_actions",
		},
		{
			name:  "stars label without number",
			html:  strings.Replace(landingHTML(contributorsFull), "7,000 people starred", "Starred by people", 1),
			query: "overview.stars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractLanding(pageFromHTML(t, tt.html), &sel)
			var se *types.StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("expected StructuralError, got %v", err)
			}
			if se.Query != tt.query {
				t.Errorf("expected query %q, got %q", tt.query, se.Query)
			}
		})
	}
}

func TestExtractStates(t *testing.T) {
	sel := config.DefaultSelectors()
	tests := []struct {
		open, closed string
		want         types.StateCounts
	}{
		{"5", "15", types.StateCounts{Open: 5, Closed: 15}},
		{"0", "0", types.StateCounts{}},
		{"1,205", "34,567", types.StateCounts{Open: 1205, Closed: 34567}},
	}
	for _, tt := range tests {
		got, err := ExtractStates(pageFromHTML(t, statesHTML(tt.open, tt.closed)), &sel, "issues")
		if err != nil {
			t.Errorf("%s/%s: %v", tt.open, tt.closed, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s/%s: got %+v, want %+v", tt.open, tt.closed, got, tt.want)
		}
		if got.Total() != tt.want.Open+tt.want.Closed {
			t.Errorf("total %d does not add up", got.Total())
		}
	}
}

func TestExtractStatesShape(t *testing.T) {
	sel := config.DefaultSelectors()

	swapped := strings.NewReplacer(" Open ", " Closed ", " Closed ", " Open ").Replace(statesHTML("5", "15"))
	if _, err := ExtractStates(pageFromHTML(t, swapped), &sel, "pulls"); !errors.Is(err, types.ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape for swapped labels, got %v", err)
	}

	single := `<div class="table-list-header-toggle states"><a class="btn-link">5 Open</a></div>`
	if _, err := ExtractStates(pageFromHTML(t, single), &sel, "pulls"); !errors.Is(err, types.ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape for one link, got %v", err)
	}

	if _, err := ExtractStates(pageFromHTML(t, "<html><body></body></html>"), &sel, "pulls"); !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound without toggle, got %v", err)
	}
}

func TestExtractCommit(t *testing.T) {
	sel := config.DefaultSelectors()

	href, err := ExtractCommitLink(pageFromHTML(t, commitsHTML("/org/repo/commit/"+testSHA)), &sel)
	if err != nil {
		t.Fatalf("commit link: %v", err)
	}
	if href != "/org/repo/commit/"+testSHA {
		t.Errorf("expected first commit link, got %q", href)
	}

	c, err := ExtractCommitDetail(pageFromHTML(t, commitDetailHTML("2023-01-01T00:00:00Z", testSHA)), &sel)
	if err != nil {
		t.Fatalf("commit detail: %v", err)
	}
	if !c.When.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %s", c.When)
	}
	if c.SHA != testSHA {
		t.Errorf("unexpected sha %q", c.SHA)
	}
}

func TestExtractCommitDetailErrors(t *testing.T) {
	sel := config.DefaultSelectors()

	if _, err := ExtractCommitDetail(pageFromHTML(t, commitDetailHTML("yesterday", testSHA)), &sel); !errors.Is(err, types.ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape for bad date, got %v", err)
	}
	if _, err := ExtractCommitDetail(pageFromHTML(t, commitDetailHTML("2023-01-01T00:00:00Z", "not-a-sha")), &sel); !errors.Is(err, types.ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape for bad sha, got %v", err)
	}
	if _, err := ExtractCommitLink(pageFromHTML(t, "<html><body><ol></ol></body></html>"), &sel); !types.IsStructuralError(err) {
		t.Errorf("expected structural error for empty listing, got %v", err)
	}
}

func TestTargetResolve(t *testing.T) {
	target, err := ParseTarget("https://example.com/org/repo")
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"/org/repo/commit/abc":                     "https://example.com/org/repo/commit/abc",
		"org/repo/commit/abc":                      "https://example.com/org/repo/commit/abc",
		"https://mirror.example.org/org/repo/c/1": "https://mirror.example.org/org/repo/c/1",
	}
	for href, want := range tests {
		got, err := target.Resolve(href)
		if err != nil || got != want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", href, got, err, want)
		}
	}

	if got := target.PageURL("/issues"); got != "https://example.com/org/repo/issues" {
		t.Errorf("PageURL = %q", got)
	}

	if _, err := ParseTarget("example.com/org/repo"); !errors.Is(err, types.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}
