package types

import (
	"strconv"
	"time"
)

// ContributorsUnknown is stored in RepositoryMetrics.Contributors when the
// browser fallback could not reach the host.
const ContributorsUnknown int64 = -1

// Where the contributor count came from.
const (
	ContributorsFromPage        = "page"
	ContributorsFromBrowser     = "browser"
	ContributorsFromUnavailable = "unavailable"
)

// RepositoryMetrics is the record produced by one mining run.
type RepositoryMetrics struct {
	// Repository is the locator of the repository's base page. Set once.
	Repository string `json:"repository" bson:"repository"`

	Commits  int64 `json:"commits"  bson:"commits"`
	Branches int64 `json:"branches" bson:"branches"`
	Releases int64 `json:"releases" bson:"releases"`

	// Contributors is ContributorsUnknown (-1) when the fallback could not run.
	Contributors       int64  `json:"contributors"                  bson:"contributors"`
	ContributorsSource string `json:"contributors_source,omitempty" bson:"contributors_source,omitempty"`

	Watchers int64 `json:"watchers" bson:"watchers"`
	Stars    int64 `json:"stars"    bson:"stars"`

	TotalIssues       int64 `json:"total_issues"        bson:"total_issues"`
	OpenIssues        int64 `json:"open_issues"         bson:"open_issues"`
	TotalPullRequests int64 `json:"total_pull_requests" bson:"total_pull_requests"`
	OpenPullRequests  int64 `json:"open_pull_requests"  bson:"open_pull_requests"`

	// LastCommit is nil and LastCommitSHA empty until the commit stage completes.
	LastCommit    *time.Time `json:"last_commit,omitempty"     bson:"last_commit,omitempty"`
	LastCommitSHA string     `json:"last_commit_sha,omitempty" bson:"last_commit_sha,omitempty"`

	RunID   string    `json:"run_id,omitempty"   bson:"run_id,omitempty"`
	MinedAt time.Time `json:"mined_at,omitempty" bson:"mined_at,omitempty"`
}

// NewRepositoryMetrics creates an empty record for a repository locator.
func NewRepositoryMetrics(repository string) *RepositoryMetrics {
	return &RepositoryMetrics{Repository: repository}
}

// Overview is the slice of metrics read from the landing page.
type Overview struct {
	Commits      int64
	Branches     int64
	Releases     int64
	Contributors int64
	Watchers     int64
	Stars        int64

	// ContributorsSource is one of the ContributorsFrom* constants.
	ContributorsSource string
}

// StateCounts holds the open/closed counts of an issues or pulls listing.
type StateCounts struct {
	Open   int64
	Closed int64
}

// Total returns open + closed.
func (s StateCounts) Total() int64 { return s.Open + s.Closed }

// LastCommit identifies the most recent commit on the default branch.
type LastCommit struct {
	When time.Time
	SHA  string
}

// ApplyOverview copies the landing page slice into the record.
func (m *RepositoryMetrics) ApplyOverview(o Overview) {
	m.Commits = o.Commits
	m.Branches = o.Branches
	m.Releases = o.Releases
	m.Contributors = o.Contributors
	m.ContributorsSource = o.ContributorsSource
	m.Watchers = o.Watchers
	m.Stars = o.Stars
}

// ApplyIssues copies the issue counts into the record.
func (m *RepositoryMetrics) ApplyIssues(s StateCounts) {
	m.OpenIssues = s.Open
	m.TotalIssues = s.Total()
}

// ApplyPullRequests copies the pull request counts into the record.
func (m *RepositoryMetrics) ApplyPullRequests(s StateCounts) {
	m.OpenPullRequests = s.Open
	m.TotalPullRequests = s.Total()
}

// ApplyLastCommit copies the last commit slice into the record.
func (m *RepositoryMetrics) ApplyLastCommit(c LastCommit) {
	when := c.When
	m.LastCommit = &when
	m.LastCommitSHA = c.SHA
}

// ContributorsKnown reports whether Contributors holds a real count.
func (m *RepositoryMetrics) ContributorsKnown() bool {
	return m.Contributors != ContributorsUnknown
}

// ToFlatMap returns a flat map suitable for CSV export.
func (m *RepositoryMetrics) ToFlatMap() map[string]string {
	itoa := func(n int64) string { return strconv.FormatInt(n, 10) }

	flat := map[string]string{
		"repository":          m.Repository,
		"commits":             itoa(m.Commits),
		"branches":            itoa(m.Branches),
		"releases":            itoa(m.Releases),
		"contributors":        itoa(m.Contributors),
		"contributors_source": m.ContributorsSource,
		"watchers":            itoa(m.Watchers),
		"stars":               itoa(m.Stars),
		"total_issues":        itoa(m.TotalIssues),
		"open_issues":         itoa(m.OpenIssues),
		"total_pull_requests": itoa(m.TotalPullRequests),
		"open_pull_requests":  itoa(m.OpenPullRequests),
		"last_commit":         "",
		"last_commit_sha":     m.LastCommitSHA,
		"run_id":              m.RunID,
		"mined_at":            "",
	}
	if m.LastCommit != nil {
		flat["last_commit"] = m.LastCommit.UTC().Format(time.RFC3339)
	}
	if !m.MinedAt.IsZero() {
		flat["mined_at"] = m.MinedAt.UTC().Format(time.RFC3339)
	}
	return flat
}
