package miner

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/RepoMiner/internal/parser"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testSHA = "0123456789abcdef0123456789abcdef01234567"

const contributorsFull = `<a href="/org/repo/graphs/contributors"><svg class="octicon octicon-organization"></svg> <span class="num text-emphasized">12</span> contributors</a>`

const contributorsTruncated = `<a href="/org/repo/graphs/contributors"><svg class="octicon octicon-organization"></svg> Fetching contributors</a>`

// landingHTML renders a landing page with the given contributors entry.
func landingHTML(contributors string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="pagehead repohead">
  <ul class="pagehead-actions flex-shrink-0">
    <li>
      <a class="btn btn-sm btn-with-count" href="/org/repo/subscription"><svg></svg> Watch</a>
      <a class="social-count" href="/org/repo/watchers" aria-label="42 users are watching this repository">42</a>
    </li>
    <li>
      <a class="btn btn-sm btn-with-count" href="/login?return_to=%%2Forg%%2Frepo"><svg></svg> Star</a>
      <a class="social-count js-social-count" href="/org/repo/stargazers" aria-label="7,000 people starred this repository">7k</a>
    </li>
    <li>
      <a class="social-count" href="/org/repo/network/members" aria-label="300 users forked this repository">300</a>
    </li>
  </ul>
</div>
<div class="overall-summary">
  <ul class="numbers-summary">
    <li class="commits"><a href="/org/repo/commits/master"><svg class="octicon octicon-history"></svg> <span class="num text-emphasized">500</span> commits</a></li>
    <li><a href="/org/repo/branches"><svg class="octicon octicon-git-branch"></svg> <span class="num text-emphasized">3</span> branches</a></li>
    <li><a href="/org/repo/packages"><svg class="octicon octicon-package"></svg> <span class="num text-emphasized">0</span> packages</a></li>
    <li><a href="/org/repo/releases"><svg class="octicon octicon-tag"></svg> <span class="num text-emphasized">10</span> releases</a></li>
    <li>%s</li>
  </ul>
</div>
</body></html>`, contributors)
}

// statesHTML renders an issues or pulls listing toggle.
func statesHTML(open, closed string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="table-list-header-toggle states flex-auto pl-0">
  <a href="?q=is%%3Aopen" class="btn-link selected"><svg class="octicon octicon-issue-opened"></svg> %s Open </a>
  <a href="?q=is%%3Aclosed" class="btn-link"><svg class="octicon octicon-check"></svg> %s Closed </a>
</div>
</body></html>`, open, closed)
}

func commitsHTML(href string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<ol class="commit-group">
  <li class="commit">
    <a class="sha btn btn-outline BtnGroup-item" href="%s">0123456</a>
  </li>
  <li class="commit">
    <a class="sha btn btn-outline BtnGroup-item" href="/org/repo/commit/fedcba9876543210fedcba9876543210fedcba98">fedcba9</a>
  </li>
</ol>
</body></html>`, href)
}

func commitDetailHTML(datetime, sha string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="commit-meta">
  committed <relative-time datetime="%s" class="no-wrap">Jan 1, 2023</relative-time>
  <span class="sha-block">commit <span class="sha user-select-contain">%s</span></span>
</div>
</body></html>`, datetime, sha)
}

func pageFromHTML(t *testing.T, body string) *parser.Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return parser.NewPageFromDocument("https://example.com/org/repo", doc)
}
