package miner

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/parser"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// LandingCounts is what the landing page markup yields without the browser.
type LandingCounts struct {
	Commits  int64
	Branches int64
	Releases int64
	Watchers int64
	Stars    int64

	// Contributors is only set when ContributorsTruncated is false.
	Contributors          int64
	ContributorsTruncated bool
}

// ExtractLanding reads the summary counts and the page action counts from the
// repository landing page. The contributor entry is inspected first: when the
// host renders a placeholder instead of a number, ContributorsTruncated is set
// and Contributors is left at zero.
func ExtractLanding(page *parser.Page, s *config.SelectorConfig) (LandingCounts, error) {
	var c LandingCounts

	summary, err := page.Find(parser.Query{Name: "overview.summary", Selector: s.Summary})
	if err != nil {
		return c, err
	}

	if c.Commits, err = summaryCount(page, summary, parser.Query{Name: "overview.commits", Selector: s.SummaryCommits}, s.SummaryCount); err != nil {
		return c, err
	}
	if c.Branches, err = summaryCount(page, summary, parser.Query{Name: "overview.branches", Selector: s.SummaryBranches}, s.SummaryCount); err != nil {
		return c, err
	}
	if c.Releases, err = summaryCount(page, summary, parser.Query{Name: "overview.releases", Selector: s.SummaryReleases}, s.SummaryCount); err != nil {
		return c, err
	}

	contribQ := parser.Query{Name: "overview.contributors", Selector: s.SummaryContributors}
	contrib, err := page.FindIn(summary, contribQ)
	if err != nil {
		return c, err
	}
	if parser.ChildNodeCount(contrib) < s.ContributorsMinNodes {
		c.ContributorsTruncated = true
	} else if c.Contributors, err = countIn(page, contrib, contribQ, s.SummaryCount); err != nil {
		return c, err
	}

	actions, err := page.Find(parser.Query{Name: "overview.page_actions", Selector: s.PageActions})
	if err != nil {
		return c, err
	}
	if c.Watchers, err = socialCount(page, actions, parser.Query{Name: "overview.watchers", Selector: s.Watchers}, s.SocialCountAttr); err != nil {
		return c, err
	}
	if c.Stars, err = socialCount(page, actions, parser.Query{Name: "overview.stars", Selector: s.Stars}, s.SocialCountAttr); err != nil {
		return c, err
	}

	return c, nil
}

// summaryCount finds a summary link and reads the number it carries.
func summaryCount(page *parser.Page, summary *goquery.Selection, q parser.Query, countSelector string) (int64, error) {
	link, err := page.FindIn(summary, q)
	if err != nil {
		return 0, err
	}
	return countIn(page, link, q, countSelector)
}

func countIn(page *parser.Page, link *goquery.Selection, q parser.Query, countSelector string) (int64, error) {
	numQ := parser.Query{Name: q.Name + ".count", Selector: countSelector}
	num, err := page.FindIn(link, numQ)
	if err != nil {
		return 0, err
	}
	text, err := page.Text(num, numQ)
	if err != nil {
		return 0, err
	}
	n, err := parser.ParseCount(text)
	if err != nil {
		return 0, page.Errorf(numQ, types.ErrUnexpectedShape, "%v", err)
	}
	return n, nil
}

// socialCount reads the leading number of an aria-label such as
// "7,000 users starred this repository".
func socialCount(page *parser.Page, actions *goquery.Selection, q parser.Query, attr string) (int64, error) {
	link, err := page.FindIn(actions, q)
	if err != nil {
		return 0, err
	}
	label, err := page.Attr(link, q, attr)
	if err != nil {
		return 0, err
	}
	n, err := parser.ParseCount(parser.LeadingToken(label))
	if err != nil {
		return 0, page.Errorf(q, types.ErrUnexpectedShape, "%v", err)
	}
	return n, nil
}
