package miner

import (
	"regexp"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/parser"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)

// ExtractCommitLink returns the href of the first commit SHA button on the
// commits listing. The listing only shows abbreviated hashes, so the link is
// followed to the commit detail page.
func ExtractCommitLink(page *parser.Page, s *config.SelectorConfig) (string, error) {
	q := parser.Query{Name: "commits.sha_button", Selector: s.CommitSHAButton}
	button, err := page.Find(q)
	if err != nil {
		return "", err
	}
	return page.Attr(button, q, "href")
}

// ExtractCommitDetail reads the commit timestamp and full hash from a commit detail page.
func ExtractCommitDetail(page *parser.Page, s *config.SelectorConfig) (types.LastCommit, error) {
	var c types.LastCommit

	timeQ := parser.Query{Name: "commit.time", Selector: s.CommitTimeXPath}
	raw, err := page.XPathAttr(timeQ, s.CommitTimeAttr)
	if err != nil {
		return c, err
	}
	if c.When, err = parser.ParseGitDate(raw); err != nil {
		return c, page.Errorf(timeQ, types.ErrUnexpectedShape, "%v", err)
	}

	shaQ := parser.Query{Name: "commit.sha", Selector: s.CommitFullSHA}
	shaSel, err := page.Find(shaQ)
	if err != nil {
		return c, err
	}
	sha, err := page.Text(shaSel, shaQ)
	if err != nil {
		return c, err
	}
	if !shaPattern.MatchString(sha) {
		return c, page.Errorf(shaQ, types.ErrUnexpectedShape, "not a commit hash: %q", sha)
	}
	c.SHA = sha

	return c, nil
}
