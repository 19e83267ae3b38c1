package miner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/RepoMiner/internal/config"
	"github.com/IshaanNene/RepoMiner/internal/parser"
	"github.com/IshaanNene/RepoMiner/internal/types"
)

// ExtractStates reads the open/closed toggle of an issues or pulls listing.
// name prefixes the query names in errors ("issues", "pulls").
func ExtractStates(page *parser.Page, s *config.SelectorConfig, name string) (types.StateCounts, error) {
	var counts types.StateCounts

	toggle, err := page.Find(parser.Query{Name: name + ".toggle", Selector: s.StateToggle})
	if err != nil {
		return counts, err
	}

	linksQ := parser.Query{Name: name + ".states", Selector: s.StateLink}
	links, err := page.FindAllIn(toggle, linksQ, 2)
	if err != nil {
		return counts, err
	}

	if counts.Open, err = stateCount(page, links.Eq(0), parser.Query{Name: name + ".open", Selector: s.StateLink}, "open"); err != nil {
		return counts, err
	}
	if counts.Closed, err = stateCount(page, links.Eq(1), parser.Query{Name: name + ".closed", Selector: s.StateLink}, "closed"); err != nil {
		return counts, err
	}
	return counts, nil
}

// stateCount parses link text of the form "1,205 Open".
func stateCount(page *parser.Page, link *goquery.Selection, q parser.Query, label string) (int64, error) {
	text := parser.OwnText(link)
	if got := parser.TrailingToken(text); !strings.EqualFold(got, label) {
		return 0, page.Errorf(q, types.ErrUnexpectedShape, "expected %q state, got %q", label, text)
	}
	n, err := parser.ParseCount(parser.LeadingToken(text))
	if err != nil {
		return 0, page.Errorf(q, types.ErrUnexpectedShape, "%v", err)
	}
	return n, nil
}
