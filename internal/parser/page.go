package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Query is a named structural query. Name identifies the extraction step in
// errors (e.g. "overview.commits"); Selector is a CSS selector or, for the
// XPath helpers, an XPath expression.
type Query struct {
	Name     string
	Selector string
}

// Page is a parsed document that answers named structural queries and turns
// every miss into a *types.StructuralError.
type Page struct {
	URL string
	doc *goquery.Document
}

// NewPage parses a fetched response.
func NewPage(resp *types.Response) (*Page, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.StructuralError{
			URL:   resp.Request.URLString(),
			Query: "document",
			Err:   fmt.Errorf("%w: %v", types.ErrUnexpectedShape, err),
		}
	}
	return &Page{URL: resp.Request.URLString(), doc: doc}, nil
}

// NewPageFromDocument wraps an already parsed document.
func NewPageFromDocument(url string, doc *goquery.Document) *Page {
	return &Page{URL: url, doc: doc}
}

// Document returns the underlying goquery document.
func (p *Page) Document() *goquery.Document { return p.doc }

// Find returns the first element in the document matching q.
func (p *Page) Find(q Query) (*goquery.Selection, error) {
	return p.FindIn(p.doc.Selection, q)
}

// FindIn returns the first element under scope matching q.
func (p *Page) FindIn(scope *goquery.Selection, q Query) (*goquery.Selection, error) {
	sel := scope.Find(q.Selector)
	if sel.Length() == 0 {
		return nil, p.Errorf(q, types.ErrElementNotFound, "no match")
	}
	return sel.First(), nil
}

// FindAllIn returns every element under scope matching q, failing unless
// exactly want elements match.
func (p *Page) FindAllIn(scope *goquery.Selection, q Query, want int) (*goquery.Selection, error) {
	sel := scope.Find(q.Selector)
	if sel.Length() == 0 {
		return nil, p.Errorf(q, types.ErrElementNotFound, "no match")
	}
	if sel.Length() != want {
		return nil, p.Errorf(q, types.ErrUnexpectedShape, "expected %d matches, got %d", want, sel.Length())
	}
	return sel, nil
}

// Attr reads a non-empty attribute from sel.
func (p *Page) Attr(sel *goquery.Selection, q Query, attr string) (string, error) {
	val, ok := sel.Attr(attr)
	if !ok {
		return "", p.Errorf(q, types.ErrElementNotFound, "attribute %q missing", attr)
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", p.Errorf(q, types.ErrUnexpectedShape, "attribute %q is empty", attr)
	}
	return val, nil
}

// Text returns the trimmed text content of sel, failing if it is empty.
func (p *Page) Text(sel *goquery.Selection, q Query) (string, error) {
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return "", p.Errorf(q, types.ErrUnexpectedShape, "empty text")
	}
	return text, nil
}

// XPathAttr evaluates an XPath expression against the same tree and reads an
// attribute from the first matching node.
func (p *Page) XPathAttr(q Query, attr string) (string, error) {
	node, err := p.xpathFirst(q)
	if err != nil {
		return "", err
	}
	val := strings.TrimSpace(htmlquery.SelectAttr(node, attr))
	if val == "" {
		return "", p.Errorf(q, types.ErrElementNotFound, "attribute %q missing", attr)
	}
	return val, nil
}

// XPathText evaluates an XPath expression and returns the first match's inner text.
func (p *Page) XPathText(q Query) (string, error) {
	node, err := p.xpathFirst(q)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(htmlquery.InnerText(node))
	if text == "" {
		return "", p.Errorf(q, types.ErrUnexpectedShape, "empty text")
	}
	return text, nil
}

func (p *Page) xpathFirst(q Query) (*html.Node, error) {
	if len(p.doc.Nodes) == 0 {
		return nil, p.Errorf(q, types.ErrUnexpectedShape, "empty document")
	}
	node, err := htmlquery.Query(p.doc.Nodes[0], q.Selector)
	if err != nil {
		return nil, p.Errorf(q, types.ErrUnexpectedShape, "invalid xpath: %v", err)
	}
	if node == nil {
		return nil, p.Errorf(q, types.ErrElementNotFound, "no match")
	}
	return node, nil
}

// Errorf builds a StructuralError for q wrapping sentinel.
func (p *Page) Errorf(q Query, sentinel error, format string, args ...any) error {
	return &types.StructuralError{
		URL:      p.URL,
		Query:    q.Name,
		Selector: q.Selector,
		Err:      fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}

// OwnText concatenates the text nodes directly under sel, skipping child
// elements such as icons.
func OwnText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
				b.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ChildNodeCount counts every child node of the first element in sel,
// including text and comment nodes.
func ChildNodeCount(sel *goquery.Selection) int {
	if sel.Length() == 0 {
		return 0
	}
	count := 0
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}
