// Package scrape extracts requirement rows from mod page HTML.
//
// Mod pages list their prerequisites in two tables, each introduced by a
// heading: "Nexus requirements" for first-party mods and "Off-site
// requirements" for external links. The parser walks the document tree and
// harvests every link inside the table body that follows each heading, so it
// tolerates attribute churn and cosmetic markup changes around the tables.
package scrape

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/graph"
)

// Row is a single requirement harvested from a mod page.
type Row struct {
	// Kind says which table the row came from.
	Kind graph.Kind
	// ModID is the linked mod for first-party rows, zero otherwise.
	ModID int
	// URL is the link target as written on the page.
	URL string
	// Label is the link text with surrounding whitespace collapsed.
	Label string
}

// Parser extracts requirement rows for one game's mod pages.
// It holds no per-page state; Parse may be called concurrently.
type Parser struct {
	game    string
	modLink *regexp.Regexp
	diag    func(msg string)
}

// Option configures a Parser.
type Option func(*Parser)

// WithDiagnostics routes notes about dropped rows to sink.
func WithDiagnostics(sink func(msg string)) Option {
	return func(p *Parser) { p.diag = sink }
}

// NewParser creates a Parser scoped to the given game slug. Mod links are
// recognized by their "/<game>/mods/<id>" path, so links to other games'
// mods fall through to the diagnostic sink instead of the graph.
func NewParser(game string, opts ...Option) (*Parser, error) {
	if err := errors.ValidateGameSlug(game); err != nil {
		return nil, err
	}
	p := &Parser{
		game:    game,
		modLink: regexp.MustCompile(`(?i)/` + regexp.QuoteMeta(game) + `/mods/(\d+)`),
		diag:    func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Headings that introduce requirement tables, compared case-insensitively
// against collapsed heading text.
const (
	nexusHeading   = "nexus requirements"
	offsiteHeading = "off-site requirements"
)

// Parse returns the requirement rows of a mod page in document order.
// Pages without requirement tables yield an empty, non-nil slice. Rows with
// a missing link target or an unparseable mod reference are dropped and
// reported through the diagnostic sink.
func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse mod page")
	}

	rows := []Row{}
	var pending graph.Kind
	havePending := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				switch strings.ToLower(collapseText(n)) {
				case nexusHeading:
					pending, havePending = graph.KindNexus, true
				case offsiteHeading:
					pending, havePending = graph.KindOffsite, true
				default:
					havePending = false
				}
				return
			case "tbody":
				if havePending {
					rows = append(rows, p.harvest(pending, n)...)
					havePending = false
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return rows, nil
}

// harvest collects every link inside a requirement table body.
func (p *Parser) harvest(kind graph.Kind, tbody *html.Node) []Row {
	var rows []Row

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if row, ok := p.row(kind, n); ok {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(tbody)

	return rows
}

// row converts an anchor element into a Row, reporting drops through diag.
func (p *Parser) row(kind graph.Kind, a *html.Node) (Row, bool) {
	href := attr(a, "href")
	label := collapseText(a)

	if href == "" {
		p.diag(fmt.Sprintf("dropped %s row %q: missing link target", kind, label))
		return Row{}, false
	}

	row := Row{Kind: kind, URL: href, Label: label}

	switch kind {
	case graph.KindNexus:
		m := p.modLink.FindStringSubmatch(href)
		if m == nil {
			p.diag(fmt.Sprintf("dropped %s row %q: %s is not a %s mod link", kind, label, href, p.game))
			return Row{}, false
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			p.diag(fmt.Sprintf("dropped %s row %q: bad mod id in %s", kind, label, href))
			return Row{}, false
		}
		row.ModID = id
	case graph.KindOffsite:
		if err := errors.ValidateURL(href); err != nil {
			p.diag(fmt.Sprintf("dropped %s row %q: %v", kind, label, err))
			return Row{}, false
		}
	}

	return row, true
}

// collapseText returns the text content of n with runs of whitespace
// squeezed to single spaces.
func collapseText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
