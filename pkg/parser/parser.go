package parser

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ErrEmptyDocument is returned when the markup has no element content to search.
var ErrEmptyDocument = errors.New("document has no content")

// Page is parsed markup ready for field extraction.
type Page struct {
	URL   string
	Title string
	Doc   *goquery.Document
	// Text is the visible text of the page, one normalized line per block.
	Text string
}

type Parser struct{}

// Parse builds a Page from raw markup. rawURL is only used to resolve the
// title through go-readability and may be empty.
func (p *Parser) Parse(rawURL, markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// html.Parse always synthesizes <html><head><body>; an empty body and head
	// means there is nothing any scope could search.
	if doc.Find("body *, head *").Length() == 0 && strings.TrimSpace(doc.Text()) == "" {
		return nil, ErrEmptyDocument
	}

	page := &Page{
		URL:  rawURL,
		Doc:  doc,
		Text: VisibleText(doc.Selection),
	}
	page.Title = title(rawURL, markup, doc)

	return page, nil
}

// Parse is a convenience wrapper around a zero Parser.
func Parse(rawURL, markup string) (*Page, error) {
	return (&Parser{}).Parse(rawURL, markup)
}

func title(rawURL, markup string, doc *goquery.Document) string {
	if parsedURL, err := url.Parse(rawURL); err == nil && rawURL != "" {
		rp := readability.NewParser()
		article, err := rp.Parse(strings.NewReader(markup), parsedURL)
		if err == nil {
			if t := normalizeText(article.Title); t != "" {
				return t
			}
		}
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := normalizeText(og); t != "" {
			return t
		}
	}
	return normalizeText(doc.Find("title").First().Text())
}

// skipped elements never contribute visible text.
var skipped = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"head":     {},
}

// blocks end a line of visible text.
var blocks = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {},
	"dd": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {}, "figcaption": {},
	"figure": {}, "footer": {}, "form": {}, "h1": {}, "h2": {}, "h3": {},
	"h4": {}, "h5": {}, "h6": {}, "header": {}, "hr": {}, "li": {},
	"main": {}, "nav": {}, "ol": {}, "p": {}, "pre": {}, "section": {},
	"table": {}, "tbody": {}, "td": {}, "th": {}, "thead": {}, "tr": {}, "ul": {},
}

// VisibleText renders the text a reader would see in sel, without scripts or
// styles, one normalized line per block element.
func VisibleText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeText(&sb, n)
	}
	return normalizeLines(sb.String())
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(collapseSpace(n.Data))
		return
	case html.ElementNode:
		if _, ok := skipped[n.Data]; ok {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	_, block := blocks[n.Data]
	if block && n.Type == html.ElementNode {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block && n.Type == html.ElementNode {
		sb.WriteByte('\n')
	}
}

// collapseSpace folds whitespace runs inside a text node, newlines included,
// into one space and keeps a single space at either edge.
func collapseSpace(s string) string {
	inner := normalizeText(s)
	if inner == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	if strings.TrimLeftFunc(s, unicode.IsSpace) != s {
		inner = " " + inner
	}
	if strings.TrimRightFunc(s, unicode.IsSpace) != s {
		inner += " "
	}
	return inner
}

// normalizeLines trims every line, collapses inner whitespace and drops
// empty lines.
func normalizeLines(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), len(input)+1)
	for scanner.Scan() {
		line := normalizeText(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// normalizeText cleans up a string by collapsing all whitespace runs.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
