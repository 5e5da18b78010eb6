// Package extract turns the carrier's loosely structured tracking page into a
// structured shipment record. The page has no stable schema, so every field is
// resolved through an ordered cascade of heuristics that degrades to sentinel
// values instead of failing.
package extract

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// Document is a normalized tracking page: script/style subtrees removed and a
// plain-text rendering kept around as the last-resort extraction substrate.
type Document struct {
	doc *goquery.Document

	// Text is the tree's text content with tags stripped, line-broken per
	// block element.
	Text string
}

// Normalize parses raw HTML and strips non-content nodes (script, style) so
// embedded code can never be mistaken for shipment data. It fails only when
// the input cannot be parsed as markup at all.
func Normalize(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	doc.Find("script, style").Remove()

	var buf bytes.Buffer
	for _, n := range doc.Selection.Nodes {
		renderText(n, &buf)
	}

	return &Document{doc: doc, Text: buf.String()}, nil
}

var blockTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "body": {},
	"div": {}, "dl": {}, "dt": {}, "dd": {}, "fieldset": {}, "figure": {},
	"footer": {}, "form": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {},
	"h6": {}, "header": {}, "hr": {}, "li": {}, "main": {}, "nav": {}, "ol": {},
	"p": {}, "section": {}, "table": {}, "tbody": {}, "td": {}, "tfoot": {},
	"th": {}, "thead": {}, "tr": {}, "ul": {},
}

func renderText(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		buf.WriteByte('\n')
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderText(child, buf)
	}
	if n.Type == html.ElementNode {
		if _, ok := blockTags[n.Data]; ok {
			buf.WriteByte('\n')
		}
	}
}

// nodeText collects the text content of a single node subtree.
func nodeText(n *html.Node) string {
	var buf bytes.Buffer
	collectText(n, &buf)
	return buf.String()
}

func collectText(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, buf)
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// collapse trims a string and folds internal whitespace runs (including
// newlines) into single spaces.
func collapse(s string) string {
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
