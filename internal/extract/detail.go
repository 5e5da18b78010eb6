package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dartwatch/dartwatch/internal/models"
)

// Text that looks like leftover page machinery rather than shipment data.
// Sibling-walk matches are rejected on the first three; sanitize and the
// plain-text status scan also reject "analytics".
var (
	siblingNoise  = []string{"window", "function", "script"}
	sanitizeNoise = []string{"window", "function", "script", "analytics"}
)

func hasNoise(s string, tokens []string) bool {
	low := strings.ToLower(s)
	for _, tok := range tokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}

// Detail resolves one labeled field. Strategies run in fixed order, first
// success wins:
//
//  1. table adjacency: a cell whose text contains the label (or an
//     alternative) yields the text of the cell immediately after it,
//  2. text-node sibling walk: a matching text node yields the first
//     non-trivial text among its parent's following element siblings.
//
// Both failing resolves to the "N/A" sentinel, never an error.
func (d *Document) Detail(label string, alternatives ...string) string {
	terms := append([]string{label}, alternatives...)

	if v := d.tableAdjacent(terms); v != "" {
		return v
	}
	if v := d.siblingText(terms); v != "" {
		return v
	}
	return models.ValueNotFound
}

func (d *Document) tableAdjacent(terms []string) string {
	found := ""
	d.doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, collapse(cell.Text()))
		})
		for i, cellText := range texts {
			for _, term := range terms {
				if !containsFold(cellText, term) {
					continue
				}
				if i+1 < len(texts) {
					value := texts[i+1]
					if value != "" && value != models.ValueNotFound {
						found = value
						return false
					}
				}
			}
		}
		return true
	})
	return found
}

func (d *Document) siblingText(terms []string) string {
	for _, term := range terms {
		for _, root := range d.doc.Selection.Nodes {
			if v := siblingTextFromNode(root, term); v != "" {
				return v
			}
		}
	}
	return ""
}

// siblingTextFromNode walks the subtree looking for a text node containing
// term, then scans the element siblings following that node's parent for the
// first meaningful text.
func siblingTextFromNode(n *html.Node, term string) string {
	if n.Type == html.TextNode && containsFold(n.Data, term) {
		parent := n.Parent
		if parent != nil {
			for sib := parent.NextSibling; sib != nil; sib = sib.NextSibling {
				if sib.Type != html.ElementNode {
					continue
				}
				text := collapse(nodeText(sib))
				if len(text) > 1 && !hasNoise(text, siblingNoise) {
					return text
				}
			}
		}
		return ""
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if v := siblingTextFromNode(child, term); v != "" {
			return v
		}
	}
	return ""
}

// sanitize enforces the output invariant on a free-text field: boilerplate
// noise becomes "Information unavailable", emptiness becomes "N/A", anything
// else has its internal whitespace collapsed.
func sanitize(s string) string {
	if s != models.ValueNotFound && hasNoise(s, sanitizeNoise) {
		return models.ValueUnavailable
	}
	v := collapse(s)
	if v == "" {
		return models.ValueNotFound
	}
	return v
}
