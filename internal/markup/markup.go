// Package markup cleans rich-text fragments scraped from publisher pages.
package markup

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrEmptyFragment is returned when a fragment has no content to clean.
var ErrEmptyFragment = errors.New("empty fragment")

const footnoteSymbols = "†‡§¶*#⁎"

// Cleaner removes trailing footnote anchors from fragments and unwraps inline
// styling elements matched by Unwrap.
type Cleaner struct {
	Unwrap []string
}

// NewCleaner creates a Cleaner that unwraps elements matching the selectors.
func NewCleaner(unwrap ...string) Cleaner {
	return Cleaner{Unwrap: unwrap}
}

// DefaultCleaner returns the cleaner used for RSC titles.
func DefaultCleaner() Cleaner {
	return NewCleaner("span.small_caps")
}

// Clean mutates every node of sel in place and returns sel.
func (c Cleaner) Clean(sel *goquery.Selection) *goquery.Selection {
	for _, node := range sel.Nodes {
		TrimTrailingAnchors(node)
	}

	for _, selector := range c.Unwrap {
		sel.Find(selector).Each(func(_ int, match *goquery.Selection) {
			for _, node := range match.Nodes {
				unwrapNode(node)
			}
		})
	}

	return sel
}

// CleanHTML parses fragment, cleans it, and renders it back to markup.
func (c Cleaner) CleanHTML(fragment string) (string, error) {
	body, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	c.Clean(body)

	return body.Html()
}

// TrimTrailingAnchors removes footnote anchors that end the visible content
// of root and reports how many were removed.
//
// Only the last child of root that carries visible text is considered. A
// footnote anchor there is removed and the check repeats; other elements are
// descended into. Link targets are ignored.
func TrimTrailingAnchors(root *html.Node) int {
	removed := 0
	for {
		last := lastVisibleChild(root)
		if last == nil {
			return removed
		}

		if isFootnoteAnchor(last) {
			root.RemoveChild(last)
			removed++

			continue
		}

		if last.Type != html.ElementNode {
			return removed
		}

		nested := TrimTrailingAnchors(last)
		if nested == 0 {
			return removed
		}

		removed += nested
	}
}

func lastVisibleChild(node *html.Node) *html.Node {
	for child := node.LastChild; child != nil; child = child.PrevSibling {
		if hasVisibleText(child) {
			return child
		}
	}

	return nil
}

func hasVisibleText(node *html.Node) bool {
	switch node.Type {
	case html.TextNode:
		return strings.TrimSpace(node.Data) != ""
	case html.ElementNode:
		if node.DataAtom == atom.Script || node.DataAtom == atom.Style {
			return false
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if hasVisibleText(child) {
				return true
			}
		}
	}

	return false
}

func isFootnoteAnchor(node *html.Node) bool {
	if node.Type != html.ElementNode || node.DataAtom != atom.A {
		return false
	}

	return isFootnoteMarker(nodeText(node))
}

// isFootnoteMarker accepts 1-4 footnote symbols or 1-2 letters and digits.
func isFootnoteMarker(text string) bool {
	marker := strings.TrimSpace(text)
	count := utf8.RuneCountInString(marker)
	if count == 0 {
		return false
	}

	if count <= 4 && strings.Trim(marker, footnoteSymbols) == "" {
		return true
	}

	if count > 2 {
		return false
	}

	for _, r := range marker {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

func unwrapNode(node *html.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}

	for child := node.FirstChild; child != nil; child = node.FirstChild {
		node.RemoveChild(child)
		parent.InsertBefore(child, node)
	}

	parent.RemoveChild(node)
}

func nodeText(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}

	var builder strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		builder.WriteString(nodeText(child))
	}

	return builder.String()
}

func parseFragment(fragment string) (*goquery.Selection, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, ErrEmptyFragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	body := doc.Find("body").First()
	if body.Contents().Length() == 0 {
		return nil, ErrEmptyFragment
	}

	return body, nil
}
