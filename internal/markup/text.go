package markup

import (
	"html"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the visible text of sel: entity-decoded, with runs of
// whitespace collapsed to one space and the ends trimmed.
func Text(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}

	return CleanText(sel.Text())
}

// CleanText normalizes whitespace in already extracted text.
func CleanText(value string) string {
	unescaped := html.UnescapeString(value)
	collapsed := collapseSpaces(unescaped)

	return strings.TrimSpace(collapsed)
}

func collapseSpaces(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	previousSpace := false
	for _, r := range value {
		if unicode.IsSpace(r) {
			if previousSpace {
				continue
			}

			builder.WriteRune(' ')
			previousSpace = true

			continue
		}

		builder.WriteRune(r)
		previousSpace = false
	}

	return builder.String()
}
