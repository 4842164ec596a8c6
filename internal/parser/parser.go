// Package parser turns a publisher search-results page into raw rows.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"pubscrape/internal/markup"
)

// ErrNoResultList is returned when the page lacks the result-list container,
// which usually means a block, captcha or error page was served.
var ErrNoResultList = errors.New("result list not found")

// Layout holds the CSS selectors describing a results page.
// Row selectors are evaluated inside ResultList; field selectors inside Row.
type Layout struct {
	ResultList string `mapstructure:"result_list"`
	Row        string `mapstructure:"row"`
	Title      string `mapstructure:"title"`
	Landing    string `mapstructure:"landing"`
	DOI        string `mapstructure:"doi"`
	DOIAttr    string `mapstructure:"doi_attr"`
	PDF        string `mapstructure:"pdf"`
	HTML       string `mapstructure:"html"`
	Journal    string `mapstructure:"journal"`
}

// RSCLayout returns the selectors for pubs.rsc.org search results.
func RSCLayout() Layout {
	return Layout{
		ResultList: "#tabresults",
		Row:        "div.capsule__column-wrapper",
		Title:      "h3.capsule__title",
		Landing:    "a.capsule__action",
		DOI:        `a[href*="doi.org/"]`,
		DOIAttr:    "data-doi",
		PDF:        `a[href*="/articlepdf/"]`,
		HTML:       `a[href*="/articlehtml/"]`,
		Journal:    ".capsule__context i",
	}
}

// WithDefaults fills empty selectors from RSCLayout.
func (l Layout) WithDefaults() Layout {
	defaults := RSCLayout()
	fill := func(value *string, fallback string) {
		if strings.TrimSpace(*value) == "" {
			*value = fallback
		}
	}

	fill(&l.ResultList, defaults.ResultList)
	fill(&l.Row, defaults.Row)
	fill(&l.Title, defaults.Title)
	fill(&l.Landing, defaults.Landing)
	fill(&l.DOI, defaults.DOI)
	fill(&l.DOIAttr, defaults.DOIAttr)
	fill(&l.PDF, defaults.PDF)
	fill(&l.HTML, defaults.HTML)
	fill(&l.Journal, defaults.Journal)

	return l
}

// Validate compiles every selector and reports the first invalid one.
// ResultList, Row, Title, Landing and Journal are required.
func (l Layout) Validate() error {
	selectors := []struct {
		name     string
		value    string
		required bool
	}{
		{name: "result_list", value: l.ResultList, required: true},
		{name: "row", value: l.Row, required: true},
		{name: "title", value: l.Title, required: true},
		{name: "landing", value: l.Landing, required: true},
		{name: "doi", value: l.DOI},
		{name: "pdf", value: l.PDF},
		{name: "html", value: l.HTML},
		{name: "journal", value: l.Journal, required: true},
	}

	for _, selector := range selectors {
		if strings.TrimSpace(selector.value) == "" {
			if selector.required {
				return fmt.Errorf("layout %s: selector is required", selector.name)
			}

			continue
		}

		if _, err := cascadia.Compile(selector.value); err != nil {
			return fmt.Errorf("layout %s: %w", selector.name, err)
		}
	}

	return nil
}

// Row is one search hit as found on the page. Hrefs are untrimmed and
// unresolved; Title is the live title element, nil when missing.
type Row struct {
	Index       int
	Title       *goquery.Selection
	LandingHref string
	DOIHref     string
	DOIAttr     string
	PDFHref     string
	HTMLHref    string
	Journal     string
}

// ParsePage parses body and extracts one Row per result entry.
// A page whose result list holds no rows yields an empty slice.
func ParsePage(body []byte, layout Layout) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	list := doc.Find(layout.ResultList).First()
	if list.Length() == 0 {
		return nil, ErrNoResultList
	}

	rows := []Row{}
	list.Find(layout.Row).Each(func(index int, selection *goquery.Selection) {
		rows = append(rows, parseRow(index, selection, layout))
	})

	return rows, nil
}

func parseRow(index int, selection *goquery.Selection, layout Layout) Row {
	row := Row{
		Index:       index,
		LandingHref: firstAttr(selection, layout.Landing, "href"),
		DOIHref:     firstAttr(selection, layout.DOI, "href"),
		PDFHref:     firstAttr(selection, layout.PDF, "href"),
		HTMLHref:    firstAttr(selection, layout.HTML, "href"),
		Journal:     markup.Text(selection.Find(layout.Journal).First()),
	}

	if layout.DOIAttr != "" {
		row.DOIAttr = strings.TrimSpace(selection.AttrOr(layout.DOIAttr, ""))
	}

	title := selection.Find(layout.Title).First()
	if title.Length() > 0 {
		row.Title = title
	}

	return row
}

func firstAttr(selection *goquery.Selection, selector string, attr string) string {
	if selector == "" {
		return ""
	}

	value, ok := selection.Find(selector).First().Attr(attr)
	if !ok {
		return ""
	}

	return strings.TrimSpace(value)
}
