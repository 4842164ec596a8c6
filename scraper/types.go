package scraper

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pubscrape/internal/limiter"
	"pubscrape/internal/markup"
	"pubscrape/internal/parser"
	"pubscrape/internal/substitute"
)

// DefaultSearchURL is the RSC search endpoint used when Options.SearchURL is empty.
const DefaultSearchURL = "https://pubs.rsc.org/en/results"

const defaultUserAgent = "pubscrape/1.0"

// Options configures a Scraper.
// HTTPClient is the caller-owned session and is never closed by the scraper.
// SleepTime is the fixed pause taken after every page fetch.
// Zero values of the remaining fields select RSC defaults.
type Options struct {
	HTTPClient  *http.Client
	SleepTime   time.Duration
	Clock       limiter.Timer
	SearchURL   string
	UserAgent   string
	Timeout     time.Duration
	Layout      parser.Layout
	Substitutor *substitute.Substitutor
	Cleaner     *markup.Cleaner
	Logger      *zerolog.Logger
}

// Record is one search hit. Title, LandingURL and Journal are always set;
// the other fields are empty when the page does not provide them.
type Record struct {
	DOI        string `json:"doi" yaml:"doi"`
	Title      string `json:"title" yaml:"title"`
	LandingURL string `json:"landing_url" yaml:"landing_url"`
	PDFURL     string `json:"pdf_url" yaml:"pdf_url"`
	HTMLURL    string `json:"html_url" yaml:"html_url"`
	Journal    string `json:"journal" yaml:"journal"`
}

// Map returns the record as a plain mapping with all six keys present.
func (r Record) Map() map[string]string {
	return map[string]string{
		"doi":         r.DOI,
		"title":       r.Title,
		"landing_url": r.LandingURL,
		"pdf_url":     r.PDFURL,
		"html_url":    r.HTMLURL,
		"journal":     r.Journal,
	}
}

// Result is one page of search results.
// PageSize counts every row the page held, skipped rows included.
type Result struct {
	Query    string
	Offset   int
	PageSize int
	Records  []Record
	Skipped  []RowError
}

// Serialize returns one mapping per record, in page order.
func (r Result) Serialize() []map[string]string {
	out := make([]map[string]string, 0, len(r.Records))
	for _, record := range r.Records {
		out = append(out, record.Map())
	}

	return out
}

// Empty reports whether the page produced no records.
func (r Result) Empty() bool {
	return len(r.Records) == 0
}
