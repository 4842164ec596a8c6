// Package scraper fetches one page of publisher search results and turns
// its rows into clean bibliographic records.
package scraper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"pubscrape/internal/fetcher"
	"pubscrape/internal/limiter"
	"pubscrape/internal/markup"
	"pubscrape/internal/parser"
	"pubscrape/internal/substitute"
	"pubscrape/internal/urlutil"
)

const (
	fieldTitle   = "title"
	fieldLanding = "landing_url"
	fieldJournal = "journal"

	reasonMissing = "missing"
	reasonEmpty   = "empty after cleaning"
	reasonInvalid = "not a valid url"
)

// Scraper runs search queries against one publisher endpoint.
// A Scraper issues requests sequentially and must not be shared between
// goroutines.
type Scraper struct {
	fetch       *fetcher.Fetcher
	pause       *limiter.Pause
	searchURL   string
	layout      parser.Layout
	substitutor *substitute.Substitutor
	cleaner     markup.Cleaner
	logger      zerolog.Logger
}

// New validates opts and builds a Scraper.
func New(opts Options) (*Scraper, error) {
	if opts.HTTPClient == nil {
		return nil, ErrHTTPClientRequired
	}

	if opts.SleepTime <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSleep, opts.SleepTime)
	}

	searchURL := opts.SearchURL
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}

	if _, err := urlutil.SearchPageURL(searchURL, "", 0); err != nil {
		return nil, fmt.Errorf("invalid search url %q: %w", searchURL, err)
	}

	layout := opts.Layout.WithDefaults()
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	substitutor := opts.Substitutor
	if substitutor == nil {
		substitutor = substitute.Default()
	}

	cleaner := markup.DefaultCleaner()
	if opts.Cleaner != nil {
		cleaner = *opts.Cleaner
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Scraper{
		fetch:       fetcher.New(opts.HTTPClient, opts.Timeout, userAgent),
		pause:       limiter.NewPauseWithTimer(opts.SleepTime, opts.Clock),
		searchURL:   searchURL,
		layout:      layout,
		substitutor: substitutor,
		cleaner:     cleaner,
		logger:      logger.With().Str("component", "scraper").Logger(),
	}, nil
}

// Run fetches the result page at offset (0-based) for query and returns
// its records. Exactly one request is made and it is never retried; the
// configured pause follows it whether or not it succeeded.
//
// Fetch failures return a *TransportError and no result. A page without a
// result list returns a *ParseError. Rows lacking a title, landing URL or
// journal are left out of Records and listed in Skipped.
func (s *Scraper) Run(ctx context.Context, query string, offset int) (Result, error) {
	if offset < 0 {
		return Result{}, ErrInvalidOffset
	}

	pageURL, err := urlutil.SearchPageURL(s.searchURL, query, offset)
	if err != nil {
		return Result{}, fmt.Errorf("build search url: %w", err)
	}

	page, fetchErr := s.fetch.Fetch(ctx, pageURL)
	pauseErr := s.pause.Wait(ctx)

	if fetchErr != nil {
		s.logger.Debug().Err(fetchErr).Str("url", pageURL).Int("status", page.StatusCode).Msg("fetch failed")

		return Result{}, &TransportError{URL: pageURL, StatusCode: page.StatusCode, Err: fetchErr}
	}

	if pauseErr != nil {
		return Result{}, fmt.Errorf("pause after fetch: %w", pauseErr)
	}

	rows, err := parser.ParsePage(page.Body, s.layout)
	if err != nil {
		return Result{}, &ParseError{URL: page.URL, Err: err}
	}

	s.logger.Debug().
		Str("url", page.URL).
		Int("status", page.StatusCode).
		Int("rows", len(rows)).
		Msg("fetched result page")

	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}

	result := Result{
		Query:    query,
		Offset:   offset,
		PageSize: len(rows),
		Records:  []Record{},
		Skipped:  []RowError{},
	}

	for _, row := range rows {
		record, rowErr := s.buildRecord(base, row)
		if rowErr != nil {
			result.Skipped = append(result.Skipped, *rowErr)
			s.logger.Warn().Err(rowErr).Int("offset", offset).Msg("row skipped")

			continue
		}

		result.Records = append(result.Records, record)
	}

	return result, nil
}

func (s *Scraper) buildRecord(base *url.URL, row parser.Row) (Record, *RowError) {
	if row.Title == nil {
		return Record{}, &RowError{Index: row.Index, Field: fieldTitle, Reason: reasonMissing}
	}

	title := s.substitutor.Substitute(markup.Text(s.cleaner.Clean(row.Title)))
	if title == "" {
		return Record{}, &RowError{Index: row.Index, Field: fieldTitle, Reason: reasonEmpty}
	}

	if row.LandingHref == "" {
		return Record{}, &RowError{Index: row.Index, Field: fieldLanding, Reason: reasonMissing}
	}

	landing, ok := urlutil.Resolve(base, row.LandingHref)
	if !ok {
		return Record{}, &RowError{Index: row.Index, Field: fieldLanding, Reason: reasonInvalid}
	}

	journal := s.substitutor.Substitute(row.Journal)
	if journal == "" {
		return Record{}, &RowError{Index: row.Index, Field: fieldJournal, Reason: reasonMissing}
	}

	return Record{
		DOI:        rowDOI(row),
		Title:      title,
		LandingURL: landing,
		PDFURL:     optionalURL(base, row.PDFHref),
		HTMLURL:    optionalURL(base, row.HTMLHref),
		Journal:    journal,
	}, nil
}

func rowDOI(row parser.Row) string {
	if doi, ok := urlutil.NormalizeDOI(row.DOIHref); ok {
		return doi
	}

	if doi, ok := urlutil.NormalizeDOI(row.DOIAttr); ok {
		return doi
	}

	return ""
}

func optionalURL(base *url.URL, href string) string {
	resolved, ok := urlutil.Resolve(base, href)
	if !ok {
		return ""
	}

	return resolved
}
