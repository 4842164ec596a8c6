package scraper

import (
	"errors"
	"fmt"

	"pubscrape/internal/fetcher"
)

var (
	// ErrHTTPClientRequired is returned by New when Options.HTTPClient is nil.
	ErrHTTPClientRequired = errors.New("http client is required")
	// ErrInvalidSleep is returned by New when Options.SleepTime is not positive.
	ErrInvalidSleep = errors.New("sleep time must be positive")
	// ErrInvalidOffset is returned by Run for a negative page offset.
	ErrInvalidOffset = errors.New("offset must not be negative")
)

// TransportError reports a failed page fetch. StatusCode is zero when no
// response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request may succeed.
func (e *TransportError) Retryable() bool {
	return fetcher.Retryable(e.Err)
}

// ParseError reports a page that does not look like a results page.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RowError describes a row that was dropped instead of being turned into a Record.
type RowError struct {
	Index  int    `json:"index" yaml:"index"`
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Field, e.Reason)
}
