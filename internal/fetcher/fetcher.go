// Package fetcher performs single-attempt HTTP GET requests.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrInvalidRequest marks a URL or request that could not be built.
var ErrInvalidRequest = errors.New("invalid request")

// Result contains the HTTP response data.
type Result struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return statusText(e.StatusCode)
}

// Fetcher performs HTTP requests over a caller-owned client.
// It never retries; see Retryable for callers that want to.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates a Fetcher with the provided configuration.
func New(client *http.Client, timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Fetch performs one GET request. A non-2xx response is returned together
// with a *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	requestCtx := ctx
	var cancel context.CancelFunc
	if f.timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	if cancel != nil {
		defer cancel()
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if parsedURL.Path == "" {
		parsedURL.Path = "/"
	}

	request, err := http.NewRequestWithContext(requestCtx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if f.userAgent != "" {
		request.Header.Set("User-Agent", f.userAgent)
	}
	request.Header.Set("Accept", "text/html,application/xhtml+xml")

	response, err := f.client.Do(request)
	if err != nil {
		return Result{URL: parsedURL.String()}, err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	result := Result{
		URL:        finalURL(response, parsedURL),
		StatusCode: response.StatusCode,
		Header:     response.Header,
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}
	result.Body = body

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return result, &StatusError{StatusCode: response.StatusCode}
	}

	return result, nil
}

func finalURL(response *http.Response, requested *url.URL) string {
	if response.Request != nil && response.Request.URL != nil {
		return response.Request.URL.String()
	}

	return requested.String()
}

// Retryable reports whether a failed fetch looks temporary: network errors,
// truncated bodies, 429 and 5xx responses.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}

	return isRetryableError(err)
}

func isRetryableError(err error) bool {
	if isContextCanceled(err) {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) {
		return false
	}

	if isEOFLike(err) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return isRetryableURLError(urlErr)
	}

	// Non-url errors are retryable only if they look like a temporary transport/network issue.
	return isNetError(err)
}

func isRetryableURLError(urlErr *url.Error) bool {
	err := urlErr.Err
	for err != nil {
		if isContextCanceled(err) || errors.Is(err, ErrInvalidRequest) {
			return false
		}

		if isEOFLike(err) {
			return true
		}

		var inner *url.Error
		if errors.As(err, &inner) {
			err = inner.Err

			continue
		}

		return isNetError(err)
	}

	return false
}

func isContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isNetError(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr)
}

func isEOFLike(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func statusText(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		return fmt.Sprintf("http status %d", statusCode)
	}

	return fmt.Sprintf("http status %d: %s", statusCode, text)
}
