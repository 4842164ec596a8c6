package scraper_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSearchURL = "https://pubs.rsc.org/en/results"

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return fn(req) }

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	path := filepath.Join("..", "testdata", "rsc", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read fixture: %s", path)

	return b
}

// pagedClient serves fixtures by the page query parameter and records
// every requested URL.
type pagedClient struct {
	mu       sync.Mutex
	requests []*http.Request
	pages    map[string][]byte
}

func newPagedClient(t *testing.T) (*http.Client, *pagedClient) {
	t.Helper()

	paged := &pagedClient{
		pages: map[string][]byte{
			"1": readFixture(t, "results_page1.html"),
			"2": readFixture(t, "results_page2.html"),
			"3": readFixture(t, "results_empty.html"),
		},
	}

	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			paged.mu.Lock()
			paged.requests = append(paged.requests, req)
			paged.mu.Unlock()

			body, ok := paged.pages[req.URL.Query().Get("page")]
			if !ok {
				return responseWithBody(http.StatusNotFound, []byte("not found")), nil
			}

			return responseWithBody(http.StatusOK, body), nil
		}),
	}

	return client, paged
}

func (p *pagedClient) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.requests)
}

func staticClient(status int, body []byte) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return responseWithBody(status, body), nil
		}),
	}
}

func responseWithBody(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

type testClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Sleep(ctx context.Context, duration time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, duration)
	c.now = c.now.Add(duration)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (c *testClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.sleeps...)
}
