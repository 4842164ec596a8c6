// Package urlutil resolves scraped links and normalizes identifiers.
package urlutil

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// Resolve resolves href against base and returns an absolute HTTP(S) URL.
func Resolve(base *url.URL, href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}

	if !isSupportedScheme(parsed.Scheme) {
		return "", false
	}

	resolved := parsed
	if parsed.Scheme == "" {
		if base == nil {
			return "", false
		}

		resolved = base.ResolveReference(parsed)
	}

	if !isSupportedScheme(resolved.Scheme) || resolved.Host == "" {
		return "", false
	}

	resolved.Fragment = ""

	return resolved.String(), true
}

func isSupportedScheme(scheme string) bool {
	return scheme == "" || scheme == "http" || scheme == "https"
}

// NormalizeDOI strips resolver prefixes from raw and returns the bare DOI
// ("10.1039/c3cc48914k"). It reports false when raw is not a DOI.
func NormalizeDOI(raw string) (string, bool) {
	doi := strings.TrimSpace(raw)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]

			break
		}
	}

	if unescaped, err := url.PathUnescape(doi); err == nil {
		doi = unescaped
	}

	doi = strings.TrimSpace(doi)
	if !strings.HasPrefix(doi, "10.") || !strings.Contains(doi, "/") {
		return "", false
	}

	return doi, true
}

// SearchPageURL builds the URL of one result page. Page numbers on the
// publisher side are 1-based, so offset 0 maps to page=1.
func SearchPageURL(searchURL, query string, offset int) (string, error) {
	if offset < 0 {
		return "", errors.New("offset must not be negative")
	}

	parsed, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("missing scheme or host")
	}

	values := parsed.Query()
	values.Set("searchtext", query)
	values.Set("page", strconv.Itoa(offset+1))
	parsed.RawQuery = values.Encode()
	parsed.Fragment = ""

	return parsed.String(), nil
}
