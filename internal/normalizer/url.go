package normalizer

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeURL trims rawURL, adds an http scheme when none is present,
// lowercases scheme and host and drops the fragment.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("input URL is empty")
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", err
	}

	// url.Parse treats "example.com/path" as a path, so re-parse with a scheme
	if parsedURL.Scheme == "" {
		parsedURL, err = url.Parse("http://" + trimmedURL)
		if err != nil {
			return "", err
		}
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""

	return parsedURL.String(), nil
}

// Hostname returns the lowercased host of rawURL without its port.
func Hostname(rawURL string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	parsedURL, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	if parsedURL.Hostname() == "" {
		return "", errors.New("URL has no host")
	}
	return parsedURL.Hostname(), nil
}

// SameHost reports whether two URLs point at the same host. Unparseable
// input never matches.
func SameHost(a, b string) bool {
	hostA, err := Hostname(a)
	if err != nil {
		return false
	}
	hostB, err := Hostname(b)
	if err != nil {
		return false
	}
	return hostA == hostB
}
