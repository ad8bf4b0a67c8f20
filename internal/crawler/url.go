package crawler

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL indicates a seed that is not an absolute http(s) URL
var ErrInvalidURL = errors.New("invalid URL")

// NormalizeURL returns the canonical form used for deduplication:
// lowercase scheme and host, no default port, no fragment and "/" for an
// empty path. Query strings are kept verbatim.
//
// Examples:
//   - HTTPS://Example.COM#top -> https://example.com/
//   - http://example.com:80/a -> http://example.com/a
//   - https://example.com/en?x=1#y -> https://example.com/en?x=1
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String(), nil
}
