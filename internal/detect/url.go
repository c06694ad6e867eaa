package detect

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a raw URL for use as a cache key: lowercases
// the host, strips the fragment, defaults the scheme to https and the path
// to "/". Invalid URLs are returned trimmed so they still key consistently.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return raw
		}
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String()
}

// Host extracts the lowercase hostname from a raw URL, or "" if unparsable.
func Host(raw string) string {
	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
