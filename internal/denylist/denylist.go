// Package denylist short-circuits classification for hosts known to trip
// the pattern matchers without embedding a chat widget.
package denylist

import (
	"strings"

	"github.com/chatlens/chatlens/internal/detect"
)

// builtin lists hosts repeatedly reported as false positives. Entries here
// never expire; removal requires a code change.
var builtin = []string{
	"facebook.com",
	"*.facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"youtube.com",
	"*.google.com",
	"wikipedia.org",
	"*.wikipedia.org",
	"github.com",
	"archive.org",
}

// List matches URLs against exact hosts and suffix wildcards. Read-only at
// runtime, so it needs no synchronization.
type List struct {
	exact    map[string]struct{}
	suffixes []string
}

// New builds a List from the builtin entries plus any extra patterns from
// configuration. Patterns are exact hosts, "*.suffix", or ".suffix".
func New(extra []string) *List {
	l := &List{exact: make(map[string]struct{})}
	for _, raw := range append(append([]string(nil), builtin...), extra...) {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			l.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			l.addSuffix(strings.TrimPrefix(value, "."))
		default:
			l.exact[value] = struct{}{}
		}
	}
	return l
}

func (l *List) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range l.suffixes {
		if existing == suffix {
			return
		}
	}
	l.suffixes = append(l.suffixes, suffix)
}

// IsKnownFalsePositive reports whether the URL's host is denylisted.
func (l *List) IsKnownFalsePositive(url string) bool {
	if l == nil {
		return false
	}
	host := detect.Host(url)
	if host == "" {
		return false
	}
	if _, ok := l.exact[host]; ok {
		return true
	}
	for _, suffix := range l.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
