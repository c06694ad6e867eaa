package denylist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsKnownFalsePositive_BuiltinExact(t *testing.T) {
	t.Parallel()

	l := New(nil)
	require.True(t, l.IsKnownFalsePositive("https://facebook.com/somepage"))
	require.True(t, l.IsKnownFalsePositive("https://Twitter.com"))
	require.False(t, l.IsKnownFalsePositive("https://example.com"))
}

func TestIsKnownFalsePositive_SuffixWildcard(t *testing.T) {
	t.Parallel()

	l := New(nil)
	require.True(t, l.IsKnownFalsePositive("https://m.facebook.com/page"))
	require.True(t, l.IsKnownFalsePositive("https://docs.google.com/spreadsheets"))
	require.False(t, l.IsKnownFalsePositive("https://notgoogle.com"))
}

func TestIsKnownFalsePositive_ExtraPatterns(t *testing.T) {
	t.Parallel()

	l := New([]string{"internal.example.com", "*.corp.example.org", " ", ".edu.example.net"})
	require.True(t, l.IsKnownFalsePositive("https://internal.example.com"))
	require.True(t, l.IsKnownFalsePositive("https://mail.corp.example.org/inbox"))
	require.True(t, l.IsKnownFalsePositive("https://lab.edu.example.net"))
	require.False(t, l.IsKnownFalsePositive("https://example.org"))
}

func TestIsKnownFalsePositive_SchemelessURL(t *testing.T) {
	t.Parallel()

	l := New(nil)
	require.True(t, l.IsKnownFalsePositive("wikipedia.org/wiki/Chatbot"))
}

func TestIsKnownFalsePositive_NilList(t *testing.T) {
	t.Parallel()

	var l *List
	require.False(t, l.IsKnownFalsePositive("https://facebook.com"))
}
