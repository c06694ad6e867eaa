package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/detect"
)

func entry(url string, createdAt time.Time) detect.CacheEntry {
	return detect.CacheEntry{
		URL: url,
		Result: detect.Result{
			URL:           url,
			Status:        detect.StatusCompleted,
			HasChatbot:    true,
			ChatSolutions: []string{"Intercom"},
			Verification:  detect.VerificationVerified,
			LastChecked:   createdAt,
		},
		CreatedAt: createdAt,
	}
}

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewCache()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()
	want := entry("https://example.com/", now)

	require.NoError(t, c.Put(ctx, want))

	got, ok, err := c.Get(ctx, "https://example.com/")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestCache_KeyIsNormalizedURL(t *testing.T) {
	t.Parallel()

	c := NewCache()
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, entry("HTTPS://Example.COM", time.Now())))

	_, ok, err := c.Get(ctx, "https://example.com/")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestCache_LastWriterWins(t *testing.T) {
	t.Parallel()

	c := NewCache()
	ctx := context.Background()
	first := entry("https://example.com", time.Unix(100, 0))
	second := entry("https://example.com", time.Unix(200, 0))

	require.NoError(t, c.Put(ctx, first))
	require.NoError(t, c.Put(ctx, second))

	got, ok, _ := c.Get(ctx, "https://example.com")
	require.True(t, ok)
	require.Equal(t, second.CreatedAt, got.CreatedAt)
	require.Equal(t, 1, c.Len())
}

func TestCache_MissOnUnknownURL(t *testing.T) {
	t.Parallel()

	c := NewCache()
	_, ok, err := c.Get(context.Background(), "https://unknown.example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheEntry_TTLBoundaryIsStale(t *testing.T) {
	t.Parallel()

	created := time.Unix(1700000000, 0).UTC()
	e := entry("https://example.com", created)
	ttl := 24 * time.Hour

	require.True(t, e.Fresh(created.Add(ttl-time.Second), ttl))
	require.False(t, e.Fresh(created.Add(ttl), ttl), "age exactly at TTL is stale")
	require.False(t, e.Fresh(created.Add(ttl+time.Second), ttl))
}
