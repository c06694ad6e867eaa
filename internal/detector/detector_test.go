package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/analyzer"
	cachemem "github.com/chatlens/chatlens/internal/cache/memory"
	"github.com/chatlens/chatlens/internal/denylist"
	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/patterns"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	fetches int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (detect.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if err, ok := f.errs[url]; ok {
		return detect.FetchResponse{}, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return detect.FetchResponse{}, errors.New("unexpected url " + url)
	}
	return detect.FetchResponse{
		URL:        url,
		StatusCode: 200,
		Body:       []byte(body),
		Duration:   5 * time.Millisecond,
	}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (detect.CacheEntry, bool, error) {
	return detect.CacheEntry{}, false, detect.ErrCacheUnavailable
}

func (failingCache) Put(context.Context, detect.CacheEntry) error {
	return detect.ErrCacheUnavailable
}

func newDetector(fetcher detect.Fetcher, cache detect.ResultCache, clock detect.Clock) *Detector {
	a := analyzer.New(patterns.NewLibrary(), analyzer.DefaultConfidenceFloor, zap.NewNop())
	return New(fetcher, cache, a, denylist.New(nil), clock, Config{}, zap.NewNop())
}

func TestDetect_IntercomScenario(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://shop.example.com/": `<script src="https://widget.intercom.io/widget/abc"></script>`,
	}}
	d := newDetector(fetcher, cachemem.NewCache(), &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, source := d.Detect(context.Background(), "https://shop.example.com")
	require.Equal(t, SourceFetch, source)
	require.Equal(t, detect.StatusCompleted, result.Status)
	require.True(t, result.HasChatbot)
	require.Equal(t, []string{"Intercom"}, result.ChatSolutions)
	require.Equal(t, detect.VerificationVerified, result.Verification)
	require.NotNil(t, result.Confidence)
	require.InDelta(t, 0.9, *result.Confidence, 0.001)
}

func TestDetect_DenylistSkipsFetch(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	d := newDetector(fetcher, cachemem.NewCache(), &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, source := d.Detect(context.Background(), "https://facebook.com/acme")
	require.Equal(t, SourceDenylist, source)
	require.Equal(t, detect.StatusCompleted, result.Status)
	require.False(t, result.HasChatbot)
	require.Equal(t, detect.VerificationVerified, result.Verification)
	require.Zero(t, fetcher.fetchCount(), "denylisted urls must never be fetched")
}

func TestDetect_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://shop.example.com/": `<div id="drift-widget"></div>`,
	}}
	clock := &fakeClock{now: time.Unix(1700000000, 0).UTC()}
	d := newDetector(fetcher, cachemem.NewCache(), clock)

	first, _ := d.Detect(context.Background(), "https://shop.example.com")
	clock.advance(time.Hour)
	second, source := d.Detect(context.Background(), "https://shop.example.com")

	require.Equal(t, SourceCache, source)
	require.Equal(t, 1, fetcher.fetchCount(), "fresh cache entry must suppress the fetch")
	require.Equal(t, first, second, "cached result is returned unchanged")
}

func TestDetect_CacheEntryAtTTLBoundaryIsReanalyzed(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://shop.example.com/": `<div id="drift-widget"></div>`,
	}}
	clock := &fakeClock{now: time.Unix(1700000000, 0).UTC()}
	d := newDetector(fetcher, cachemem.NewCache(), clock)

	d.Detect(context.Background(), "https://shop.example.com")
	clock.advance(DefaultCacheTTL)
	_, source := d.Detect(context.Background(), "https://shop.example.com")

	require.Equal(t, SourceFetch, source)
	require.Equal(t, 2, fetcher.fetchCount())
}

func TestDetect_TimeoutProducesFailedResult(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{errs: map[string]error{
		"https://example.com/slow": detect.ErrFetchTimeout,
	}}
	d := newDetector(fetcher, cachemem.NewCache(), &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, _ := d.Detect(context.Background(), "https://example.com/slow")
	require.Equal(t, detect.StatusFailed, result.Status)
	require.False(t, result.HasChatbot)
	require.Contains(t, result.ErrorMessage, "timed out")
}

func TestDetect_GenericFetchErrorDistinctFromTimeout(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{errs: map[string]error{
		"https://example.com/down": errors.New("connection refused"),
	}}
	d := newDetector(fetcher, cachemem.NewCache(), &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, _ := d.Detect(context.Background(), "https://example.com/down")
	require.Equal(t, detect.StatusFailed, result.Status)
	require.NotContains(t, result.ErrorMessage, "timed out")
	require.NotEmpty(t, result.ErrorMessage)
}

func TestDetect_FailedResultNotCached(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{errs: map[string]error{
		"https://example.com/down": detect.ErrFetchNetwork,
	}}
	cache := cachemem.NewCache()
	d := newDetector(fetcher, cache, &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	d.Detect(context.Background(), "https://example.com/down")
	require.Zero(t, cache.Len())
}

func TestDetect_CacheFailureIsRecoveredAsMiss(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://shop.example.com/": `<script src="https://embed.tawk.to/x/default"></script>`,
	}}
	d := newDetector(fetcher, failingCache{}, &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, source := d.Detect(context.Background(), "https://shop.example.com")
	require.Equal(t, SourceFetch, source)
	require.Equal(t, detect.StatusCompleted, result.Status)
	require.True(t, result.HasChatbot)
}

func TestDetect_NoMatchIsUnverifiedNegative(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://example.com/plain": `<html><head><title>Example Co</title></head><body>hi</body></html>`,
	}}
	d := newDetector(fetcher, cachemem.NewCache(), &fakeClock{now: time.Unix(1700000000, 0).UTC()})

	result, _ := d.Detect(context.Background(), "https://example.com/plain")
	require.Equal(t, detect.StatusCompleted, result.Status)
	require.False(t, result.HasChatbot)
	require.Empty(t, result.ChatSolutions)
	require.Equal(t, detect.VerificationUnverified, result.Verification)
	require.Equal(t, "Example Co", result.Title)
}
