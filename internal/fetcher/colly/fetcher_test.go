package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/detect"
)

func newTestFetcher(timeout time.Duration) *Fetcher {
	return New(Config{
		UserAgent:   "chatlens-test/1.0",
		Timeout:     timeout,
		MaxAttempts: 3,
		BackoffBase: 5 * time.Millisecond,
		BackoffMax:  20 * time.Millisecond,
	}, zap.NewNop())
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "hello")
	require.Positive(t, resp.Duration)
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, detect.ErrFetchHTTP)
	require.Equal(t, int32(1), hits.Load())
}

func TestFetch_ServerErrorRetriedThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(3), hits.Load())
}

func TestFetch_TimeoutClassified(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	f := New(Config{
		Timeout:     100 * time.Millisecond,
		MaxAttempts: 1,
	}, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, detect.ErrFetchTimeout)
}

func TestFetch_UnreachableHostIsNetworkError(t *testing.T) {
	t.Parallel()

	f := New(Config{
		Timeout:     time.Second,
		MaxAttempts: 1,
	}, zap.NewNop())

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/nope")
	require.Error(t, err)
	require.ErrorIs(t, err, detect.ErrFetchNetwork)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(3, 100*time.Millisecond, time.Second)

	for attempt := 0; attempt < 5; attempt++ {
		d := p.backoff(attempt)
		require.Positive(t, d)
		require.LessOrEqual(t, d, time.Second)
	}
	// Doubling: attempt 1 floor is 100ms (half of 200ms pre-jitter).
	require.GreaterOrEqual(t, p.backoff(1), 100*time.Millisecond)
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(3, time.Millisecond, time.Second)

	require.False(t, p.shouldRetry(nil, 0))
	require.False(t, p.shouldRetry(context.Canceled, 0))
	require.False(t, p.shouldRetry(&detect.HTTPError{StatusCode: 404}, 0))
	require.True(t, p.shouldRetry(&detect.HTTPError{StatusCode: 500}, 0))
	require.True(t, p.shouldRetry(&detect.HTTPError{StatusCode: 429}, 0))
	require.False(t, p.shouldRetry(&detect.HTTPError{StatusCode: 500}, 2), "attempts exhausted")
}
