// Package collyfetcher implements detect.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/detect"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// Fetcher fetches single pages with bounded retries. Backoff lives here, at
// the transport layer; the batch processor's re-attempts are a separate,
// fixed-delay mechanism.
type Fetcher struct {
	cfg           Config
	retry         *retryPolicy
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 * 1024 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Retries re-visit the same URL, so the dedup store must not veto them.
	c.AllowURLRevisit = true
	return &Fetcher{
		cfg:           cfg,
		retry:         newRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase, cfg.BackoffMax),
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes the HTTP GET with transport-level retries. The returned
// error, when non-nil, is already classified into the detect taxonomy.
func (f *Fetcher) Fetch(ctx context.Context, url string) (detect.FetchResponse, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := f.fetchOnce(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !f.retry.shouldRetry(err, attempt) {
			break
		}
		delay := f.retry.backoff(attempt)
		f.logger.Debug("fetch retry scheduled",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return detect.FetchResponse{}, detect.ClassifyFetchError(ctx.Err())
		}
	}
	return detect.FetchResponse{}, detect.ClassifyFetchError(lastErr)
}

func (f *Fetcher) fetchOnce(parent context.Context, url string) (detect.FetchResponse, error) {
	ctx, cancel := context.WithTimeout(parent, f.cfg.Timeout)
	defer cancel()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.MaxBodySize = f.cfg.MaxBodyBytes
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		result   detect.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector.OnResponse(func(r *colly.Response) {
		result = detect.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = &detect.HTTPError{StatusCode: r.StatusCode}
			return
		}
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(url); err != nil && fetchErr == nil {
			fetchErr = fmt.Errorf("visit %s: %w", url, err)
		}
		collector.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// The colly goroutine finishes on its own once the request
		// timeout fires; report the timeout immediately.
		return detect.FetchResponse{}, ctx.Err()
	}

	if fetchErr != nil {
		return detect.FetchResponse{}, fetchErr
	}
	if result.StatusCode == 0 {
		return detect.FetchResponse{}, errors.New("no response received")
	}
	if result.StatusCode < http.StatusOK || result.StatusCode >= http.StatusMultipleChoices {
		return detect.FetchResponse{}, &detect.HTTPError{StatusCode: result.StatusCode}
	}
	return result, nil
}
