// Package detector orchestrates one URL through denylist, cache, fetch,
// and analysis.
package detector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/denylist"
	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/metrics"
)

// Source reports which short-circuit, if any, produced a result.
type Source string

// Result provenance values.
const (
	SourceDenylist Source = "denylist"
	SourceCache    Source = "cache"
	SourceFetch    Source = "fetch"
)

// DefaultCacheTTL bounds how long a completed analysis is reused.
const DefaultCacheTTL = 24 * time.Hour

// Config controls Detector behavior.
type Config struct {
	CacheTTL time.Duration
}

// Detector runs the single-URL pipeline. A Failed result is a successful
// return; Detect never panics or propagates fetch errors.
type Detector struct {
	fetcher  detect.Fetcher
	cache    detect.ResultCache
	analyzer *analyzer.Analyzer
	deny     *denylist.List
	clock    detect.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Detector.
func New(
	fetcher detect.Fetcher,
	cache detect.ResultCache,
	contentAnalyzer *analyzer.Analyzer,
	deny *denylist.List,
	clock detect.Clock,
	cfg Config,
	logger *zap.Logger,
) *Detector {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		fetcher:  fetcher,
		cache:    cache,
		analyzer: contentAnalyzer,
		deny:     deny,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Detect classifies one URL. The pipeline is denylist check, cache lookup,
// fetch, analysis, cache write-through; the first short-circuit that
// applies wins.
func (d *Detector) Detect(ctx context.Context, rawURL string) (detect.Result, Source) {
	url := detect.NormalizeURL(rawURL)
	now := d.clock.Now()

	if d.deny.IsKnownFalsePositive(url) {
		d.logger.Debug("url on false-positive denylist", zap.String("url", url))
		metrics.ObserveDetection("no_chatbot", string(detect.VerificationVerified), nil)
		return detect.Result{
			URL:          url,
			Status:       detect.StatusCompleted,
			HasChatbot:   false,
			Verification: detect.VerificationVerified,
			LastChecked:  now,
		}, SourceDenylist
	}

	if cached, ok := d.lookupCache(ctx, url, now); ok {
		return cached, SourceCache
	}

	result := d.fetchAndAnalyze(ctx, url, now)
	if result.Status == detect.StatusCompleted {
		d.writeThrough(ctx, url, result)
	}
	return result, SourceFetch
}

func (d *Detector) lookupCache(ctx context.Context, url string, now time.Time) (detect.Result, bool) {
	entry, ok, err := d.cache.Get(ctx, url)
	switch {
	case err != nil:
		// Cache trouble is never fatal; proceed as a miss.
		d.logger.Warn("cache lookup failed", zap.String("url", url), zap.Error(err))
		metrics.ObserveCacheLookup("error")
		return detect.Result{}, false
	case !ok:
		metrics.ObserveCacheLookup("miss")
		return detect.Result{}, false
	case !entry.Fresh(now, d.cfg.CacheTTL):
		metrics.ObserveCacheLookup("stale")
		return detect.Result{}, false
	}
	metrics.ObserveCacheLookup("hit")
	d.logger.Debug("cache hit", zap.String("url", url), zap.Time("cached_at", entry.CreatedAt))
	return entry.Result, true
}

func (d *Detector) fetchAndAnalyze(ctx context.Context, url string, now time.Time) detect.Result {
	metrics.AnalysisStarted()
	defer metrics.AnalysisFinished()

	resp, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		err = detect.ClassifyFetchError(err)
		metrics.ObserveFetch("error", 0)
		metrics.ObserveDetection("failed", string(detect.VerificationUnverified), nil)
		d.logger.Info("fetch failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return detect.Result{
			URL:          url,
			Status:       detect.StatusFailed,
			HasChatbot:   false,
			Verification: detect.VerificationUnverified,
			ErrorMessage: detect.UserMessage(err),
			LastChecked:  now,
		}
	}
	metrics.ObserveFetch("ok", resp.Duration)

	analysis := d.analyzer.Analyze(string(resp.Body))
	result := detect.Result{
		URL:           url,
		Title:         analysis.Title,
		Status:        detect.StatusCompleted,
		HasChatbot:    analysis.HasChatbot,
		ChatSolutions: analysis.ChatSolutions,
		Platforms:     analysis.Platforms,
		Matches:       analysis.Matches,
		Verification:  detect.VerificationUnverified,
		LastChecked:   now,
	}
	if analysis.HasChatbot {
		result = result.WithConfidence(analysis.Confidence)
		result.Verification = detect.VerificationVerified
		metrics.ObserveDetection("chatbot", string(result.Verification), analysis.ChatSolutions)
		d.logger.Info("chatbot detected",
			zap.String("url", url),
			zap.Strings("solutions", analysis.ChatSolutions),
		)
	} else {
		metrics.ObserveDetection("no_chatbot", string(result.Verification), nil)
	}
	return result
}

func (d *Detector) writeThrough(ctx context.Context, url string, result detect.Result) {
	entry := detect.CacheEntry{
		URL:       url,
		Result:    result,
		CreatedAt: result.LastChecked,
	}
	if err := d.cache.Put(ctx, entry); err != nil {
		d.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
}
