// Package batch fans URL lists out to the single-URL detector with bounded
// concurrency and progress reporting.
package batch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/detector"
	"github.com/chatlens/chatlens/internal/metrics"
	"github.com/chatlens/chatlens/internal/progress"
)

// Config controls Processor behavior. URLAttempts re-runs a URL whose
// result still carries an error; this is deliberately a fixed delay, not
// backoff — exponential backoff already lives in the fetcher.
type Config struct {
	Concurrency  int
	ChunkSize    int
	ChunkDelay   time.Duration
	URLAttempts  int
	AttemptDelay time.Duration
	MaxBatchSize int
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 10
	}
	if c.ChunkDelay < 0 {
		c.ChunkDelay = 0
	}
	if c.URLAttempts <= 0 {
		c.URLAttempts = 3
	}
	if c.AttemptDelay <= 0 {
		c.AttemptDelay = time.Second
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 500
	}
	return c
}

// Processor executes batch jobs. It exclusively owns BatchJob progress
// counters; results settle in input order but not in input sequence.
type Processor struct {
	detector *detector.Detector
	jobs     detect.JobStore
	hub      *progress.Hub
	fallback *analyzer.KeywordPass
	clock    detect.Clock
	idGen    detect.IDGenerator
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Processor.
func New(
	det *detector.Detector,
	jobs detect.JobStore,
	hub *progress.Hub,
	fallback *analyzer.KeywordPass,
	clock detect.Clock,
	idGen detect.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		detector: det,
		jobs:     jobs,
		hub:      hub,
		fallback: fallback,
		clock:    clock,
		idGen:    idGen,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Submit validates the URL list and registers a pending job. The caller
// decides when (and on which goroutine) to Run it.
func (p *Processor) Submit(ctx context.Context, urls []string) (detect.BatchJob, error) {
	if len(urls) == 0 {
		return detect.BatchJob{}, detect.ErrNoURLs
	}
	if len(urls) > p.cfg.MaxBatchSize {
		return detect.BatchJob{}, detect.ErrTooManyURLs
	}
	id, err := p.idGen.NewID()
	if err != nil {
		return detect.BatchJob{}, err
	}
	job := detect.BatchJob{
		ID:         id,
		URLs:       append([]string(nil), urls...),
		Status:     detect.BatchStatusPending,
		TotalCount: len(urls),
		Submitted:  p.clock.Now(),
	}
	if err := p.jobs.CreateJob(ctx, job); err != nil {
		return detect.BatchJob{}, err
	}
	return job, nil
}

// Run processes every URL of a submitted job and returns exactly one
// result per input URL, in input order. Individual failures never abort
// the batch.
func (p *Processor) Run(ctx context.Context, job detect.BatchJob) []detect.Result {
	p.updateJob(ctx, job.ID, detect.BatchStatusProcessing, 0, "")
	p.hub.Emit(progress.Event{
		Stage:     progress.StageBatchStart,
		BatchID:   job.ID,
		Total:     job.TotalCount,
		Timestamp: p.clock.Now(),
	})

	results := make([]detect.Result, len(job.URLs))
	var (
		mu        sync.Mutex
		processed int
	)
	settle := func(index int, result detect.Result, source detector.Source) {
		mu.Lock()
		defer mu.Unlock()
		results[index] = result
		processed++
		p.updateJob(ctx, job.ID, detect.BatchStatusProcessing, processed, "")
		if err := p.jobs.RecordResult(ctx, job.ID, result); err != nil {
			p.logger.Warn("record result failed",
				zap.String("batch_id", job.ID),
				zap.String("url", result.URL),
				zap.Error(err),
			)
		}
		p.hub.Emit(progress.Event{
			Stage:     progress.StageURLSettled,
			BatchID:   job.ID,
			URL:       result.URL,
			Outcome:   outcomeFor(result, source),
			Processed: processed,
			Total:     job.TotalCount,
			Timestamp: p.clock.Now(),
		})
	}

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	for start := 0; start < len(job.URLs); start += p.cfg.ChunkSize {
		end := min(start+p.cfg.ChunkSize, len(job.URLs))
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(index int, url string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				result, source := p.detectWithRetry(ctx, url)
				settle(index, result, source)
			}(i, job.URLs[i])
		}
		wg.Wait()
		if end < len(job.URLs) && p.cfg.ChunkDelay > 0 {
			select {
			case <-time.After(p.cfg.ChunkDelay):
			case <-ctx.Done():
			}
		}
	}

	report := analyzer.ApplyFallback(results, p.fallback, p.logger)
	if report.Ran && report.After > report.Before {
		p.resyncResults(ctx, job.ID, results)
	}

	status := detect.BatchStatusCompleted
	errText := ""
	if ctx.Err() != nil {
		status = detect.BatchStatusFailed
		errText = ctx.Err().Error()
	}
	p.updateJob(ctx, job.ID, status, processed, errText)
	metrics.ObserveBatch(string(status))
	p.hub.Emit(progress.Event{
		Stage:     progress.StageBatchDone,
		BatchID:   job.ID,
		Processed: processed,
		Total:     job.TotalCount,
		Timestamp: p.clock.Now(),
	})
	return results
}

// Process is the synchronous convenience path: submit plus run.
func (p *Processor) Process(ctx context.Context, urls []string) ([]detect.Result, error) {
	job, err := p.Submit(ctx, urls)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, job), nil
}

// detectWithRetry re-attempts a URL whose result still signals an error,
// up to the configured attempt count with a fixed pause between attempts.
func (p *Processor) detectWithRetry(ctx context.Context, url string) (detect.Result, detector.Source) {
	var (
		result detect.Result
		source detector.Source
	)
	for attempt := 1; ; attempt++ {
		result, source = p.detector.Detect(ctx, url)
		if result.Status != detect.StatusFailed || attempt >= p.cfg.URLAttempts {
			return result, source
		}
		p.logger.Debug("re-attempting url",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.String("error", result.ErrorMessage),
		)
		select {
		case <-time.After(p.cfg.AttemptDelay):
		case <-ctx.Done():
			return result, source
		}
	}
}

// resyncResults re-records results after the secondary pass upgraded some
// of them, so the store reflects what the caller receives.
func (p *Processor) resyncResults(ctx context.Context, jobID string, results []detect.Result) {
	for _, result := range results {
		if err := p.jobs.RecordResult(ctx, jobID, result); err != nil {
			p.logger.Warn("resync result failed",
				zap.String("batch_id", jobID),
				zap.String("url", result.URL),
				zap.Error(err),
			)
			return
		}
	}
}

func (p *Processor) updateJob(ctx context.Context, jobID string, status detect.BatchStatus, processed int, errText string) {
	if err := p.jobs.UpdateJob(ctx, jobID, status, processed, errText); err != nil {
		p.logger.Warn("update job failed",
			zap.String("batch_id", jobID),
			zap.Error(err),
		)
	}
}

func outcomeFor(result detect.Result, source detector.Source) progress.Outcome {
	switch {
	case result.Status == detect.StatusFailed:
		return progress.OutcomeFailed
	case source == detector.SourceCache:
		return progress.OutcomeCached
	case source == detector.SourceDenylist:
		return progress.OutcomeDenylist
	default:
		return progress.OutcomeCompleted
	}
}
