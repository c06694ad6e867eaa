package detect

import (
	"context"
	"time"
)

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// ResultCache stores completed analyses keyed by normalized URL.
// Implementations must upsert on Put (last writer wins) and may be backed
// by a network store; callers treat any error as a cache miss.
type ResultCache interface {
	Get(ctx context.Context, url string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// JobStore persists batch job metadata and progress counters.
type JobStore interface {
	CreateJob(ctx context.Context, job BatchJob) error
	UpdateJob(ctx context.Context, jobID string, status BatchStatus, processed int, errText string) error
	GetJob(ctx context.Context, jobID string) (BatchJob, error)
	RecordResult(ctx context.Context, jobID string, result Result) error
	ListResults(ctx context.Context, jobID string) ([]Result, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces batch IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
