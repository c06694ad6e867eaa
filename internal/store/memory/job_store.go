// Package memory provides an in-memory batch job store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chatlens/chatlens/internal/detect"
)

// JobStore implements detect.JobStore for development and testing.
type JobStore struct {
	mu      sync.RWMutex
	jobs    map[string]detect.BatchJob
	results map[string][]detect.Result
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[string]detect.BatchJob),
		results: make(map[string][]detect.Result),
	}
}

// CreateJob stores a new batch job in pending status.
func (s *JobStore) CreateJob(_ context.Context, job detect.BatchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return detect.ErrDuplicateBatch
	}
	s.jobs[job.ID] = job
	return nil
}

// UpdateJob updates status, progress counter, and error text for a job.
func (s *JobStore) UpdateJob(_ context.Context, jobID string, status detect.BatchStatus, processed int, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return detect.ErrUnknownBatch
	}
	job.Status = status
	job.ProcessedCount = processed
	job.ErrorText = errText
	now := time.Now().UTC()
	if status == detect.BatchStatusProcessing && job.Started == nil {
		job.Started = pointerTime(now)
	}
	if status.Terminal() && job.Finished == nil {
		job.Finished = pointerTime(now)
	}
	s.jobs[jobID] = job
	return nil
}

// RecordResult stores a settled result for a job, keyed by URL. Recording
// the same URL again replaces the earlier result.
func (s *JobStore) RecordResult(_ context.Context, jobID string, result detect.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return detect.ErrUnknownBatch
	}
	for i, existing := range s.results[jobID] {
		if existing.URL == result.URL {
			s.results[jobID][i] = result
			return nil
		}
	}
	s.results[jobID] = append(s.results[jobID], result)
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (detect.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return detect.BatchJob{}, detect.ErrUnknownBatch
	}
	return job, nil
}

// ListResults returns all recorded results for a job.
func (s *JobStore) ListResults(_ context.Context, jobID string) ([]detect.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := s.results[jobID]
	out := make([]detect.Result, len(results))
	copy(out, results)
	return out, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
