// Package progress defines the events emitted while batches run and the
// hub that fans them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageBatchStart Stage = "BATCH_START"
	StageURLSettled Stage = "URL_SETTLED"
	StageBatchDone  Stage = "BATCH_DONE"
)

// Outcome classifies how a URL settled.
type Outcome string

// URL settlement outcomes.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCached    Outcome = "cached"
	OutcomeDenylist  Outcome = "denylist"
	OutcomeFailed    Outcome = "failed"
)

// Event is one progress milestone. URL and Outcome are set only for
// StageURLSettled.
type Event struct {
	Stage     Stage
	BatchID   string
	URL       string
	Outcome   Outcome
	Processed int
	Total     int
	Timestamp time.Time
}

// Validate rejects events that sinks cannot attribute.
func (e Event) Validate() error {
	if e.BatchID == "" {
		return errors.New("progress event requires batch id")
	}
	switch e.Stage {
	case StageBatchStart, StageBatchDone:
		return nil
	case StageURLSettled:
		if e.URL == "" {
			return errors.New("url settled event requires url")
		}
		return nil
	default:
		return fmt.Errorf("unknown progress stage %q", e.Stage)
	}
}
