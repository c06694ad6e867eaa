package detect

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Failure kinds distinguished at the detector boundary. Fetch failures are
// converted into Failed results, never propagated; cache failures are
// always recovered as misses.
var (
	ErrFetchTimeout      = errors.New("fetch timed out")
	ErrFetchHTTP         = errors.New("fetch returned non-success status")
	ErrFetchNetwork      = errors.New("fetch network error")
	ErrAnalysisParse     = errors.New("cached analysis payload is malformed")
	ErrCacheUnavailable  = errors.New("result cache unavailable")
	ErrUnknownBatch      = errors.New("batch job not found")
	ErrDuplicateBatch    = errors.New("batch job already exists")
	ErrNoURLs            = errors.New("no urls provided")
	ErrTooManyURLs       = errors.New("too many urls in one batch")
	ErrInvalidURL        = errors.New("invalid url")
	ErrDetectorShutdown  = errors.New("detector is shutting down")
	ErrResultUnavailable = errors.New("result not recorded for url")
)

// HTTPError wraps a non-2xx fetch with its status code.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch returned status %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrFetchHTTP) match wrapped HTTPErrors.
func (e *HTTPError) Is(target error) bool {
	return target == ErrFetchHTTP
}

// ClassifyFetchError folds an arbitrary fetch failure into the taxonomy.
// Timeouts (context deadline or net.Error timeouts) map to ErrFetchTimeout;
// HTTPError passes through; everything else is a network error.
func ClassifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrFetchTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrFetchNetwork, err)
}

// UserMessage renders the human-readable status text for a failure,
// keeping timeouts distinguishable from generic fetch errors.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetchTimeout):
		return "analysis timed out"
	case errors.Is(err, ErrFetchHTTP):
		return fmt.Sprintf("site could not be fetched: %v", err)
	default:
		return fmt.Sprintf("analysis failed: %v", err)
	}
}
