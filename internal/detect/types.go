// Package detect defines core types shared across detection subsystems.
package detect

import "time"

// Status represents the lifecycle state of a single-URL analysis.
type Status string

// Analysis status values carried on results and persisted in the cache.
const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Verification describes how a verdict was derived.
type Verification string

// Verification values, strongest first.
const (
	VerificationVerified   Verification = "verified"
	VerificationLikely     Verification = "likely"
	VerificationUnverified Verification = "unverified"
)

// PatternKind identifies which rule set produced a match.
type PatternKind string

// Supported pattern kinds.
const (
	KindScriptSignature     PatternKind = "script_signature"
	KindDomSelector         PatternKind = "dom_selector"
	KindWebsocketURL        PatternKind = "websocket_url"
	KindPlatformFingerprint PatternKind = "platform_fingerprint"
)

// Match is one piece of evidence produced by a pattern rule firing
// against page content.
type Match struct {
	Vendor      string      `json:"vendor"`
	Kind        PatternKind `json:"kind"`
	MatchedText string      `json:"matched_text"`
}

// Result is the value object produced for every analyzed URL.
type Result struct {
	URL           string       `json:"url"`
	Title         string       `json:"title,omitempty"`
	Status        Status       `json:"status"`
	HasChatbot    bool         `json:"has_chatbot"`
	ChatSolutions []string     `json:"chat_solutions,omitempty"`
	Platforms     []string     `json:"platforms,omitempty"`
	Confidence    *float64     `json:"confidence,omitempty"`
	Verification  Verification `json:"verification_status"`
	Matches       []Match      `json:"matches,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	LastChecked   time.Time    `json:"last_checked"`
}

// WithConfidence sets the confidence pointer from a literal value.
func (r Result) WithConfidence(c float64) Result {
	r.Confidence = &c
	return r
}

// CacheEntry is the persisted subset of a Result keyed by normalized URL.
type CacheEntry struct {
	URL       string    `json:"url"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// Fresh reports whether the entry is still usable at the given instant.
// An entry exactly at the TTL boundary is stale.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// BatchStatus represents the lifecycle state of a batch job.
type BatchStatus string

// Batch status values persisted in the job store.
const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// BatchJob tracks progress of one submitted URL set.
type BatchJob struct {
	ID             string      `json:"id"`
	URLs           []string    `json:"urls"`
	Status         BatchStatus `json:"status"`
	TotalCount     int         `json:"total_count"`
	ProcessedCount int         `json:"processed_count"`
	Submitted      time.Time   `json:"submitted_at"`
	Started        *time.Time  `json:"started_at,omitempty"`
	Finished       *time.Time  `json:"finished_at,omitempty"`
	ErrorText      string      `json:"error_text,omitempty"`
}

// Terminal reports whether the batch has reached a final state.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}
