package domain

import "time"

// Domain contains core models shared across pipeline stages.

// Listing is one raw search result as returned by the source API. It only
// lives for the duration of a run.
type Listing struct {
	Title       string
	Snippet     string
	Link        string
	BloggerName string
	PostedAt    string // raw source timestamp, not normalized
}

// DateLayout is the canonical calendar format events are normalized to.
const DateLayout = "2006-01-02"

// Event is one structured pop-up-store event extracted from a listing.
type Event struct {
	Name        string
	Brand       string
	Place       string
	Address     string
	StartDate   time.Time
	EndDate     time.Time
	DateUnknown bool
	Description string
	SourceURL   string
	CollectedAt time.Time
}

// HasPeriod reports whether the event carries a usable date range.
func (e Event) HasPeriod() bool {
	return !e.DateUnknown && !e.StartDate.IsZero()
}

// PublishState tracks what happened to a fingerprint so far.
type PublishState string

const (
	StatePending   PublishState = "pending"
	StatePublished PublishState = "published"
	StateFailed    PublishState = "failed"
)

// DedupRecord is the durable per-fingerprint publish state. Records are
// created on first sight and mutated only through reserve/commit.
type DedupRecord struct {
	Fingerprint  string       `json:"fingerprint"`
	State        PublishState `json:"state"`
	AttemptCount int          `json:"attempt_count"`
	RemoteID     int64        `json:"remote_id,omitempty"`
	LastUpdated  time.Time    `json:"last_updated"`
}

// RunSummary is the per-run counter record appended to the run log.
type RunSummary struct {
	StartedAt         time.Time `json:"started_at"`
	DurationMs        int64     `json:"duration_ms"`
	Fetched           int       `json:"fetched"`
	FilteredOut       int       `json:"filtered_out"`
	Extracted         int       `json:"extracted"`
	SkippedDuplicates int       `json:"skipped_duplicates"`
	Published         int       `json:"published"`
	Failed            int       `json:"failed"`
}
