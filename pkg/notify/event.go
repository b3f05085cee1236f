package notify

import (
	"time"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

// Event is the payload sent downstream when a pop-up event was published.
type Event struct {
	Fingerprint string    `json:"fingerprint"`
	ContentID   int64     `json:"content_id"`
	Name        string    `json:"name"`
	Place       string    `json:"place"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	SourceURL   string    `json:"source_url"`
	PublishedAt time.Time `json:"published_at"`
}

// NewEvent constructs the notification payload for a published event.
func NewEvent(fingerprint string, contentID int64, event domain.Event) Event {
	out := Event{
		Fingerprint: fingerprint,
		ContentID:   contentID,
		Name:        event.Name,
		Place:       event.Place,
		SourceURL:   event.SourceURL,
		PublishedAt: time.Now().UTC(),
	}
	if event.HasPeriod() {
		out.StartDate = event.StartDate.Format(domain.DateLayout)
		if !event.EndDate.IsZero() {
			out.EndDate = event.EndDate.Format(domain.DateLayout)
		}
	}
	return out
}
