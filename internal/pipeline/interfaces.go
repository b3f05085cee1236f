package pipeline

import (
	"context"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/pkg/notify"
	"github.com/seongsu-hq/popup-harvester/pkg/source"
	"github.com/seongsu-hq/popup-harvester/pkg/wordpress"
)

// SourceClient fetches candidate listings for one query.
type SourceClient interface {
	Fetch(ctx context.Context, q source.Query) ([]domain.Listing, error)
}

// Extractor turns one raw listing into a structured event.
type Extractor interface {
	Extract(ctx context.Context, listing domain.Listing) (domain.Event, error)
}

// Publisher pushes one structured event to the content backend.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) (wordpress.PublishResult, error)
}

// Notifier fans published-event notifications out to downstream sinks.
type Notifier interface {
	Notify(ctx context.Context, evt notify.Event) (int, error)
}
