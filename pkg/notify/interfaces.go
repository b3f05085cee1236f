package notify

import "context"

// Notifier sends published-event notifications to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}
