package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/internal/logger"
	"github.com/seongsu-hq/popup-harvester/internal/storage"
	"github.com/seongsu-hq/popup-harvester/pkg/fingerprint"
	"github.com/seongsu-hq/popup-harvester/pkg/notify"
	"github.com/seongsu-hq/popup-harvester/pkg/retry"
	"github.com/seongsu-hq/popup-harvester/pkg/source"
	"github.com/seongsu-hq/popup-harvester/pkg/wordpress"
)

// Options tunes one pipeline instance.
type Options struct {
	Queries     []source.Query
	Concurrency int
	Retry       retry.Policy
	// Filter drops listings before extraction. Optional.
	Filter func(listing domain.Listing) bool
}

// Service drives one run: fetch candidates, extract structured events,
// reserve fingerprints, publish the remainder, commit outcomes, and report
// a run summary. All I/O happens in the injected components; auth failures
// and store I/O errors abort the run, everything else is isolated per item.
type Service struct {
	source    SourceClient
	extractor Extractor
	publisher Publisher
	store     storage.Store
	notifier  Notifier
	opts      Options
}

// NewService wires the pipeline from its stage implementations. The
// notifier may be nil.
func NewService(src SourceClient, ex Extractor, pub Publisher, store storage.Store, notifier Notifier, opts Options) (*Service, error) {
	if src == nil || ex == nil || pub == nil || store == nil {
		return nil, fmt.Errorf("pipeline requires source, extractor, publisher and store")
	}
	if len(opts.Queries) == 0 {
		return nil, fmt.Errorf("no queries configured")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Service{
		source:    src,
		extractor: ex,
		publisher: pub,
		store:     store,
		notifier:  notifier,
		opts:      opts,
	}, nil
}

// Run executes one fetch→extract→filter→publish→summarize pass. The
// returned summary is valid even when err is non-nil (partial run).
func (s *Service) Run(ctx context.Context) (domain.RunSummary, error) {
	start := time.Now().UTC()
	summary := domain.RunSummary{StartedAt: start}
	finish := func() {
		summary.DurationMs = time.Since(start).Milliseconds()
	}

	listings, err := s.fetchAll(ctx, &summary)
	if err != nil {
		finish()
		return summary, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, listing := range listings {
		g.Go(func() error {
			return s.process(gctx, listing, &mu, &summary)
		})
	}

	err = g.Wait()
	finish()
	if err != nil {
		return summary, fmt.Errorf("run aborted: %w", err)
	}
	return summary, nil
}

// fetchAll materializes candidate listings for every configured query,
// sequentially per query. Transient source failures keep the listings
// collected so far; auth failures abort.
func (s *Service) fetchAll(ctx context.Context, summary *domain.RunSummary) ([]domain.Listing, error) {
	var listings []domain.Listing
	for _, q := range s.opts.Queries {
		got, err := s.source.Fetch(ctx, q)
		listings = append(listings, got...)
		summary.Fetched += len(got)

		if err != nil {
			if domain.IsAuth(err) {
				return nil, fmt.Errorf("fetch %q: %w", q.Keyword, err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WarnObj("source fetch ended early", "fetch_error", map[string]any{
				"keyword":   q.Keyword,
				"collected": len(got),
				"error":     err.Error(),
			})
		}
	}
	return listings, nil
}

// process handles one listing end to end. It returns an error only for
// run-fatal conditions; per-item failures are counted and swallowed.
func (s *Service) process(ctx context.Context, listing domain.Listing, mu *sync.Mutex, summary *domain.RunSummary) error {
	if s.opts.Filter != nil && !s.opts.Filter(listing) {
		count(mu, &summary.FilteredOut)
		logger.DebugObj("listing filtered out before extraction", "listing_url", listing.Link)
		return nil
	}

	event, err := retry.Do(ctx, s.opts.Retry, func() (domain.Event, error) {
		return s.extractor.Extract(ctx, listing)
	})
	if err != nil {
		if domain.IsAuth(err) {
			return fmt.Errorf("extract: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		count(mu, &summary.Failed)
		logger.WarnObj("extraction failed for listing", "extraction_error", map[string]any{
			"url":   listing.Link,
			"error": err.Error(),
		})
		return nil
	}

	if err := validateEvent(event); err != nil {
		count(mu, &summary.Failed)
		logger.WarnObj("event failed validation", "validation_error", map[string]any{
			"url":   listing.Link,
			"error": err.Error(),
		})
		return nil
	}
	count(mu, &summary.Extracted)

	fp := fingerprint.Compute(event)

	outcome, err := s.store.Reserve(fp)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", fp, err)
	}
	switch outcome {
	case storage.DuplicatePending, storage.DuplicatePublished:
		count(mu, &summary.SkippedDuplicates)
		logger.DebugObj("duplicate event skipped", "dedup_skip", map[string]any{
			"fingerprint": fp,
			"outcome":     outcome.String(),
		})
		return nil
	case storage.Exhausted:
		count(mu, &summary.SkippedDuplicates)
		logger.WarnObj("event past retry ceiling, left for inspection", "dedup_exhausted", map[string]any{
			"fingerprint": fp,
			"name":        event.Name,
		})
		return nil
	}

	// Reserved: exactly one commit must follow, even on cancellation.
	result, pubErr := retry.Do(ctx, s.opts.Retry, func() (wordpress.PublishResult, error) {
		return s.publisher.Publish(ctx, event)
	})
	if pubErr != nil {
		if err := s.store.Commit(fp, storage.Outcome{}); err != nil {
			return fmt.Errorf("commit failure for %s: %w", fp, err)
		}
		count(mu, &summary.Failed)
		if domain.IsAuth(pubErr) {
			return fmt.Errorf("publish: %w", pubErr)
		}
		logger.WarnObj("publish failed for event", "publish_error", map[string]any{
			"fingerprint": fp,
			"name":        event.Name,
			"error":       pubErr.Error(),
		})
		return nil
	}

	if err := s.store.Commit(fp, storage.Outcome{Published: true, RemoteID: result.ContentID}); err != nil {
		return fmt.Errorf("commit publish for %s: %w", fp, err)
	}
	count(mu, &summary.Published)

	if result.Duplicate {
		logger.InfoObj("backend reported existing content, recorded as published", "publish_duplicate", map[string]any{
			"fingerprint": fp,
			"content_id":  result.ContentID,
		})
	}

	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, notify.NewEvent(fp, result.ContentID, event)); err != nil {
			logger.WarnObj("notification fanout failed", "notify_error", map[string]any{
				"fingerprint": fp,
				"error":       err.Error(),
			})
		}
	}

	return nil
}

// validateEvent applies the sanity checks on a structured event.
func validateEvent(event domain.Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return domain.Invalid("name", "is empty")
	}
	if !event.DateUnknown && event.StartDate.IsZero() {
		return domain.Invalid("start_date", "is zero without date-unknown marker")
	}
	if !event.EndDate.IsZero() && event.EndDate.Before(event.StartDate) {
		return domain.Invalid("end_date", "precedes start_date")
	}
	return nil
}

func count(mu *sync.Mutex, field *int) {
	mu.Lock()
	*field++
	mu.Unlock()
}
