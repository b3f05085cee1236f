package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

// Package retry is the single retry/backoff utility shared by all external
// call sites. Only errors classified transient are retried; everything else
// stops the attempt loop immediately.

// Policy bounds the retry behavior for one logical call.
type Policy struct {
	// MaxAttempts counts the first call plus retries. Values below 1 mean
	// a single attempt.
	MaxAttempts int
	Base        time.Duration
	Multiplier  float64
}

// Normalize fills zero fields with safe defaults.
func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Base <= 0 {
		p.Base = 500 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	return p
}

// Do runs op with exponential backoff until it succeeds, returns a
// non-transient error, or the attempt ceiling is reached. The last error is
// returned unwrapped so callers can still classify it.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	p = p.normalize()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Base
	bo.Multiplier = p.Multiplier
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	wrapped := func() (T, error) {
		out, err := op()
		if err != nil && !domain.IsTransient(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	return backoff.RetryWithData(
		wrapped,
		backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(p.MaxAttempts-1)),
	)
}
