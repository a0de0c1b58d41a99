// Package retry implements the retry budget, a counter that tells a callee
// how many times the current call was attempted before.
//
// The counter travels with the request on the broadcast context. Its
// absence means the caller does not do retries, which is not the same as a
// first attempt.
package retry

import (
	"context"
	"time"

	"github.com/stairlin/relay/ctx/bcast"
)

// Count is the well-known key carrying the attempt number, 0-based
var Count = bcast.NewUintKey("relay.Retries")

// FromContext returns the attempt number received from the caller.
// It reports false when the caller did not send one
func FromContext(ctx context.Context) (uint64, bool) {
	v, ok := bcast.Get(ctx, Count)
	if !ok {
		return 0, false
	}
	n, ok := v.(uint64)
	return n, ok
}

// With returns a derived context carrying the given attempt number
func With(ctx context.Context, n uint64) context.Context {
	return bcast.With(ctx, Count, n)
}

// Clear returns a derived context without an attempt number, even if one
// was set by an outer scope or received from a peer
func Clear(ctx context.Context) context.Context {
	return bcast.Clear(ctx, Count)
}

// Policy drives how Do retries an operation
type Policy struct {
	// Max is the maximum number of attempts, including the first one
	Max int
	// Backoff returns how long to wait before the given attempt (1-based).
	// No backoff is applied when nil
	Backoff func(attempt int) time.Duration
	// Retryable tells whether an error is worth another attempt.
	// All errors are retried when nil
	Retryable func(err error) bool
}

// Do runs f until it succeeds, the policy gives up, or the context is done.
// Attempt n runs with Count bound to n, so the callee knows how many times
// the call was tried before
func Do(ctx context.Context, p Policy, f func(ctx context.Context) error) error {
	max := p.Max
	if max <= 0 {
		max = 1
	}

	var err error
	for attempt := 0; attempt < max; attempt++ {
		if attempt > 0 {
			var backoff time.Duration
			if p.Backoff != nil {
				backoff = p.Backoff(attempt)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = f(With(ctx, uint64(attempt)))
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}
	return err
}
