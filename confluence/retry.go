package confluence

import (
	"context"
	"errors"
	"time"
)

const (
	lookupAttempts = 3
	lookupBackoff  = 250 * time.Millisecond
)

// retryLookup runs fn up to lookupAttempts times with doubling backoff, but
// only while it keeps failing transiently.  It exists for read-only lookups;
// mutating calls must never go through here, since a mutation whose ack was
// lost may already have been applied.
func retryLookup(ctx context.Context, fn func() error) error {
	var err error
	backoff := lookupBackoff

	for attempt := 0; attempt < lookupAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return context.Cause(ctx)
			}
			backoff *= 2
		}

		err = fn()

		var transient *TransientError
		if err == nil || !errors.As(err, &transient) {
			return err
		}
	}

	return err
}
