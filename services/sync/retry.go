package sync

import (
	"context"
	"log"
	"time"

	"github.com/jpillora/backoff"
)

// WithRetry wraps one folder's sync attempt with a bounded retry loop:
// maxRetries additional invocations after a fixed delay. Only a fully failed
// attempt (no messages synced) with a retryable error kind is repeated;
// partial success is returned as-is. The last attempt's result is always
// surfaced, success or not.
func WithRetry(ctx context.Context, attempt func() SyncResult, maxRetries int, delay time.Duration) SyncResult {
	// Factor 1 keeps the delay fixed between attempts
	b := &backoff.Backoff{
		Min:    delay,
		Max:    delay,
		Factor: 1,
		Jitter: false,
	}

	result := attempt()

	for i := 0; i < maxRetries; i++ {
		if result.Success || result.Synced > 0 {
			return result
		}
		if result.Error == nil || !result.Error.Kind.Retryable() {
			return result
		}

		log.Printf("[%s] Attempt failed with %s error, retrying in %v (%d of %d)",
			result.Folder, result.Error.Kind, delay, i+1, maxRetries)

		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return result
		}

		result = attempt()
	}

	return result
}
