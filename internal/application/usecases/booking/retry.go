package booking

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lib/pq"
)

const (
	pqSerializationFailure pq.ErrorCode = "40001"
	pqDeadlockDetected     pq.ErrorCode = "40P01"
)

// WithRetry re-runs f while Postgres reports a serialization failure or a
// deadlock. Any other error is returned at once.
func WithRetry(attempts int, f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for i := 0; i < attempts; i++ {
			err := f(ctx)
			if err == nil {
				return nil
			}
			if !isRetryable(err) {
				return err
			}

			log.FromContext(ctx).
				WithError(err).
				WithField("attempt", i+1).
				Warn("Transaction aborted by the database, retrying")
			lastErr = err
		}
		return lastErr
	}
}

func isRetryable(err error) bool {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pqSerializationFailure || pgErr.Code == pqDeadlockDetected
}
