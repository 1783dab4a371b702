package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"ticketing/internal/application/usecases/booking"
)

func TestWithRetry(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		expectedCalls int
	}{
		{
			name:          "serialization failure",
			err:           &pq.Error{Code: "40001"},
			expectedCalls: 3,
		},
		{
			name:          "deadlock",
			err:           &pq.Error{Code: "40P01"},
			expectedCalls: 3,
		},
		{
			name:          "unique violation",
			err:           &pq.Error{Code: "23505"},
			expectedCalls: 1,
		},
		{
			name:          "plain error",
			err:           errors.New("boom"),
			expectedCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := booking.WithRetry(3, func(ctx context.Context) error {
				calls++
				return tc.err
			})(context.Background())

			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.expectedCalls, calls)
		})
	}
}

func TestWithRetry_succeeds_after_transient_failure(t *testing.T) {
	calls := 0
	err := booking.WithRetry(3, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40P01"}
		}
		return nil
	})(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
