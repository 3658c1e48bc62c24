package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	errUpstream := errors.New("upstream down")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errUpstream
			}
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when attempts are exhausted", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
			calls++
			return 0, errUpstream
		})

		assert.ErrorIs(t, err, errUpstream)
		assert.Equal(t, 2, calls)
	})

	t.Run("waits linearly between attempts", func(t *testing.T) {
		var stamps []time.Time
		_, _ = Retry(context.Background(), 3, 20*time.Millisecond, func(context.Context) (int, error) {
			stamps = append(stamps, time.Now())
			return 0, errUpstream
		})

		require.Len(t, stamps, 3)
		assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
		assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Retry(ctx, 5, time.Hour, func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errUpstream
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_, _ = Retry(context.Background(), 0, time.Millisecond, func(context.Context) (int, error) {
			calls++
			return 0, errUpstream
		})
		assert.Equal(t, 1, calls)
	})
}
