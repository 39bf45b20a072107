package imagegen

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const retryJitterWindow = time.Second

// BackoffFloor is the minimum wait before retry n (0-based): initial * 2^n.
func BackoffFloor(initial time.Duration, n int) time.Duration {
	return initial << uint(n)
}

// retryDelay adds up to a second of jitter to the backoff floor.
func retryDelay(rng *rand.Rand, initial time.Duration, n int) time.Duration {
	return BackoffFloor(initial, n) + jitter(rng, retryJitterWindow)
}

func jitter(rng *rand.Rand, window time.Duration) time.Duration {
	if window <= 0 {
		return 0
	}
	return time.Duration(rng.Int64N(int64(window)))
}
