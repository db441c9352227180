package extraction

import (
	"context"
	"time"
)

// RetryPolicy bounds the attempts made for one oracle call. A Multiplier of
// 1 gives a fixed delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	// Timeout caps a single attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Multiplier:  1.0,
		Timeout:     90 * time.Second,
	}
}

// delay returns the wait before attempt n+1, given that attempt n (1-based) failed.
func (p RetryPolicy) delay(n int) time.Duration {
	d := float64(p.Delay)
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	for i := 1; i < n; i++ {
		d *= m
	}
	return time.Duration(d)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
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
