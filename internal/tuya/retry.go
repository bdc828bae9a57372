package tuya

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	retryInitialDelay = 100 * time.Millisecond
	retryMaxDelay     = time.Second
	retryJitter       = 0.1
)

// backoff paces reconnects between status attempts: doubling from initial,
// capped at max, with +/- jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	jitter  float64
}

func newBackoff() backoff {
	return backoff{initial: retryInitialDelay, max: retryMaxDelay, jitter: retryJitter}
}

// delay returns the pause before the given retry, counting from 1.
func (b backoff) delay(retry int) time.Duration {
	d := float64(b.initial)
	for i := 1; i < retry && d < float64(b.max); i++ {
		d *= 2
	}

	d += d * b.jitter * (2*rand.Float64() - 1)

	return time.Duration(min(d, float64(b.max)))
}

// wait sleeps before the given retry unless ctx ends first.
func (b backoff) wait(ctx context.Context, retry int) error {
	timer := time.NewTimer(b.delay(retry))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
