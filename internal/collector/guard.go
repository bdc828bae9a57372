package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

// Guard runs fn on its own goroutine and waits at most deadline for it.
// When the deadline wins the worker is abandoned, not cancelled: it keeps
// whatever it is blocked on and its eventual result is dropped. fn receives a
// context with the same deadline so cooperative code can stop early.
func Guard(ctx context.Context, deadline time.Duration, fn func(ctx context.Context) model.Result) model.Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered so an abandoned worker never blocks on send.
	done := make(chan model.Result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- model.Failure(model.KindUnexpected, fmt.Sprint(p))
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case res := <-done:
		// A failure caused by the shared deadline is reported as the timeout.
		if !res.Online && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Timeout()
		}
		return res
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Timeout()
		}
		return model.Failure(model.KindUnexpected, "Interrupted")
	}
}
