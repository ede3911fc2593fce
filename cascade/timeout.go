package cascade

import (
	"context"
	"time"
)

// attemptOutcome is the result of running a single handler invocation
// through the timeout harness.
type attemptOutcome struct {
	status     AttemptStatus
	result     interface{}
	err        error
	start      time.Time
	durationMs int64
	timeoutMs  int64 // populated only on a timeout outcome
}

// runWithTimeout runs handler.Execute under a deadline of
// min(tierTimeout, remainingTotalTimeout) and races it against abort. It is
// the single place that measures attempt duration: start is captured before
// invocation, end when the harness resolves by any path.
//
// On timer fire or abort, the harness stops observing the handler but does
// not forcibly kill it — handlers are expected to observe ctx for
// cooperative cancellation. The handler goroutine is left running; its
// eventual result is discarded into a buffered channel so it never blocks
// and never surfaces as a stray panic.
func runWithTimeout(parent context.Context, handler Handler, input interface{}, tierCtx *TierContext, tierTimeout, remainingTotal time.Duration, abort <-chan struct{}) attemptOutcome {
	effective := tierTimeout
	if remainingTotal > 0 && remainingTotal < effective {
		effective = remainingTotal
	}
	if effective < 0 {
		effective = 0
	}

	ctx, cancel := context.WithTimeout(parent, effective)
	defer cancel()

	start := time.Now()
	type handlerResult struct {
		out interface{}
		err error
	}
	done := make(chan handlerResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerResult{err: coerceError(r)}
			}
		}()
		out, err := handler.Execute(ctx, input, tierCtx)
		done <- handlerResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.err != nil {
			if tte, ok := asTierTimeout(res.err); ok {
				return attemptOutcome{status: StatusTimeout, err: res.err, start: start, durationMs: durationMs(elapsed), timeoutMs: tte.TimeoutMs}
			}
			return attemptOutcome{status: StatusFailed, err: res.err, start: start, durationMs: durationMs(elapsed)}
		}
		return attemptOutcome{status: StatusCompleted, result: res.out, start: start, durationMs: durationMs(elapsed)}
	case <-abort:
		elapsed := time.Since(start)
		return attemptOutcome{status: StatusFailed, err: ErrAborted, start: start, durationMs: durationMs(elapsed)}
	case <-ctx.Done():
		elapsed := time.Since(start)
		return attemptOutcome{
			status:     StatusTimeout,
			err:        &TierTimeoutError{Tier: tierCtx.Tier, TimeoutMs: durationMs(effective)},
			start:      start,
			durationMs: durationMs(elapsed),
			timeoutMs:  durationMs(effective),
		}
	}
}
