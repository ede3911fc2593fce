package cascade

import (
	"context"
	"sync"
	"time"
)

// runParallel drives the cascade in race mode: every eligible tier starts
// concurrently, the first to complete successfully wins. Escalations and
// retries are always reported as zero in this mode.
func runParallel(c *Cascade, input interface{}, execOpts *ExecuteOptions) (*Result, error) {
	abort := execOpts.abort()
	metrics := newMetricsBuilder()

	if isAborted(abort) {
		return nil, &AbortedError{TotalDurationMs: metrics.build().TotalDurationMs}
	}

	var eligible, skipped []Tier
	for _, t := range tiersFrom(c.options.startTier()) {
		if _, ok := c.handlerFor(t); !ok {
			skipped = append(skipped, t)
			continue
		}
		if c.options.isUnconditionallySkipped(t) {
			skipped = append(skipped, t)
			continue
		}
		eligible = append(eligible, t)
	}

	if len(eligible) == 0 {
		return nil, exhaustedError(c, nil, metrics)
	}

	type raceResult struct {
		tier    Tier
		attempt TierAttempt
	}

	results := make(chan raceResult, len(eligible))
	var wg sync.WaitGroup
	for _, t := range eligible {
		handler, _ := c.handlerFor(t)
		tierTimeout := c.options.timeoutFor(t)
		tierCtx := &TierContext{
			Tier:            t,
			Attempt:         1,
			CascadeAttempt:  1,
			TimeRemainingMs: durationMs(tierTimeout),
		}

		wg.Add(1)
		go func(t Tier, handler Handler, tierCtx *TierContext, tierTimeout time.Duration) {
			defer wg.Done()
			spanCtx, span := c.telemetry.StartSpan(context.Background(), "cascade.tier_attempt")
			span.SetAttribute("tier", string(t))
			span.SetAttribute("attempt", 1)

			outcome := runWithTimeout(spanCtx, handler, input, tierCtx, tierTimeout, 0, abort)

			span.SetAttribute("status", string(outcome.status))
			if outcome.err != nil {
				span.RecordError(outcome.err)
			}
			span.End()
			c.telemetry.RecordMetric(metricTierDuration, float64(outcome.durationMs), map[string]string{
				"tier":   string(t),
				"status": string(outcome.status),
			})

			record := TierAttempt{
				Tier:       t,
				Attempt:    1,
				Timestamp:  outcome.start,
				DurationMs: outcome.durationMs,
				Status:     outcome.status,
				Result:     outcome.result,
				Error:      outcome.err,
			}
			results <- raceResult{tier: t, attempt: record}
		}(t, handler, tierCtx, tierTimeout)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var history []TierAttempt
	for i := 0; i < len(eligible); i++ {
		select {
		case <-abort:
			return nil, &AbortedError{History: history, TotalDurationMs: metrics.build().TotalDurationMs}
		case rr, ok := <-results:
			if !ok {
				continue
			}
			history = append(history, rr.attempt)
			metrics.recordAttempts(rr.tier, []TierAttempt{rr.attempt})
			if rr.attempt.Status == StatusCompleted {
				result := &Result{
					Output:       rr.attempt.Result,
					SuccessTier:  rr.tier,
					History:      history,
					SkippedTiers: skipped,
					Metrics:      metrics.build(),
				}
				c.telemetry.RecordMetric(metricTotalDuration, float64(result.Metrics.TotalDurationMs), map[string]string{"tier": string(rr.tier)})
				return result, nil
			}
		}
	}

	return nil, exhaustedError(c, history, metrics)
}
