package cascade

import (
	"context"
	"time"
)

// tierOutcome is what the retry loop reports back to the dispatcher after
// driving a single tier to its terminal attempt.
type tierOutcome struct {
	attempts      []TierAttempt
	succeeded     bool
	output        interface{}
	finalErr      error
	finalStatus   AttemptStatus
	partial       interface{}
	hasPartial    bool
	customTimeout bool
}

// runRetryLoop repeats a tier up to retries+1 attempts. Between attempts it
// advances tierCtx.Attempt, refreshes TimeRemainingMs against the shared
// deadline, and keeps PreviousTier/PreviousError/PreviousResult pinned to
// the most recent *other* tier's failure — retries within this tier do not
// update those fields, per §4.5 ("these reflect prior tiers, not prior
// attempts within this tier").
func runRetryLoop(ctx context.Context, c *Cascade, tier Tier, handler Handler, input interface{}, baseCtx *TierContext, retries int, tierTimeout time.Duration, deadline time.Time, hasDeadline bool, abort <-chan struct{}) tierOutcome {
	var out tierOutcome
	out.customTimeout = c.options.hasCustomTimeout(tier)
	defer func() {
		if len(out.attempts) > 1 {
			c.telemetry.RecordMetric(metricRetries, float64(len(out.attempts)-1), map[string]string{"tier": string(tier)})
		}
	}()

	maxAttempts := retries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		tierCtx := *baseCtx
		tierCtx.Attempt = attempt

		remaining := time.Duration(0)
		if hasDeadline {
			remaining = time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
		}
		effective := tierTimeout
		if hasDeadline && remaining < effective {
			effective = remaining
		}
		tierCtx.TimeRemainingMs = durationMs(effective)

		spanCtx, span := c.telemetry.StartSpan(ctx, "cascade.tier_attempt")
		span.SetAttribute("tier", string(tier))
		span.SetAttribute("attempt", attempt)

		outcome := runWithTimeout(spanCtx, handler, input, &tierCtx, effective, 0, abort)

		span.SetAttribute("status", string(outcome.status))
		if outcome.err != nil {
			span.RecordError(outcome.err)
		}
		span.End()
		c.telemetry.RecordMetric(metricTierDuration, float64(outcome.durationMs), map[string]string{
			"tier":   string(tier),
			"status": string(outcome.status),
		})
		c.logger.DebugWithContext(ctx, "cascade: tier attempt finished", map[string]interface{}{
			"cascade_id":  c.id,
			"tier":        string(tier),
			"attempt":     attempt,
			"status":      string(outcome.status),
			"duration_ms": outcome.durationMs,
		})

		record := TierAttempt{
			Tier:       tier,
			Attempt:    attempt,
			Timestamp:  outcome.start,
			DurationMs: outcome.durationMs,
			Status:     outcome.status,
		}
		if outcome.status == StatusCompleted {
			record.Result = outcome.result
			out.attempts = append(out.attempts, record)
			out.succeeded = true
			out.output = outcome.result
			return out
		}

		record.Error = outcome.err
		out.attempts = append(out.attempts, record)

		if p, ok := partialResultOf(outcome.err); ok {
			out.partial = p
			out.hasPartial = true
		}

		out.finalErr = outcome.err
		out.finalStatus = outcome.status

		if _, aborted := outcome.err.(*AbortedError); aborted {
			return out
		}

		if attempt == maxAttempts {
			return out
		}
	}
	return out
}
