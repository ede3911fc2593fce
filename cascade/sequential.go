package cascade

import (
	"context"
	"time"
)

// runSequential drives the overall cascade in sequential mode: iterate
// eligible tiers in canonical order, run each through the retry loop,
// escalate on terminal failure, return on the first success.
func runSequential(c *Cascade, input interface{}, execOpts *ExecuteOptions) (*Result, error) {
	abort := execOpts.abort()
	cascadeAttempt := execOpts.cascadeAttempt()
	metrics := newMetricsBuilder()

	var (
		history        []TierAttempt
		skipped        []Tier
		prevTier       Tier
		prevErr        error
		prevResult     interface{}
		hasPrev        bool
		lastSkipTier   Tier
		lastSkipReason string
	)

	eligible := c.eligibleTiers()

	// Tiers in canonical order that never even made it into the eligible
	// set (no handler, or unconditionally skipped) are skipped tiers too;
	// record them up front so skippedTiers preserves canonical order per
	// §5, not skip-detection order.
	eligibleSet := make(map[Tier]bool, len(eligible))
	for _, t := range eligible {
		eligibleSet[t] = true
	}
	for _, t := range tiersFrom(c.options.startTier()) {
		if !eligibleSet[t] {
			skipped = append(skipped, t)
		}
	}

	if len(eligible) == 0 {
		return nil, exhaustedError(c, history, metrics)
	}

	var totalDeadline time.Time
	hasTotalDeadline := c.options.totalTimeout() > 0
	if hasTotalDeadline {
		totalDeadline = time.Now().Add(c.options.totalTimeout())
	}

	for i, tier := range eligible {
		if isAborted(abort) {
			return nil, &AbortedError{History: history, TotalDurationMs: metrics.build().TotalDurationMs}
		}

		handler, _ := c.handlerFor(tier)

		tierCtx := &TierContext{
			Tier:           tier,
			CascadeAttempt: cascadeAttempt,
			PreviousTier:   prevTier,
			PreviousError:  prevErr,
			hasPrevious:    hasPrev,
		}
		if c.options.fallbackEnabled() {
			tierCtx.PreviousResult = prevResult
		}

		skip := evaluateSkip(c.options, input, tierCtx)
		if skip.skip {
			isLastEligible := i == len(eligible)-1
			// Insert in canonical position among already-recorded skips.
			skipped = insertCanonical(skipped, tier)
			lastSkipTier, lastSkipReason = tier, skip.reason
			if isLastEligible {
				return nil, &AllTiersSkippedError{Tier: lastSkipTier, Reason: lastSkipReason}
			}
			continue
		}

		retries := c.options.retriesFor(tier)
		tierTimeout := c.options.timeoutFor(tier)

		outcome := runRetryLoop(context.Background(), c, tier, handler, input, tierCtx, retries, tierTimeout, totalDeadline, hasTotalDeadline, abort)
		history = append(history, outcome.attempts...)
		metrics.recordAttempts(tier, outcome.attempts)

		if outcome.succeeded {
			// Tiers after the winning one were never reached, so they are
			// not reported as skipped.
			var skippedBefore []Tier
			for _, s := range skipped {
				if tierIndex(s) < tierIndex(tier) {
					skippedBefore = append(skippedBefore, s)
				}
			}
			result := &Result{
				Output:       outcome.output,
				SuccessTier:  tier,
				History:      history,
				SkippedTiers: skippedBefore,
				Metrics:      metrics.build(),
			}
			c.telemetry.RecordMetric(metricTotalDuration, float64(result.Metrics.TotalDurationMs), map[string]string{"tier": string(tier)})
			return result, nil
		}

		if _, aborted := outcome.finalErr.(*AbortedError); aborted {
			return nil, &AbortedError{History: history, TotalDurationMs: metrics.build().TotalDurationMs}
		}

		metrics.recordEscalation()
		c.telemetry.RecordMetric(metricEscalations, 1, map[string]string{"from_tier": string(tier)})

		prevTier, prevErr, hasPrev = tier, outcome.finalErr, true
		if outcome.hasPartial {
			prevResult = outcome.partial
		}

		isLastEligible := i == len(eligible)-1
		if isLastEligible {
			if outcome.finalStatus == StatusTimeout && !outcome.customTimeout {
				if tte, ok := asTierTimeout(outcome.finalErr); ok {
					return nil, tte
				}
			}
			return nil, exhaustedError(c, history, metrics)
		}
	}

	return nil, exhaustedError(c, history, metrics)
}

// insertCanonical inserts t into skipped keeping TierOrder position order.
func insertCanonical(skipped []Tier, t Tier) []Tier {
	idx := tierIndex(t)
	pos := len(skipped)
	for i, existing := range skipped {
		if tierIndex(existing) > idx {
			pos = i
			break
		}
	}
	skipped = append(skipped, "")
	copy(skipped[pos+1:], skipped[pos:])
	skipped[pos] = t
	return skipped
}

func exhaustedError(c *Cascade, history []TierAttempt, metrics *metricsBuilder) error {
	m := metrics.build()
	c.telemetry.RecordMetric(metricExhausted, 1, map[string]string{"cascade_id": c.id})
	return &CascadeExhaustedError{
		CascadeID:       c.id,
		History:         history,
		TotalDurationMs: m.TotalDurationMs,
	}
}
