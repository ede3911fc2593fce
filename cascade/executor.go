package cascade

import (
	"context"
	"fmt"

	"github.com/cascade-run/cascade/core"
	"github.com/google/uuid"
)

// Execute runs the full cascade for input, escalating across tiers per the
// configured options. execOpts may be nil, which is equivalent to
// &ExecuteOptions{}.
func (c *Cascade) Execute(ctx context.Context, input interface{}, execOpts *ExecuteOptions) (*Result, error) {
	invocationID := uuid.NewString()
	spanCtx, span := c.telemetry.StartSpan(ctx, "cascade.Execute")
	span.SetAttribute("cascade_id", c.id)
	span.SetAttribute("invocation_id", invocationID)
	span.SetAttribute("parallel", c.options.parallelEnabled())
	defer span.End()

	c.logger.InfoWithContext(spanCtx, "cascade: execute started", map[string]interface{}{
		"cascade_id":    c.id,
		"invocation_id": invocationID,
		"parallel":      c.options.parallelEnabled(),
	})

	var result *Result
	var err error
	if c.options.parallelEnabled() {
		result, err = runParallel(c, input, execOpts)
	} else {
		result, err = runSequential(c, input, execOpts)
	}

	if err != nil {
		span.RecordError(err)
		c.logger.ErrorWithContext(spanCtx, "cascade: execute failed", map[string]interface{}{
			"cascade_id":    c.id,
			"invocation_id": invocationID,
			"error":         err.Error(),
		})
		return nil, err
	}

	c.logger.InfoWithContext(spanCtx, "cascade: execute succeeded", map[string]interface{}{
		"cascade_id":     c.id,
		"invocation_id":  invocationID,
		"success_tier":   string(result.SuccessTier),
		"escalations":    result.Metrics.Escalations,
		"total_retries":  result.Metrics.TotalRetries,
		"total_duration": result.Metrics.TotalDurationMs,
	})
	return result, nil
}

// ExecuteTier runs a single tier's handler directly, bypassing timeouts,
// skip conditions, and retries. This is the low-level primitive used by
// tests and by higher-level orchestration that wants finer control.
func (c *Cascade) ExecuteTier(ctx context.Context, tier Tier, input interface{}, tierCtx *TierContext) (interface{}, error) {
	if tier == "" {
		return nil, &core.FrameworkError{
			Op:      "cascade.ExecuteTier",
			Kind:    "tier-not-defined",
			Message: "tier must not be empty",
		}
	}
	handler, ok := c.handlerFor(tier)
	if !ok {
		return nil, &core.FrameworkError{
			Op:      "cascade.ExecuteTier",
			Kind:    "tier-not-defined",
			ID:      string(tier),
			Message: fmt.Sprintf("no handler defined for tier %q", tier),
		}
	}
	if tierCtx == nil {
		return nil, &core.FrameworkError{
			Op:      "cascade.ExecuteTier",
			Kind:    "tier-context-required",
			ID:      string(tier),
			Message: "a tier context is required for direct tier execution",
		}
	}

	spanCtx, span := c.telemetry.StartSpan(ctx, "cascade.ExecuteTier")
	span.SetAttribute("tier", string(tier))
	defer span.End()

	out, err := handler.Execute(spanCtx, input, tierCtx)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}
