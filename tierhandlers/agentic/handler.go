// Package agentic provides a reference agentic-tier handler: a bounded
// multi-step loop where each step is guarded by a circuit breaker and retry
// policy, stopping as soon as a step reports it is done or the step budget
// is exhausted.
package agentic

import (
	"context"
	"fmt"
	"time"

	"github.com/cascade-run/cascade/cascade"
	"github.com/cascade-run/cascade/core"
)

// StepResult is returned by a Step function after one iteration of the
// agentic loop.
type StepResult struct {
	// Output accumulates across steps; the loop carries it forward as the
	// next step's State.
	Output interface{}
	// Done, when true, ends the loop and the current Output becomes the
	// tier's final result.
	Done bool
}

// Step performs one iteration of the agentic loop. state is nil on the
// first call, then whatever the previous step returned as Output.
type Step func(ctx context.Context, input interface{}, state interface{}, stepNum int) (StepResult, error)

// Handler drives a bounded Step loop, wrapping each step invocation in a
// circuit breaker and retry policy so a flaky step doesn't exhaust the
// tier's whole timeout budget on its own.
type Handler struct {
	step     Step
	maxSteps int
	breaker  *stepBreaker
	retry    stepRetryPolicy
	logger   core.Logger
}

// Config configures a Handler.
type Config struct {
	Step     Step
	MaxSteps int // defaults to 10

	// BreakerThreshold is the number of consecutive step failures before
	// the breaker opens. Defaults to 3.
	BreakerThreshold int
	// BreakerCooldown is how long the breaker stays open before allowing
	// one trial step through. Defaults to 5s.
	BreakerCooldown time.Duration

	// Retry bounds per-step retry attempts and backoff. Defaults to
	// defaultStepRetryPolicy().
	Retry *stepRetryPolicy

	Logger core.Logger
}

// NewHandler builds a Handler. Step is required.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Step == nil {
		return nil, fmt.Errorf("agentic.NewHandler: a Step function is required: %w", core.ErrInvalidConfiguration)
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 10
	}
	retry := defaultStepRetryPolicy()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Handler{
		step:     cfg.Step,
		maxSteps: maxSteps,
		breaker:  newStepBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		retry:    retry,
		logger:   logger,
	}, nil
}

// Execute implements cascade.Handler. It runs up to maxSteps iterations of
// Step, stopping early when a step reports Done. If the step budget is
// exhausted without a Done result, the last computed Output is returned
// wrapped in an error via cascade.WithPartialResult so a fallback-enabled
// cascade can still make use of partial progress.
func (h *Handler) Execute(ctx context.Context, input interface{}, tierCtx *cascade.TierContext) (interface{}, error) {
	var state interface{}

	for stepNum := 1; stepNum <= h.maxSteps; stepNum++ {
		if ctx.Err() != nil {
			return nil, cascade.WithPartialResult(cascade.TierAgentic, ctx.Err(), state)
		}

		var result StepResult
		err := retryStep(ctx, h.retry, h.breaker, func() error {
			r, stepErr := h.step(ctx, input, state, stepNum)
			if stepErr != nil {
				return stepErr
			}
			result = r
			return nil
		})
		if err != nil {
			h.logger.Warn("agentic: step failed after retries", map[string]interface{}{"step": stepNum, "error": err.Error()})
			return nil, cascade.WithPartialResult(cascade.TierAgentic, err, state)
		}

		state = result.Output
		if result.Done {
			return state, nil
		}
	}

	return nil, cascade.WithPartialResult(
		cascade.TierAgentic,
		fmt.Errorf("agentic: exhausted %d steps without completing", h.maxSteps),
		state,
	)
}
