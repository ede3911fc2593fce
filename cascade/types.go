package cascade

import (
	"context"
	"time"
)

// Handler is the uniform callable shape every tier handler is unwrapped to.
// Configuration-object handlers (structs carrying an Execute method plus
// handler-specific metadata such as a prompt template) satisfy this
// interface directly; the cascade never inspects anything beyond Execute.
type Handler interface {
	Execute(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error)
}

// HandlerFunc adapts a plain function to the Handler interface, for
// handlers that carry no metadata of their own.
type HandlerFunc func(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error) {
	return f(ctx, input, tierCtx)
}

// AttemptStatus is the terminal outcome of a single tier attempt.
type AttemptStatus string

const (
	StatusCompleted AttemptStatus = "completed"
	StatusFailed    AttemptStatus = "failed"
	StatusTimeout   AttemptStatus = "timeout"
	StatusSkipped   AttemptStatus = "skipped"
)

// SkipCondition is evaluated before a tier is attempted. Predicate is called
// synchronously from the dispatching goroutine, so a predicate that blocks
// (for example on I/O) is simply awaited before the tier proceeds.
type SkipCondition struct {
	Tier      Tier
	Predicate func(input interface{}, tierCtx *TierContext) bool
	Reason    string
}

// Options configures a cascade definition. Every field is optional and has
// a documented default; the zero value is a usable (if minimal) Options.
type Options struct {
	// StartTier is the first tier to consider; tiers before it are
	// implicitly skipped. Defaults to TierCode.
	StartTier Tier

	// SkipTiers is the set of tiers to unconditionally skip.
	SkipTiers map[Tier]bool

	// TierTimeouts overrides the default per-tier timeout. A tier present
	// in this map is considered "custom-timed" for the
	// timeout-vs-exhaustion branch in §4.5.
	TierTimeouts map[Tier]time.Duration

	// TotalTimeout caps wall-clock time across the whole cascade. Zero
	// means no cap.
	TotalTimeout time.Duration

	// TierRetries maps a tier to its retry count (N retries ⇒ up to N+1
	// attempts). Tiers absent from this map get zero retries.
	TierRetries map[Tier]int

	// EnableFallback, when true, carries a failed attempt's partial result
	// forward into the next tier's context.
	EnableFallback bool

	// EnableParallel switches the dispatcher to parallel race mode.
	EnableParallel bool

	// SkipConditions are evaluated in order before each tier.
	SkipConditions []SkipCondition
}

func (o *Options) startTier() Tier {
	if o == nil || o.StartTier == "" {
		return TierCode
	}
	return o.StartTier
}

func (o *Options) isUnconditionallySkipped(t Tier) bool {
	return o != nil && o.SkipTiers != nil && o.SkipTiers[t]
}

func (o *Options) retriesFor(t Tier) int {
	if o == nil || o.TierRetries == nil {
		return 0
	}
	if n, ok := o.TierRetries[t]; ok && n > 0 {
		return n
	}
	return 0
}

// hasCustomTimeout reports whether the caller explicitly configured a
// timeout for t, as opposed to relying on DefaultTierTimeouts.
func (o *Options) hasCustomTimeout(t Tier) bool {
	if o == nil || o.TierTimeouts == nil {
		return false
	}
	_, ok := o.TierTimeouts[t]
	return ok
}

func (o *Options) timeoutFor(t Tier) time.Duration {
	if o != nil && o.TierTimeouts != nil {
		if d, ok := o.TierTimeouts[t]; ok {
			return d
		}
	}
	return DefaultTierTimeouts[t]
}

func (o *Options) totalTimeout() time.Duration {
	if o == nil {
		return 0
	}
	return o.TotalTimeout
}

func (o *Options) fallbackEnabled() bool {
	return o != nil && o.EnableFallback
}

func (o *Options) parallelEnabled() bool {
	return o != nil && o.EnableParallel
}

// TierContext is built fresh for every attempt and passed as the second
// handler argument.
type TierContext struct {
	Tier            Tier
	Attempt         int
	CascadeAttempt  int
	TimeRemainingMs int64

	PreviousTier   Tier
	PreviousError  error
	PreviousResult interface{}

	// hasPrevious distinguishes "no previous failure yet" from a zero-value
	// PreviousTier/PreviousError on the first tier attempted.
	hasPrevious bool
}

// HasPreviousFailure reports whether a previous tier already failed in this
// invocation (false on the first tier attempted).
func (c *TierContext) HasPreviousFailure() bool { return c.hasPrevious }

// TierAttempt is appended to history on every terminal attempt outcome.
type TierAttempt struct {
	Tier       Tier
	Attempt    int
	Timestamp  time.Time
	DurationMs int64
	Status     AttemptStatus
	Result     interface{}
	Error      error
}

// Metrics summarizes a single cascade invocation.
type Metrics struct {
	TotalDurationMs int64
	TierDurations   map[Tier]int64
	Escalations     int
	TotalRetries    int
}

// Result is returned on a successful cascade invocation.
type Result struct {
	Output       interface{}
	SuccessTier  Tier
	History      []TierAttempt
	SkippedTiers []Tier
	Metrics      Metrics
}

// ExecuteOptions carries per-invocation overrides to Execute.
type ExecuteOptions struct {
	// Abort, when non-nil, is observed by the timeout harness and checked
	// before entering each tier. Closing it is equivalent to firing an
	// external abort signal.
	Abort <-chan struct{}

	// CascadeAttempt overrides the 1-based invocation attempt number seen
	// by tier contexts, for callers implementing their own outer retry of
	// the whole cascade. Defaults to 1.
	CascadeAttempt int
}

func (o *ExecuteOptions) cascadeAttempt() int {
	if o == nil || o.CascadeAttempt <= 0 {
		return 1
	}
	return o.CascadeAttempt
}

func (o *ExecuteOptions) abort() <-chan struct{} {
	if o == nil {
		return nil
	}
	return o.Abort
}

func isAborted(abort <-chan struct{}) bool {
	if abort == nil {
		return false
	}
	select {
	case <-abort:
		return true
	default:
		return false
	}
}
