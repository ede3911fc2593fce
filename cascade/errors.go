package cascade

import (
	"errors"
	"fmt"
	"time"
)

// TierTimeoutError reports that a handler did not finish within its
// effective timeout, and did so as the last eligible tier running under a
// default (not user-configured) timeout.
type TierTimeoutError struct {
	Tier      Tier
	TimeoutMs int64
}

func (e *TierTimeoutError) Error() string {
	return fmt.Sprintf("cascade: tier %q timed out after %dms", e.Tier, e.TimeoutMs)
}

// CascadeExhaustedError reports that every eligible tier terminated without
// success.
type CascadeExhaustedError struct {
	CascadeID      string
	History        []TierAttempt
	TotalDurationMs int64
}

func (e *CascadeExhaustedError) Error() string {
	return fmt.Sprintf("cascade %q exhausted after %d attempt(s), %dms elapsed", e.CascadeID, len(e.History), e.TotalDurationMs)
}

// AllTiersSkippedError reports that every eligible tier was skipped before
// any attempt was made.
type AllTiersSkippedError struct {
	Tier   Tier
	Reason string
}

func (e *AllTiersSkippedError) Error() string {
	return fmt.Sprintf("cascade: all tiers skipped, last skipped tier %q: %s", e.Tier, e.Reason)
}

// AbortedError reports that the caller's abort signal fired during
// execution. It carries whatever history and elapsed time had already
// accumulated at the moment the abort was observed, the same shape
// CascadeExhaustedError uses.
type AbortedError struct {
	History         []TierAttempt
	TotalDurationMs int64
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("cascade: aborted after %d attempt(s), %dms elapsed", len(e.History), e.TotalDurationMs)
}

// Is reports every AbortedError as matching the ErrAborted sentinel.
func (e *AbortedError) Is(target error) bool { return target == ErrAborted }

// ErrAborted is the sentinel AbortedError value callers can compare against
// with errors.Is.
var ErrAborted = &AbortedError{}

// HandlerError wraps a non-taxonomy error raised by a tier handler,
// optionally carrying a partial result for fallback. This is the structured
// replacement for the source's informal "attach a partialResult field to
// a thrown error" convention: a typed field rather than a dynamic one.
type HandlerError struct {
	Tier         Tier
	Err          error
	PartialResult interface{}
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("cascade: tier %q handler failed: %v", e.Tier, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// WithPartialResult attaches a partial result to an error a handler is
// about to return, so the retry loop can extract it when enableFallback is
// set. Handlers that have no partial result to offer should just return the
// plain error.
func WithPartialResult(tier Tier, err error, partial interface{}) error {
	if err == nil {
		return nil
	}
	return &HandlerError{Tier: tier, Err: err, PartialResult: partial}
}

// partialResultOf extracts the partial result a handler attached to err via
// WithPartialResult, if any.
func partialResultOf(err error) (interface{}, bool) {
	var he *HandlerError
	if errors.As(err, &he) && he.PartialResult != nil {
		return he.PartialResult, true
	}
	return nil, false
}

// coerceError turns an arbitrary recovered panic value into an error,
// preserving its string form, mirroring the rule that non-error throws are
// coerced before being stored in history.
func coerceError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// asTierTimeout reports whether err is (or wraps) a *TierTimeoutError.
func asTierTimeout(err error) (*TierTimeoutError, bool) {
	var tte *TierTimeoutError
	if errors.As(err, &tte) {
		return tte, true
	}
	return nil, false
}

// durationMs converts a time.Duration to a whole millisecond count
// (truncated, not rounded), the
// unit every structured field in the cascade result/error uses.
func durationMs(d time.Duration) int64 {
	return d.Milliseconds()
}
