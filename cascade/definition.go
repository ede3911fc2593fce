package cascade

import (
	"fmt"

	"github.com/cascade-run/cascade/core"
)

// Cascade is an immutable definition of tier handlers and options,
// constructed once and safely invocable concurrently. Each Execute call
// owns its own history buffer, metrics counters, and per-tier context; no
// mutable state is shared between concurrent invocations.
type Cascade struct {
	id      string
	tiers   map[Tier]Handler
	options *Options

	logger    core.Logger
	telemetry core.Telemetry
}

// Option configures a Cascade at construction time.
type Option func(*Cascade)

// WithLogger attaches a logger used for diagnostics: the start and outcome
// of each Execute call and the status and duration of each tier attempt.
// Skips and escalations are not logged separately. Defaults to
// core.NoOpLogger.
func WithLogger(logger core.Logger) Option {
	return func(c *Cascade) { c.logger = logger }
}

// WithTelemetry attaches a telemetry backend used to start spans and record
// metrics per Execute call and per tier attempt. Defaults to
// core.NoOpTelemetry.
func WithTelemetry(telemetry core.Telemetry) Option {
	return func(c *Cascade) { c.telemetry = telemetry }
}

// New constructs a Cascade definition. A missing handler for a tier is
// semantically equivalent to "skip this tier," so tiers with a nil value
// (or simply absent from the map) are permitted; an entirely empty tiers
// map is valid too (it resolves to cascade-exhausted on Execute, per the
// boundary case in §8).
func New(id string, tiers map[Tier]Handler, options *Options, opts ...Option) (*Cascade, error) {
	if id == "" {
		return nil, &core.FrameworkError{
			Op:      "cascade.New",
			Kind:    "invalid-definition",
			Message: "cascade id must not be empty",
		}
	}
	if options != nil {
		for t, timeout := range options.TierTimeouts {
			if timeout < 0 {
				return nil, &core.FrameworkError{
					Op:      "cascade.New",
					Kind:    "invalid-definition",
					Message: fmt.Sprintf("negative timeout configured for tier %q", t),
				}
			}
		}
	}

	resolved := make(map[Tier]Handler, len(tiers))
	for t, h := range tiers {
		if h != nil {
			resolved[t] = h
		}
	}

	c := &Cascade{
		id:        id,
		tiers:     resolved,
		options:   options,
		logger:    &core.NoOpLogger{},
		telemetry: &core.NoOpTelemetry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns the cascade's stable identifier.
func (c *Cascade) ID() string { return c.id }

// handlerFor looks up the handler for t, returning (nil, false) if the tier
// has no handler — equivalent to "skip this tier."
func (c *Cascade) handlerFor(t Tier) (Handler, bool) {
	h, ok := c.tiers[t]
	return h, ok
}

// eligibleTiers returns, in canonical order starting at options.StartTier,
// the tiers that have a handler and are not unconditionally skipped via
// SkipTiers. Skip conditions are evaluated later since they require a
// tier-context and may be asynchronous.
func (c *Cascade) eligibleTiers() []Tier {
	var eligible []Tier
	for _, t := range tiersFrom(c.options.startTier()) {
		if _, ok := c.handlerFor(t); !ok {
			continue
		}
		if c.options.isUnconditionallySkipped(t) {
			continue
		}
		eligible = append(eligible, t)
	}
	return eligible
}
