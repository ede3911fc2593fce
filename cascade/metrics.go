package cascade

import "time"

// metricsBuilder accumulates per-invocation counters. It is owned
// exclusively by a single Execute call's goroutine (in parallel mode, the
// goroutine that collects the race results), so it needs no locking.
type metricsBuilder struct {
	start         time.Time
	tierDurations map[Tier]int64
	escalations   int
	totalRetries  int
}

func newMetricsBuilder() *metricsBuilder {
	return &metricsBuilder{
		start:         time.Now(),
		tierDurations: make(map[Tier]int64),
	}
}

func (m *metricsBuilder) recordAttempts(tier Tier, attempts []TierAttempt) {
	for _, a := range attempts {
		m.tierDurations[tier] += a.DurationMs
	}
	if len(attempts) > 1 {
		m.totalRetries += len(attempts) - 1
	}
}

func (m *metricsBuilder) recordEscalation() {
	m.escalations++
}

func (m *metricsBuilder) build() Metrics {
	return Metrics{
		TotalDurationMs: durationMs(time.Since(m.start)),
		TierDurations:   m.tierDurations,
		Escalations:     m.escalations,
		TotalRetries:    m.totalRetries,
	}
}
