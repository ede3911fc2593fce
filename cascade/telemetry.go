package cascade

// Metric names emitted through the injected core.Telemetry, mirroring the
// fields of Metrics and the telemetry package's Metric* constants.
const (
	metricTierDuration  = "cascade.tier.duration"
	metricEscalations   = "cascade.escalations"
	metricRetries       = "cascade.retries"
	metricTotalDuration = "cascade.total.duration"
	metricExhausted     = "cascade.exhausted"
)
