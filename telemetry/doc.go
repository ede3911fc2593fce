/*
Package telemetry provides the OpenTelemetry-backed implementation of
core.Telemetry used by the cascade executor.

NewOTelProvider wires a tracer and a meter to either an OTLP/gRPC collector
or, for local development, stdout. The cascade executor starts one span per
Execute call and one span per tier attempt through it (attempt spans start
from a background context, so they are not children of the Execute span),
plus counters and histograms for escalation and retry behavior (see the
Metric* constants in metrics.go).

A nil or zero-value core.Telemetry is never required by the cascade package;
callers without an OTelProvider get core.NoOpTelemetry by default.
*/
package telemetry
