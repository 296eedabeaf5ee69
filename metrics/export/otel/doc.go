// Package otel binds hostjwt issuance metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] observes the provider's counters as a single hostjwt.determinations
// counter with an outcome attribute, plus hostjwt.audit.dropped. Latency is not derived from
// snapshots: [IssueDuration] is a synchronous histogram fed through
// hostjwt.Builder.WithIssueObserver.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate provider state.
package otel
