package internaldefs

import (
	hostjwt "github.com/MrEthical07/hostjwt"
)

// CounterDef names one exported counter. Outcome is the attribute value used where the
// counters share one instrument.
type CounterDef struct {
	ID      hostjwt.MetricID
	Name    string
	Outcome string
	Help    string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   hostjwt.MetricID
	Name string
	Help string
}

// AuditDroppedName counts audit events that never reached the audit queue.
const (
	AuditDroppedName = "hostjwt_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped by a full queue or a cancelled publish."
)

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: hostjwt.MetricTokenIssued, Name: "hostjwt_token_issued_total", Outcome: "issued", Help: "Hosts that received a token."},
	{ID: hostjwt.MetricIssueNotRequested, Name: "hostjwt_issue_not_requested_total", Outcome: "not_requested", Help: "Hosts that did not request a token."},
	{ID: hostjwt.MetricSkippedNoKey, Name: "hostjwt_skipped_no_key_total", Outcome: "skipped_no_key", Help: "Hosts skipped because no signing key is loaded."},
	{ID: hostjwt.MetricNoSigningKeyFailure, Name: "hostjwt_no_signing_key_failure_total", Outcome: "no_signing_key", Help: "Hosts failed because no signing key is loaded."},
	{ID: hostjwt.MetricTemplateFailure, Name: "hostjwt_template_failure_total", Outcome: "template_failure", Help: "Subject template render failures."},
	{ID: hostjwt.MetricInvalidRequest, Name: "hostjwt_invalid_request_total", Outcome: "invalid_request", Help: "Hosts with malformed issuance overrides."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: hostjwt.MetricIssueLatency, Name: "hostjwt_issue_latency_seconds", Help: "Issuance latency histogram."},
}

// HistogramBounds are the le labels, in seconds, matching the core bucket layout.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// LatencyBoundsSeconds are the finite bucket boundaries behind HistogramBounds.
var LatencyBoundsSeconds = []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
