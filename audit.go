package hostjwt

import (
	"io"

	"github.com/MrEthical07/hostjwt/internal/audit"
)

// AuditEvent is one issuance decision for one host.
type AuditEvent = audit.Event

// AuditOutcome is the terminal state recorded in an AuditEvent.
type AuditOutcome = audit.Outcome

// AuditSink receives audit events from the provider's delivery goroutine.
type AuditSink = audit.Sink

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc = audit.SinkFunc

// Audit outcomes. Hosts that did not request a token produce no event.
const (
	AuditIssued       = audit.OutcomeIssued
	AuditSkippedNoKey = audit.OutcomeSkippedNoKey
	AuditFailed       = audit.OutcomeFailed
)

// NewJSONLinesSink returns a sink writing one JSON object per line to w.
func NewJSONLinesSink(w io.Writer) AuditSink {
	return audit.NewJSONLines(w)
}

// AuditDropped returns the number of audit events lost to backpressure or cancellation.
func (p *Provider) AuditDropped() uint64 {
	return p.audit.Dropped()
}
