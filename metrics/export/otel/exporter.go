package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	hostjwt "github.com/MrEthical07/hostjwt"
	"github.com/MrEthical07/hostjwt/metrics/export/internaldefs"
)

// Instrument names.
const (
	DeterminationsName = "hostjwt.determinations"
	IssueDurationName  = "hostjwt.issue.duration"
	AuditDroppedName   = "hostjwt.audit.dropped"

	// OutcomeKey labels each determinations data point.
	OutcomeKey = "outcome"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() hostjwt.MetricsSnapshot
	AuditDropped() uint64
}

// OTelExporter reports provider counters as one observable counter split by outcome.
type OTelExporter struct {
	registration metric.Registration
}

// NewOTelExporter observes p on every collection cycle of meter.
func NewOTelExporter(meter metric.Meter, p *hostjwt.Provider) (*OTelExporter, error) {
	if p == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, p)
}

// NewOTelExporterFromSource observes any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	determinations, err := meter.Int64ObservableCounter(DeterminationsName,
		metric.WithDescription("Determine calls by outcome."),
		metric.WithUnit("{host}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", DeterminationsName, err)
	}
	dropped, err := meter.Int64ObservableCounter(AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", AuditDroppedName, err)
	}

	outcomes := make([]metric.ObserveOption, len(internaldefs.CounterDefs))
	for i, def := range internaldefs.CounterDefs {
		outcomes[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String(OutcomeKey, def.Outcome)))
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snapshot := source.MetricsSnapshot()
		// Disabled metrics report no counters at all rather than zeros.
		if len(snapshot.Counters) > 0 {
			for i, def := range internaldefs.CounterDefs {
				o.ObserveInt64(determinations, int64(snapshot.Counters[def.ID]), outcomes[i])
			}
		}
		o.ObserveInt64(dropped, int64(source.AuditDropped()))
		return nil
	}, determinations, dropped)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	return &OTelExporter{registration: registration}, nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

// IssueDuration records issuance latency into an OTel histogram whose boundaries match the
// Prometheus exposition. Pass Observe to hostjwt.Builder.WithIssueObserver.
type IssueDuration struct {
	histogram metric.Float64Histogram
}

// NewIssueDuration creates the hostjwt.issue.duration histogram on meter.
func NewIssueDuration(meter metric.Meter) (*IssueDuration, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	histogram, err := meter.Float64Histogram(IssueDurationName,
		metric.WithDescription("Time from Determine entry to a stored token."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(internaldefs.LatencyBoundsSeconds...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", IssueDurationName, err)
	}
	return &IssueDuration{histogram: histogram}, nil
}

// Observe matches hostjwt.IssueObserver.
func (d *IssueDuration) Observe(ctx context.Context, elapsed time.Duration) {
	d.histogram.Record(ctx, elapsed.Seconds())
}
