package hostjwt

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/hostjwt/internal/audit"
	"github.com/MrEthical07/hostjwt/jwt"
	"github.com/MrEthical07/hostjwt/keys"
	"github.com/MrEthical07/hostjwt/subject"
)

// Provider decides per host whether to issue a token. It is immutable after Build and
// Determine may be called concurrently for different hosts.
type Provider struct {
	target  string
	key     *keys.SigningKey
	subject *subject.Template
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
	audit   *audit.Queue
	observe IssueObserver
}

// IssueObserver receives the elapsed time of each successful issuance.
type IssueObserver func(ctx context.Context, elapsed time.Duration)

// Determine runs the issuance decision for one host.
//
// It returns nil without touching the host when the host does not request a token, or when
// no signing key is loaded and the host tolerates that. On success it stores an [Issued]
// under the target key in host.Attributes(). Errors wrap ErrInvalidRequest, ErrNoSigningKey
// or ErrTemplate.
func (p *Provider) Determine(ctx context.Context, host Host) error {
	start := time.Now()
	name := host.Name()

	overrides, err := p.overrides(host)
	if err != nil {
		return p.fail(ctx, name, MetricInvalidRequest, err)
	}
	requested, err := issueRequested(overrides)
	if err != nil {
		return p.fail(ctx, name, MetricInvalidRequest, err)
	}
	if !requested {
		p.metrics.Inc(MetricIssueNotRequested)
		return nil
	}

	// The remaining overrides only matter once a token is wanted.
	req, err := ResolveRequest(DefaultRequest(), overrides)
	if err != nil {
		return p.fail(ctx, name, MetricInvalidRequest, err)
	}

	if p.key == nil {
		if req.FailWhenNoSigningKey {
			return p.fail(ctx, name, MetricNoSigningKeyFailure, ErrNoSigningKey)
		}
		p.metrics.Inc(MetricSkippedNoKey)
		p.logger.InfoContext(ctx, "skipping token, no signing key", slog.String("host", name))
		p.audit.Publish(ctx, AuditEvent{Outcome: AuditSkippedNoKey, Host: name})
		return nil
	}

	sub, err := p.subject.Render(subject.HostView{Name: name, Properties: host.Properties()})
	if err != nil {
		return p.fail(ctx, name, MetricTemplateFailure, fmt.Errorf("%w: %w", ErrTemplate, err))
	}

	claims := BuildClaims(req, sub, p.now())
	if _, err := json.Marshal(claims); err != nil {
		return p.fail(ctx, name, MetricInvalidRequest, fmt.Errorf("%w: claims are not serializable: %v", ErrInvalidRequest, err))
	}

	headers := map[string]any{}
	if p.key.KeyID != "" {
		headers["kid"] = p.key.KeyID
	}

	attrs := host.Attributes()
	if attrs == nil {
		return p.fail(ctx, name, MetricInvalidRequest, fmt.Errorf("%w: host has no attributes collection", ErrInvalidRequest))
	}
	attrs[p.target] = Issued{
		Payload: claims,
		Token:   jwt.NewToken(claims, headers, p.key),
	}

	elapsed := time.Since(start)
	p.metrics.Inc(MetricTokenIssued)
	p.metrics.Observe(MetricIssueLatency, elapsed)
	if p.observe != nil {
		p.observe(ctx, elapsed)
	}
	p.logger.DebugContext(ctx, "token issued",
		slog.String("host", name),
		slog.String("sub", sub),
		slog.String("kid", p.key.KeyID),
	)
	p.audit.Publish(ctx, AuditEvent{Outcome: AuditIssued, Host: name, Subject: sub})
	return nil
}

func (p *Provider) overrides(host Host) (map[string]any, error) {
	raw, ok := host.Properties()[p.target]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: property %q must be a mapping, got %T", ErrInvalidRequest, p.target, raw)
	}
	return m, nil
}

func (p *Provider) fail(ctx context.Context, host string, id MetricID, err error) error {
	p.metrics.Inc(id)
	p.audit.Publish(ctx, AuditEvent{Outcome: AuditFailed, Host: host, Error: err.Error()})
	return fmt.Errorf("host %s: %w", host, err)
}

// Target returns the property and attribute key.
func (p *Provider) Target() string {
	return p.target
}

// HasSigningKey reports whether key material was loaded.
func (p *Provider) HasSigningKey() bool {
	return p.key != nil
}

// KeyID returns the loaded key identifier, if any.
func (p *Provider) KeyID() string {
	if p.key == nil {
		return ""
	}
	return p.key.KeyID
}

// PublicKey returns the verification key for issued tokens, or nil without a signing key.
func (p *Provider) PublicKey() crypto.PublicKey {
	return p.key.Public()
}

// MetricsSnapshot returns a copy of the issuance counters.
func (p *Provider) MetricsSnapshot() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// Close delivers queued audit events and stops the audit goroutine.
func (p *Provider) Close() {
	p.audit.Close()
}
