package hostjwt

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/hostjwt/internal/audit"
	"github.com/MrEthical07/hostjwt/keys"
	"github.com/MrEthical07/hostjwt/subject"
)

// Builder assembles a Provider. A Builder can be built once.
//
// Builder instances are intended to be configured during initialization and then discarded.
type Builder struct {
	config Config

	auditSink AuditSink
	logger    *slog.Logger
	loader    keys.Loader
	clock     func() time.Time
	observe   IssueObserver

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAuditSink sets the sink that receives issuance events when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithKeyLoader overrides how key sources are read (environment lookup, file reads).
func (b *Builder) WithKeyLoader(loader keys.Loader) *Builder {
	b.loader = loader
	return b
}

// WithClock sets the time source used for iat, nbf and exp.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithIssueObserver registers fn to receive the Determine latency of every issued token,
// independent of the in-process metrics switches.
func (b *Builder) WithIssueObserver(fn IssueObserver) *Builder {
	b.observe = fn
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the issuance latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build compiles the subject template and loads the signing key exactly once. Every
// configuration fault, including an unsupported algorithm or malformed key, is reported
// here wrapped in ErrConfiguration, before any host is processed.
func (b *Builder) Build() (*Provider, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tmpl, err := subject.Compile(cfg.SubTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	loader := b.loader
	if loader.Logger == nil {
		loader.Logger = logger
	}
	key, err := loader.Load(cfg.Algorithm, cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if key == nil {
		logger.Info("no signing key configured", slog.String("target", cfg.Target))
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	var events *audit.Queue
	if cfg.Audit.Enabled {
		stamp := audit.Stamp{Target: cfg.Target}
		if key != nil {
			stamp.Algorithm = key.Method.Alg()
			stamp.KeyID = key.KeyID
		}
		events = audit.NewQueue(b.auditSink, stamp, audit.Options{
			Size:       cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Now:        now,
		})
	}

	b.built = true

	return &Provider{
		target:  cfg.Target,
		key:     key,
		subject: tmpl,
		now:     now,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		audit:   events,
		observe: b.observe,
	}, nil
}

// NewProvider builds a Provider from cfg with default logger, clock and no audit sink.
func NewProvider(cfg Config) (*Provider, error) {
	return New().WithConfig(cfg).Build()
}
