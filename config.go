package hostjwt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/hostjwt/keys"
)

// DefaultTarget is the property and attribute key used when Config.Target is empty.
const DefaultTarget = "hocho_jwt"

// Config defines the provider construction options.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	// Algorithm is a JWS algorithm name; its ES or RS prefix selects the key family.
	Algorithm string `yaml:"algorithm" env:"HOSTJWT_ALGORITHM"`
	// SigningKey selects key material and key identifier sources. Nil means no key.
	SigningKey *keys.Source `yaml:"signing_key" envPrefix:"HOSTJWT_"`
	// SubTemplate is a text/template producing the sub claim, e.g. "{{ .Host.Name }}".
	// An empty template yields an empty sub.
	SubTemplate string `yaml:"sub_template" env:"HOSTJWT_SUB_TEMPLATE"`
	// Target is read from host properties and written to host attributes.
	Target string `yaml:"target" env:"HOSTJWT_TARGET"`

	Audit   AuditConfig   `yaml:"audit" envPrefix:"HOSTJWT_AUDIT_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"HOSTJWT_METRICS_"`
}

// AuditConfig controls the asynchronous audit queue.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"BUFFER_SIZE"`
	DropIfFull bool `yaml:"drop_if_full" env:"DROP_IF_FULL"`
}

// MetricsConfig toggles in-process counters and the issuance latency histogram.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled" env:"ENABLED"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms" env:"ENABLE_LATENCY_HISTOGRAMS"`
}

func defaultConfig() Config {
	return Config{
		Target: DefaultTarget,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the defaults LoadConfig starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.SigningKey != nil {
		src := *cfg.SigningKey
		out.SigningKey = &src
	}
	return out
}

// LoadConfig reads a YAML file into the defaults and then applies HOSTJWT_* environment
// variables on top. An empty path loads from the environment only.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if cfg.SigningKey == nil {
		cfg.SigningKey = &keys.Source{}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if *cfg.SigningKey == (keys.Source{}) {
		cfg.SigningKey = nil
	}

	return cfg, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate checks only what can be checked without touching key sources; algorithm and key
// material are validated when Build loads the key.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("%w: Target must not be empty", ErrConfiguration)
	}
	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: Audit BufferSize must be >= 0", ErrConfiguration)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics EnableLatencyHistograms requires Metrics Enabled", ErrConfiguration)
	}
	return nil
}
