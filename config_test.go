package hostjwt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/hostjwt/keys"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostjwt.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfig(t, `
algorithm: ES256
sub_template: "{{ .Host.Name }}"
signing_key:
  pem_file: /etc/hostjwt/key.pem
  kid_string: k1
audit:
  enabled: true
metrics:
  enabled: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Algorithm != "ES256" || cfg.SubTemplate != "{{ .Host.Name }}" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Target != DefaultTarget {
		t.Fatalf("expected default target, got %q", cfg.Target)
	}
	if cfg.SigningKey == nil || cfg.SigningKey.PEMFile != "/etc/hostjwt/key.pem" || cfg.SigningKey.KIDString != "k1" {
		t.Fatalf("unexpected signing key source %+v", cfg.SigningKey)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 1024 || !cfg.Audit.DropIfFull {
		t.Fatalf("expected audit defaults to survive partial override, got %+v", cfg.Audit)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled")
	}
}

func TestLoadConfigEnvironmentOverlay(t *testing.T) {
	path := writeConfig(t, "algorithm: ES256\nsub_template: \"{{ .Host.Name }}\"\n")
	t.Setenv("HOSTJWT_ALGORITHM", "RS256")
	t.Setenv("HOSTJWT_TARGET", "deploy_token")
	t.Setenv("HOSTJWT_PEM_ENV", "DEPLOY_KEY")
	t.Setenv("HOSTJWT_KID_ENV", "DEPLOY_KID")
	t.Setenv("HOSTJWT_AUDIT_BUFFER_SIZE", "16")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Algorithm != "RS256" || cfg.Target != "deploy_token" {
		t.Fatalf("expected environment to override file, got %+v", cfg)
	}
	if cfg.SubTemplate != "{{ .Host.Name }}" {
		t.Fatalf("expected file value to survive, got %q", cfg.SubTemplate)
	}
	if cfg.SigningKey == nil || cfg.SigningKey.PEMEnv != "DEPLOY_KEY" || cfg.SigningKey.KIDEnv != "DEPLOY_KID" {
		t.Fatalf("unexpected signing key source %+v", cfg.SigningKey)
	}
	if cfg.Audit.BufferSize != 16 {
		t.Fatalf("expected audit buffer 16, got %d", cfg.Audit.BufferSize)
	}
}

func TestLoadConfigWithoutKeySourceLeavesNil(t *testing.T) {
	path := writeConfig(t, "algorithm: ES256\nsub_template: x\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SigningKey != nil {
		t.Fatalf("expected nil signing key source, got %+v", cfg.SigningKey)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "algorithm: ES256\nsubject: x\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"empty target":       {Target: " ", SubTemplate: "x"},
		"negative buffer":    {Target: DefaultTarget, SubTemplate: "x", Audit: AuditConfig{BufferSize: -1}},
		"histogram disabled": {Target: DefaultTarget, SubTemplate: "x", Metrics: MetricsConfig{EnableLatencyHistograms: true}},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}

	ok := DefaultConfig()
	ok.SubTemplate = "{{ .Host.Name }}"
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	empty := DefaultConfig()
	if err := empty.Validate(); err != nil {
		t.Fatalf("expected empty template to be valid, got %v", err)
	}
}

func TestCloneConfigCopiesSigningKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SigningKey = &keys.Source{KIDString: "k1"}

	clone := cloneConfig(cfg)
	clone.SigningKey.KIDString = "changed"
	if cfg.SigningKey.KIDString != "k1" {
		t.Fatal("expected clone to own its signing key source")
	}

	if cloneConfig(Config{}).SigningKey != nil {
		t.Fatal("expected nil signing key source to stay nil")
	}
}
