package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gjwt "github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/hostjwt"
)

const inventoryDoc = `hosts:
  - name: web-1
    properties:
      hocho_jwt:
        issue: true
        duration: 60
        claims:
          aud: fleet
  - name: db-1
    properties:
      role: database
`

func writeFixtures(t *testing.T, inventory string) (dir string, key *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	dir = t.TempDir()
	pemPath := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(pemPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	cfg := "algorithm: ES256\n" +
		"sub_template: \"host:{{ .Host.Name }}\"\n" +
		"signing_key:\n" +
		"  pem_file: " + pemPath + "\n" +
		"  kid_string: cli-key\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "inventory.yaml"), []byte(inventory), 0o600); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return dir, key
}

func TestRunIssuesTokensAsJSON(t *testing.T) {
	dir, key := writeFixtures(t, inventoryDoc)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--inventory", filepath.Join(dir, "inventory.yaml"),
		"--concurrency", "2",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var out map[string]*struct {
		Payload map[string]any `json:"payload"`
		Token   string         `json:"token"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if out["db-1"] != nil {
		t.Fatalf("expected no token for db-1, got %+v", out["db-1"])
	}
	web := out["web-1"]
	if web == nil {
		t.Fatalf("expected token for web-1, got %s", stdout.String())
	}
	if web.Payload["sub"] != "host:web-1" || web.Payload["aud"] != "fleet" {
		t.Fatalf("unexpected payload %v", web.Payload)
	}

	parsed, err := gjwt.Parse(web.Token, func(tok *gjwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, gjwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if parsed.Header["kid"] != "cli-key" {
		t.Fatalf("expected kid header, got %v", parsed.Header)
	}
}

func TestRunWritesYAMLAuditAndMetrics(t *testing.T) {
	dir, _ := writeFixtures(t, inventoryDoc)
	auditPath := filepath.Join(dir, "audit.jsonl")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--inventory", filepath.Join(dir, "inventory.yaml"),
		"--format", "yaml",
		"--audit-log", auditPath,
		"--metrics",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var out map[string]map[string]any
	if err := yaml.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, stdout.String())
	}
	token, _ := out["web-1"]["token"].(string)
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact token, got %q", token)
	}

	if !strings.Contains(stderr.String(), "hostjwt_token_issued_total 1") {
		t.Fatalf("expected metrics on stderr, got:\n%s", stderr.String())
	}

	raw, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	var event hostjwt.AuditEvent
	if err := json.Unmarshal(bytes.TrimSpace(raw), &event); err != nil {
		t.Fatalf("decode audit event: %v\n%s", err, raw)
	}
	if event.Outcome != hostjwt.AuditIssued || event.Host != "web-1" || event.KeyID != "cli-key" {
		t.Fatalf("unexpected audit event %+v", event)
	}
}

func TestRunReportsHostFailures(t *testing.T) {
	dir, _ := writeFixtures(t, `hosts:
  - name: web-1
    properties:
      hocho_jwt:
        issue: true
  - name: bad-1
    properties:
      hocho_jwt:
        issue: true
        duration: soon
`)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--inventory", filepath.Join(dir, "inventory.yaml"),
	}, &stdout, &stderr)
	if !errors.Is(err, hostjwt.ErrInvalidRequest) {
		t.Fatalf("expected invalid request error, got %v", err)
	}
	if !strings.Contains(stdout.String(), "web-1") {
		t.Fatalf("expected results for healthy hosts, got %s", stdout.String())
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	cases := [][]string{
		{},
		{"--inventory", "x.yaml", "--format", "xml"},
		{"--inventory", "x.yaml", "--concurrency", "0"},
		{"--inventory", "x.yaml", "--log-level", "loud"},
		{"--inventory", "x.yaml", "extra"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), args, &stdout, &stderr); err == nil {
			t.Fatalf("expected error for args %v", args)
		}
	}
}
