package config

import "testing"

const minimalYAML = `
listeners:
  - address: "0.0.0.0"
    port: 110
    tls: none
adapter:
  identifier: directory
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.IdleTimeoutSeconds != 600 {
		t.Fatalf("IdleTimeoutSeconds = %d, want 600", cfg.IdleTimeoutSeconds)
	}
	if cfg.MaxInvalidCommands != -1 {
		t.Fatalf("MaxInvalidCommands = %d, want -1", cfg.MaxInvalidCommands)
	}
}

func TestParseRejectsEmptyListeners(t *testing.T) {
	_, err := Parse([]byte("adapter:\n  identifier: directory\n"))
	if err == nil {
		t.Fatalf("expected an error for a listener-less document")
	}
}

func TestParseRejectsShortIdleTimeout(t *testing.T) {
	_, err := Parse([]byte(minimalYAML + "idle_timeout_seconds: 5\n"))
	if err == nil {
		t.Fatalf("expected an error for an idle timeout below 30s")
	}
}

func TestParseRequiresTLSPathsForImplicitListener(t *testing.T) {
	doc := `
listeners:
  - address: "0.0.0.0"
    port: 995
    tls: implicit
adapter:
  identifier: directory
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatalf("expected an error when an implicit listener lacks TLS paths")
	}
}

func TestParseAcceptsImplicitListenerWithTLSPaths(t *testing.T) {
	doc := `
listeners:
  - address: "0.0.0.0"
    port: 995
    tls: implicit
tls:
  certificate_path: /etc/pop3sf/cert.pem
  key_path: /etc/pop3sf/key.pem
adapter:
  identifier: directory
`
	if _, err := Parse([]byte(doc)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestAuthDelayCurveConvertsSecondsToDurations(t *testing.T) {
	cfg := Config{AuthDelayCurveSeconds: []float64{0, 1, 2.5}}
	curve := cfg.AuthDelayCurve()
	if len(curve) != 3 || curve[2].Seconds() != 2.5 {
		t.Fatalf("AuthDelayCurve() = %v, want [0s 1s 2.5s]", curve)
	}
}
