// Package config loads the typed settings value the engine consumes (C11).
// It is a thin outer layer: a YAML document goes in, a validated
// [Config] comes out, and no protocol semantics live here.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// TLSMode mirrors pop3sf.TLSMode in a YAML-friendly string form, so the
// engine package stays free of a YAML struct-tag dependency.
type TLSMode string

const (
	TLSModeNone     TLSMode = "none"
	TLSModeImplicit TLSMode = "implicit"
	TLSModeSTLS     TLSMode = "stls"
)

// ListenerConfig is one bind point, as declared in the YAML document.
type ListenerConfig struct {
	Address string  `yaml:"address"`
	Port    int     `yaml:"port"`
	TLS     TLSMode `yaml:"tls"`
}

// TLSConfig names the certificate material shared by every implicit/STLS
// listener.
type TLSConfig struct {
	CertificatePath string `yaml:"certificate_path"`
	KeyPath         string `yaml:"key_path"`
	// MinVersion is "1.2" or "1.3". It is parsed but not applied:
	// cmd/pop3sfd always sets TLS 1.2 as the minimum version.
	MinVersion string `yaml:"min_version"`
}

// AdapterConfig identifies the mailbox backend and carries its own opaque
// configuration block; the engine never interprets Options itself.
type AdapterConfig struct {
	Identifier string                 `yaml:"identifier"`
	Options    map[string]interface{} `yaml:"options"`
}

// Config is the complete, validated settings surface (C11) consumed by
// cmd/pop3sfd. Every duration field is expressed in seconds in YAML, per
// the enumerated configuration surface.
type Config struct {
	Listeners []ListenerConfig `yaml:"listeners"`
	TLS       TLSConfig        `yaml:"tls"`

	AllowReadOnlyMode            bool `yaml:"allow_read_only_mode"`
	AllowPlaintextAuthWithoutTLS bool `yaml:"allow_plaintext_auth_without_tls"`

	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`
	IdleTimeoutSeconds    int `yaml:"idle_timeout_seconds"`

	AuthDelayCurveSeconds []float64 `yaml:"auth_delay_curve"`

	MaxInvalidCommands int `yaml:"max_invalid_commands"`

	Adapter AdapterConfig `yaml:"adapter"`
	// SerializeAdapterCalls is parsed but not consulted: neither
	// cmd/pop3sfd nor the engine serializes adapter calls.
	SerializeAdapterCalls bool `yaml:"serialize_adapter_calls"`

	ShutdownDeadlineSeconds int `yaml:"shutdown_deadline_seconds"`

	LogLevel string `yaml:"log_level"`
}

// defaults mirrors the documented defaults: idle timeout 10 minutes (the
// RFC 1939-cited figure), no invalid-command guard, a 30 second hard
// shutdown deadline.
func defaults() Config {
	return Config{
		MaxConcurrentSessions:   100,
		IdleTimeoutSeconds:      600,
		MaxInvalidCommands:      -1,
		ShutdownDeadlineSeconds: 30,
		LogLevel:                "info",
	}
}

// Load reads and validates a YAML configuration document from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and unmarshals a YAML document already in memory, applying
// defaults for any field the document omits.
func Parse(data []byte) (Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants the engine relies on: a non-empty
// listener set, an idle timeout of at least 30 seconds, and certificate
// paths present whenever a listener needs them.
func (c Config) Validate() error {
	if len(c.Listeners) == 0 {
		return errors.New("config: at least one listener is required")
	}
	if c.IdleTimeoutSeconds < 30 {
		return errors.New("config: idle_timeout_seconds must be >= 30")
	}
	if c.MaxConcurrentSessions <= 0 {
		return errors.New("config: max_concurrent_sessions must be > 0")
	}

	needsTLS := false
	for i, l := range c.Listeners {
		switch l.TLS {
		case TLSModeNone, TLSModeImplicit, TLSModeSTLS:
		default:
			return fmt.Errorf("config: listeners[%d]: invalid tls mode %q", i, l.TLS)
		}
		if l.TLS == TLSModeImplicit || l.TLS == TLSModeSTLS {
			needsTLS = true
		}
		if l.Port <= 0 || l.Port > 65535 {
			return fmt.Errorf("config: listeners[%d]: invalid port %d", i, l.Port)
		}
	}
	if needsTLS && (c.TLS.CertificatePath == "" || c.TLS.KeyPath == "") {
		return errors.New("config: tls.certificate_path and tls.key_path are required by an implicit or stls listener")
	}

	if c.Adapter.Identifier == "" {
		return errors.New("config: adapter.identifier is required")
	}

	return nil
}

// AuthDelayCurve converts the configured seconds into durations for
// [pop3sf.NewAuthThrottle].
func (c Config) AuthDelayCurve() []time.Duration {
	curve := make([]time.Duration, len(c.AuthDelayCurveSeconds))
	for i, s := range c.AuthDelayCurveSeconds {
		curve[i] = time.Duration(s * float64(time.Second))
	}
	return curve
}

// IdleTimeout returns the configured idle timeout as a [time.Duration].
func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// ShutdownDeadline returns the configured hard shutdown deadline as a
// [time.Duration].
func (c Config) ShutdownDeadline() time.Duration {
	return time.Duration(c.ShutdownDeadlineSeconds) * time.Second
}
