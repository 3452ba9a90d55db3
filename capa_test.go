package pop3sf

import (
	"crypto/tls"
	"slices"
	"testing"
)

func TestCapabilitiesAlwaysPresent(t *testing.T) {
	s := &Session{}
	caps := s.capabilities()
	for _, want := range []string{"TOP", "UIDL", "RESP-CODES", "AUTH-RESP-CODE", "PIPELINING", "LANG"} {
		if !slices.Contains(caps, want) {
			t.Fatalf("capabilities() = %v, want to contain %q", caps, want)
		}
	}
}

func TestCapabilitiesOffersStlsOnlyPreTLS(t *testing.T) {
	s := &Session{stlsConfig: &tls.Config{}}
	if !slices.Contains(s.capabilities(), "STLS") {
		t.Fatalf("expected STLS to be offered pre-upgrade")
	}

	s.isTLS = true
	if slices.Contains(s.capabilities(), "STLS") {
		t.Fatalf("expected STLS to be withdrawn after TLS upgrade")
	}
}

func TestCapabilitiesOmitsStlsWithoutConfig(t *testing.T) {
	s := &Session{}
	if slices.Contains(s.capabilities(), "STLS") {
		t.Fatalf("expected STLS to be absent without an STLS config")
	}
}

func TestCapabilitiesRespectsDisabledAuthMethods(t *testing.T) {
	s := &Session{userPassDisabled: true, apopDisabled: true}
	caps := s.capabilities()
	if slices.Contains(caps, "USER") {
		t.Fatalf("expected USER to be absent when userPassDisabled")
	}
	if slices.Contains(caps, "APOP") {
		t.Fatalf("expected APOP to be absent when apopDisabled")
	}
	if slices.Contains(caps, "SASL PLAIN") {
		t.Fatalf("expected SASL PLAIN to be absent when userPassDisabled")
	}
}

func TestCapabilitiesReadOnlyExtension(t *testing.T) {
	s := &Session{allowReadOnlyMode: true}
	if !slices.Contains(s.capabilities(), "X-POP3SF-READ-ONLY") {
		t.Fatalf("expected X-POP3SF-READ-ONLY when allowReadOnlyMode is set")
	}

	s2 := &Session{allowReadOnlyMode: false}
	if slices.Contains(s2.capabilities(), "X-POP3SF-READ-ONLY") {
		t.Fatalf("expected X-POP3SF-READ-ONLY to be absent by default")
	}
}
