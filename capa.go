package pop3sf

// capabilities renders the current CAPA line set (C10, §4.10), reflecting
// session state: STLS only in AUTHORIZATION, pre-upgrade, on an
// STLS-capable listener, UTF8
// only if offered, USER only if plaintext auth isn't disabled, APOP only if
// the adapter supports it, X-POP3SF-READ-ONLY only if configured on.
//
// Grounded on pkierski-pop3srv/session.go's handleCAPA (kept the
// multi-line write-then-terminator shape), generalized to the full
// capability set this expansion's session.go advertises.
func (s *Session) capabilities() []string {
	caps := []string{
		"TOP",
		"UIDL",
		"RESP-CODES",
		"AUTH-RESP-CODE",
		"PIPELINING",
		"LANG",
		"IMPLEMENTATION POP3SF",
	}

	if s.stlsConfig != nil && !s.isTLS && s.state == authorizationState {
		caps = append(caps, "STLS")
	}

	if s.utf8Offered {
		caps = append(caps, "UTF8")
	}

	if !s.userPassDisabled {
		caps = append(caps, "USER")
	}

	if !s.apopDisabled {
		caps = append(caps, "APOP")
	}

	if s.allowReadOnlyMode {
		caps = append(caps, "X-POP3SF-READ-ONLY")
	}

	if !s.userPassDisabled {
		caps = append(caps, "SASL PLAIN")
	}

	return caps
}
