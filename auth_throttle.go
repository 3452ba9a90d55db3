package pop3sf

import (
	"context"
	"sync"
	"time"
)

// DefaultAuthDelayCurve is the example curve from §4.5: no delay on the
// first failure, then 1s, 2s, 4s, 8s, repeating the last entry for any
// failure count beyond the table's length.
var DefaultAuthDelayCurve = []time.Duration{
	0,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// AuthThrottle is the per-remote-address auth delay coordinator (C5).
// Grounded on migadu-sora/server/auth_delay_helper.go's
// ApplyAuthenticationDelay (a context-aware timer so a client disconnect
// cancels the wait) and migadu-sora/server/auth_rate_limiter.go's
// failure-count-keyed-by-address record shape.
type AuthThrottle struct {
	curve []time.Duration

	mu      sync.Mutex
	records map[string]*throttleRecord
}

type throttleRecord struct {
	failures   int
	nextAccept time.Time
}

// NewAuthThrottle constructs a throttle using curve as the delay-by-failure
// table. A nil or empty curve uses [DefaultAuthDelayCurve].
func NewAuthThrottle(curve []time.Duration) *AuthThrottle {
	if len(curve) == 0 {
		curve = DefaultAuthDelayCurve
	}
	return &AuthThrottle{
		curve:   curve,
		records: make(map[string]*throttleRecord),
	}
}

func (t *AuthThrottle) delayFor(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	idx := failures - 1
	if idx >= len(t.curve) {
		idx = len(t.curve) - 1
	}
	return t.curve[idx]
}

// Wait blocks until remoteIP's next-accept time, or returns ctx.Err() if ctx
// is cancelled first (e.g. the client disconnected while waiting). It must
// be called immediately before every credential check, never before the
// socket read of the command itself (§4.5).
func (t *AuthThrottle) Wait(ctx context.Context, remoteIP string) error {
	t.mu.Lock()
	rec, exists := t.records[remoteIP]
	var wait time.Duration
	if exists {
		wait = time.Until(rec.nextAccept)
	}
	t.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordFailure increments remoteIP's failure count and advances its
// next-accept time per the delay curve.
func (t *AuthThrottle) RecordFailure(remoteIP string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[remoteIP]
	if !exists {
		rec = &throttleRecord{}
		t.records[remoteIP] = rec
	}
	rec.failures++
	rec.nextAccept = time.Now().Add(t.delayFor(rec.failures))
}

// RecordSuccess resets remoteIP's throttle record after a successful
// authentication.
func (t *AuthThrottle) RecordSuccess(remoteIP string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, remoteIP)
}
