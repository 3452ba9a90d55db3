package pop3sf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthThrottle_NoDelayBeforeFirstFailure(t *testing.T) {
	th := NewAuthThrottle(nil)
	ctx := context.Background()

	start := time.Now()
	err := th.Wait(ctx, "10.0.0.1")
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestAuthThrottle_DelayGrowsWithFailures(t *testing.T) {
	curve := []time.Duration{0, 20 * time.Millisecond, 40 * time.Millisecond}
	th := NewAuthThrottle(curve)
	ctx := context.Background()
	ip := "10.0.0.2"

	th.RecordFailure(ip) // failures=1 -> next delay uses curve[0]=0
	start := time.Now()
	assert.NoError(t, th.Wait(ctx, ip))
	assert.Less(t, time.Since(start), 10*time.Millisecond)

	th.RecordFailure(ip) // failures=2 -> delay curve[1]=20ms
	start = time.Now()
	assert.NoError(t, th.Wait(ctx, ip))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	th.RecordFailure(ip) // failures=3 -> delay curve[2]=40ms
	start = time.Now()
	assert.NoError(t, th.Wait(ctx, ip))
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestAuthThrottle_CurveCapsAtLastEntry(t *testing.T) {
	curve := []time.Duration{0, 10 * time.Millisecond}
	th := NewAuthThrottle(curve)
	ip := "10.0.0.3"

	for i := 0; i < 10; i++ {
		th.RecordFailure(ip)
	}

	start := time.Now()
	assert.NoError(t, th.Wait(context.Background(), ip))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond, "delay must not keep growing past the curve's last entry")
}

func TestAuthThrottle_SuccessResetsRecord(t *testing.T) {
	curve := []time.Duration{0, 50 * time.Millisecond}
	th := NewAuthThrottle(curve)
	ip := "10.0.0.4"

	th.RecordFailure(ip)
	th.RecordFailure(ip)
	th.RecordSuccess(ip)

	start := time.Now()
	assert.NoError(t, th.Wait(context.Background(), ip))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestAuthThrottle_WaitCancellableByDisconnect(t *testing.T) {
	curve := []time.Duration{0, time.Hour}
	th := NewAuthThrottle(curve)
	ip := "10.0.0.5"
	th.RecordFailure(ip) // failures=1 -> delay curve[0]=0
	th.RecordFailure(ip) // failures=2 -> delay curve[1]=1h

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := th.Wait(ctx, ip)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthThrottle_IndependentAddresses(t *testing.T) {
	curve := []time.Duration{0, time.Hour}
	th := NewAuthThrottle(curve)

	th.RecordFailure("10.0.0.6") // failures=1 -> delay curve[0]=0
	th.RecordFailure("10.0.0.6") // failures=2 -> delay curve[1]=1h

	start := time.Now()
	assert.NoError(t, th.Wait(context.Background(), "10.0.0.7"))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
