package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	l := newAt(Config{RequestsPerSecond: 2, Burst: 3}, t0)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allowAt(t0), "request %d within burst", i)
	}
	assert.False(t, l.allowAt(t0))

	// half a second at 2 rps refills one token
	assert.True(t, l.allowAt(t0.Add(500*time.Millisecond)))
	assert.False(t, l.allowAt(t0.Add(500*time.Millisecond)))

	// refill is capped at burst
	later := t0.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allowAt(later))
	}
	assert.False(t, l.allowAt(later))
}

func TestLimiter_ZeroBurstAllowsOne(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0, Burst: 0})
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestManager_PerCallerBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})
	m.now = func() time.Time { return now }

	assert.True(t, m.Allow("10.0.0.1"))
	assert.False(t, m.Allow("10.0.0.1"))
	assert.True(t, m.Allow("10.0.0.2"), "callers do not share a bucket")
	assert.Same(t, m.GetLimiter("10.0.0.1"), m.GetLimiter("10.0.0.1"))
	assert.Equal(t, 2, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})
	m.now = func() time.Time { return now }

	m.Allow("a")
	now = now.Add(10 * time.Minute)
	m.Allow("b")

	assert.Equal(t, 1, m.Sweep(5*time.Minute))
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Allow("a"), "swept caller starts with a full bucket")
}

func TestManager_SweepKeepsDrainedBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewManager(Config{RequestsPerSecond: 0, Burst: 1})
	m.now = func() time.Time { return now }

	assert.True(t, m.Allow("a"))
	now = now.Add(10 * time.Minute)

	assert.Equal(t, 0, m.Sweep(5*time.Minute))
	assert.Equal(t, 1, m.Len())
	assert.False(t, m.Allow("a"), "a bucket that never refills stays empty")
}

func TestManager_StartStopsOnCancel(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
