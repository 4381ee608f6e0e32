package rate

import (
	"context"
	"sync"
	"time"
)

// Config defines the token bucket given to each caller.
type Config struct {
	RequestsPerSecond int
	Burst             int
}

// Limiter implements a token bucket rate limiter.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
}

// New creates a limiter with a full bucket.
func New(cfg Config) *Limiter {
	return newAt(cfg, time.Now())
}

func newAt(cfg Config, now time.Time) *Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		tokens: float64(burst),
		last:   now,
		rate:   float64(cfg.RequestsPerSecond),
		burst:  float64(burst),
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.allowAt(time.Now())
}

func (l *Limiter) allowAt(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
		l.tokens += elapsed * l.rate
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		l.last = now
	}

	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// refilledSince reports whether the limiter was last used before cutoff and
// its bucket would be full at now.
func (l *Limiter) refilledSince(cutoff, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.last.Before(cutoff) {
		return false
	}
	return l.tokens+now.Sub(l.last).Seconds()*l.rate >= l.burst
}

// Manager holds per-caller limiters.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	defaults Config
	now      func() time.Time
}

func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*Limiter),
		defaults: defaults,
		now:      time.Now,
	}
}

func (m *Manager) GetLimiter(key string) *Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[key]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[key]; ok {
		return lim
	}
	lim := newAt(m.defaults, m.now())
	m.limiters[key] = lim
	return lim
}

// Allow reports whether the caller identified by key may proceed.
func (m *Manager) Allow(key string) bool {
	return m.GetLimiter(key).allowAt(m.now())
}

// Len returns the number of tracked callers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.limiters)
}

// Sweep drops limiters idle for longer than idle whose bucket has refilled,
// and returns how many were removed.
func (m *Manager) Sweep(idle time.Duration) int {
	now := m.now()
	cutoff := now.Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, lim := range m.limiters {
		if lim.refilledSince(cutoff, now) {
			delete(m.limiters, key)
			removed++
		}
	}
	return removed
}

// Start sweeps idle limiters every interval until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}
