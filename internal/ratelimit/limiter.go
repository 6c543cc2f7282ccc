package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds per-key token bucket settings.
type Config struct {
	Rate  rate.Limit // tokens per second
	Burst int

	// keys idle for longer than IdleTTL are forgotten
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig allows one login attempt every five seconds with a burst of five.
func DefaultConfig() Config {
	return Config{
		Rate:            0.2,
		Burst:           5,
		IdleTTL:         15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps an independent token bucket per key (usually the client IP).
type Limiter struct {
	config Config

	mu          sync.Mutex
	keys        map[string]*entry
	lastCleanup time.Time
	now         func() time.Time
}

func New(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 15 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	return &Limiter{
		config:      config,
		keys:        make(map[string]*entry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow consumes a token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > l.config.CleanupInterval {
		l.cleanup(now)
	}

	e, ok := l.keys[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.config.Rate, l.config.Burst)}
		l.keys[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len reports how many keys are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *Limiter) cleanup(now time.Time) {
	for key, e := range l.keys {
		if now.Sub(e.lastSeen) > l.config.IdleTTL {
			delete(l.keys, key)
		}
	}
	l.lastCleanup = now
}
