// Package ratelimit gates per-client request volume before it reaches the
// resolver, independent of and in addition to the core C1-C7 pipeline.
package ratelimit

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures the per-client token bucket.
type Config struct {
	QueriesPerSecond float64
	Burst            int
	CleanupInterval  time.Duration
}

// DefaultConfig returns permissive defaults suitable for a LAN-facing
// default-deployment proxy.
func DefaultConfig() Config {
	return Config{
		QueriesPerSecond: 100,
		Burst:            200,
		CleanupInterval:  5 * time.Minute,
	}
}

// Limiter tracks one token bucket per client IP.
type Limiter struct {
	mu          sync.Mutex
	byIP        map[string]*rate.Limiter
	rps         rate.Limit
	burst       int
	cleanupEvery time.Duration
	lastCleanup  time.Time
}

// New builds a Limiter from cfg, filling in DefaultConfig's values for
// anything left zero.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.QueriesPerSecond == 0 {
		cfg.QueriesPerSecond = def.QueriesPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = def.Burst
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	return &Limiter{
		byIP:         make(map[string]*rate.Limiter),
		rps:          rate.Limit(cfg.QueriesPerSecond),
		burst:        cfg.Burst,
		cleanupEvery: cfg.CleanupInterval,
		lastCleanup:  time.Now(),
	}
}

// Allow reports whether a request from ip should be handled now.
func (l *Limiter) Allow(ip net.IP) bool {
	key := ip.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) > l.cleanupEvery {
		l.byIP = make(map[string]*rate.Limiter)
		l.lastCleanup = time.Now()
	}

	lim, ok := l.byIP[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.byIP[key] = lim
	}
	return lim.Allow()
}

// TrackedClients reports how many distinct client IPs currently hold a
// bucket, for observability.
func (l *Limiter) TrackedClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byIP)
}
