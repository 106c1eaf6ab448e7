package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const staleAfter = 10 * time.Minute

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key inside the process. It suits
// single-instance deployments that run without Redis.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	r        rate.Limit
	b        int
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryLimiter starts a background sweep of idle keys; call Stop to end it.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.normalized()
	l := &MemoryLimiter{
		limiters: make(map[string]*keyLimiter),
		r:        rate.Limit(float64(cfg.Limit) / cfg.Window.Seconds()),
		b:        cfg.Burst,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

func (l *MemoryLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > staleAfter {
			delete(l.limiters, key)
		}
	}
}
