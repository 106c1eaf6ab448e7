// Package ratelimit provides per-key request limiters. Callers choose the
// key; the HTTP layer uses the client IP for public routes.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request under key fits in its budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	// Limit is the number of requests allowed per Window.
	Limit  int
	Window time.Duration
	// Burst only applies to the in-memory limiter. Zero means Limit.
	Burst int
}

func (c Config) normalized() Config {
	if c.Limit <= 0 {
		c.Limit = 10
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.Burst <= 0 {
		c.Burst = c.Limit
	}
	return c
}
