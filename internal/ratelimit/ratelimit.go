// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit paces calls to the language model endpoint. The
// endpoint enforces a global requests-per-minute ceiling, so a single
// Limiter is owned by the orchestrator and shared by every extraction
// call it issues.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is used when the configured ceiling is zero.
const DefaultRequestsPerMinute = 60

// Limiter is a token-bucket pacer for model requests.
type Limiter struct {
	bucket *rate.Limiter
}

// PerMinute creates a limiter that admits at most rpm requests per minute,
// with a burst of one so calls are spaced evenly rather than front-loaded.
// rpm <= 0 falls back to DefaultRequestsPerMinute.
func PerMinute(rpm int) *Limiter {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)}
}

// Unlimited returns a limiter that never blocks. Used by tests and by
// offline backends.
func Unlimited() *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until the next request may be sent or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
