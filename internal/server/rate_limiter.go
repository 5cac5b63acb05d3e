// Package server implements the optional per-connection inbound throttle.
// It is off unless RATE_LIMIT_BURST is set.
package server

import "golang.org/x/time/rate"

// newRateLimiter returns nil when throttling is disabled.
func newRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	if !cfg.Enabled() {
		return nil
	}
	perSecond := float64(cfg.Burst) / cfg.RefillInterval.Seconds()
	return rate.NewLimiter(rate.Limit(perSecond), cfg.Burst)
}
