// Package ratelimit implements a fixed-window request counter keyed by an
// arbitrary client identifier (usually an IP, optionally prefixed with a
// purpose such as "lookup:").
//
// The limiter is advisory. A misconfigured rule or an unavailable store never
// rejects a request; it is logged and the caller is let through.
package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/timex"
)

// Store keeps one window per key.
type Store interface {
	// Hit records a request for key at now and returns the number of requests
	// seen in the current window, including this one. A key that was never
	// seen, or whose window started more than window ago, starts over at 1.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error)
}

// Rule is a limit of Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Default is applied when a route does not pick its own rule.
var Default = Rule{Limit: 5, Window: time.Hour}

type Limiter struct {
	store  Store
	clock  timex.Clock
	logger logging.Logger
}

func New(store Store, clock timex.Clock, logger logging.Logger) *Limiter {
	return &Limiter{store: store, clock: clock, logger: logger}
}

// IsRateLimited counts this request against key and reports whether it is
// over limit. The first request of a fresh window is never limited, so the
// (limit+1)-th request inside one window is the first one rejected.
func (l *Limiter) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.store == nil || limit < 0 || window <= 0 {
		return false
	}

	count, err := l.store.Hit(ctx, key, l.clock.Now(), window)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn(ctx, "rate limit store unavailable, allowing request", "key", key, "error", err)
		}
		return false
	}

	return count > 1 && count > int64(limit)
}

// Allow is IsRateLimited expressed as a Rule.
func (l *Limiter) Allow(ctx context.Context, key string, r Rule) bool {
	return !l.IsRateLimited(ctx, key, r.Limit, r.Window)
}
