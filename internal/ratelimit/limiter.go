package ratelimit

import (
	"context"
	"time"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

// WindowStore records one hit against a fixed window shared by every replica
// and returns the total hits in that window so far, this one included.
type WindowStore interface {
	Hit(ctx context.Context, identity, route string, windowStart time.Time, window time.Duration) (int64, error)
}

// Decision is the outcome of admitting one request.
type Decision struct {
	Allowed    bool
	Remaining  int64
	ResetAfter time.Duration
}

// Policy is a per-route quota: at most Limit requests per Window.
type Policy struct {
	Limit  int64
	Window time.Duration
}

// Limiter enforces fixed-window quotas on top of a shared WindowStore. The
// window boundary is derived from wall-clock time, so every replica agrees on
// it without coordination.
type Limiter struct {
	store WindowStore
	now   func() time.Time
}

func NewLimiter(store WindowStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Admit counts the request against its window and decides whether it may
// proceed. Denied requests record a hit too; comparing the post-increment
// count to the limit admits exactly the same requests as checking first,
// and the window write stays a single unconditional ADD.
// A store failure admits the request rather than refusing service:
// losing a few counts is cheaper than turning a store outage into an outage
// of everything behind the limiter.
func (l *Limiter) Admit(ctx context.Context, identity, route string, policy Policy) Decision {
	now := l.now().UTC()
	windowStart := now.Truncate(policy.Window)
	resetAfter := windowStart.Add(policy.Window).Sub(now)

	count, err := l.store.Hit(ctx, identity, route, windowStart, policy.Window)
	if err != nil {
		logger := pkglog.Ctx(ctx)
		logger.Warn().Err(err).
			Str("identity", identity).
			Str(pkglog.FieldRoute, route).
			Msg("rate window store unavailable, admitting request")
		return Decision{Allowed: true, Remaining: policy.Limit - 1, ResetAfter: resetAfter}
	}

	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= policy.Limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}
