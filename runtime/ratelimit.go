package runtime

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles message production per identity.
//
// Each identity gets its own rate.Limiter refilling one token per
// interval (burst 1), which is exactly the "at most one accepted message
// per window" policy. Entries never expire; the map is bounded by the
// number of distinct identities ever seen, which is acceptable at this
// scale. Limits are keyed by identity, not by session, so a reconnect
// does not reset the window.
type RateLimiter struct {
	mu          sync.Mutex
	interval    time.Duration
	perIdentity map[string]*rate.Limiter
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval:    interval,
		perIdentity: make(map[string]*rate.Limiter),
	}
}

// TryAccept reports whether a message from identity may proceed at the
// given instant, consuming the window on acceptance. Calls for the same
// identity serialize on the limiter's own lock; disjoint identities only
// contend on the short map lookup.
func (l *RateLimiter) TryAccept(identity string, now time.Time) bool {
	l.mu.Lock()
	limiter, ok := l.perIdentity[identity]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.perIdentity[identity] = limiter
	}
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}
