package sessions

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Throttle limits sign-in attempts per email and client address with a token bucket per pair.
// A successful sign-in resets its pair, so only failed attempts accumulate.
// Idle buckets expire from the cache. A nil Throttle allows everything.
type Throttle struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewThrottle(perMinute float64, burst int, expiry time.Duration) *Throttle {
	if perMinute <= 0 || burst <= 0 {
		return nil
	}
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &Throttle{
		limiters: cache.New(expiry, expiry/2),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow consumes one attempt for the pair and reports whether it is within the limit.
func (t *Throttle) Allow(email, clientIP string) bool {
	if t == nil {
		return true
	}
	key := email + "|" + clientIP

	t.mu.Lock()
	defer t.mu.Unlock()
	var limiter *rate.Limiter
	if v, found := t.limiters.Get(key); found {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(t.limit, t.burst)
	}
	t.limiters.Set(key, limiter, cache.DefaultExpiration)
	return limiter.AllowN(t.now(), 1)
}

// Reset forgets the attempts of the pair.
func (t *Throttle) Reset(email, clientIP string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiters.Delete(email + "|" + clientIP)
}
