package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultRateLimit = 10000

// keyLimiter holds one token bucket per API key. Limits are requests per day.
type keyLimiter struct {
	mu       sync.Mutex
	limiters map[uint]*rate.Limiter
}

func newKeyLimiter() *keyLimiter {
	return &keyLimiter{limiters: make(map[uint]*rate.Limiter)}
}

func (k *keyLimiter) allow(keyID uint, perDay int) bool {
	if perDay <= 0 {
		perDay = defaultRateLimit
	}
	limit := rate.Every(24 * time.Hour / time.Duration(perDay))
	burst := perDay / 24
	if burst < 1 {
		burst = 1
	}

	k.mu.Lock()
	l, ok := k.limiters[keyID]
	if !ok {
		l = rate.NewLimiter(limit, burst)
		k.limiters[keyID] = l
	} else if l.Limit() != limit || l.Burst() != burst {
		l.SetLimit(limit)
		l.SetBurst(burst)
	}
	k.mu.Unlock()

	return l.Allow()
}

func (k *keyLimiter) forget(keyID uint) {
	k.mu.Lock()
	delete(k.limiters, keyID)
	k.mu.Unlock()
}
