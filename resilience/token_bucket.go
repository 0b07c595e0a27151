package resilience

import (
	"sync"
	"time"
)

// TokenBucketConfig configures a token bucket.
type TokenBucketConfig struct {
	// Name identifies the bucket in OnLimit callbacks.
	Name string
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size.
	Burst int
	// OnLimit is called when a request finds the bucket empty.
	OnLimit func(name string)
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// TokenBucket admits requests at a steady rate with bounded bursts.
type TokenBucket struct {
	config TokenBucketConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	if config.Rate <= 0 {
		config.Rate = 10.0
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenBucket{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: config.Now(),
	}
}

// Allow takes one token without blocking.
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN takes n tokens without blocking, or none when fewer are available.
func (tb *TokenBucket) AllowN(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	if tb.config.OnLimit != nil {
		tb.config.OnLimit(tb.config.Name)
	}
	return false
}

func (tb *TokenBucket) refill() {
	now := tb.config.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens = min(tb.tokens+elapsed*tb.config.Rate, float64(tb.config.Burst))
}

// available returns the number of tokens left after a refill.
func (tb *TokenBucket) available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}
