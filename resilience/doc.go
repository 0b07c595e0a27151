// Package resilience provides a token bucket for rate policing.
//
//	tb := resilience.NewTokenBucket(resilience.TokenBucketConfig{Rate: 100, Burst: 20})
//	if !tb.Allow() {
//	    // over rate
//	}
package resilience
