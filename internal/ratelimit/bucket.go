package ratelimit

import (
	"math"
	"sync"
	"time"
)

// TokenBucket implements the token bucket algorithm.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes n tokens if available.
func (b *TokenBucket) Allow(n int) bool {
	return b.AllowAt(n, time.Now())
}

// AllowAt consumes n tokens at a specific time.
func (b *TokenBucket) AllowAt(n int, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Refund returns n tokens taken by a request that a later check rejected.
func (b *TokenBucket) Refund(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = math.Min(b.tokens+float64(n), float64(b.capacity))
}

// Delay reports how long until n tokens are available, without consuming.
func (b *TokenBucket) Delay(n int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	deficit := float64(n) - b.tokens
	if deficit <= 0 || b.refillRate <= 0 {
		return 0
	}
	return time.Duration(deficit / b.refillRate * float64(time.Second))
}

// Tokens returns the current number of tokens available.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	return b.tokens
}

// Must be called with lock held.
func (b *TokenBucket) refill(now time.Time) {
	if now.Before(b.lastRefill) {
		return
	}
	b.tokens = math.Min(b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate, float64(b.capacity))
	b.lastRefill = now
}

// Reset refills the bucket.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = float64(b.capacity)
	b.lastRefill = time.Now()
}
