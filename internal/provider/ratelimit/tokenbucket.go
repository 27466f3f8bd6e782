package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket spaces calls at a fixed rate while letting up to burst calls
// through back to back. It tracks the time the next token is due instead of a
// token count, so each Wait reserves its slot up front.
type TokenBucket struct {
	interval time.Duration // time to earn one token
	slack    time.Duration // (burst-1) * interval

	mu  sync.Mutex
	due time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / tokensPerSecond)
	return &TokenBucket{
		interval: interval,
		slack:    time.Duration(burst-1) * interval,
	}
}

// PerMinute builds a bucket from an upstream's requests-per-minute quota.
func PerMinute(rpm, burst int) *TokenBucket {
	return NewTokenBucket(float64(rpm)/60.0, burst)
}

// reserve books the next slot and returns how long the caller must wait for it.
func (tb *TokenBucket) reserve(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.due.Before(now) {
		tb.due = now
	}
	delay := tb.due.Sub(now) - tb.slack
	tb.due = tb.due.Add(tb.interval)
	return delay
}

// release gives back a slot booked by a caller that stopped waiting.
func (tb *TokenBucket) release() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.due = tb.due.Add(-tb.interval)
}

// Wait blocks until the caller's slot comes up or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	delay := tb.reserve(time.Now())
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		tb.release()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
