package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates upstream calls. Wait returns early with ctx.Err() on cancellation.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Wait is a nil-safe l.Wait.
func Wait(ctx context.Context, l Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// MinInterval enforces a minimum time between calls.
// Concurrent calls will wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	for {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		if wait <= 0 {
			m.last = time.Now()
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// New picks a limiter from an upstream quota: a token bucket when rpm > 0,
// else a minimum interval when minInterval > 0, else nil (unlimited).
func New(rpm, burst int, minInterval time.Duration) Limiter {
	if rpm > 0 {
		return PerMinute(rpm, burst)
	}
	if minInterval > 0 {
		return &MinInterval{Interval: minInterval}
	}
	return nil
}
