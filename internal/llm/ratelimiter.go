package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitedProvider allows at most rpm calls in any one-minute window.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	window   time.Duration

	mu   sync.Mutex
	sent []time.Time // start times inside the current window, oldest first
}

// NewRateLimitedProvider wraps provider. A non-positive rpm returns the
// provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{provider: provider, rpm: rpm, window: time.Minute}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for %s rate limit: %w", r.provider.Name(), err)
	}
	return r.provider.Complete(ctx, req)
}

// acquire blocks until a slot frees up in the window or ctx ends.
func (r *RateLimitedProvider) acquire(ctx context.Context) error {
	for {
		delay := r.reserve(time.Now())
		if delay == 0 {
			return nil
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// reserve records a call at now and returns 0, or returns how long until
// the oldest call leaves the window.
func (r *RateLimitedProvider) reserve(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	drop := 0
	for drop < len(r.sent) && !r.sent[drop].After(cutoff) {
		drop++
	}
	r.sent = r.sent[drop:]

	if len(r.sent) < r.rpm {
		r.sent = append(r.sent, now)
		return 0
	}
	return r.sent[0].Sub(cutoff)
}
