package firms

import (
	"context"
	"sync"
	"time"

	"github.com/zsbahtiar/hotspot-etl/internal/domain"
)

// rateLimiter meters requests against a fixed window, matching how FIRMS
// accounts transactions. wait blocks until the current window has room.
type rateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	used        int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := domain.Now()
		if now.Sub(r.windowStart) >= r.window {
			r.windowStart = now
			r.used = 0
		}
		if r.used < r.limit {
			r.used++
			r.mu.Unlock()
			return nil
		}
		wakeAt := r.windowStart.Add(r.window)
		r.mu.Unlock()

		select {
		case <-time.After(wakeAt.Sub(now)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
