package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache holds the most recent dewpoint obtained from a Source.
type Cache struct {
	src     Source
	refresh time.Duration
	retry   time.Duration

	mu        sync.RWMutex
	value     float64
	updatedAt time.Time
	ok        bool

	now func() time.Time
}

// NewCache creates a Cache that refreshes from src every refresh interval,
// or after retry when a refresh fails.
func NewCache(src Source, refresh, retry time.Duration) *Cache {
	return &Cache{src: src, refresh: refresh, retry: retry, now: time.Now}
}

// Get returns the cached dewpoint and when it was fetched. ok is false until
// the first successful refresh.
func (c *Cache) Get() (value float64, updatedAt time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.updatedAt, c.ok
}

// Refresh fetches a new value. On error the previous value is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	v, err := c.src.Dewpoint(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.value = v
	c.updatedAt = c.now()
	c.ok = true
	c.mu.Unlock()
	return nil
}

// Run refreshes immediately and then on schedule until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	for {
		wait := c.refresh
		if err := c.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("weather: refresh failed", "err", err, "retry_in", c.retry)
			wait = c.retry
		} else {
			v, _, _ := c.Get()
			slog.Info("weather: outdoor dewpoint updated", "dewpoint", v)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
