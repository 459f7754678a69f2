package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dewdrop/dewdrop/pkg/types"
)

// Entry is a feed together with the time it was received.
type Entry struct {
	Feed       *types.SensorFeed
	ReceivedAt time.Time
}

// Store is a thread-safe in-memory feed store, keyed by device_id.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured retention.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores feed as the latest for its device and returns the entry it
// replaced, if any. Callers must not modify feed after calling Put.
func (s *Store) Put(feed *types.SensorFeed) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.data[feed.DeviceID]
	s.data[feed.DeviceID] = &Entry{
		Feed:       feed,
		ReceivedAt: s.now(),
	}
	return prev, ok
}

// Get returns the live entry for deviceID. Stale entries are reported as
// missing.
func (s *Store) Get(deviceID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[deviceID]
	if !ok || !e.ReceivedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// List returns all live entries ordered by device id.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.ReceivedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feed.DeviceID < out[j].Feed.DeviceID })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries received at or before now minus TTL and returns how
// many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.ReceivedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run evicts stale entries every half TTL (minimum 1 second) until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale feeds", "count", n)
			}
		}
	}
}
