// internal/app/dedup_tracker.go
package app

import (
	"sync"
	"time"

	"peptrack_reminders/internal/infra/clock"
)

// DefaultDedupRetention is how long a dispatched notification key suppresses repeats.
const DefaultDedupRetention = 60 * time.Minute

// DedupTracker remembers which notification keys were already dispatched.
// Entries expire on their own after the retention window. Expiry is kept as a
// deadline per key, so marking a key again replaces the old deadline instead of
// racing an older expiry.
type DedupTracker struct {
	clock     clock.Clock
	retention time.Duration

	mu      sync.Mutex
	entries map[string]time.Time // key -> expires at
}

// NewDedupTracker returns an empty tracker. A non-positive retention uses DefaultDedupRetention.
func NewDedupTracker(c clock.Clock, retention time.Duration) *DedupTracker {
	if c == nil {
		c = clock.Real{}
	}
	if retention <= 0 {
		retention = DefaultDedupRetention
	}
	return &DedupTracker{
		clock:     c,
		retention: retention,
		entries:   make(map[string]time.Time),
	}
}

// Mark records key as notified until now + retention.
func (t *DedupTracker) Mark(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = t.clock.Now().Add(t.retention)
}

// Has reports whether key is currently marked. An expired entry is dropped.
func (t *DedupTracker) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	expiresAt, ok := t.entries[key]
	if !ok {
		return false
	}
	if !t.clock.Now().Before(expiresAt) {
		delete(t.entries, key)
		return false
	}
	return true
}

// Clear removes every entry.
func (t *DedupTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]time.Time)
}

// Prune drops expired entries and returns how many are still live.
func (t *DedupTracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	for key, expiresAt := range t.entries {
		if !now.Before(expiresAt) {
			delete(t.entries, key)
		}
	}
	return len(t.entries)
}

// Len returns the number of live entries.
func (t *DedupTracker) Len() int {
	return t.Prune()
}

// Retention returns the configured retention window.
func (t *DedupTracker) Retention() time.Duration {
	return t.retention
}
