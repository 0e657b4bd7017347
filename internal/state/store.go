package state

import (
	"sync"
	"time"

	"github.com/five82/coindeck/internal/market"
)

// offlineThreshold is the number of consecutive failed refreshes after which
// the backend is reported offline.
const offlineThreshold = 2

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Assets              []market.Asset
	LastUpdated         time.Time // last successful refresh (or cache time when Stale)
	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
	Loaded              bool // at least one collection has been committed
	Stale               bool // collection came from the cache, not the backend
}

// IsOffline returns true when the API has been unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineThreshold
}

// Store holds the canonical asset collection. Writers are the reconcile
// engine (refresh commits and favorite toggles); readers get cloned snapshots.
// The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	changes  chan struct{}
}

// Replace commits a freshly fetched collection.
func (s *Store) Replace(assets []market.Asset, at time.Time) {
	s.mu.Lock()
	s.snapshot.Assets = market.CloneAll(assets)
	s.snapshot.LastUpdated = at
	s.snapshot.LastAttempt = at
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	s.snapshot.Loaded = true
	s.snapshot.Stale = false
	s.mu.Unlock()
	s.notify()
}

// Fail records a failed refresh. The previous collection is kept.
func (s *Store) Fail(err error, at time.Time) {
	s.mu.Lock()
	s.snapshot.LastError = err
	s.snapshot.LastAttempt = at
	s.snapshot.ConsecutiveFailures++
	s.mu.Unlock()
	s.notify()
}

// Warm installs a cached collection when nothing has been loaded yet. It
// returns false and changes nothing once a live collection exists.
func (s *Store) Warm(assets []market.Asset, cachedAt time.Time) bool {
	s.mu.Lock()
	if s.snapshot.Loaded {
		s.mu.Unlock()
		return false
	}
	s.snapshot.Assets = market.CloneAll(assets)
	s.snapshot.LastUpdated = cachedAt
	s.snapshot.Loaded = true
	s.snapshot.Stale = true
	s.mu.Unlock()
	s.notify()
	return true
}

// SetFavorite sets the favorite flag of one asset and reports whether the
// asset exists. Subscribers are notified only when the flag changed.
func (s *Store) SetFavorite(id string, favorite bool) bool {
	s.mu.Lock()
	idx := market.IndexByID(s.snapshot.Assets, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	changed := s.snapshot.Assets[idx].IsFavorite != favorite
	s.snapshot.Assets[idx].IsFavorite = favorite
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return true
}

// Lookup returns a copy of the asset with the given id.
func (s *Store) Lookup(id string) (market.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := market.IndexByID(s.snapshot.Assets, id)
	if idx < 0 {
		return market.Asset{}, false
	}
	return s.snapshot.Assets[idx].Clone(), true
}

// Assets returns a copy of the canonical collection.
func (s *Store) Assets() []market.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return market.CloneAll(s.snapshot.Assets)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Assets = market.CloneAll(s.snapshot.Assets)
	return snap
}

// Changes returns a channel that receives a value after the store changes.
// Notifications coalesce: a reader that falls behind sees one pending signal,
// not one per write.
func (s *Store) Changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changesLocked()
}

func (s *Store) changesLocked() chan struct{} {
	if s.changes == nil {
		s.changes = make(chan struct{}, 1)
	}
	return s.changes
}

func (s *Store) notify() {
	s.mu.Lock()
	ch := s.changesLocked()
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}
