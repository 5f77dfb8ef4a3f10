package state

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/five82/storefront/internal/cache"
	"github.com/five82/storefront/internal/cart"
	"github.com/five82/storefront/internal/mall"
	"github.com/five82/storefront/internal/region"
	"github.com/five82/storefront/internal/sysconfig"
)

// State is the full storefront state. Reducers receive it by value and return
// a new one; slices and maps inside are never mutated in place.
type State struct {
	Config     sysconfig.Slice
	Categories []mall.Category
	Products   cache.Collection[mall.Product]
	Orders     cache.Collection[mall.Order]
	// Regions holds one bucket list per level, keyed by Level.Plural().
	Regions cache.Collection[region.Bucket]
	Cart    []cart.LineItem
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	State
	CartTotals          cart.Snapshot
	Version             uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the API has been unreachable for multiple fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// RegionBuckets returns the buckets stored for level.
func (s Snapshot) RegionBuckets(level region.Level) []region.Bucket {
	return s.Regions.Items(level.Plural())
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	// notifyMu keeps subscriber callbacks in commit order.
	notifyMu    sync.Mutex
	subsMu      sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore returns a store seeded with initial.
func NewStore(initial State) *Store {
	s := &Store{}
	s.snapshot.State = cloneState(initial)
	s.snapshot.CartTotals = cart.Recompute(initial.Cart)
	return s
}

// Update applies fn to the current state. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(fn func(State) State, err error) Snapshot {
	s.mu.Lock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
	} else {
		s.commitLocked(fn)
		s.snapshot.LastError = nil
		s.snapshot.ConsecutiveFailures = 0
	}
	return s.publishLocked()
}

// TryUpdate runs a reducer that may reject its input. A rejected transition
// leaves the state as is and is recorded like a failed fetch.
func (s *Store) TryUpdate(fn func(State) (State, error)) (Snapshot, error) {
	s.mu.Lock()
	next, err := fn(s.snapshot.State)
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return s.publishLocked(), err
	}
	s.commitLocked(func(State) State { return next })
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return s.publishLocked(), nil
}

// Apply runs a local transition that involves no fetch; the error state is
// left as is.
func (s *Store) Apply(fn func(State) State) Snapshot {
	s.mu.Lock()
	s.commitLocked(fn)
	return s.publishLocked()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe registers fn to receive every committed snapshot. Callbacks run
// synchronously after the commit and must not call back into Update or Apply.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subscribers == nil {
		s.subscribers = make(map[int]func(Snapshot))
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) commitLocked(fn func(State) State) {
	if fn != nil {
		s.snapshot.State = fn(s.snapshot.State)
	}
	s.snapshot.CartTotals = cart.Recompute(s.snapshot.Cart)
	s.snapshot.Version++
	s.snapshot.LastUpdated = time.Now()
}

// publishLocked releases the write lock and notifies subscribers. It must be
// called with s.mu held.
func (s *Store) publishLocked() Snapshot {
	snap := s.copyLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(s.copyOf(snap))
	}
	return snap
}

func (s *Store) copyLocked() Snapshot {
	return s.copyOf(s.snapshot)
}

func (s *Store) copyOf(src Snapshot) Snapshot {
	snap := src
	snap.State = cloneState(src.State)
	return snap
}

// cloneState copies the slices and maps a caller could mutate. The cache
// collections are immutable values and are shared.
func cloneState(st State) State {
	st.Cart = slices.Clone(st.Cart)
	st.Categories = slices.Clone(st.Categories)
	st.Config.Params.Extra = maps.Clone(st.Config.Params.Extra)
	return st
}
