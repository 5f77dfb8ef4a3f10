// Package state holds the canonical storefront state container.
//
// # Overview
//
// The Store is the single owner of mutable state. The dispatcher commits new
// State values produced by pure reducers; the UI reads immutable snapshots or
// subscribes to them.
//
//	Dispatcher:                       UI:
//	┌─────────────────────┐          ┌──────────────────┐
//	│ fetch (awaited)     │          │                  │
//	│      ↓              │          │                  │
//	│ store.Update(fn)    │─────────→│ store.Snapshot() │
//	│   fn: pure reducer  │ (mutex)  │ store.Subscribe  │
//	└─────────────────────┘          └──────────────────┘
//
// # Update Semantics
//
//	// Fetch succeeded: run the reducer on the latest state
//	store.Update(reducer, nil)
//	→ snapshot.State = reducer(snapshot.State)
//	→ snapshot.CartTotals = cart.Recompute(snapshot.Cart)
//	→ snapshot.LastError = nil, ConsecutiveFailures = 0
//
//	// Fetch failed: keep data, record error
//	store.Update(nil, err)
//	→ snapshot.State unchanged
//	→ snapshot.LastError = err, ConsecutiveFailures++
//
//	// Local change (cart checkbox): no fetch involved
//	store.Apply(reducer)
//
// Reducers run under the write lock against the most recently committed
// State, so two fetches for the same key resolve to whichever commits last.
// A reducer must not block.
//
// # Derived Values
//
// CartTotals is recomputed on every commit and never stored independently of
// the cart lines it is derived from.
//
// # Defensive Copying
//
// Snapshot clones the cart and category slices. Cache collections inside
// State are immutable values and are shared between snapshots.
//
// # Subscribers
//
// Subscribe callbacks run synchronously after each commit, in commit order.
// They must not call Update or Apply themselves; hand the snapshot to another
// goroutine (for example a Bubble Tea program) instead.
//
// The zero Store is ready to use.
package state
