// Package state holds the canonical asset collection shared by the refresh
// engine and the UI.
//
// # Overview
//
// Store is a mutex-protected container for the latest asset list plus the
// bookkeeping the header needs: last successful update, last attempt, last
// error, and the consecutive failure count that drives the offline badge.
//
//	Producer (reconcile.Engine):     Consumer (UI):
//	  Replace / Fail / SetFavorite     Snapshot()
//	           │                          ▲
//	           └──── Changes() signal ────┘
//
// # Update Semantics
//
//	store.Replace(assets, now)  // success: collection swapped, failures reset
//	store.Fail(err, now)        // failure: collection kept, error recorded
//	store.Warm(cached, at)      // cache: only before the first live load, marks Stale
//	store.SetFavorite(id, v)    // optimistic toggle or rollback
//
// Every write that changes visible state sends on the Changes channel. The
// channel has capacity one, so bursts of writes collapse into one wake-up and
// writers never block on a slow reader.
//
// # Defensive Copying
//
// Replace, Warm, Snapshot, Assets and Lookup all deep-copy assets (including
// trend slices). Readers can sort and filter what they get without touching
// the canonical records.
//
// # Testing Considerations
//
// The zero Store is ready to use:
//
//	var s state.Store
//	s.Replace([]market.Asset{{ID: "bitcoin"}}, time.Now())
package state
