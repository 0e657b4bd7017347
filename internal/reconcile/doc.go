// Package reconcile owns the canonical asset collection.
//
// Engine.Refresh fetches the raw list, maps every record through
// market.Normalizer, drops records without an id or with a repeated id, and
// replaces the collection in payload order. Each refresh takes a sequence
// number when it starts; a completion older than the last commit, or one
// whose context is done, is discarded with ErrDiscarded.
//
// Engine.ToggleFavorite is optimistic. The flag flips in the store at once,
// then the backend is called:
//
//	stable -> pending -> confirmed
//	                  -> rolled-back  (latest op failed, flag restored)
//	                  -> superseded   (a newer op on the same asset started)
//
// Only the latest operation for an asset may roll the flag back. A refresh
// that lands while a toggle is pending keeps the optimistic value.
package reconcile
