// Package state holds the list state shared between a paginator and the
// screens that render it.
//
// # Overview
//
// Every cursor-paginated list in potluck (home feed, comments, a user's
// recipes, search results, admin tables) is described by one ListState. The
// state only changes through Reduce, a pure function of the previous state
// and an Event:
//
//	next := state.Reduce(prev, state.Started[api.Recipe]{Kind: state.LoadMore})
//
// Screens bind the reducer to whatever reactive primitive they use. The TUI
// re-renders from Store.Snapshot after every message; tests call Reduce
// directly.
//
// # Events
//
//   - Started: a load of the given Kind begins. Initial and Refresh loads bump
//     Generation, which invalidates any LoadMore still in flight.
//   - Loaded: a page arrived. Initial and Refresh replace Items, More appends.
//     Pages tagged with an old Generation are ignored.
//   - Failed: a load failed. Items are kept so the user can retry.
//   - Mutated: an in-place edit of every item with a given id.
//   - Cleared: drop everything (empty search query, teardown).
//
// # Pages and cursors
//
// Page.HasMore is authoritative. Some endpoints return a cursor together with
// hasMore=false, meaning "stop even though a token exists", so CanContinue
// requires both a true HasMore and a non-empty Cursor.
//
// # Store
//
// Store wraps a ListState in a sync.RWMutex. Dispatch applies an event
// atomically, DispatchIf applies it only when a predicate on the current
// state holds (used for the "fail fast if already loading" checks), and
// Snapshot returns a copy whose Items slice is independent of the store.
// The lock is held only while reducing or copying, never across network I/O.
//
// The zero Store is ready to use.
package state
