// Package state holds the local mirror of the persisted document plus
// UI-only session state, and the pure update functions the mutation
// handlers are built from.
//
// # Overview
//
// The Store is the single coordination point between three parties:
//
//	Subscription (sync):            UI:
//	┌─────────────────────┐        ┌──────────────────┐
//	│ watch remote doc    │        │ render Snapshot()│
//	│       ↓             │        │       ↑          │
//	│ store.ApplyRemote() │───────→│ user intent      │
//	└─────────────────────┘ (mutex)│       ↓          │
//	                               │ Set*/Select/...  │
//	                               └──────────────────┘
//
// ApplyRemote merges only the fields present in a remote snapshot (a sparse
// merge, never a replace), so a patch that carries spaces can never clobber
// locally edited groceries. UI state such as the selection, the search text,
// and the read-only flag is never touched by remote data, with one
// exception: a selection pointing at an item the remote delete removed is
// cleared rather than left dangling.
//
// # Update functions
//
// The Add/Update/Delete families in mutate.go are pure: they return fresh
// slices and never modify their input. Mutation handlers compose them as
//
//	snap := store.Snapshot()
//	items, ok := state.UpdateItem(snap.Items, id, fn)
//	store.SetItems(items)
//	// then persist the changed collection
//
// UpdateOption additionally enforces the single-winner rule: an update that
// sets winner clears the flag on every sibling in the same pass.
//
// # Concurrency
//
// A readers-writer lock guards the snapshot; both directions copy
// collection slices defensively, so a returned Snapshot can be held and
// mutated freely without racing the subscription. That cost is trivial at
// this data scale (tens of spaces, hundreds of items).
package state
