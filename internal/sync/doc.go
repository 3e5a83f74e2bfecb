// Package sync is the bridge between the local state cache and the remote
// document store.
//
// # Session lifecycle
//
//	Unauthenticated ──→ Authenticating ──→ Authenticated ──→ Subscribing ──→ Synced
//	                          │                                   │
//	                          └──→ AuthFailed                     └──→ ReadError
//
// AuthFailed and ReadError are terminal: there is no reconnect loop, the
// user recovers by restarting. A share token in the options skips
// authentication, resolves the public read path instead of the private one,
// and makes the whole session read-only.
//
// # Write policy
//
// Every mutation handler updates the cache first, then issues exactly one
// merge write scoped to the collections it changed. Writes are at-most-once
// and fire-and-forget: a failure is logged and the local cache remains the
// visible truth. There is no batching, no offline queue, and no conflict
// detection beyond last-write-wins; the app assumes a single user editing
// their own document.
//
// # Subscription
//
// At most one watch is active at a time. Re-subscription, which happens when
// the identity changes, tears the previous watch down and waits for it to
// finish before establishing the new one, so two subscriptions can never
// race writes into the cache. Incoming snapshots are sparse-merged: a
// snapshot that lacks a collection leaves the local copy alone.
package sync
