// Package app wires the larder client together: configuration, preferences,
// identity, the document-store client, the local state cache, the sync
// session, and the terminal UI.
//
//	config ─┐
//	prefs  ─┤
//	        ├─► identity ─► docstore.Client ─┐
//	        │                                ├─► sync.Session ─► ui
//	        └──────────────► state.Store ────┘
//
// Run owns the composition order: identity must resolve before the HTTP
// client exists (the client carries the bearer token), and the session must
// finish its bootstrap before the UI starts rendering phases.
package app
