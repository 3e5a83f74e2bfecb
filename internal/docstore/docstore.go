// Package docstore defines the remote document store contract: documents are
// addressed by hierarchical path and support get, sparse merge-write, and a
// long-poll change subscription. Client implements the contract over HTTP;
// Memory implements it in process for tests and local use.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/larderapp/larder/internal/model"
)

// Scope selects the visibility branch of the path hierarchy.
type Scope string

const (
	// ScopeUsers addresses private documents keyed by identity; reads and
	// writes require a bearer token.
	ScopeUsers Scope = "users"
	// ScopeShared addresses public read-only documents keyed by share token.
	ScopeShared Scope = "shared"
)

// Path addresses one document in the store.
type Path struct {
	Namespace  string
	App        string
	Scope      Scope
	Collection string
	DocID      string
}

// String renders the path in URL form: /v1/{ns}/{app}/{scope}/{collection}/{id}.
func (p Path) String() string {
	return fmt.Sprintf("/v1/%s/%s/%s/%s/%s", p.Namespace, p.App, p.Scope, p.Collection, p.DocID)
}

// Validate reports whether every segment is present and slash-free.
func (p Path) Validate() error {
	segments := []struct {
		name, value string
	}{
		{"namespace", p.Namespace},
		{"app", p.App},
		{"scope", string(p.Scope)},
		{"collection", p.Collection},
		{"doc id", p.DocID},
	}
	for _, seg := range segments {
		if strings.TrimSpace(seg.value) == "" {
			return fmt.Errorf("path %s is empty", seg.name)
		}
		if strings.Contains(seg.value, "/") {
			return fmt.Errorf("path %s %q contains a slash", seg.name, seg.value)
		}
	}
	if p.Scope != ScopeUsers && p.Scope != ScopeShared {
		return fmt.Errorf("unknown scope %q", p.Scope)
	}
	return nil
}

// Patch is a sparse merge-write payload. Nil fields are absent from the
// write and leave the stored key untouched; non-nil fields replace the
// stored key wholesale. The same shape describes snapshots coming back from
// the store, where a nil field means the document has never had that key.
type Patch struct {
	Spaces      *[]model.Space          `json:"spaces,omitempty"`
	Items       *[]model.Item           `json:"items,omitempty"`
	Groceries   *[]model.ChecklistEntry `json:"groceries,omitempty"`
	Repairs     *[]model.ChecklistEntry `json:"repairs,omitempty"`
	ShareToken  *string                 `json:"shareToken,omitempty"`
	LastUpdated *time.Time              `json:"lastUpdated,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Spaces == nil && p.Items == nil && p.Groceries == nil &&
		p.Repairs == nil && p.ShareToken == nil && p.LastUpdated == nil
}

// Document materializes the present fields of p into a full document and
// normalizes it, so keys the stored document never had come back as empty
// sequences. Used when a snapshot is treated as the whole truth, as on
// initial load; sparse merges keep working on the Patch itself.
func (p Patch) Document() model.Document {
	var doc model.Document
	if p.Spaces != nil {
		doc.Spaces = *p.Spaces
	}
	if p.Items != nil {
		doc.Items = *p.Items
	}
	if p.Groceries != nil {
		doc.Groceries = *p.Groceries
	}
	if p.Repairs != nil {
		doc.Repairs = *p.Repairs
	}
	if p.ShareToken != nil {
		doc.ShareToken = *p.ShareToken
	}
	if p.LastUpdated != nil {
		doc.LastUpdated = *p.LastUpdated
	}
	return doc.Normalize()
}

// Overlay returns p with every present field of top applied over it.
func (p Patch) Overlay(top Patch) Patch {
	if top.Spaces != nil {
		p.Spaces = top.Spaces
	}
	if top.Items != nil {
		p.Items = top.Items
	}
	if top.Groceries != nil {
		p.Groceries = top.Groceries
	}
	if top.Repairs != nil {
		p.Repairs = top.Repairs
	}
	if top.ShareToken != nil {
		p.ShareToken = top.ShareToken
	}
	if top.LastUpdated != nil {
		p.LastUpdated = top.LastUpdated
	}
	return p
}

// Snapshot is one observed state of a document. Revision increases by one on
// every merge write; a document that has never been written has revision 0.
type Snapshot struct {
	Patch    Patch
	Revision uint64
}

// Store is the remote document store contract.
type Store interface {
	// Get reads the current document state. Missing documents return
	// ErrNotFound; merge semantics mean they are still valid write targets.
	Get(ctx context.Context, path Path) (Snapshot, error)

	// Merge writes only the fields present in patch, leaving the rest of
	// the stored document unchanged, and bumps the revision.
	Merge(ctx context.Context, path Path, patch Patch) error

	// Watch blocks until the document revision exceeds since, then returns
	// the current snapshot. It may also return an unchanged snapshot after
	// an implementation-defined wait, so callers loop and compare
	// revisions. A missing document watches as revision 0.
	Watch(ctx context.Context, path Path, since uint64) (Snapshot, error)
}

// Sentinel errors implementations classify into. Callers distinguish
// permission problems from everything else: a denied read kills the session
// with a pointed message, other failures surface raw.
var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
)
