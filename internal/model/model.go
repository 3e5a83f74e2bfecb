// Package model defines the persisted data model shared by the client and
// the document server: spaces, items, purchase options, and the two flat
// checklists, aggregated into a single per-user Document.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Space is a named physical area owning zero or more Items.
type Space struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Option is one candidate purchase for an Item.
type Option struct {
	ID     string  `json:"id"`
	Model  string  `json:"model"`
	Price  float64 `json:"price"`
	Store  string  `json:"store"`
	Link   string  `json:"link"`
	Notes  string  `json:"notes"`
	Winner bool    `json:"winner"`
	Image  string  `json:"image,omitempty"`
}

// Item is a thing to buy or own. It belongs to exactly one Space and holds
// an ordered list of comparison Options.
type Item struct {
	ID      string   `json:"id"`
	SpaceID string   `json:"spaceId"`
	Name    string   `json:"name"`
	Options []Option `json:"options"`
	Image   string   `json:"image,omitempty"`
	Order   int      `json:"order"`
}

// ChecklistEntry is a single line on the groceries or repairs list.
type ChecklistEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Document is the single per-user persisted aggregate. Partial documents are
// valid: the store merges writes key by key, so a document created before a
// collection existed simply lacks that key.
type Document struct {
	Spaces      []Space          `json:"spaces,omitempty"`
	Items       []Item           `json:"items,omitempty"`
	Groceries   []ChecklistEntry `json:"groceries,omitempty"`
	Repairs     []ChecklistEntry `json:"repairs,omitempty"`
	ShareToken  string           `json:"shareToken,omitempty"`
	LastUpdated time.Time        `json:"lastUpdated,omitempty"`
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultSpaces seeds a first-run document with a fixed set of rooms.
func DefaultSpaces() []Space {
	names := []string{"Living Room", "Kitchen", "Bedroom", "Bathroom", "Garage"}
	spaces := make([]Space, 0, len(names))
	for _, name := range names {
		spaces = append(spaces, Space{ID: NewID(), Name: name})
	}
	return spaces
}

// Normalize upgrades a freshly loaded document to canonical form: nil
// collections become empty sequences so legacy documents (written before a
// collection existed) load without special cases downstream. Option-ID
// backfill is deliberately not done here; it runs lazily when an item is
// selected, so an untouched legacy document is never rewritten wholesale.
func (d Document) Normalize() Document {
	if d.Spaces == nil {
		d.Spaces = []Space{}
	}
	if d.Items == nil {
		d.Items = []Item{}
	}
	if d.Groceries == nil {
		d.Groceries = []ChecklistEntry{}
	}
	if d.Repairs == nil {
		d.Repairs = []ChecklistEntry{}
	}
	return d
}

// BackfillOptionIDs assigns identifiers to any Option missing one. It returns
// the patched list and whether anything changed. The input slice is not
// mutated.
func BackfillOptionIDs(options []Option) ([]Option, bool) {
	changed := false
	out := make([]Option, len(options))
	copy(out, options)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = NewID()
			changed = true
		}
	}
	return out, changed
}
