package state

import (
	"sync"
	"time"

	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/model"
)

// Snapshot represents the latest data available to the UI: the four
// persisted collections plus UI-only session state.
type Snapshot struct {
	Spaces    []model.Space
	Items     []model.Item
	Groceries []model.ChecklistEntry
	Repairs   []model.ChecklistEntry

	ShareToken     string
	SelectedItemID string
	Query          string
	ReadOnly       bool
	LastUpdated    time.Time
}

// SelectedItem returns the currently selected item, if any.
func (s Snapshot) SelectedItem() (model.Item, bool) {
	if s.SelectedItemID == "" {
		return model.Item{}, false
	}
	for _, item := range s.Items {
		if item.ID == s.SelectedItemID {
			return item, true
		}
	}
	return model.Item{}, false
}

// ItemsInSpace returns the items owned by the given space in insertion order.
func (s Snapshot) ItemsInSpace(spaceID string) []model.Item {
	var out []model.Item
	for _, item := range s.Items {
		if item.SpaceID == spaceID {
			out = append(out, item)
		}
	}
	return out
}

// Store coordinates concurrent updates to the snapshot. It is mutated only
// by user-intent handlers and by the remote-change subscription.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot returns a copy of the current snapshot. Collection slices are
// cloned so callers can never mutate shared state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Spaces = cloneSpaces(s.snapshot.Spaces)
	snap.Items = cloneItems(s.snapshot.Items)
	snap.Groceries = cloneEntries(s.snapshot.Groceries)
	snap.Repairs = cloneEntries(s.snapshot.Repairs)
	return snap
}

// ApplyRemote merges a remote document snapshot into the cache. Only fields
// present in the patch are overwritten; everything else, including all
// UI-only state, stays as it is.
func (s *Store) ApplyRemote(patch docstore.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Spaces != nil {
		s.snapshot.Spaces = cloneSpaces(*patch.Spaces)
	}
	if patch.Items != nil {
		s.snapshot.Items = cloneItems(*patch.Items)
	}
	if patch.Groceries != nil {
		s.snapshot.Groceries = cloneEntries(*patch.Groceries)
	}
	if patch.Repairs != nil {
		s.snapshot.Repairs = cloneEntries(*patch.Repairs)
	}
	if patch.ShareToken != nil {
		s.snapshot.ShareToken = *patch.ShareToken
	}
	if patch.LastUpdated != nil {
		s.snapshot.LastUpdated = *patch.LastUpdated
	}

	// A remote item delete can leave the selection dangling.
	if s.snapshot.SelectedItemID != "" && !hasItem(s.snapshot.Items, s.snapshot.SelectedItemID) {
		s.snapshot.SelectedItemID = ""
	}
}

// SetSpaces replaces the spaces collection.
func (s *Store) SetSpaces(spaces []model.Space) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Spaces = cloneSpaces(spaces)
}

// SetItems replaces the items collection and clears the selection when the
// selected item no longer exists.
func (s *Store) SetItems(items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Items = cloneItems(items)
	if s.snapshot.SelectedItemID != "" && !hasItem(s.snapshot.Items, s.snapshot.SelectedItemID) {
		s.snapshot.SelectedItemID = ""
	}
}

// SetGroceries replaces the groceries checklist.
func (s *Store) SetGroceries(entries []model.ChecklistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Groceries = cloneEntries(entries)
}

// SetRepairs replaces the repairs checklist.
func (s *Store) SetRepairs(entries []model.ChecklistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Repairs = cloneEntries(entries)
}

// SetShareToken records the share token stored on the document.
func (s *Store) SetShareToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ShareToken = token
}

// Select marks an item as selected. Selecting "" clears the selection.
func (s *Store) Select(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.SelectedItemID = itemID
}

// SetQuery records the current search text.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Query = query
}

// SetReadOnly flags the session as a shared read-only view.
func (s *Store) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ReadOnly = readOnly
}

func hasItem(items []model.Item, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func cloneSpaces(spaces []model.Space) []model.Space {
	if len(spaces) == 0 {
		return []model.Space{}
	}
	dup := make([]model.Space, len(spaces))
	copy(dup, spaces)
	return dup
}

func cloneItems(items []model.Item) []model.Item {
	if len(items) == 0 {
		return []model.Item{}
	}
	dup := make([]model.Item, len(items))
	for i, item := range items {
		dup[i] = item
		dup[i].Options = cloneOptions(item.Options)
	}
	return dup
}

func cloneOptions(options []model.Option) []model.Option {
	if len(options) == 0 {
		return nil
	}
	dup := make([]model.Option, len(options))
	copy(dup, options)
	return dup
}

func cloneEntries(entries []model.ChecklistEntry) []model.ChecklistEntry {
	if len(entries) == 0 {
		return []model.ChecklistEntry{}
	}
	dup := make([]model.ChecklistEntry, len(entries))
	copy(dup, entries)
	return dup
}
