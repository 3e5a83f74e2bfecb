package sync

import (
	"github.com/google/uuid"
	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/model"
	"github.com/larderapp/larder/internal/state"
)

// Mutation handlers: each updates the cache through the pure functions in
// the state package, then persists only the changed top-level collection.
// One user intent, one write; no batching or debouncing. On a read-only
// session the cache updates are skipped entirely, not just the writes.

// List names one of the two flat checklists.
type List string

const (
	Groceries List = "groceries"
	Repairs   List = "repairs"
)

// AddSpace creates a space and returns it.
func (s *Session) AddSpace(name string) model.Space {
	if s.ReadOnly() {
		return model.Space{}
	}
	space := model.Space{ID: model.NewID(), Name: name}
	spaces := state.AddSpace(s.cache.Snapshot().Spaces, space)
	s.cache.SetSpaces(spaces)
	s.persist(docstore.Patch{Spaces: &spaces})
	return space
}

// RenameSpace sets a space's name.
func (s *Session) RenameSpace(id, name string) {
	s.updateSpace(id, func(sp model.Space) model.Space {
		sp.Name = name
		return sp
	})
}

// SetSpaceImage stores an inline image on a space.
func (s *Session) SetSpaceImage(id, image string) {
	s.updateSpace(id, func(sp model.Space) model.Space {
		sp.Image = image
		return sp
	})
}

func (s *Session) updateSpace(id string, fn func(model.Space) model.Space) {
	if s.ReadOnly() {
		return
	}
	spaces, found := state.UpdateSpace(s.cache.Snapshot().Spaces, id, fn)
	if !found {
		return
	}
	s.cache.SetSpaces(spaces)
	s.persist(docstore.Patch{Spaces: &spaces})
}

// DeleteSpace removes a space. Its items are kept; see state.DeleteSpace.
func (s *Session) DeleteSpace(id string) {
	if s.ReadOnly() {
		return
	}
	spaces, found := state.DeleteSpace(s.cache.Snapshot().Spaces, id)
	if !found {
		return
	}
	s.cache.SetSpaces(spaces)
	s.persist(docstore.Patch{Spaces: &spaces})
}

// AddItem creates an item in a space and returns it.
func (s *Session) AddItem(spaceID, name string) model.Item {
	if s.ReadOnly() {
		return model.Item{}
	}
	item := model.Item{ID: model.NewID(), SpaceID: spaceID, Name: name}
	items := state.AddItem(s.cache.Snapshot().Items, item)
	item = items[len(items)-1]
	s.cache.SetItems(items)
	s.persist(docstore.Patch{Items: &items})
	return item
}

// RenameItem sets an item's name.
func (s *Session) RenameItem(id, name string) {
	s.updateItem(id, func(it model.Item) model.Item {
		it.Name = name
		return it
	})
}

// SetItemImage stores an inline image on an item.
func (s *Session) SetItemImage(id, image string) {
	s.updateItem(id, func(it model.Item) model.Item {
		it.Image = image
		return it
	})
}

func (s *Session) updateItem(id string, fn func(model.Item) model.Item) {
	if s.ReadOnly() {
		return
	}
	items, found := state.UpdateItem(s.cache.Snapshot().Items, id, fn)
	if !found {
		return
	}
	s.cache.SetItems(items)
	s.persist(docstore.Patch{Items: &items})
}

// DeleteItem removes an item. The cache clears the selection when it
// pointed at the deleted id.
func (s *Session) DeleteItem(id string) {
	if s.ReadOnly() {
		return
	}
	items, found := state.DeleteItem(s.cache.Snapshot().Items, id)
	if !found {
		return
	}
	s.cache.SetItems(items)
	s.persist(docstore.Patch{Items: &items})
}

// SelectItem marks an item as selected and runs the lazy option-ID
// backfill: options written before identifiers were mandatory get one
// assigned, and the patched list is persisted once.
func (s *Session) SelectItem(id string) {
	s.cache.Select(id)
	if id == "" || s.ReadOnly() {
		return
	}
	snap := s.cache.Snapshot()
	item, ok := snap.SelectedItem()
	if !ok {
		return
	}
	patched, changed := model.BackfillOptionIDs(item.Options)
	if !changed {
		return
	}
	items, found := state.UpdateItem(snap.Items, item.ID, func(it model.Item) model.Item {
		it.Options = patched
		return it
	})
	if !found {
		return
	}
	s.cache.SetItems(items)
	s.persist(docstore.Patch{Items: &items})
}

// AddOption appends a purchase option to an item and returns it.
func (s *Session) AddOption(itemID string, option model.Option) model.Option {
	if s.ReadOnly() {
		return model.Option{}
	}
	option.ID = model.NewID()
	s.updateItem(itemID, func(it model.Item) model.Item {
		it.Options = state.AddOption(it.Options, option)
		return it
	})
	return option
}

// UpdateOption applies fn to one option of an item. Setting winner clears
// every sibling's winner flag in the same update.
func (s *Session) UpdateOption(itemID, optionID string, fn func(model.Option) model.Option) {
	s.updateItem(itemID, func(it model.Item) model.Item {
		options, found := state.UpdateOption(it.Options, optionID, fn)
		if found {
			it.Options = options
		}
		return it
	})
}

// SetWinner marks one option as the chosen purchase for its item.
func (s *Session) SetWinner(itemID, optionID string) {
	s.UpdateOption(itemID, optionID, func(o model.Option) model.Option {
		o.Winner = true
		return o
	})
}

// DeleteOption removes one option from an item.
func (s *Session) DeleteOption(itemID, optionID string) {
	s.updateItem(itemID, func(it model.Item) model.Item {
		options, found := state.DeleteOption(it.Options, optionID)
		if found {
			it.Options = options
		}
		return it
	})
}

// MoveOption reorders an item's options by splice-and-reinsert.
func (s *Session) MoveOption(itemID string, from, to int) {
	s.updateItem(itemID, func(it model.Item) model.Item {
		it.Options = state.MoveOption(it.Options, from, to)
		return it
	})
}

// AddEntry appends a checklist entry and returns it.
func (s *Session) AddEntry(list List, text string) model.ChecklistEntry {
	if s.ReadOnly() {
		return model.ChecklistEntry{}
	}
	entry := model.ChecklistEntry{ID: model.NewID(), Text: text}
	entries := state.AddEntry(s.checklist(list), entry)
	s.setChecklist(list, entries)
	return entry
}

// UpdateEntryText rewrites a checklist entry's text.
func (s *Session) UpdateEntryText(list List, id, text string) {
	s.updateEntry(list, id, func(e model.ChecklistEntry) model.ChecklistEntry {
		e.Text = text
		return e
	})
}

// ToggleEntry flips a checklist entry's completed flag.
func (s *Session) ToggleEntry(list List, id string) {
	s.updateEntry(list, id, func(e model.ChecklistEntry) model.ChecklistEntry {
		e.Completed = !e.Completed
		return e
	})
}

// DeleteEntry removes a checklist entry.
func (s *Session) DeleteEntry(list List, id string) {
	if s.ReadOnly() {
		return
	}
	entries, found := state.DeleteEntry(s.checklist(list), id)
	if !found {
		return
	}
	s.setChecklist(list, entries)
}

func (s *Session) updateEntry(list List, id string, fn func(model.ChecklistEntry) model.ChecklistEntry) {
	if s.ReadOnly() {
		return
	}
	entries, found := state.UpdateEntry(s.checklist(list), id, fn)
	if !found {
		return
	}
	s.setChecklist(list, entries)
}

func (s *Session) checklist(list List) []model.ChecklistEntry {
	snap := s.cache.Snapshot()
	if list == Repairs {
		return snap.Repairs
	}
	return snap.Groceries
}

func (s *Session) setChecklist(list List, entries []model.ChecklistEntry) {
	if list == Repairs {
		s.cache.SetRepairs(entries)
		s.persist(docstore.Patch{Repairs: &entries})
		return
	}
	s.cache.SetGroceries(entries)
	s.persist(docstore.Patch{Groceries: &entries})
}

// SetQuery records the search text. Search state is UI-only and never
// persisted.
func (s *Session) SetQuery(query string) {
	s.cache.SetQuery(query)
}

// EnableSharing mints a share token, stores it on the private document, and
// publishes the full document to the public share path. Subsequent persists
// mirror there until sharing is disabled.
func (s *Session) EnableSharing() string {
	if s.ReadOnly() {
		return ""
	}
	snap := s.cache.Snapshot()
	token := snap.ShareToken
	if token == "" {
		token = uuid.NewString()
		s.cache.SetShareToken(token)
		s.persist(docstore.Patch{ShareToken: &token})
	}
	// Publish the current state so the share link is immediately whole.
	s.persist(docstore.Patch{
		Spaces:    &snap.Spaces,
		Items:     &snap.Items,
		Groceries: &snap.Groceries,
		Repairs:   &snap.Repairs,
	})
	return token
}

// DisableSharing clears the share token. The already-published shared
// document stays behind; without revocation semantics it simply stops
// receiving updates.
func (s *Session) DisableSharing() {
	if s.ReadOnly() {
		return
	}
	if s.cache.Snapshot().ShareToken == "" {
		return
	}
	empty := ""
	s.cache.SetShareToken("")
	s.persist(docstore.Patch{ShareToken: &empty})
}
