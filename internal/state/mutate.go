package state

import "github.com/larderapp/larder/internal/model"

// Pure collection updates. Every function returns a fresh slice and leaves
// its input untouched; callers swap the result into the Store and persist
// the changed collection.

// AddSpace appends a space.
func AddSpace(spaces []model.Space, space model.Space) []model.Space {
	out := cloneSpaces(spaces)
	return append(out, space)
}

// UpdateSpace applies fn to the space with the given id. The second return
// value reports whether the id was found.
func UpdateSpace(spaces []model.Space, id string, fn func(model.Space) model.Space) ([]model.Space, bool) {
	out := cloneSpaces(spaces)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			out[i].ID = id
			return out, true
		}
	}
	return out, false
}

// DeleteSpace removes the space with the given id. Items owned by the space
// are left alone; orphaned items stay addressable by id.
func DeleteSpace(spaces []model.Space, id string) ([]model.Space, bool) {
	out := make([]model.Space, 0, len(spaces))
	found := false
	for _, s := range spaces {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}

// AddItem appends an item, assigning it the next order value.
func AddItem(items []model.Item, item model.Item) []model.Item {
	out := cloneItems(items)
	maxOrder := -1
	for _, it := range out {
		if it.Order > maxOrder {
			maxOrder = it.Order
		}
	}
	item.Order = maxOrder + 1
	return append(out, item)
}

// UpdateItem applies fn to the item with the given id.
func UpdateItem(items []model.Item, id string, fn func(model.Item) model.Item) ([]model.Item, bool) {
	out := cloneItems(items)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			out[i].ID = id
			return out, true
		}
	}
	return out, false
}

// DeleteItem removes the item with the given id.
func DeleteItem(items []model.Item, id string) ([]model.Item, bool) {
	out := make([]model.Item, 0, len(items))
	found := false
	for _, it := range items {
		if it.ID == id {
			found = true
			continue
		}
		out = append(out, it)
	}
	return cloneItems(out), found
}

// AddOption appends an option to the item's comparison list.
func AddOption(options []model.Option, option model.Option) []model.Option {
	out := cloneOptions(options)
	out = append(out, option)
	if option.Winner {
		return clearOtherWinners(out, option.ID)
	}
	return out
}

// UpdateOption applies fn to the option with the given id. When the update
// sets winner, every sibling's winner flag is cleared in the same pass so at
// most one option per item ever wins.
func UpdateOption(options []model.Option, id string, fn func(model.Option) model.Option) ([]model.Option, bool) {
	out := cloneOptions(options)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			out[i].ID = id
			if out[i].Winner {
				out = clearOtherWinners(out, id)
			}
			return out, true
		}
	}
	return out, false
}

// DeleteOption removes the option with the given id.
func DeleteOption(options []model.Option, id string) ([]model.Option, bool) {
	out := make([]model.Option, 0, len(options))
	found := false
	for _, o := range options {
		if o.ID == id {
			found = true
			continue
		}
		out = append(out, o)
	}
	return out, found
}

// MoveOption splices the option at index from out of the list and reinserts
// it at index to. Out-of-range indices return the list unchanged.
func MoveOption(options []model.Option, from, to int) []model.Option {
	out := cloneOptions(options)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	rest := append([]model.Option{}, out[to:]...)
	out = append(append(out[:to:to], moved), rest...)
	return out
}

func clearOtherWinners(options []model.Option, winnerID string) []model.Option {
	for i := range options {
		if options[i].ID != winnerID {
			options[i].Winner = false
		}
	}
	return options
}

// AddEntry appends a checklist entry.
func AddEntry(entries []model.ChecklistEntry, entry model.ChecklistEntry) []model.ChecklistEntry {
	out := cloneEntries(entries)
	return append(out, entry)
}

// UpdateEntry applies fn to the entry with the given id.
func UpdateEntry(entries []model.ChecklistEntry, id string, fn func(model.ChecklistEntry) model.ChecklistEntry) ([]model.ChecklistEntry, bool) {
	out := cloneEntries(entries)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			out[i].ID = id
			return out, true
		}
	}
	return out, false
}

// DeleteEntry removes the entry with the given id.
func DeleteEntry(entries []model.ChecklistEntry, id string) ([]model.ChecklistEntry, bool) {
	out := make([]model.ChecklistEntry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e)
	}
	return out, found
}
