package state

import (
	"testing"
	"time"

	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/model"
)

func TestStore_SnapshotClones(t *testing.T) {
	var s Store
	s.SetItems([]model.Item{{ID: "i1", Name: "Couch", Options: []model.Option{{ID: "o1", Model: "A"}}}})

	snap := s.Snapshot()
	snap.Items[0].Name = "mutated"
	snap.Items[0].Options[0].Model = "mutated"

	again := s.Snapshot()
	if again.Items[0].Name != "Couch" || again.Items[0].Options[0].Model != "A" {
		t.Fatalf("snapshot shares memory with the store: %#v", again.Items)
	}
}

func TestStore_ApplyRemoteIsSparse(t *testing.T) {
	var s Store
	s.SetGroceries([]model.ChecklistEntry{{ID: "g1", Text: "Milk"}})
	s.SetQuery("couch")
	s.Select("i1")
	s.SetItems([]model.Item{{ID: "i1", Name: "Couch"}})

	spaces := []model.Space{{ID: "s1", Name: "Kitchen"}}
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ApplyRemote(docstore.Patch{Spaces: &spaces, LastUpdated: &when})

	snap := s.Snapshot()
	if len(snap.Spaces) != 1 || snap.Spaces[0].Name != "Kitchen" {
		t.Fatalf("spaces not merged: %#v", snap.Spaces)
	}
	if len(snap.Groceries) != 1 || snap.Groceries[0].Text != "Milk" {
		t.Fatalf("groceries overwritten by a patch that did not carry them: %#v", snap.Groceries)
	}
	if snap.Query != "couch" || snap.SelectedItemID != "i1" {
		t.Fatalf("UI state disturbed by remote merge: %#v", snap)
	}
	if !snap.LastUpdated.Equal(when) {
		t.Fatalf("LastUpdated = %v, want %v", snap.LastUpdated, when)
	}
}

func TestStore_ApplyRemoteClearsDanglingSelection(t *testing.T) {
	var s Store
	s.SetItems([]model.Item{{ID: "i1"}, {ID: "i2"}})
	s.Select("i2")

	items := []model.Item{{ID: "i1"}}
	s.ApplyRemote(docstore.Patch{Items: &items})

	if got := s.Snapshot().SelectedItemID; got != "" {
		t.Fatalf("SelectedItemID = %q, want cleared", got)
	}
}

func TestStore_SetItemsClearsDanglingSelection(t *testing.T) {
	var s Store
	s.SetItems([]model.Item{{ID: "i1"}, {ID: "i2"}})
	s.Select("i1")

	items, found := DeleteItem(s.Snapshot().Items, "i1")
	if !found {
		t.Fatal("DeleteItem did not find i1")
	}
	s.SetItems(items)

	snap := s.Snapshot()
	if snap.SelectedItemID != "" {
		t.Fatalf("SelectedItemID = %q, want cleared after delete", snap.SelectedItemID)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != "i2" {
		t.Fatalf("Items = %#v, want only i2", snap.Items)
	}
}

func TestSnapshot_SelectedItem(t *testing.T) {
	snap := Snapshot{
		Items:          []model.Item{{ID: "i1", Name: "Lamp"}},
		SelectedItemID: "i1",
	}
	item, ok := snap.SelectedItem()
	if !ok || item.Name != "Lamp" {
		t.Fatalf("SelectedItem = %#v %v, want the lamp", item, ok)
	}

	snap.SelectedItemID = "missing"
	if _, ok := snap.SelectedItem(); ok {
		t.Fatal("SelectedItem found a missing id")
	}
}
