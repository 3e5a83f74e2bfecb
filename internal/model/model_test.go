package model

import (
	"encoding/json"
	"testing"
)

func TestNormalize_LegacyDocumentDefaultsCollections(t *testing.T) {
	// A document written before the repairs list existed has no repairs key.
	raw := []byte(`{"spaces":[{"id":"s1","name":"Kitchen"}],"groceries":[{"id":"g1","text":"Milk"}]}`)

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	doc = doc.Normalize()
	if doc.Repairs == nil || len(doc.Repairs) != 0 {
		t.Fatalf("Repairs = %#v, want empty non-nil slice", doc.Repairs)
	}
	if doc.Items == nil {
		t.Fatalf("Items = nil, want empty slice")
	}
	if len(doc.Spaces) != 1 || doc.Spaces[0].Name != "Kitchen" {
		t.Fatalf("Spaces = %#v, want the kitchen preserved", doc.Spaces)
	}
	if len(doc.Groceries) != 1 || doc.Groceries[0].Text != "Milk" {
		t.Fatalf("Groceries = %#v, want the milk entry preserved", doc.Groceries)
	}
}

func TestBackfillOptionIDs(t *testing.T) {
	options := []Option{
		{ID: "keep-me", Model: "A"},
		{Model: "B"},
		{Model: "C"},
	}

	patched, changed := BackfillOptionIDs(options)
	if !changed {
		t.Fatal("changed = false, want true")
	}
	if patched[0].ID != "keep-me" {
		t.Fatalf("existing id rewritten to %q", patched[0].ID)
	}
	if patched[1].ID == "" || patched[2].ID == "" {
		t.Fatalf("missing ids not assigned: %#v", patched)
	}
	if patched[1].ID == patched[2].ID {
		t.Fatalf("duplicate ids assigned: %q", patched[1].ID)
	}
	if options[1].ID != "" {
		t.Fatalf("input slice mutated: %#v", options)
	}

	// A fully populated list should come back unchanged.
	again, changed := BackfillOptionIDs(patched)
	if changed {
		t.Fatalf("changed = true on fully populated list: %#v", again)
	}
}

func TestDefaultSpaces(t *testing.T) {
	spaces := DefaultSpaces()
	if len(spaces) == 0 {
		t.Fatal("no default spaces")
	}
	seen := map[string]bool{}
	for _, s := range spaces {
		if s.ID == "" {
			t.Fatalf("space %q has no id", s.Name)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate space id %q", s.ID)
		}
		seen[s.ID] = true
	}
}
