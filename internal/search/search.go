// Package search filters the collections with case-insensitive substring
// matching. It is pure and synchronous: no I/O, no state, results in the
// insertion order of the source collections.
package search

import (
	"strings"

	"github.com/larderapp/larder/internal/model"
)

// Reason names the field a query matched on. Reasons are ordered strongest
// first for display highlighting; they never affect result order.
type Reason string

const (
	ReasonItemName    Reason = "item name"
	ReasonOptionModel Reason = "option model"
	ReasonOptionStore Reason = "option store"
)

// ItemMatch pairs a matched item with the reasons it matched.
type ItemMatch struct {
	Item    model.Item
	Reasons []Reason
}

// Results holds the filtered views of each collection.
type Results struct {
	Spaces    []model.Space
	Items     []ItemMatch
	Groceries []model.ChecklistEntry
}

// Filter produces filtered views for the query. An empty or whitespace
// query returns everything unfiltered.
func Filter(spaces []model.Space, items []model.Item, groceries []model.ChecklistEntry, query string) Results {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		all := make([]ItemMatch, 0, len(items))
		for _, item := range items {
			all = append(all, ItemMatch{Item: item})
		}
		return Results{Spaces: spaces, Items: all, Groceries: groceries}
	}

	res := Results{}
	matchedSpaceIDs := map[string]bool{}

	for _, item := range items {
		reasons := matchItem(item, q)
		if len(reasons) == 0 {
			continue
		}
		res.Items = append(res.Items, ItemMatch{Item: item, Reasons: reasons})
		matchedSpaceIDs[item.SpaceID] = true
	}

	// A space matches by its own name or through any of its items.
	for _, space := range spaces {
		if strings.Contains(strings.ToLower(space.Name), q) || matchedSpaceIDs[space.ID] {
			res.Spaces = append(res.Spaces, space)
		}
	}

	for _, entry := range groceries {
		if strings.Contains(strings.ToLower(entry.Text), q) {
			res.Groceries = append(res.Groceries, entry)
		}
	}
	return res
}

func matchItem(item model.Item, q string) []Reason {
	var reasons []Reason
	if strings.Contains(strings.ToLower(item.Name), q) {
		reasons = append(reasons, ReasonItemName)
	}
	modelHit, storeHit := false, false
	for _, o := range item.Options {
		if !modelHit && strings.Contains(strings.ToLower(o.Model), q) {
			modelHit = true
		}
		if !storeHit && strings.Contains(strings.ToLower(o.Store), q) {
			storeHit = true
		}
	}
	if modelHit {
		reasons = append(reasons, ReasonOptionModel)
	}
	if storeHit {
		reasons = append(reasons, ReasonOptionStore)
	}
	return reasons
}
