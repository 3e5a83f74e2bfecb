package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/larderapp/larder/internal/images"
	mdl "github.com/larderapp/larder/internal/model"
	"github.com/larderapp/larder/internal/search"
	"github.com/larderapp/larder/internal/state"
	"github.com/larderapp/larder/internal/sync"
)

func (m model) View() string {
	snap := m.opts.Cache.Snapshot()

	var b strings.Builder
	b.WriteString(m.renderHeader(snap))
	b.WriteString("\n")

	switch m.view {
	case viewInventory:
		b.WriteString(m.renderInventory(snap))
	case viewGroceries:
		b.WriteString(m.renderChecklist("Groceries", m.visibleEntries(snap)))
	case viewRepairs:
		b.WriteString(m.renderChecklist("Repairs", m.visibleEntries(snap)))
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m model) renderHeader(snap state.Snapshot) string {
	st := m.styles
	parts := []string{st.Title.Render("larder")}

	phase, phaseErr := m.opts.Session.Phase()
	switch phase {
	case sync.PhaseSynced:
		parts = append(parts, st.Success.Render(phase.String()))
	case sync.PhaseAuthFailed, sync.PhaseReadError:
		msg := phase.String()
		if phaseErr != nil {
			msg += ": " + phaseErr.Error()
		}
		parts = append(parts, st.Danger.Render(msg))
	default:
		parts = append(parts, st.Muted.Render(phase.String()))
	}

	if snap.ReadOnly {
		parts = append(parts, st.Badge.Render("read-only"))
	}
	if snap.Query != "" {
		parts = append(parts, st.Accent.Render("filter: "+snap.Query))
	}
	if m.status != "" {
		parts = append(parts, st.Warning.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func (m model) renderInventory(snap state.Snapshot) string {
	res := m.filtered(snap)

	spaces := m.renderSpaces(res.Spaces)
	items := m.renderItems(snap, res)
	options := m.renderOptions(snap)

	width := m.width
	if width <= 0 {
		width = 96
	}
	paneWidth := width/3 - 4
	if paneWidth < 16 {
		paneWidth = 16
	}

	panes := make([]string, 0, 3)
	for i, body := range []string{spaces, items, options} {
		style := m.styles.Pane
		if m.pane == pane(i) {
			style = m.styles.FocusPane
		}
		panes = append(panes, style.Width(paneWidth).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

func (m model) renderSpaces(spaces []mdl.Space) string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.Title.Render("Spaces"))
	b.WriteString("\n")
	if len(spaces) == 0 {
		b.WriteString(st.Muted.Render("(none)"))
		return b.String()
	}
	for i, space := range spaces {
		line := space.Name
		if m.showImages && images.IsDataURI(space.Image) {
			line += st.Muted.Render(" [img]")
		}
		if i == m.spaceCursor {
			b.WriteString(st.Selected.Render("> " + line))
		} else {
			b.WriteString(st.Text.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderItems(snap state.Snapshot, res search.Results) string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.Title.Render("Items"))
	b.WriteString("\n")

	space, ok := m.currentSpace(snap)
	if !ok {
		b.WriteString(st.Muted.Render("(no space)"))
		return b.String()
	}
	items := itemsForSpace(res.Items, space.ID)
	if len(items) == 0 {
		b.WriteString(st.Muted.Render("(empty)"))
		return b.String()
	}
	for i, match := range items {
		line := match.Item.Name
		if m.showImages && images.IsDataURI(match.Item.Image) {
			line += st.Muted.Render(" [img]")
		}
		if n := len(match.Item.Options); n > 0 {
			line += st.Muted.Render(fmt.Sprintf(" (%d)", n))
		}
		if match.Item.ID == snap.SelectedItemID {
			line += st.Accent.Render(" *")
		}
		if i == m.itemCursor {
			b.WriteString(st.Selected.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderOptions(snap state.Snapshot) string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.Title.Render("Options"))
	b.WriteString("\n")

	item, ok := snap.SelectedItem()
	if !ok {
		b.WriteString(st.Muted.Render("(select an item)"))
		return b.String()
	}
	if len(item.Options) == 0 {
		b.WriteString(st.Muted.Render("(no options)"))
		return b.String()
	}
	for i, opt := range item.Options {
		line := opt.Model
		if opt.Store != "" {
			line += st.Muted.Render(" @ " + opt.Store)
		}
		if opt.Price > 0 {
			line += st.Muted.Render(fmt.Sprintf(" $%.2f", opt.Price))
		}
		if opt.Winner {
			line = st.Success.Render("★ ") + line
		} else {
			line = "  " + line
		}
		if i == m.optionCursor {
			b.WriteString(st.Selected.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderChecklist(title string, entries []mdl.ChecklistEntry) string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.Title.Render(title))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(st.Muted.Render("(empty)"))
		return b.String()
	}
	for i, entry := range entries {
		box := "[ ]"
		text := st.Text.Render(entry.Text)
		if entry.Completed {
			box = "[x]"
			text = st.Muted.Render(entry.Text)
		}
		line := box + " " + text
		if i == m.listCursor {
			b.WriteString(st.Selected.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderFooter() string {
	if m.inputActive {
		return m.styles.InputLabel.Render(m.inputLabel+": ") + m.input.View()
	}
	help := "q quit · tab pane · 1/2/3 view · / search · a add · r rename · d delete · i image · t theme · S share"
	switch {
	case m.view != viewInventory:
		help = "q quit · 1/2/3 view · / search · a add · r rename · d delete · space toggle · t theme"
	case m.pane == paneOptions:
		help += " · w winner · K/J move"
	case m.pane == paneItems:
		help += " · enter select"
	}
	return m.styles.Muted.Render(help)
}

// filtered applies the active query to the collections of the current view.
// The checklist slot carries whichever list the view shows.
func (m model) filtered(snap state.Snapshot) search.Results {
	entries := snap.Groceries
	if m.view == viewRepairs {
		entries = snap.Repairs
	}
	return search.Filter(snap.Spaces, snap.Items, entries, snap.Query)
}

// visibleEntries is the checklist after the query filter and the optional
// hide-complete preference. Cursors index into this slice.
func (m model) visibleEntries(snap state.Snapshot) []mdl.ChecklistEntry {
	entries := m.filtered(snap).Groceries
	if !m.hideComplete {
		return entries
	}
	var out []mdl.ChecklistEntry
	for _, entry := range entries {
		if !entry.Completed {
			out = append(out, entry)
		}
	}
	return out
}

// itemsForSpace narrows matches to one space, ordered by the items' manual
// sort order.
func itemsForSpace(matches []search.ItemMatch, spaceID string) []search.ItemMatch {
	var out []search.ItemMatch
	for _, match := range matches {
		if match.Item.SpaceID == spaceID {
			out = append(out, match)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Item.Order < out[j].Item.Order
	})
	return out
}

func (m model) currentSpace(snap state.Snapshot) (mdl.Space, bool) {
	spaces := m.filtered(snap).Spaces
	if m.spaceCursor < 0 || m.spaceCursor >= len(spaces) {
		return mdl.Space{}, false
	}
	return spaces[m.spaceCursor], true
}

func (m model) currentItem(snap state.Snapshot) (mdl.Item, bool) {
	space, ok := m.currentSpace(snap)
	if !ok {
		return mdl.Item{}, false
	}
	items := itemsForSpace(m.filtered(snap).Items, space.ID)
	if m.itemCursor < 0 || m.itemCursor >= len(items) {
		return mdl.Item{}, false
	}
	return items[m.itemCursor].Item, true
}

func (m model) currentOption(item mdl.Item) (mdl.Option, bool) {
	if m.optionCursor < 0 || m.optionCursor >= len(item.Options) {
		return mdl.Option{}, false
	}
	return item.Options[m.optionCursor], true
}

func (m model) currentEntry(snap state.Snapshot) (mdl.ChecklistEntry, bool) {
	entries := m.visibleEntries(snap)
	if m.listCursor < 0 || m.listCursor >= len(entries) {
		return mdl.ChecklistEntry{}, false
	}
	return entries[m.listCursor], true
}

// currentChecklist maps the active view to the list it shows.
func (m model) currentChecklist() (sync.List, bool) {
	switch m.view {
	case viewGroceries:
		return sync.Groceries, true
	case viewRepairs:
		return sync.Repairs, true
	default:
		return "", false
	}
}

func (m *model) moveCursor(delta int) {
	if m.view != viewInventory {
		m.listCursor += delta
		return
	}
	switch m.pane {
	case paneSpaces:
		m.spaceCursor += delta
		m.itemCursor = 0
	case paneItems:
		m.itemCursor += delta
	case paneOptions:
		m.optionCursor += delta
	}
}

// clamped bounds every cursor against the current collection sizes.
func (m model) clamped() model {
	snap := m.opts.Cache.Snapshot()
	res := m.filtered(snap)

	m.spaceCursor = clamp(m.spaceCursor, len(res.Spaces))
	if space, ok := m.currentSpace(snap); ok {
		m.itemCursor = clamp(m.itemCursor, len(itemsForSpace(res.Items, space.ID)))
	} else {
		m.itemCursor = 0
	}
	if item, ok := snap.SelectedItem(); ok {
		m.optionCursor = clamp(m.optionCursor, len(item.Options))
	} else {
		m.optionCursor = 0
	}
	m.listCursor = clamp(m.listCursor, len(m.visibleEntries(snap)))
	return m
}

func clamp(cursor, length int) int {
	if length == 0 {
		return 0
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}

func optionWithModel(text string) mdl.Option {
	return mdl.Option{Model: text}
}

func renameOption(text string) func(mdl.Option) mdl.Option {
	return func(o mdl.Option) mdl.Option {
		o.Model = text
		return o
	}
}

func setOptionImage(uri string) func(mdl.Option) mdl.Option {
	return func(o mdl.Option) mdl.Option {
		o.Image = uri
		return o
	}
}
