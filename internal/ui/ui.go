// Package ui renders the local state cache as a terminal UI and dispatches
// user intents to the sync session's mutation handlers. It is pure
// presentation: all state it shows lives in the cache, all changes go
// through the session.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/larderapp/larder/internal/images"
	"github.com/larderapp/larder/internal/prefs"
	"github.com/larderapp/larder/internal/state"
	"github.com/larderapp/larder/internal/sync"
)

// Options configure the UI runtime.
type Options struct {
	Cache   *state.Store
	Session *sync.Session
	Prefs   prefs.Prefs

	// PrefsPath is where theme changes are persisted; empty uses the
	// default preferences path.
	PrefsPath string
}

// Run starts the terminal UI and blocks until ctx is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Cache == nil || opts.Session == nil {
		return fmt.Errorf("ui requires a cache and a session")
	}
	m := newModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Remote snapshots arrive outside the tea loop; forward them as
	// messages so the view re-renders.
	opts.Session.SetNotify(func() { p.Send(stateChangedMsg{}) })
	defer opts.Session.SetNotify(nil)

	_, err := p.Run()
	return err
}

// stateChangedMsg signals that the cache changed outside the update loop.
type stateChangedMsg struct{}

type view int

const (
	viewInventory view = iota
	viewGroceries
	viewRepairs
)

type pane int

const (
	paneSpaces pane = iota
	paneItems
	paneOptions
)

type model struct {
	opts   Options
	keys   keyMap
	styles Styles

	view view
	pane pane

	spaceCursor  int
	itemCursor   int
	optionCursor int
	listCursor   int

	input       textinput.Model
	inputActive bool
	inputLabel  string
	inputSearch bool
	onConfirm   func(string) string

	themeName    string
	hideComplete bool
	showImages   bool

	status string

	width  int
	height int
}

func newModel(opts Options) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	theme := themeByName(opts.Prefs.Theme)
	return model{
		opts:         opts,
		keys:         defaultKeyMap(),
		styles:       theme.Styles(),
		input:        ti,
		themeName:    theme.Name,
		hideComplete: opts.Prefs.HideComplete,
		showImages:   opts.Prefs.ShowImages,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		return m.clamped(), nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.inputActive {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputActive = false
		m.input.Blur()
		if m.inputSearch {
			m.opts.Session.SetQuery("")
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		text := m.input.Value()
		m.inputActive = false
		m.input.Blur()
		if m.onConfirm != nil && text != "" {
			m.status = m.onConfirm(text)
		}
		return m.clamped(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputSearch {
		// Filter as you type.
		m.opts.Session.SetQuery(m.input.Value())
	}
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.opts.Cache.Snapshot()
	keys := m.keys

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.ViewInventory):
		m.view = viewInventory
	case key.Matches(msg, keys.ViewGroceries):
		m.view = viewGroceries
		m.listCursor = 0
	case key.Matches(msg, keys.ViewRepairs):
		m.view = viewRepairs
		m.listCursor = 0

	case key.Matches(msg, keys.Tab):
		if m.view == viewInventory {
			m.pane = (m.pane + 1) % 3
		}

	case key.Matches(msg, keys.Escape):
		if snap.Query != "" {
			m.opts.Session.SetQuery("")
		}
		m.status = ""

	case key.Matches(msg, keys.Search):
		return m.openInput("Search", true, nil), textinput.Blink

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, keys.Confirm):
		if m.view == viewInventory && m.pane == paneItems {
			if item, ok := m.currentItem(snap); ok {
				m.opts.Session.SelectItem(item.ID)
				m.pane = paneOptions
				m.optionCursor = 0
			}
		}

	case key.Matches(msg, keys.Toggle):
		if list, ok := m.currentChecklist(); ok {
			if entry, ok := m.currentEntry(snap); ok {
				m.opts.Session.ToggleEntry(list, entry.ID)
			}
		}

	case key.Matches(msg, keys.Add):
		return m.startAdd(snap)

	case key.Matches(msg, keys.Rename):
		return m.startRename(snap)

	case key.Matches(msg, keys.Delete):
		m.deleteCurrent(snap)
		return m.clamped(), nil

	case key.Matches(msg, keys.Winner):
		if m.view == viewInventory && m.pane == paneOptions {
			if item, ok := snap.SelectedItem(); ok {
				if opt, ok := m.currentOption(item); ok {
					m.opts.Session.SetWinner(item.ID, opt.ID)
				}
			}
		}

	case key.Matches(msg, keys.MoveUp):
		m.moveOption(snap, -1)
	case key.Matches(msg, keys.MoveDn):
		m.moveOption(snap, 1)

	case key.Matches(msg, keys.Theme):
		theme := nextTheme(m.themeName)
		m.themeName = theme.Name
		m.styles = theme.Styles()
		p := m.opts.Prefs
		p.Theme = theme.Name
		m.opts.Prefs = p
		_ = prefs.Save(m.opts.PrefsPath, p)

	case key.Matches(msg, keys.Image):
		return m.startImage(snap)

	case key.Matches(msg, keys.Share):
		if token := m.opts.Session.EnableSharing(); token != "" {
			m.status = "share token: " + token
		}
	}

	return m.clamped(), nil
}

func (m model) openInput(label string, isSearch bool, onConfirm func(string) string) model {
	m.inputActive = true
	m.inputLabel = label
	m.inputSearch = isSearch
	m.onConfirm = onConfirm
	m.input.SetValue("")
	m.input.Focus()
	return m
}

func (m model) startAdd(snap state.Snapshot) (tea.Model, tea.Cmd) {
	if snap.ReadOnly {
		m.status = "read-only view"
		return m, nil
	}
	session := m.opts.Session
	switch {
	case m.view == viewGroceries:
		return m.openInput("New grocery", false, func(text string) string {
			session.AddEntry(sync.Groceries, text)
			return ""
		}), textinput.Blink
	case m.view == viewRepairs:
		return m.openInput("New repair", false, func(text string) string {
			session.AddEntry(sync.Repairs, text)
			return ""
		}), textinput.Blink
	case m.pane == paneSpaces:
		return m.openInput("New space", false, func(text string) string {
			session.AddSpace(text)
			return ""
		}), textinput.Blink
	case m.pane == paneItems:
		space, ok := m.currentSpace(snap)
		if !ok {
			m.status = "no space selected"
			return m, nil
		}
		return m.openInput("New item", false, func(text string) string {
			session.AddItem(space.ID, text)
			return ""
		}), textinput.Blink
	default:
		item, ok := snap.SelectedItem()
		if !ok {
			m.status = "select an item first"
			return m, nil
		}
		return m.openInput("New option (model name)", false, func(text string) string {
			session.AddOption(item.ID, optionWithModel(text))
			return ""
		}), textinput.Blink
	}
}

// startImage prompts for a file path and attaches the image to the focused
// space, item, or option as an inline data URI.
func (m model) startImage(snap state.Snapshot) (tea.Model, tea.Cmd) {
	if snap.ReadOnly || m.view != viewInventory {
		return m, nil
	}
	session := m.opts.Session
	switch m.pane {
	case paneSpaces:
		space, ok := m.currentSpace(snap)
		if !ok {
			return m, nil
		}
		return m.openInput("Image path", false, func(text string) string {
			uri, err := images.EncodeFile(text)
			if err != nil {
				return err.Error()
			}
			session.SetSpaceImage(space.ID, uri)
			return ""
		}), textinput.Blink
	case paneItems:
		item, ok := m.currentItem(snap)
		if !ok {
			return m, nil
		}
		return m.openInput("Image path", false, func(text string) string {
			uri, err := images.EncodeFile(text)
			if err != nil {
				return err.Error()
			}
			session.SetItemImage(item.ID, uri)
			return ""
		}), textinput.Blink
	default:
		item, ok := snap.SelectedItem()
		if !ok {
			return m, nil
		}
		opt, ok := m.currentOption(item)
		if !ok {
			return m, nil
		}
		return m.openInput("Image path", false, func(text string) string {
			uri, err := images.EncodeFile(text)
			if err != nil {
				return err.Error()
			}
			session.UpdateOption(item.ID, opt.ID, setOptionImage(uri))
			return ""
		}), textinput.Blink
	}
}

func (m model) startRename(snap state.Snapshot) (tea.Model, tea.Cmd) {
	if snap.ReadOnly {
		m.status = "read-only view"
		return m, nil
	}
	session := m.opts.Session
	if list, ok := m.currentChecklist(); ok {
		entry, ok := m.currentEntry(snap)
		if !ok {
			return m, nil
		}
		return m.openInput("Edit entry", false, func(text string) string {
			session.UpdateEntryText(list, entry.ID, text)
			return ""
		}), textinput.Blink
	}
	switch m.pane {
	case paneSpaces:
		space, ok := m.currentSpace(snap)
		if !ok {
			return m, nil
		}
		return m.openInput("Rename space", false, func(text string) string {
			session.RenameSpace(space.ID, text)
			return ""
		}), textinput.Blink
	case paneItems:
		item, ok := m.currentItem(snap)
		if !ok {
			return m, nil
		}
		return m.openInput("Rename item", false, func(text string) string {
			session.RenameItem(item.ID, text)
			return ""
		}), textinput.Blink
	default:
		item, ok := snap.SelectedItem()
		if !ok {
			return m, nil
		}
		opt, ok := m.currentOption(item)
		if !ok {
			return m, nil
		}
		return m.openInput("Rename option", false, func(text string) string {
			session.UpdateOption(item.ID, opt.ID, renameOption(text))
			return ""
		}), textinput.Blink
	}
}

func (m *model) deleteCurrent(snap state.Snapshot) {
	if snap.ReadOnly {
		m.status = "read-only view"
		return
	}
	session := m.opts.Session
	if list, ok := m.currentChecklist(); ok {
		if entry, ok := m.currentEntry(snap); ok {
			session.DeleteEntry(list, entry.ID)
		}
		return
	}
	switch m.pane {
	case paneSpaces:
		if space, ok := m.currentSpace(snap); ok {
			session.DeleteSpace(space.ID)
		}
	case paneItems:
		if item, ok := m.currentItem(snap); ok {
			session.DeleteItem(item.ID)
		}
	default:
		if item, ok := snap.SelectedItem(); ok {
			if opt, ok := m.currentOption(item); ok {
				session.DeleteOption(item.ID, opt.ID)
			}
		}
	}
}

func (m *model) moveOption(snap state.Snapshot, delta int) {
	if m.view != viewInventory || m.pane != paneOptions || snap.ReadOnly {
		return
	}
	item, ok := snap.SelectedItem()
	if !ok {
		return
	}
	from := m.optionCursor
	to := from + delta
	if to < 0 || to >= len(item.Options) {
		return
	}
	m.opts.Session.MoveOption(item.ID, from, to)
	m.optionCursor = to
}
