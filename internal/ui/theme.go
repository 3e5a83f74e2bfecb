package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the UI.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Border  string
}

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Title      lipgloss.Style
	Text       lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Danger     lipgloss.Style
	Selected   lipgloss.Style
	Pane       lipgloss.Style
	FocusPane  lipgloss.Style
	Badge      lipgloss.Style
	InputLabel lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
		Text:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Accent:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		Warning:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		Danger:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
		Pane:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t.Border)).Padding(0, 1),
		FocusPane:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t.Accent)).Padding(0, 1),
		Badge:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Warning)),
		InputLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
	}
}

var themes = []Theme{
	{
		Name:    "Larder",
		Text:    "#f8f8f2",
		Muted:   "#6272a4",
		Accent:  "#8be9fd",
		Success: "#50fa7b",
		Warning: "#f1fa8c",
		Danger:  "#ff5555",
		Border:  "#44475a",
	},
	{
		Name:    "Mono",
		Text:    "15",
		Muted:   "8",
		Accent:  "7",
		Success: "10",
		Warning: "11",
		Danger:  "9",
		Border:  "8",
	},
}

// themeByName returns the named theme, defaulting to the first.
func themeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// nextTheme returns the theme after the named one, wrapping around.
func nextTheme(name string) Theme {
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
