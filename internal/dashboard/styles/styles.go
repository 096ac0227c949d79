package styles

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Theme Theme

	Header      lipgloss.Style
	Footer      lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	TableHeader lipgloss.Style
	SortHeader  lipgloss.Style
	CursorHead  lipgloss.Style
	Selected    lipgloss.Style
	Muted       lipgloss.Style
	Accent      lipgloss.Style
	Warning     lipgloss.Style
	Panel       lipgloss.Style
	PanelTitle  lipgloss.Style
	Pin         lipgloss.Style
}

// New builds styles for a theme.
func New(t Theme) Styles {
	fg := lipgloss.Color(t.Base.Foreground)
	return Styles{
		Theme: t,
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Base.Background)).
			Background(lipgloss.Color(t.Chrome.Header)).
			Bold(true).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(fg).
			Background(lipgloss.Color(t.Chrome.Footer)).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Base.Background)).
			Background(lipgloss.Color(t.Chrome.Header)).
			Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Base.Background)).
			Background(lipgloss.Color(t.Chrome.TabActive)).
			Bold(true).
			Padding(0, 1),
		TableHeader: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted)).Bold(true),
		SortHeader:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.SortColumn)).Bold(true),
		CursorHead:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.SortColumn)).Underline(true),
		Selected:    lipgloss.NewStyle().Background(lipgloss.Color(t.Chrome.SelectedItem)),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted)),
		Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent)),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Warning)),
		Panel: lipgloss.NewStyle().
			Border(t.Border()).
			BorderForeground(lipgloss.Color(t.Base.Accent)).
			Foreground(fg).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent)).Bold(true),
		Pin:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chart.Pin)),
	}
}

// Status renders text in the given color.
func (s Styles) Status(color, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}
