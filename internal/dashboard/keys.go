package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab    key.Binding
	PrevTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	PrevColumn key.Binding
	NextColumn key.Binding
	Sort       key.Binding
	Annotate   key.Binding
	Analyze    key.Binding
	Reload     key.Binding
	Tour       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// tourKeyMap is active while the tour panel is open.
type tourKeyMap struct {
	Next        key.Binding
	Prev        key.Binding
	AutoCapture key.Binding
	Close       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		PrevColumn: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev column")),
		NextColumn: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next column")),
		Sort:       key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "sort")),
		Annotate:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "annotate")),
		Analyze:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "analyze")),
		Reload:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Tour:       key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "tour")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func defaultTourKeyMap() tourKeyMap {
	return tourKeyMap{
		Next:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "back")),
		AutoCapture: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-capture")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Sort, k.NextPage, k.Tour, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Up, k.Down},
		{k.PrevColumn, k.NextColumn, k.Sort, k.PrevPage, k.NextPage},
		{k.Annotate, k.Analyze, k.Reload},
		{k.Tour, k.Help, k.Quit},
	}
}

func (k tourKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.AutoCapture, k.Close}
}

func (k tourKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
