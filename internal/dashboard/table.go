package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/tOgg1/trainwatch/internal/dashboard/styles"
	"github.com/tOgg1/trainwatch/internal/listview"
)

const (
	columnGap      = 2
	sortIndicators = 2 // " ▲"
)

// table renders one page of a listview controller and tracks the sort-column
// cursor and the selected row.
type table[T any, K comparable] struct {
	list    *listview.Controller[T, K]
	columns []K
	title   func(K) string
	cell    func(T, K) string
	color   func(styles.Theme, T, K) string

	cursor int
	row    int
}

func newTable[T any, K comparable](pageSize int, fields map[K]listview.Field[T], columns []K, title func(K) string, cell func(T, K) string) *table[T, K] {
	return &table[T, K]{
		list:    listview.New(pageSize, fields),
		columns: columns,
		title:   title,
		cell:    cell,
	}
}

func (t *table[T, K]) setItems(items []T) {
	t.list.SetSource(items)
	t.row = 0
}

func (t *table[T, K]) moveCursor(delta int) {
	if len(t.columns) == 0 {
		return
	}
	t.cursor = (t.cursor + delta + len(t.columns)) % len(t.columns)
}

// sortCursor sorts by the column under the cursor.
func (t *table[T, K]) sortCursor() bool {
	if t.cursor < 0 || t.cursor >= len(t.columns) {
		return false
	}
	return t.sortColumn(t.cursor)
}

func (t *table[T, K]) sortColumn(idx int) bool {
	if !t.list.SortBy(t.columns[idx]) {
		return false
	}
	t.cursor = idx
	t.row = 0
	return true
}

func (t *table[T, K]) nextPage() {
	t.list.NextPage()
	t.row = 0
}

func (t *table[T, K]) prevPage() {
	t.list.PrevPage()
	t.row = 0
}

func (t *table[T, K]) moveRow(delta int) {
	n := len(t.list.View().Items)
	if n == 0 {
		t.row = 0
		return
	}
	t.row = min(max(t.row+delta, 0), n-1)
}

func (t *table[T, K]) selected() (T, bool) {
	items := t.list.View().Items
	if t.row < 0 || t.row >= len(items) {
		var zero T
		return zero, false
	}
	return items[t.row], true
}

// widths sizes every column to fit its title, sort marker and the cells of
// the visible page.
func (t *table[T, K]) widths(items []T) []int {
	out := make([]int, len(t.columns))
	for i, col := range t.columns {
		w := lipgloss.Width(t.title(col)) + sortIndicators
		for _, it := range items {
			w = max(w, lipgloss.Width(t.cell(it, col)))
		}
		out[i] = w
	}
	return out
}

// columnAt maps a screen column (relative to the table's left edge) to a
// column index.
func (t *table[T, K]) columnAt(x int) (int, bool) {
	if x < 0 {
		return 0, false
	}
	start := 0
	for i, w := range t.widths(t.list.View().Items) {
		if x >= start && x < start+w {
			return i, true
		}
		start += w + columnGap
	}
	return 0, false
}

func (t *table[T, K]) render(st styles.Styles, width, height int) string {
	view := t.list.View()
	widths := t.widths(view.Items)
	gap := strings.Repeat(" ", columnGap)

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		label := t.title(col)
		style := st.TableHeader
		if i == t.cursor {
			style = st.CursorHead
		}
		if view.Sort.Active && view.Sort.Column == col {
			label += " " + arrow(view.Sort.Direction)
			style = st.SortHeader.Underline(i == t.cursor)
		}
		headers[i] = style.Render(pad(label, widths[i]))
	}

	lines := []string{fitLine(strings.Join(headers, gap), width)}
	for r, item := range view.Items {
		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			text := pad(t.cell(item, col), widths[i])
			if t.color != nil {
				if c := t.color(st.Theme, item, col); c != "" {
					text = st.Status(c, text)
				}
			}
			cells[i] = text
		}
		line := fitLine(strings.Join(cells, gap), width)
		if r == t.row {
			line = st.Selected.Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	if len(view.Items) == 0 {
		lines = append(lines, st.Muted.Render("no records"))
	}
	for len(lines) < height-1 {
		lines = append(lines, "")
	}

	footer := st.Muted.Render(pageLabel(view.CurrentPage, view.TotalPages, view.Total))
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}

func pageLabel(page, total, records int) string {
	return fmt.Sprintf("page %d/%d · %d records", page, total, records)
}

func arrow(d listview.Direction) string {
	if d == listview.Descending {
		return "▼"
	}
	return "▲"
}

func pad(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func fitLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
