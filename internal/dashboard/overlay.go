package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/tOgg1/trainwatch/internal/tour"
)

const (
	minPanelWidth = 34
	maxPanelWidth = 56
	// panelMargin keeps the default placement off the bottom-right corner.
	panelMargin = 1
)

// tourPanel renders the tour panel and returns it with its screen rect. The
// panel sits in the bottom-right corner until it is first dragged.
func (m *Model) tourPanel(snap tour.Snapshot) (string, tour.Rect) {
	panel := m.renderTourPanel(snap)
	w, h := lipgloss.Width(panel), lipgloss.Height(panel)

	var origin tour.Point
	if snap.Placement.IsSet() {
		origin, _ = snap.Placement.Point()
	} else {
		footer := lipgloss.Height(m.renderFooter())
		origin = tour.Point{
			X: m.width - w - panelMargin,
			Y: m.height - footer - h,
		}
	}
	return panel, tour.Rect{Left: origin.X, Top: origin.Y, Width: w, Height: h}
}

func (m *Model) renderTourPanel(snap tour.Snapshot) string {
	st := m.styles
	width := min(max(m.width/3, minPanelWidth), maxPanelWidth)
	inner := width - 4

	title := st.PanelTitle.Render(snap.Step.Title)
	progress := st.Muted.Render(fmt.Sprintf("%s · step %d of %d", snap.Title, snap.StepIndex+1, snap.StepCount))
	content := lipgloss.NewStyle().Width(inner).Render(strings.TrimSpace(snap.Step.Content))

	var controls string
	if snap.Capturing {
		controls = m.spinner.View() + " capturing…"
	} else {
		controls = strings.Join([]string{
			control(st.Muted, st.Accent, snap.CanPrev(), "p", "Back"),
			control(st.Muted, st.Accent, snap.CanNext(), "n", label(snap.Step.Action, "Next")),
			control(st.Muted, st.Accent, true, "esc", closeLabel(snap)),
		}, "  ")
	}

	style := st.Panel.Width(width - 2)
	if snap.Dragging {
		style = style.BorderForeground(lipgloss.Color(st.Theme.Chrome.Warning))
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, progress, "", content, "", controls))
}

func control(off, on lipgloss.Style, enabled bool, k, text string) string {
	s := "[" + k + "] " + text
	if enabled {
		return on.Render(s)
	}
	return off.Render(s)
}

func label(action, fallback string) string {
	if strings.TrimSpace(action) == "" {
		return fallback
	}
	return action
}

func closeLabel(snap tour.Snapshot) string {
	if snap.IsLastStep() {
		return label(snap.Step.Action, "Done")
	}
	return "Close"
}

// overlay draws top over base with its top-left corner at (x, y). Parts of
// top outside base are dropped; base lines are padded when top starts past
// their end.
func overlay(base, top string, x, y, width int) string {
	baseLines := strings.Split(base, "\n")
	for i, line := range strings.Split(top, "\n") {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		col := x
		if col < 0 {
			line = ansi.TruncateLeft(line, -col, "")
			col = 0
		}
		if width > 0 && col >= width {
			continue
		}

		under := baseLines[row]
		left := ansi.Truncate(under, col, "")
		if lw := ansi.StringWidth(left); lw < col {
			left += strings.Repeat(" ", col-lw)
		}
		right := ansi.TruncateLeft(under, col+ansi.StringWidth(line), "")

		merged := left + ansi.ResetStyle + line + ansi.ResetStyle + right
		if width > 0 {
			merged = ansi.Truncate(merged, width, "")
		}
		baseLines[row] = merged
	}
	return strings.Join(baseLines, "\n")
}
