package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/trainwatch/internal/models"
	"github.com/tOgg1/trainwatch/internal/tour"
)

func (m *Model) renderHeader() string {
	st := m.styles
	parts := []string{st.Header.Render("trainwatch")}
	for i, title := range tabTitles {
		if Tab(i) == m.tab {
			parts = append(parts, st.ActiveTab.Render(title))
		} else {
			parts = append(parts, st.Tab.Render(title))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	right := st.Header.Render(m.fleetSummary())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return fitLine(left, m.width)
	}
	filler := st.Tab.Padding(0).Render(strings.Repeat(" ", gap))
	return left + filler + right
}

func (m *Model) fleetSummary() string {
	failed := 0
	for _, j := range m.fleet {
		if j.Status == models.JobFailed {
			failed++
		}
	}
	if failed == 0 {
		return fmt.Sprintf("%d jobs", len(m.fleet))
	}
	return fmt.Sprintf("%d jobs · %d failed", len(m.fleet), failed)
}

func (m *Model) renderFooter() string {
	st := m.styles
	width := max(0, m.width)

	var status string
	switch {
	case m.annotating:
		status = m.input.View()
	case m.status != "" && m.statusWarn:
		status = st.Warning.Render(m.status)
	default:
		status = m.status
	}
	if snap := m.tour.Snapshot(); snap.Phase == tour.Active {
		auto := "auto-capture off"
		if snap.AutoCapture {
			auto = "auto-capture on"
		}
		status = joinEnds(status, st.Muted.Render(auto), width-2)
	}

	var helpView string
	if m.tour.Snapshot().Phase == tour.Active && !m.showHelp {
		bindings := append(m.tourKeys.ShortHelp(), m.keys.NextTab, m.keys.Help, m.keys.Quit)
		helpView = m.help.ShortHelpView(bindings)
	} else {
		helpView = m.help.View(m.keys)
	}

	statusLine := st.Footer.Width(width).Render(fitLine(status, max(0, width-2)))
	return lipgloss.JoinVertical(lipgloss.Left, statusLine, helpView)
}

func joinEnds(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
