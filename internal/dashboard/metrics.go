package dashboard

import (
	"fmt"
	"strings"
	"time"

	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/trainwatch/internal/analysis"
	"github.com/tOgg1/trainwatch/internal/dashboard/styles"
	"github.com/tOgg1/trainwatch/internal/models"
)

const (
	minChartHeight = 6
	maxPinLines    = 5
)

func (m *Model) renderMetrics(width, height int) string {
	st := m.styles
	job, ok := m.jobs.selected()
	if !ok {
		return st.Muted.Render("no job selected")
	}

	title := st.PanelTitle.Render("loss · "+job.Name) + st.Muted.Render("  ↑/↓ change job")
	if m.series.jobID != job.ID {
		return title + "\n" + st.Muted.Render("loading…")
	}
	if m.series.err != nil {
		return title + "\n" + st.Warning.Render(m.series.err.Error())
	}
	if len(m.series.loss) == 0 {
		return title + "\n" + st.Muted.Render("no samples reported yet")
	}

	pins := renderPins(st, m.series.notes, width)
	chartHeight := max(minChartHeight, height-1-lipgloss.Height(pins)-1)
	chart := renderLossChart(st, m.series.loss, width, chartHeight)
	return lipgloss.JoinVertical(lipgloss.Left, title, chart, pins)
}

func renderLossChart(st styles.Styles, points []models.MetricPoint, width, height int) string {
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	if hi == lo {
		hi = lo + 1
	}
	margin := (hi - lo) * 0.1

	start, end := points[0].At, points[len(points)-1].At
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	chart := tslc.New(max(10, width), height)
	chart.SetStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(st.Theme.Chart.Line)))
	chart.AxisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(st.Theme.Chart.Axis))
	chart.LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(st.Theme.Chart.Label))
	chart.SetTimeRange(start, end)
	chart.SetViewTimeRange(start, end)
	chart.SetYRange(lo-margin, hi+margin)
	chart.SetViewYRange(lo-margin, hi+margin)
	for _, p := range points {
		chart.Push(tslc.TimePoint{Time: p.At, Value: p.Value})
	}
	chart.DrawBraille()
	return chart.View()
}

func renderPins(st styles.Styles, notes []models.Annotation, width int) string {
	if len(notes) == 0 {
		return st.Muted.Render("no pins · press + to add one")
	}
	start := max(0, len(notes)-maxPinLines)
	lines := make([]string, 0, maxPinLines)
	for _, a := range notes[start:] {
		line := fmt.Sprintf("◆ %s  %.4f  %s: %s", a.Cell(models.AnnColTime), a.Value, a.Cell(models.AnnColAuthor), a.Text)
		lines = append(lines, st.Pin.Render(fitLine(line, width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderAnalysis(width int) string {
	st := m.styles
	job, ok := m.jobs.selected()
	if !ok {
		return st.Muted.Render("no job selected")
	}
	title := st.PanelTitle.Render("root-cause analysis · " + job.Name)

	var body string
	switch {
	case m.analysis.running:
		body = m.spinner.View() + " asking the model…"
	case m.analysis.jobID != job.ID || m.analysis.text == "":
		body = st.Muted.Render("press r to analyze this job's logs and metrics")
	case analysis.IsFallback(m.analysis.text):
		body = st.Warning.Width(width).Render(m.analysis.text)
	default:
		body = lipgloss.NewStyle().Width(width).Render(m.analysis.text)
	}
	return title + "\n\n" + body
}
