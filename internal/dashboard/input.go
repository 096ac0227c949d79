package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/trainwatch/internal/tour"
)

const (
	bodyPadding = 1
	// tableHeaderY is the screen row of table column headers, right under
	// the one-line header bar.
	tableHeaderY = 1
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.annotating {
		return m.handleAnnotationKey(msg)
	}
	if m.tour.Snapshot().Phase == tour.Active {
		if cmd, handled := m.handleTourKey(msg); handled {
			return cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return nil
	case key.Matches(msg, m.keys.NextTab):
		m.tab = Tab((int(m.tab) + 1) % len(tabTitles))
		return nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = Tab((int(m.tab) + len(tabTitles) - 1) % len(tabTitles))
		return nil
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("reloading")
		return m.loadData()
	case key.Matches(msg, m.keys.Tour):
		m.openTour()
		return nil
	case key.Matches(msg, m.keys.Annotate):
		return m.beginAnnotation()
	case key.Matches(msg, m.keys.Analyze):
		job, ok := m.jobs.selected()
		if !ok {
			m.setWarning("no job selected")
			return nil
		}
		m.tab = TabAnalysis
		return m.analyzeCmd(job)
	}

	switch m.tab {
	case TabJobs:
		return m.handleJobsKey(msg)
	case TabReservations:
		handleTableKey(m.reservations, m.keys, msg)
	case TabAnnotations:
		handleTableKey(m.annotations, m.keys, msg)
	case TabMetrics:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.jobs.moveRow(-1)
			return m.loadSeries()
		case key.Matches(msg, m.keys.Down):
			m.jobs.moveRow(1)
			return m.loadSeries()
		}
	}
	return nil
}

// handleJobsKey refreshes the metric series whenever the selected job may
// have changed.
func (m *Model) handleJobsKey(msg tea.KeyMsg) tea.Cmd {
	before, _ := m.jobs.selected()
	if !handleTableKey(m.jobs, m.keys, msg) {
		return nil
	}
	if after, ok := m.jobs.selected(); ok && after.ID != before.ID {
		return m.loadSeries()
	}
	return nil
}

func handleTableKey[T any, K comparable](t *table[T, K], keys keyMap, msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, keys.Up):
		t.moveRow(-1)
	case key.Matches(msg, keys.Down):
		t.moveRow(1)
	case key.Matches(msg, keys.PrevColumn):
		t.moveCursor(-1)
	case key.Matches(msg, keys.NextColumn):
		t.moveCursor(1)
	case key.Matches(msg, keys.Sort):
		t.sortCursor()
	case key.Matches(msg, keys.PrevPage):
		t.prevPage()
	case key.Matches(msg, keys.NextPage):
		t.nextPage()
	default:
		return false
	}
	return true
}

func (m *Model) handleTourKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.tourKeys.Next):
		t, ok := m.tour.RequestNext()
		if !ok || !t.Capture {
			return nil, true
		}
		return tea.Batch(m.captureCmd(t), m.spinner.Tick), true
	case key.Matches(msg, m.tourKeys.Prev):
		m.tour.Prev()
		return nil, true
	case key.Matches(msg, m.tourKeys.AutoCapture):
		if m.deps.Capture == nil {
			m.setWarning("auto-capture unavailable: no capture directory")
			return nil, true
		}
		if m.tour.ToggleAutoCapture() {
			m.setStatus("auto-capture on")
		} else {
			m.setStatus("auto-capture off")
		}
		return nil, true
	case key.Matches(msg, m.tourKeys.Close):
		m.tour.Close()
		m.setStatus("tour closed")
		return nil, true
	}
	return nil, false
}

func (m *Model) openTour() {
	id := m.cfg.DefaultScenario
	for _, s := range m.cfg.Scenarios {
		if s.ID != id {
			continue
		}
		if !m.tour.Open(s) {
			m.setWarning("tour %q cannot be played", id)
			return
		}
		m.setStatus("tour: %s", s.Title)
		return
	}
	m.setWarning("unknown tour %q", id)
}

func (m *Model) captureCmd(t *tour.Transition) tea.Cmd {
	ctx, controller := m.ctx, m.tour
	return func() tea.Msg {
		return captureDoneMsg{transition: t, outcome: controller.RunCapture(ctx, t)}
	}
}

func (m *Model) applyCapture(msg captureDoneMsg) {
	res := m.tour.FinishNext(msg.transition, msg.outcome)
	switch {
	case res.Stale || !res.Advanced:
		return
	case res.Warning != nil:
		m.setWarning("%v", res.Warning)
	case res.Artifact != nil:
		m.setStatus("captured step %d → %s", res.From+1, res.Artifact.Ref)
	}
}

func (m *Model) beginAnnotation() tea.Cmd {
	job, ok := m.jobs.selected()
	if !ok {
		m.setWarning("no job selected")
		return nil
	}
	m.annotating = true
	m.input.Reset()
	m.input.Placeholder = "note for " + job.Name
	return m.input.Focus()
}

func (m *Model) handleAnnotationKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.annotating = false
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		m.annotating = false
		m.input.Blur()
		text := strings.TrimSpace(m.input.Value())
		job, ok := m.jobs.selected()
		if text == "" || !ok {
			m.setWarning("empty note discarded")
			return nil
		}
		return m.addAnnotationCmd(job.ID, text)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	pt := tour.Point{X: msg.X, Y: msg.Y}
	snap := m.tour.Snapshot()

	if snap.Dragging {
		switch msg.Action {
		case tea.MouseActionMotion:
			m.tour.PointerMove(pt)
		case tea.MouseActionRelease:
			m.tour.EndDrag()
		}
		return nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	if snap.Phase == tour.Active {
		if _, rect := m.tourPanel(snap); rect.Contains(pt) {
			m.tour.BeginDrag(pt, rect)
			return nil
		}
	}

	if msg.Y != tableHeaderY {
		return nil
	}
	x := msg.X - bodyPadding
	switch m.tab {
	case TabJobs:
		if idx, ok := m.jobs.columnAt(x); ok {
			m.jobs.sortColumn(idx)
			return m.loadSeries()
		}
	case TabReservations:
		if idx, ok := m.reservations.columnAt(x); ok {
			m.reservations.sortColumn(idx)
		}
	case TabAnnotations:
		if idx, ok := m.annotations.columnAt(x); ok {
			m.annotations.sortColumn(idx)
		}
	}
	return nil
}
