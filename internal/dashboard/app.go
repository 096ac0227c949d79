// Package dashboard is the trainwatch terminal UI.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/trainwatch/internal/analysis"
	"github.com/tOgg1/trainwatch/internal/capture"
	"github.com/tOgg1/trainwatch/internal/dashboard/styles"
	"github.com/tOgg1/trainwatch/internal/data"
	"github.com/tOgg1/trainwatch/internal/logging"
	"github.com/tOgg1/trainwatch/internal/models"
	"github.com/tOgg1/trainwatch/internal/tour"
)

// Tab identifies a dashboard page.
type Tab int

const (
	TabJobs Tab = iota
	TabReservations
	TabMetrics
	TabAnnotations
	TabAnalysis
)

var tabTitles = []string{"Jobs", "Reservations", "Metrics", "Annotations", "Analysis"}

func (t Tab) String() string {
	if int(t) < len(tabTitles) {
		return tabTitles[t]
	}
	return "?"
}

// Config controls the dashboard.
type Config struct {
	Theme           string
	PageSize        int
	User            string
	AutoCapture     bool
	DefaultScenario string
	Scenarios       []tour.Scenario
}

// Deps are the collaborators the dashboard talks to.
type Deps struct {
	Provider data.Provider
	// Analyzer may be nil, in which case analysis shows the not-configured text.
	Analyzer analysis.Service
	// Recorder receives every rendered frame so captures can read it.
	Recorder *capture.Recorder
	// Capture may be nil, which disables auto-capture.
	Capture tour.CaptureService
}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	cfg    Config
	deps   Deps
	tour   *tour.Controller
	logger zerolog.Logger

	styles   styles.Styles
	keys     keyMap
	tourKeys tourKeyMap
	help     help.Model
	spinner  spinner.Model
	input    textinput.Model

	width      int
	height     int
	tab        Tab
	showHelp   bool
	annotating bool

	fleet        []models.Job
	jobs         *table[models.Job, models.JobColumn]
	reservations *table[models.Reservation, models.ReservationColumn]
	annotations  *table[models.Annotation, models.AnnotationColumn]

	series   seriesState
	analysis analysisState

	status     string
	statusWarn bool
}

type seriesState struct {
	jobID string
	loss  []models.MetricPoint
	notes []models.Annotation
	err   error
}

type analysisState struct {
	jobID   string
	text    string
	running bool
}

type dataLoadedMsg struct {
	jobs         []models.Job
	reservations []models.Reservation
	annotations  []models.Annotation
	err          error
}

type seriesLoadedMsg struct {
	seriesState
}

type analysisDoneMsg struct {
	jobID string
	text  string
}

type annotationAddedMsg struct {
	annotation models.Annotation
	err        error
}

type captureDoneMsg struct {
	transition *tour.Transition
	outcome    tour.CaptureOutcome
}

// NewModel creates the dashboard. ctx bounds every background command.
func NewModel(ctx context.Context, cfg Config, deps Deps) (*Model, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if deps.Recorder == nil {
		deps.Recorder = capture.NewRecorder()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 8
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Prompt = "note> "
	in.CharLimit = 200

	logger := logging.Component("dashboard")
	ctx = logging.WithContext(ctx, logger)

	st := styles.New(styles.Resolve(cfg.Theme))
	m := &Model{
		ctx:      ctx,
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		styles:   st,
		keys:     defaultKeyMap(),
		tourKeys: defaultTourKeyMap(),
		help:     help.New(),
		spinner:  sp,
		input:    in,
		tour: tour.NewController(deps.Capture,
			tour.WithAutoCapture(cfg.AutoCapture),
			tour.WithLogger(logging.Component("tour")),
		),
		jobs: newTable(cfg.PageSize, models.JobSortFields(), models.JobColumns,
			models.JobColumn.Title, models.Job.Cell),
		reservations: newTable(cfg.PageSize, models.ReservationSortFields(), models.ReservationColumns,
			models.ReservationColumn.Title, models.Reservation.Cell),
		annotations: newTable(cfg.PageSize, models.AnnotationSortFields(), models.AnnotationColumns,
			models.AnnotationColumn.Title, models.Annotation.Cell),
	}
	m.jobs.color = jobCellColor
	m.reservations.color = reservationCellColor
	m.annotations.sortColumn(0)
	return m, nil
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := program.Run()
	m.tour.Close()
	return err
}

// Tour exposes the tour controller.
func (m *Model) Tour() *tour.Controller {
	return m.tour
}

func (m *Model) Init() tea.Cmd {
	return m.loadData()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.help.Width = typed.Width
		return m, nil
	case tea.BlurMsg:
		m.tour.Blur()
		return m, nil
	case tea.MouseMsg:
		return m, m.handleMouse(typed)
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case dataLoadedMsg:
		return m, m.applyData(typed)
	case seriesLoadedMsg:
		if job, ok := m.jobs.selected(); ok && job.ID == typed.jobID {
			m.series = typed.seriesState
		}
		return m, nil
	case analysisDoneMsg:
		if typed.jobID == m.analysis.jobID {
			m.analysis.text = typed.text
			m.analysis.running = false
		}
		return m, nil
	case annotationAddedMsg:
		if typed.err != nil {
			m.setWarning("annotation failed: %v", typed.err)
			return m, nil
		}
		m.setStatus("pinned note on %s", typed.annotation.JobID)
		return m, m.loadData()
	case captureDoneMsg:
		m.applyCapture(typed)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) busy() bool {
	return m.analysis.running || m.tour.Snapshot().Capturing
}

func (m *Model) loadData() tea.Cmd {
	ctx, provider := m.ctx, m.deps.Provider
	return func() tea.Msg {
		var msg dataLoadedMsg
		if msg.jobs, msg.err = provider.Jobs(ctx); msg.err != nil {
			return msg
		}
		if msg.reservations, msg.err = provider.Reservations(ctx); msg.err != nil {
			return msg
		}
		msg.annotations, msg.err = provider.Annotations(ctx, "")
		return msg
	}
}

func (m *Model) applyData(msg dataLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Msg("failed to load data")
		m.setWarning("load failed: %v", msg.err)
		return nil
	}
	m.fleet = msg.jobs
	m.jobs.setItems(msg.jobs)
	m.reservations.setItems(msg.reservations)
	m.annotations.setItems(msg.annotations)
	m.logger.Debug().Int("jobs", len(msg.jobs)).Msg("data loaded")
	return m.loadSeries()
}

func (m *Model) loadSeries() tea.Cmd {
	job, ok := m.jobs.selected()
	if !ok {
		m.series = seriesState{}
		return nil
	}
	ctx, provider := m.ctx, m.deps.Provider
	return func() tea.Msg {
		st := seriesState{jobID: job.ID}
		if st.loss, st.err = provider.Series(ctx, job.ID, models.MetricLoss); st.err == nil {
			st.notes, st.err = provider.Annotations(ctx, job.ID)
		}
		return seriesLoadedMsg{st}
	}
}

func (m *Model) analyzeCmd(job models.Job) tea.Cmd {
	m.analysis = analysisState{jobID: job.ID, running: true}
	ctx, provider, svc := m.ctx, m.deps.Provider, m.deps.Analyzer
	analyze := func() tea.Msg {
		logs, metrics, err := data.AnalysisInput(ctx, provider, job.ID)
		if err != nil {
			logging.WithJob(logging.FromContext(ctx), job.ID).Warn().Err(err).Msg("analysis input unavailable")
			return analysisDoneMsg{jobID: job.ID, text: analysis.FallbackText(err)}
		}
		return analysisDoneMsg{jobID: job.ID, text: analysis.Fallback(ctx, svc, logs, metrics)}
	}
	return tea.Batch(analyze, m.spinner.Tick)
}

func (m *Model) addAnnotationCmd(jobID, text string) tea.Cmd {
	ctx, provider, user := m.ctx, m.deps.Provider, m.cfg.User
	return func() tea.Msg {
		a, err := provider.AddAnnotation(ctx, jobID, user, text)
		return annotationAddedMsg{annotation: a, err: err}
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusWarn = false
}

func (m *Model) setWarning(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusWarn = true
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading…"
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	body := lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(m.renderBody(bodyHeight))
	frame := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	snap := m.tour.Snapshot()
	if snap.Phase == tour.Active {
		panel, rect := m.tourPanel(snap)
		frame = overlay(frame, panel, rect.Left, rect.Top, m.width)
	}
	// While a capture is pending the recorder keeps the frame that was on
	// screen when the user asked to move on.
	if !snap.Capturing {
		m.deps.Recorder.Record(frame, m.width, m.height)
	}
	return frame
}

func (m *Model) renderBody(height int) string {
	width := max(0, m.width-2*bodyPadding)
	var body string
	switch m.tab {
	case TabJobs:
		body = m.jobs.render(m.styles, width, height)
	case TabReservations:
		body = m.reservations.render(m.styles, width, height)
	case TabMetrics:
		body = m.renderMetrics(width, height)
	case TabAnnotations:
		body = m.annotations.render(m.styles, width, height)
	case TabAnalysis:
		body = m.renderAnalysis(width)
	}
	return indent(body, bodyPadding)
}

func indent(s string, n int) string {
	if n <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func jobCellColor(t styles.Theme, j models.Job, col models.JobColumn) string {
	if col != models.JobColStatus {
		return ""
	}
	return t.JobStatusColor(j.Status)
}

func reservationCellColor(t styles.Theme, r models.Reservation, col models.ReservationColumn) string {
	if col != models.ResColStatus {
		return ""
	}
	return t.ReservationStatusColor(r.Status)
}
