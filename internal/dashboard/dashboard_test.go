package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/trainwatch/internal/analysis"
	"github.com/tOgg1/trainwatch/internal/capture"
	"github.com/tOgg1/trainwatch/internal/data"
	"github.com/tOgg1/trainwatch/internal/models"
	"github.com/tOgg1/trainwatch/internal/tour"
)

type fakeAnalyzer struct {
	text  string
	err   error
	calls int
	logs  string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, logs, _ string) (string, error) {
	f.calls++
	f.logs = logs
	return f.text, f.err
}

type harness struct {
	t        *testing.T
	m        *Model
	provider *data.SQLiteProvider
	recorder *capture.Recorder
}

func newHarness(t *testing.T, cfg Config, deps Deps) *harness {
	t.Helper()
	ctx := context.Background()
	provider, err := data.NewDefaultProvider(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	if cfg.Scenarios == nil {
		cfg.Scenarios = tour.DefaultScenarios()
		cfg.DefaultScenario = "overview"
	}
	deps.Provider = provider
	if deps.Recorder == nil {
		deps.Recorder = capture.NewRecorder()
	}

	m, err := NewModel(ctx, cfg, deps)
	require.NoError(t, err)
	m.input.Cursor.SetMode(cursor.CursorStatic)
	h := &harness{t: t, m: m, provider: provider, recorder: deps.Recorder}
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	h.run(m.Init())
	return h
}

// run executes cmd and feeds every resulting message back into the model.
// Spinner ticks are dropped so animations do not loop forever.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(h.t, steps, 100, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, follow := h.m.Update(msg)
			queue = append(queue, follow)
		}
	}
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.run(h.send(keyMsg(k)))
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) selectedJob() models.Job {
	h.t.Helper()
	job, ok := h.m.jobs.selected()
	require.True(h.t, ok)
	return job
}

func TestInitLoadsFleet(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	require.Len(t, h.m.fleet, 10)
	require.Equal(t, "job-llama-70b-sft", h.selectedJob().ID)
	require.Equal(t, "job-llama-70b-sft", h.m.series.jobID)
	require.NotEmpty(t, h.m.series.loss)

	view := ansi.Strip(h.m.View())
	require.Contains(t, view, "10 jobs")
	require.Contains(t, view, "llama-70b-sft")
	require.Contains(t, view, "page 1/2")
}

func TestSortKeysToggleDirection(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	for range 6 {
		h.press("]")
	}
	require.Equal(t, models.JobColLoss, h.m.jobs.columns[h.m.jobs.cursor])

	h.press("s")
	sort := h.m.jobs.list.Sort()
	require.True(t, sort.Active)
	require.Equal(t, models.JobColLoss, sort.Column)

	h.press("s")
	require.Equal(t, "job-moe-router", h.selectedJob().ID)
	require.Equal(t, "job-moe-router", h.m.series.jobID)

	h.press("l")
	view := h.m.jobs.list.View()
	require.Equal(t, 2, view.CurrentPage)
	last := view.Items[len(view.Items)-1]
	require.Equal(t, models.JobPending, last.Status)
}

func TestHeaderClickSortsColumn(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	h.run(h.send(tea.MouseMsg{X: bodyPadding, Y: tableHeaderY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}))

	sort := h.m.jobs.list.Sort()
	require.Equal(t, models.JobColName, sort.Column)
	require.Equal(t, "codegen-rl", h.selectedJob().Name)

	// Clicks below the header leave the sort alone.
	h.run(h.send(tea.MouseMsg{X: bodyPadding, Y: tableHeaderY + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}))
	require.Equal(t, sort, h.m.jobs.list.Sort())
}

func TestTourNavigation(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	h.press("T")
	snap := h.m.Tour().Snapshot()
	require.Equal(t, tour.Active, snap.Phase)
	require.Equal(t, "overview", snap.ScenarioID)
	require.Contains(t, ansi.Strip(h.m.View()), "Welcome to trainwatch")

	h.press("n", "n")
	require.Equal(t, 2, h.m.Tour().Snapshot().StepIndex)
	h.press("p")
	require.Equal(t, 1, h.m.Tour().Snapshot().StepIndex)

	// Without a capture service auto-capture cannot be switched on.
	h.press("a")
	require.True(t, h.m.statusWarn)
	require.False(t, h.m.Tour().Snapshot().AutoCapture)

	h.press("esc")
	require.Equal(t, tour.Complete, h.m.Tour().Snapshot().Phase)
	require.NotContains(t, ansi.Strip(h.m.View()), "step 2 of")
}

func TestAutoCaptureRecordsVisibleStep(t *testing.T) {
	rec := capture.NewRecorder()
	dir := t.TempDir()
	svc := capture.NewFileService(dir, rec)
	h := newHarness(t, Config{AutoCapture: true}, Deps{Recorder: rec, Capture: svc})

	h.press("T")
	h.m.View()

	cmd := h.send(keyMsg("n"))
	snap := h.m.Tour().Snapshot()
	require.True(t, snap.Capturing)
	require.Equal(t, 0, snap.StepIndex)

	// Frames rendered while capturing are not recorded.
	h.m.tab = TabReservations
	h.m.View()
	h.m.tab = TabJobs

	h.run(cmd)
	snap = h.m.Tour().Snapshot()
	require.False(t, snap.Capturing)
	require.Equal(t, 1, snap.StepIndex)
	require.Contains(t, h.m.status, "captured step 1")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "overview-01-"))

	body, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(body), "# step: 1 Welcome to trainwatch")
	require.Contains(t, string(body), "step 1 of 8")
	require.NotContains(t, string(body), "TEAM")

	// Toggling off makes the next step immediate.
	h.press("a")
	require.False(t, h.m.Tour().Snapshot().AutoCapture)
	h.press("n")
	require.Equal(t, 2, h.m.Tour().Snapshot().StepIndex)
}

func TestAutoCaptureFailureStillAdvances(t *testing.T) {
	failing := tour.CaptureFunc(func(context.Context, tour.CaptureRequest) (tour.Artifact, error) {
		return tour.Artifact{}, capture.ErrNoFrame
	})
	h := newHarness(t, Config{AutoCapture: true}, Deps{Capture: failing})
	h.press("T", "n")

	require.Equal(t, 1, h.m.Tour().Snapshot().StepIndex)
	require.True(t, h.m.statusWarn)
	require.Contains(t, h.m.status, "capture of overview step 1")
}

func TestDragMovesPanel(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	h.press("T")
	_, rect := h.m.tourPanel(h.m.Tour().Snapshot())
	require.Equal(t, 140-rect.Width-panelMargin, rect.Left)

	press := tea.MouseMsg{X: rect.Left + 2, Y: rect.Top + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	h.send(press)
	require.True(t, h.m.Tour().Snapshot().Dragging)

	h.send(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	h.send(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	snap := h.m.Tour().Snapshot()
	require.False(t, snap.Dragging)
	at, ok := snap.Placement.Point()
	require.True(t, ok)
	require.Equal(t, tour.Point{X: 8, Y: 4}, at)

	_, moved := h.m.tourPanel(snap)
	require.Equal(t, 8, moved.Left)
	require.Equal(t, 4, moved.Top)

	// Losing focus mid-drag ends it.
	h.send(tea.MouseMsg{X: 9, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.True(t, h.m.Tour().Snapshot().Dragging)
	h.send(tea.BlurMsg{})
	require.False(t, h.m.Tour().Snapshot().Dragging)
}

func TestAnnotationFlow(t *testing.T) {
	h := newHarness(t, Config{User: "ada"}, Deps{})
	job := h.selectedJob()

	h.press("+")
	require.True(t, h.m.annotating)
	h.press("r", "e", "s", "u", "m", "e", "d")
	// Keys typed into the note are not treated as shortcuts.
	require.Equal(t, TabJobs, h.m.tab)
	h.press("enter")
	require.False(t, h.m.annotating)

	notes, err := h.provider.Annotations(context.Background(), job.ID)
	require.NoError(t, err)
	var found bool
	for _, n := range notes {
		if n.Text == "resumed" {
			found = true
			require.Equal(t, "ada", n.Author)
		}
	}
	require.True(t, found)
	require.Contains(t, h.m.status, "pinned note")

	h.m.tab = TabMetrics
	require.Contains(t, ansi.Strip(h.m.View()), "ada: resumed")
}

func TestEmptyAnnotationIsDiscarded(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	before, err := h.provider.Annotations(context.Background(), "")
	require.NoError(t, err)

	h.press("+", "enter")
	require.True(t, h.m.statusWarn)

	after, err := h.provider.Annotations(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, after, len(before))
}

func TestAnalyzeUsesService(t *testing.T) {
	fake := &fakeAnalyzer{text: "NCCL timeout on rank 12; check the IB fabric."}
	h := newHarness(t, Config{}, Deps{Analyzer: fake})
	h.press("j")
	require.Equal(t, "job-mixtral-pretrain", h.selectedJob().ID)

	h.press("r")
	require.Equal(t, TabAnalysis, h.m.tab)
	require.Equal(t, 1, fake.calls)
	require.Contains(t, fake.logs, "NCCL")
	require.False(t, h.m.analysis.running)
	require.Contains(t, ansi.Strip(h.m.View()), "check the IB fabric")
}

func TestAnalyzeWithoutServiceShowsFallback(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	h.press("r")
	require.True(t, analysis.IsFallback(h.m.analysis.text))
	require.Contains(t, ansi.Strip(h.m.View()), "not configured")
}

func TestOverlay(t *testing.T) {
	cases := []struct {
		name  string
		base  string
		top   string
		x, y  int
		width int
		want  string
	}{
		{"inside", "aaaa\nbbbb\ncccc", "XY", 1, 1, 4, "aaaa\nbXYb\ncccc"},
		{"left edge", "abcd", "XY", -1, 0, 4, "Ybcd"},
		{"right edge", "abcd", "XY", 3, 0, 4, "abcX"},
		{"past line end", "ab", "XY", 4, 0, 10, "ab  XY"},
		{"above screen", "abcd\nefgh", "XY\nZW", 0, -1, 4, "ZWcd\nefgh"},
		{"off screen", "abcd", "XY", 9, 0, 4, "abcd"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := overlay(tc.base, tc.top, tc.x, tc.y, tc.width)
			require.Equal(t, tc.want, ansi.Strip(got))
		})
	}
}

func TestTourPanelWidthIsBounded(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	h.press("T")

	widthAt := func(cols int) int {
		h.send(tea.WindowSizeMsg{Width: cols, Height: 40})
		_, rect := h.m.tourPanel(h.m.Tour().Snapshot())
		return rect.Width
	}
	narrow, wide, huge := widthAt(60), widthAt(300), widthAt(1000)
	require.GreaterOrEqual(t, narrow, minPanelWidth)
	require.LessOrEqual(t, wide, maxPanelWidth)
	require.Less(t, narrow, wide)
	require.Equal(t, wide, huge)
}

func TestRowCursorStaysOnPage(t *testing.T) {
	h := newHarness(t, Config{}, Deps{})
	n := len(h.m.jobs.list.View().Items)
	require.Positive(t, n)

	h.m.jobs.moveRow(-5)
	require.Equal(t, 0, h.m.jobs.row)
	h.m.jobs.moveRow(n + 10)
	require.Equal(t, n-1, h.m.jobs.row)
}
