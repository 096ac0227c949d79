package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/trainwatch/internal/tour"
)

func fixedService(t *testing.T, rec *Recorder) *FileService {
	t.Helper()
	svc := NewFileService(filepath.Join(t.TempDir(), "captures"), rec)
	svc.newID = func() string { return "abc" }
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecorderKeepsLastFrame(t *testing.T) {
	rec := NewRecorder()
	_, ok := rec.Last()
	require.False(t, ok)

	rec.Record("one", 10, 2)
	rec.Record("two", 20, 4)
	frame, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, "two", frame.Content)
	require.Equal(t, 20, frame.Width)
	require.Equal(t, 4, frame.Height)
}

func TestRecorderConcurrentAccess(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec.Record("frame", 1, 1)
		}()
		go func() {
			defer wg.Done()
			rec.Last()
		}()
	}
	wg.Wait()
	_, ok := rec.Last()
	require.True(t, ok)
}

func TestCaptureWritesStrippedFrame(t *testing.T) {
	rec := NewRecorder()
	rec.Record("\x1b[1mJobs\x1b[0m\nllama-70b  running", 40, 2)
	svc := fixedService(t, rec)

	art, err := svc.Capture(context.Background(), tour.CaptureRequest{ScenarioID: "overview", StepIndex: 2, StepTitle: "Sorting"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(svc.Dir(), "overview-03-abc.txt"), art.Ref)

	body, err := os.ReadFile(art.Ref)
	require.NoError(t, err)
	text := string(body)
	require.True(t, strings.HasPrefix(text, "# scenario: overview\n# step: 3 Sorting\n# size: 40x2\n# captured: 2026-03-01T12:00:00Z\n\n"))
	require.Contains(t, text, "Jobs\nllama-70b  running\n")
	require.NotContains(t, text, "\x1b[")
}

func TestCaptureWithoutFrameFails(t *testing.T) {
	svc := fixedService(t, NewRecorder())
	_, err := svc.Capture(context.Background(), tour.CaptureRequest{ScenarioID: "overview"})
	require.ErrorIs(t, err, ErrNoFrame)
}

func TestCaptureHonorsCancelledContext(t *testing.T) {
	rec := NewRecorder()
	rec.Record("x", 1, 1)
	svc := fixedService(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Capture(ctx, tour.CaptureRequest{ScenarioID: "overview"})
	require.ErrorIs(t, err, context.Canceled)

	entries, _ := os.ReadDir(svc.Dir())
	require.Empty(t, entries)
}

func TestCaptureUnwritableDirFails(t *testing.T) {
	rec := NewRecorder()
	rec.Record("x", 1, 1)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	svc := NewFileService(filepath.Join(blocker, "captures"), rec)
	_, err := svc.Capture(context.Background(), tour.CaptureRequest{ScenarioID: "overview"})
	require.Error(t, err)
}

func TestSafeName(t *testing.T) {
	require.Equal(t, "overview", safeName("overview"))
	require.Equal(t, "a_b", safeName("a/b"))
	require.Equal(t, "scenario", safeName("../"))
}

func TestFileServiceDrivesTourController(t *testing.T) {
	rec := NewRecorder()
	rec.Record("step one screen", 20, 1)
	svc := fixedService(t, rec)

	c := tour.NewController(svc, tour.WithAutoCapture(true))
	require.True(t, c.Open(tour.Scenario{ID: "demo", Steps: []tour.Step{{Title: "a"}, {Title: "b"}}}))

	res := c.Next(context.Background())
	require.True(t, res.Advanced)
	require.NoError(t, res.Warning)
	require.NotNil(t, res.Artifact)
	require.Equal(t, filepath.Join(svc.Dir(), "demo-01-abc.txt"), res.Artifact.Ref)
	require.Equal(t, 1, c.Snapshot().StepIndex)
}
