package data

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/trainwatch/internal/listview"
	"github.com/tOgg1/trainwatch/internal/models"
)

func newTestProvider(t *testing.T) *SQLiteProvider {
	t.Helper()
	p, err := NewDefaultProvider(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestDefaultFixturesAreValid(t *testing.T) {
	f := DefaultFixtures()
	require.NoError(t, f.Validate())
	require.Len(t, f.Jobs, 10)
	require.NotEmpty(t, f.Reservations)
}

func TestProviderServesFixtures(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	jobs, err := p.Jobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 10)
	require.Equal(t, "llama-70b-sft", jobs[0].Name)

	res, err := p.Reservations(ctx)
	require.NoError(t, err)
	require.Len(t, res, 6)

	loss, err := p.Series(ctx, "job-llama-70b-sft", models.MetricLoss)
	require.NoError(t, err)
	require.Len(t, loss, 48)
	require.True(t, loss[0].At.Before(loss[47].At))

	logs, err := p.Logs(ctx, "job-mixtral-pretrain")
	require.NoError(t, err)
	require.Contains(t, logs, "NCCL")

	_, err = p.Job(ctx, "nope")
	require.ErrorIs(t, err, ErrUnknownJob)
}

func TestPendingJobsSortLastThroughListView(t *testing.T) {
	p := newTestProvider(t)
	jobs, err := p.Jobs(context.Background())
	require.NoError(t, err)

	c := listview.New(20, models.JobSortFields())
	c.SetSource(jobs)
	c.SortBy(models.JobColLoss)
	c.SortBy(models.JobColLoss)

	items := c.View().Items
	require.Equal(t, models.JobPending, items[len(items)-1].Status)
	require.Equal(t, models.JobPending, items[len(items)-2].Status)
	require.Equal(t, "moe-router-sweep", items[0].Name)
}

func TestAddAnnotationPinsLatestLossPoint(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	loss, err := p.Series(ctx, "job-whisper-ft", models.MetricLoss)
	require.NoError(t, err)
	last := loss[len(loss)-1]

	a, err := p.AddAnnotation(ctx, "job-whisper-ft", "me", "eval bump")
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.True(t, last.At.Equal(a.At))
	require.Equal(t, last.Value, a.Value)

	notes, err := p.Annotations(ctx, "job-whisper-ft")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "eval bump", notes[0].Text)
}

func TestAddAnnotationWithoutSeriesUsesNow(t *testing.T) {
	p := newTestProvider(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	a, err := p.AddAnnotation(context.Background(), "job-rm-ablation", "me", "waiting on quota")
	require.NoError(t, err)
	require.True(t, now.Equal(a.At))
	require.Zero(t, a.Value)

	_, err = p.AddAnnotation(context.Background(), "job-rm-ablation", "me", "  ")
	require.ErrorIs(t, err, models.ErrEmptyNote)
	_, err = p.AddAnnotation(context.Background(), "ghost", "me", "x")
	require.ErrorIs(t, err, ErrUnknownJob)
}

func TestLoadFixturesRejectsDanglingReferences(t *testing.T) {
	doc := `
jobs:
  - id: a
    status: running
series:
  - job_id: b
    metric: loss
    interval: 1m
    points: 3
annotations:
  - job_id: c
    text: hi
logs:
  d: nothing
`
	_, err := LoadFixtures(strings.NewReader(doc))
	require.ErrorIs(t, err, models.ErrMissingJob)
	require.Contains(t, err.Error(), "series[0].job_id")
	require.Contains(t, err.Error(), "annotations[0].job_id")
	require.Contains(t, err.Error(), "logs.d")
}

func TestSeriesGenerateIsDeterministic(t *testing.T) {
	spec := SeriesSpec{JobID: "j", Metric: "loss", Start: time.Unix(0, 0), Interval: time.Minute, Points: 5, From: 2, To: 1}
	a, b := spec.Generate(), spec.Generate()
	require.Equal(t, a, b)
	require.InDelta(t, 2.0, a[0].Value, 1e-9)
	require.InDelta(t, 1.0, a[4].Value, 1e-9)
	require.Equal(t, 4*time.Minute, a[4].At.Sub(a[0].At))
}

func TestAnalysisInput(t *testing.T) {
	p := newTestProvider(t)
	logs, metrics, err := AnalysisInput(context.Background(), p, "job-mixtral-pretrain")
	require.NoError(t, err)
	require.Contains(t, logs, "Watchdog caught collective operation timeout")
	require.Contains(t, metrics, "status=failed")
	require.Equal(t, maxSummaryPoints+1, strings.Count(metrics, "\n")-1)
}
