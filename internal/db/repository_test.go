package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/trainwatch/internal/models"
)

func ptr[T any](v T) *T { return &v }

func testJob(id string) models.Job {
	return models.Job{
		ID:      id,
		Name:    "llama-" + id,
		Cluster: "iad-a100",
		Owner:   "ml-infra",
		Status:  models.JobRunning,
		GPUs:    64,
		Nodes:   8,
	}
}

func TestJobRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	started := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	running := testJob("b")
	running.Loss = ptr(1.25)
	running.GPUUtil = ptr(0.9)
	running.StartedAt = &started
	pending := testJob("a")
	pending.Status = models.JobPending

	require.NoError(t, repo.Create(ctx, running))
	require.NoError(t, repo.Create(ctx, pending))
	require.ErrorIs(t, repo.Create(ctx, pending), ErrJobAlreadyExists)

	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "b", jobs[0].ID, "insertion order")
	require.Equal(t, 1.25, *jobs[0].Loss)
	require.True(t, started.Equal(*jobs[0].StartedAt))
	require.Nil(t, jobs[1].Loss)
	require.Nil(t, jobs[1].StartedAt)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, models.JobPending, got.Status)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobRepositoryRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	job := testJob("x")
	job.Status = "exploded"
	err := NewJobRepository(db).Create(context.Background(), job)
	require.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestJobLogs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testJob("j")))

	body, err := repo.Log(ctx, "j")
	require.NoError(t, err)
	require.Empty(t, body)

	require.NoError(t, repo.SetLog(ctx, db, "j", "first"))
	require.NoError(t, repo.SetLog(ctx, db, "j", "second"))
	body, err = repo.Log(ctx, "j")
	require.NoError(t, err)
	require.Equal(t, "second", body)
}

func TestReservationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		return repo.CreateWithTx(ctx, tx, models.Reservation{
			ID: "r1", Cluster: "iad-h100", Team: "research", GPUType: "H100",
			GPUs: 256, Start: start, End: start.Add(72 * time.Hour),
			Status: models.ReservationActive, Used: ptr(0.5),
		})
	})
	require.NoError(t, err)

	bad := db.Transaction(ctx, func(tx *sql.Tx) error {
		return repo.CreateWithTx(ctx, tx, models.Reservation{
			ID: "r2", Status: models.ReservationActive, Start: start, End: start.Add(-time.Hour),
		})
	})
	require.ErrorIs(t, bad, models.ErrInvalidWindow)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, start.Equal(list[0].Start))
	require.Equal(t, 0.5, *list[0].Used)
}

func TestMetricSeriesAndAnnotations(t *testing.T) {
	db := setupTestDB(t)
	jobs := NewJobRepository(db)
	metrics := NewMetricRepository(db)
	ctx := context.Background()
	require.NoError(t, jobs.Create(ctx, testJob("j")))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		// Out of order, with sub-second offsets, to check text ordering.
		for _, off := range []time.Duration{2 * time.Minute, 500 * time.Millisecond, time.Minute} {
			p := models.MetricPoint{JobID: "j", Metric: models.MetricLoss, At: base.Add(off), Value: off.Seconds()}
			if err := metrics.AppendWithTx(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	series, err := metrics.Series(ctx, "j", models.MetricLoss)
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, []float64{0.5, 60, 120}, []float64{series[0].Value, series[1].Value, series[2].Value})

	latest, err := metrics.Latest(ctx, "j", models.MetricLoss)
	require.NoError(t, err)
	require.Equal(t, 120.0, latest.Value)

	_, err = metrics.Latest(ctx, "j", models.MetricThroughput)
	require.ErrorIs(t, err, ErrNoMetrics)

	note := &models.Annotation{JobID: "j", At: latest.At, Value: latest.Value, Author: "sam", Text: "lr warmup ends"}
	require.NoError(t, metrics.CreateAnnotation(ctx, db, note))
	require.NotEmpty(t, note.ID)

	err = metrics.CreateAnnotation(ctx, db, &models.Annotation{JobID: "ghost", Text: "x"})
	require.ErrorIs(t, err, ErrJobNotFound)
	err = metrics.CreateAnnotation(ctx, db, &models.Annotation{JobID: "j"})
	require.ErrorIs(t, err, models.ErrEmptyNote)

	notes, err := metrics.Annotations(ctx, "")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "lr warmup ends", notes[0].Text)

	notes, err = metrics.Annotations(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, notes)
}
