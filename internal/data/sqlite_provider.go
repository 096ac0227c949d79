package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/trainwatch/internal/db"
	"github.com/tOgg1/trainwatch/internal/logging"
	"github.com/tOgg1/trainwatch/internal/models"
)

// SQLiteProvider serves fixtures from an in-memory SQLite database. Runtime
// writes such as new annotations are lost when it is closed.
type SQLiteProvider struct {
	db           *db.DB
	jobs         *db.JobRepository
	reservations *db.ReservationRepository
	metrics      *db.MetricRepository
	logger       zerolog.Logger
	now          func() time.Time
}

var _ Provider = (*SQLiteProvider)(nil)

// NewSQLiteProvider opens an in-memory database seeded with fixtures.
func NewSQLiteProvider(ctx context.Context, fixtures Fixtures) (*SQLiteProvider, error) {
	if err := fixtures.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}

	database, err := db.Open(ctx, db.MemoryPath)
	if err != nil {
		return nil, err
	}
	p := &SQLiteProvider{
		db:           database,
		jobs:         db.NewJobRepository(database),
		reservations: db.NewReservationRepository(database),
		metrics:      db.NewMetricRepository(database),
		logger:       logging.Component("data"),
		now:          time.Now,
	}
	if err := p.seed(ctx, fixtures); err != nil {
		_ = database.Close()
		return nil, err
	}
	return p, nil
}

// NewDefaultProvider opens a provider over the embedded fixtures.
func NewDefaultProvider(ctx context.Context) (*SQLiteProvider, error) {
	return NewSQLiteProvider(ctx, DefaultFixtures())
}

func (p *SQLiteProvider) seed(ctx context.Context, f Fixtures) error {
	points := 0
	err := p.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		points = 0
		for _, job := range f.Jobs {
			if err := p.jobs.CreateWithTx(ctx, tx, job); err != nil {
				return err
			}
		}
		for _, res := range f.Reservations {
			if err := p.reservations.CreateWithTx(ctx, tx, res); err != nil {
				return err
			}
		}
		for _, spec := range f.Series {
			for _, pt := range spec.Generate() {
				if err := p.metrics.AppendWithTx(ctx, tx, pt); err != nil {
					return err
				}
				points++
			}
		}
		for _, a := range f.Annotations {
			if err := p.metrics.CreateAnnotation(ctx, tx, &a); err != nil {
				return err
			}
		}
		for jobID, body := range f.Logs {
			if err := p.jobs.SetLog(ctx, tx, jobID, body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}

	p.logger.Debug().
		Int("jobs", len(f.Jobs)).
		Int("reservations", len(f.Reservations)).
		Int("points", points).
		Int("annotations", len(f.Annotations)).
		Msg("data seeded")
	return nil
}

func (p *SQLiteProvider) Jobs(ctx context.Context) ([]models.Job, error) {
	return p.jobs.List(ctx)
}

func (p *SQLiteProvider) Job(ctx context.Context, id string) (models.Job, error) {
	job, err := p.jobs.Get(ctx, id)
	if errors.Is(err, db.ErrJobNotFound) {
		return job, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return job, err
}

func (p *SQLiteProvider) Reservations(ctx context.Context) ([]models.Reservation, error) {
	return p.reservations.List(ctx)
}

func (p *SQLiteProvider) Series(ctx context.Context, jobID, metric string) ([]models.MetricPoint, error) {
	return p.metrics.Series(ctx, jobID, metric)
}

func (p *SQLiteProvider) Annotations(ctx context.Context, jobID string) ([]models.Annotation, error) {
	return p.metrics.Annotations(ctx, jobID)
}

// AddAnnotation pins text on the job's latest loss sample, or at the current
// time when the job has no samples yet.
func (p *SQLiteProvider) AddAnnotation(ctx context.Context, jobID, author, text string) (models.Annotation, error) {
	if _, err := p.Job(ctx, jobID); err != nil {
		return models.Annotation{}, err
	}
	a := models.Annotation{JobID: jobID, Author: author, Text: text, At: p.now().UTC()}
	latest, err := p.metrics.Latest(ctx, jobID, models.MetricLoss)
	switch {
	case err == nil:
		a.At = latest.At
		a.Value = latest.Value
	case !errors.Is(err, db.ErrNoMetrics):
		return models.Annotation{}, err
	}

	if err := p.metrics.CreateAnnotation(ctx, p.db, &a); err != nil {
		return models.Annotation{}, err
	}
	logging.WithJob(p.logger, jobID).Debug().Str("annotation", a.ID).Msg("annotation added")
	return a, nil
}

func (p *SQLiteProvider) Logs(ctx context.Context, jobID string) (string, error) {
	return p.jobs.Log(ctx, jobID)
}

func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
