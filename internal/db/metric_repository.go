package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tOgg1/trainwatch/internal/models"
)

// ErrNoMetrics is returned when a job has no points for a metric.
var ErrNoMetrics = errors.New("no metric points")

// MetricRepository handles metric series and annotation persistence.
type MetricRepository struct {
	db *DB
}

// NewMetricRepository creates a new MetricRepository.
func NewMetricRepository(db *DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// AppendWithTx stores one point. Re-appending the same timestamp overwrites
// its value.
func (r *MetricRepository) AppendWithTx(ctx context.Context, tx *sql.Tx, p models.MetricPoint) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(p.JobID) == "" {
		return models.ErrMissingJob
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO metric_points (job_id, metric, at, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(job_id, metric, at) DO UPDATE SET value = excluded.value
	`, p.JobID, p.Metric, formatTime(p.At), p.Value)
	if err != nil {
		return fmt.Errorf("failed to insert metric point: %w", err)
	}
	return nil
}

// Series returns the points of one metric for a job in time order.
func (r *MetricRepository) Series(ctx context.Context, jobID, metric string) ([]models.MetricPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT at, value FROM metric_points
		WHERE job_id = ? AND metric = ?
		ORDER BY at
	`, jobID, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []models.MetricPoint
	for rows.Next() {
		var at string
		p := models.MetricPoint{JobID: jobID, Metric: metric}
		if err := rows.Scan(&at, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric point: %w", err)
		}
		if p.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metrics: %w", err)
	}
	return out, nil
}

// Latest returns the most recent point of a metric.
func (r *MetricRepository) Latest(ctx context.Context, jobID, metric string) (models.MetricPoint, error) {
	var at string
	p := models.MetricPoint{JobID: jobID, Metric: metric}
	err := r.db.QueryRowContext(ctx, `
		SELECT at, value FROM metric_points
		WHERE job_id = ? AND metric = ?
		ORDER BY at DESC
		LIMIT 1
	`, jobID, metric).Scan(&at, &p.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNoMetrics
	}
	if err != nil {
		return p, fmt.Errorf("failed to query latest metric: %w", err)
	}
	p.At, err = parseTime(at)
	return p, err
}

// CreateAnnotation stores an annotation, assigning an ID when it has none.
func (r *MetricRepository) CreateAnnotation(ctx context.Context, ex execer, a *models.Annotation) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid annotation: %w", err)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO annotations (id, job_id, at, value, author, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.JobID, formatTime(a.At), a.Value, a.Author, a.Text)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return fmt.Errorf("annotation for unknown job %q: %w", a.JobID, ErrJobNotFound)
		}
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}

// Annotations lists annotations in creation order. An empty jobID lists all.
func (r *MetricRepository) Annotations(ctx context.Context, jobID string) ([]models.Annotation, error) {
	query := `SELECT id, job_id, at, value, author, text FROM annotations`
	var args []any
	if jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var out []models.Annotation
	for rows.Next() {
		var (
			a  models.Annotation
			at string
		)
		if err := rows.Scan(&a.ID, &a.JobID, &at, &a.Value, &a.Author, &a.Text); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		if a.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}
	return out, nil
}
