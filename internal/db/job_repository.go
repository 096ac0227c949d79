package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tOgg1/trainwatch/internal/models"
)

// Job repository errors.
var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job with this id already exists")
)

// JobRepository handles job persistence.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job.
func (r *JobRepository) Create(ctx context.Context, job models.Job) error {
	return r.create(ctx, r.db, job)
}

// CreateWithTx inserts a job using an existing transaction.
func (r *JobRepository) CreateWithTx(ctx context.Context, tx *sql.Tx, job models.Job) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	return r.create(ctx, tx, job)
}

func (r *JobRepository) create(ctx context.Context, ex execer, job models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job %q: %w", job.ID, err)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO jobs (
			id, name, cluster, owner, status, gpus, nodes,
			progress, loss, gpu_util, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.Name,
		job.Cluster,
		job.Owner,
		string(job.Status),
		job.GPUs,
		job.Nodes,
		job.Progress,
		nullableFloat(job.Loss),
		nullableFloat(job.GPUUtil),
		nullableTime(job.StartedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrJobAlreadyExists
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

const jobColumns = `id, name, cluster, owner, status, gpus, nodes, progress, loss, gpu_util, started_at`

// List returns every job in insertion order.
func (r *JobRepository) List(ctx context.Context) ([]models.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// Get returns one job by ID.
func (r *JobRepository) Get(ctx context.Context, id string) (models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Job{}, ErrJobNotFound
	}
	return job, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (models.Job, error) {
	var (
		job       models.Job
		status    string
		loss      sql.NullFloat64
		util      sql.NullFloat64
		startedAt sql.NullString
	)
	if err := s.Scan(
		&job.ID,
		&job.Name,
		&job.Cluster,
		&job.Owner,
		&status,
		&job.GPUs,
		&job.Nodes,
		&job.Progress,
		&loss,
		&util,
		&startedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job, err
		}
		return job, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Status = models.JobStatus(status)
	job.Loss = floatPtr(loss)
	job.GPUUtil = floatPtr(util)
	started, err := parseNullableTime(startedAt)
	if err != nil {
		return job, err
	}
	job.StartedAt = started
	return job, nil
}

// SetLog stores the log tail shown to the analysis service.
func (r *JobRepository) SetLog(ctx context.Context, ex execer, jobID, body string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO job_logs (job_id, body) VALUES (?, ?)
		ON CONFLICT(job_id) DO UPDATE SET body = excluded.body
	`, jobID, body)
	if err != nil {
		return fmt.Errorf("failed to store job log: %w", err)
	}
	return nil
}

// Log returns the stored log tail for a job, or "" when there is none.
func (r *JobRepository) Log(ctx context.Context, jobID string) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM job_logs WHERE job_id = ?`, jobID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job log: %w", err)
	}
	return body, nil
}
