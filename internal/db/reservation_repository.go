package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tOgg1/trainwatch/internal/models"
)

// ErrReservationAlreadyExists is returned on duplicate reservation IDs.
var ErrReservationAlreadyExists = errors.New("reservation with this id already exists")

// ReservationRepository handles reservation persistence.
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateWithTx inserts a reservation using an existing transaction.
func (r *ReservationRepository) CreateWithTx(ctx context.Context, tx *sql.Tx, res models.Reservation) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if err := res.Validate(); err != nil {
		return fmt.Errorf("invalid reservation %q: %w", res.ID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (
			id, cluster, team, gpu_type, gpus, start_at, end_at, status, used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		res.ID,
		res.Cluster,
		res.Team,
		res.GPUType,
		res.GPUs,
		formatTime(res.Start),
		formatTime(res.End),
		string(res.Status),
		nullableFloat(res.Used),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrReservationAlreadyExists
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

// List returns every reservation in insertion order.
func (r *ReservationRepository) List(ctx context.Context) ([]models.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cluster, team, gpu_type, gpus, start_at, end_at, status, used
		FROM reservations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		var (
			res        models.Reservation
			start, end string
			status     string
			used       sql.NullFloat64
		)
		if err := rows.Scan(&res.ID, &res.Cluster, &res.Team, &res.GPUType, &res.GPUs, &start, &end, &status, &used); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		if res.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if res.End, err = parseTime(end); err != nil {
			return nil, err
		}
		res.Status = models.ReservationStatus(status)
		res.Used = floatPtr(used)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return out, nil
}
