package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// IncubatorRepository handles persistence of incubators and pre-incubatees.
type IncubatorRepository struct {
	db *sqlx.DB
}

// NewIncubatorRepository constructs the repository.
func NewIncubatorRepository(db *sqlx.DB) *IncubatorRepository {
	return &IncubatorRepository{db: db}
}

// FindByID returns an incubator by its ID.
func (r *IncubatorRepository) FindByID(ctx context.Context, id string) (*models.Incubator, error) {
	const query = `SELECT id, name, capacity, current_occupancy, active, created_at, updated_at FROM incubators WHERE id = $1`
	var incubator models.Incubator
	if err := r.db.GetContext(ctx, &incubator, query, id); err != nil {
		return nil, err
	}
	return &incubator, nil
}

// FindManagers returns the active manager accounts attached to an incubator.
func (r *IncubatorRepository) FindManagers(ctx context.Context, incubatorID string) ([]models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, college_id, incubator_id, active, last_login, created_at, updated_at
        FROM users WHERE role = $1 AND incubator_id = $2 AND active = TRUE`
	var managers []models.User
	if err := r.db.SelectContext(ctx, &managers, query, models.RoleIncubatorManager, incubatorID); err != nil {
		return nil, fmt.Errorf("find incubator managers: %w", err)
	}
	return managers, nil
}

// IncrementOccupancy bumps current_occupancy by one and returns the new
// value. Capacity is a soft limit, so the increment is unconditional; the
// caller decides whether the overflow deserves a warning.
func (r *IncubatorRepository) IncrementOccupancy(ctx context.Context, id string) (occupancy, capacity int, err error) {
	const query = `UPDATE incubators
        SET current_occupancy = current_occupancy + 1, updated_at = $2
        WHERE id = $1
        RETURNING current_occupancy, capacity`
	row := r.db.QueryRowxContext(ctx, query, id, time.Now().UTC())
	if err := row.Scan(&occupancy, &capacity); err != nil {
		return 0, 0, fmt.Errorf("increment incubator occupancy: %w", err)
	}
	return occupancy, capacity, nil
}

// DecrementOccupancy lowers current_occupancy by one with a zero floor.
func (r *IncubatorRepository) DecrementOccupancy(ctx context.Context, id string) error {
	const query = `UPDATE incubators
        SET current_occupancy = current_occupancy - 1, updated_at = $2
        WHERE id = $1 AND current_occupancy > 0`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement incubator occupancy: %w", err)
	}
	return nil
}

// CreatePreIncubatee records an idea/student pairing joining the program.
func (r *IncubatorRepository) CreatePreIncubatee(ctx context.Context, record *models.PreIncubatee) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.JoinedAt.IsZero() {
		record.JoinedAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.Phase == "" {
		record.Phase = "pre_incubation"
	}
	const query = `INSERT INTO pre_incubatees (id, idea_id, student_id, incubator_id, phase, joined_at, created_at)
        VALUES (:id, :idea_id, :student_id, :incubator_id, :phase, :joined_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create pre-incubatee: %w", err)
	}
	return nil
}

// ListPreIncubatees returns the tracking records for an incubator.
func (r *IncubatorRepository) ListPreIncubatees(ctx context.Context, incubatorID string) ([]models.PreIncubatee, error) {
	query := `SELECT id, idea_id, student_id, incubator_id, phase, joined_at, created_at
        FROM pre_incubatees`
	var args []interface{}
	if incubatorID != "" {
		query += ` WHERE incubator_id = $1`
		args = append(args, incubatorID)
	}
	query += ` ORDER BY joined_at DESC`
	var records []models.PreIncubatee
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list pre-incubatees: %w", err)
	}
	return records, nil
}
