package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// MentorRepository handles persistence of mentors and their load counters.
type MentorRepository struct {
	db *sqlx.DB
}

// NewMentorRepository constructs the repository.
func NewMentorRepository(db *sqlx.DB) *MentorRepository {
	return &MentorRepository{db: db}
}

const mentorColumns = `id, user_id, full_name, expertise, college_id, incubator_id, current_students, max_students, active, created_at, updated_at`

// FindByID returns a mentor by its ID.
func (r *MentorRepository) FindByID(ctx context.Context, id string) (*models.Mentor, error) {
	query := fmt.Sprintf("SELECT %s FROM mentors WHERE id = $1", mentorColumns)
	var mentor models.Mentor
	if err := r.db.GetContext(ctx, &mentor, query, id); err != nil {
		return nil, err
	}
	return &mentor, nil
}

// FindByUserID returns the mentor profile for a user account.
func (r *MentorRepository) FindByUserID(ctx context.Context, userID string) (*models.Mentor, error) {
	query := fmt.Sprintf("SELECT %s FROM mentors WHERE user_id = $1", mentorColumns)
	var mentor models.Mentor
	if err := r.db.GetContext(ctx, &mentor, query, userID); err != nil {
		return nil, err
	}
	return &mentor, nil
}

// IncrementStudents bumps current_students by one, guarded against the
// max_students ceiling in the same statement. Returns false when the
// mentor is already at capacity.
func (r *MentorRepository) IncrementStudents(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE mentors
        SET current_students = current_students + 1, updated_at = $2
        WHERE id = $1 AND current_students < max_students`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("increment mentor students: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment mentor students: %w", err)
	}
	return affected == 1, nil
}

// DecrementStudents lowers current_students by one with a zero floor.
func (r *MentorRepository) DecrementStudents(ctx context.Context, id string) error {
	const query = `UPDATE mentors
        SET current_students = current_students - 1, updated_at = $2
        WHERE id = $1 AND current_students > 0`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement mentor students: %w", err)
	}
	return nil
}
