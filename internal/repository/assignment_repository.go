package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// AssignmentRepository handles persistence of mentor assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, idea_id, mentor_id, student_id, assignment_type, status, is_active, start_date, end_date, rating, reason, created_at, updated_at`

// FindByID returns an assignment by its ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.MentorAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM mentor_assignments WHERE id = $1", assignmentColumns)
	var assignment models.MentorAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments matching the filter.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.MentorAssignment, int, error) {
	base := "FROM mentor_assignments"
	var conditions []string
	var args []interface{}

	if filter.IdeaID != "" {
		conditions = append(conditions, fmt.Sprintf("idea_id = $%d", len(args)+1))
		args = append(args, filter.IdeaID)
	}
	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", assignmentColumns, base+clause, size, offset)
	var assignments []models.MentorAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// ExistsActive checks whether an active assignment exists for the
// (idea, mentor, student) triple.
func (r *AssignmentRepository) ExistsActive(ctx context.Context, ideaID, mentorID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM mentor_assignments
        WHERE idea_id = $1 AND mentor_id = $2 AND student_id = $3 AND is_active = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, ideaID, mentorID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active assignment: %w", err)
	}
	return true, nil
}

// Create persists a new assignment record. The insert rides the partial
// unique index on (idea_id, mentor_id, student_id) WHERE is_active, so of
// two concurrent creates for the same triple exactly one lands; the other
// gets false.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.MentorAssignment) (bool, error) {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO mentor_assignments (id, idea_id, mentor_id, student_id, assignment_type, status, is_active, start_date, end_date, rating, reason, created_at, updated_at)
        VALUES (:id, :idea_id, :mentor_id, :student_id, :assignment_type, :status, :is_active, :start_date, :end_date, :rating, :reason, :created_at, :updated_at)
        ON CONFLICT (idea_id, mentor_id, student_id) WHERE is_active DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return false, fmt.Errorf("create assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create assignment: %w", err)
	}
	return affected == 1, nil
}

// Activate moves a pending assignment to active in a single conditional
// statement. When two responders race, only one sees the pending row;
// the other gets false.
func (r *AssignmentRepository) Activate(ctx context.Context, id string, startDate time.Time) (bool, error) {
	const query = `UPDATE mentor_assignments
        SET status = $2, start_date = $3, updated_at = $3
        WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.AssignmentActive, startDate, models.AssignmentPending)
	if err != nil {
		return false, fmt.Errorf("activate assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("activate assignment: %w", err)
	}
	return affected == 1, nil
}

// Terminate rejects or cancels a pending assignment with a reason.
func (r *AssignmentRepository) Terminate(ctx context.Context, id string, reason *string) (bool, error) {
	now := time.Now().UTC()
	const query = `UPDATE mentor_assignments
        SET status = $2, is_active = FALSE, reason = $3, end_date = $4, updated_at = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.AssignmentTerminated, reason, now, models.AssignmentPending)
	if err != nil {
		return false, fmt.Errorf("terminate assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("terminate assignment: %w", err)
	}
	return affected == 1, nil
}

// Close ends an active assignment with the given terminal status. The
// conditional predicate keeps the mentor counter decrement from firing
// twice for the same assignment.
func (r *AssignmentRepository) Close(ctx context.Context, id string, status models.AssignmentStatus, rating *int, reason *string) (bool, error) {
	now := time.Now().UTC()
	const query = `UPDATE mentor_assignments
        SET status = $2, is_active = FALSE, rating = $3, reason = $4, end_date = $5, updated_at = $5
        WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, status, rating, reason, now, models.AssignmentActive)
	if err != nil {
		return false, fmt.Errorf("close assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close assignment: %w", err)
	}
	return affected == 1, nil
}
