package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// IdeaRepository handles persistence of ideas.
type IdeaRepository struct {
	db *sqlx.DB
}

// NewIdeaRepository constructs the repository.
func NewIdeaRepository(db *sqlx.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

const ideaColumns = `id, title, description, category, status, student_id, college_id, incubator_id, reviewed_by, reviewed_at, feedback, created_at, updated_at`

// List returns ideas filtered by the provided criteria.
func (r *IdeaRepository) List(ctx context.Context, filter models.IdeaFilter) ([]models.IdeaDetail, int, error) {
	base := `FROM ideas i
LEFT JOIN users u ON u.id = i.student_id
LEFT JOIN colleges c ON c.id = i.college_id`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CollegeID != "" {
		conditions = append(conditions, fmt.Sprintf("i.college_id = $%d", len(args)+1))
		args = append(args, filter.CollegeID)
	}
	if filter.IncubatorID != "" {
		conditions = append(conditions, fmt.Sprintf("i.incubator_id = $%d", len(args)+1))
		args = append(args, filter.IncubatorID)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("i.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "i.created_at",
		"updated_at": "i.updated_at",
		"title":      "i.title",
		"status":     "i.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "i.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT i.id, i.title, i.description, i.category, i.status, i.student_id, i.college_id,
        i.incubator_id, i.reviewed_by, i.reviewed_at, i.feedback, i.created_at, i.updated_at,
        u.full_name AS student_name, c.name AS college_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var ideas []models.IdeaDetail
	if err := r.db.SelectContext(ctx, &ideas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list ideas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count ideas: %w", err)
	}
	return ideas, total, nil
}

// FindByID returns an idea by its ID.
func (r *IdeaRepository) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	query := fmt.Sprintf("SELECT %s FROM ideas WHERE id = $1", ideaColumns)
	var idea models.Idea
	if err := r.db.GetContext(ctx, &idea, query, id); err != nil {
		return nil, err
	}
	return &idea, nil
}

// FindDetailByID returns an idea with contextual names.
func (r *IdeaRepository) FindDetailByID(ctx context.Context, id string) (*models.IdeaDetail, error) {
	const query = `SELECT i.id, i.title, i.description, i.category, i.status, i.student_id, i.college_id,
        i.incubator_id, i.reviewed_by, i.reviewed_at, i.feedback, i.created_at, i.updated_at,
        u.full_name AS student_name, c.name AS college_name
        FROM ideas i
        LEFT JOIN users u ON u.id = i.student_id
        LEFT JOIN colleges c ON c.id = i.college_id
        WHERE i.id = $1`
	var detail models.IdeaDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new idea record.
func (r *IdeaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = now
	}
	idea.UpdatedAt = now
	if idea.Status == "" {
		idea.Status = models.StatusDraft
	}
	const query = `INSERT INTO ideas (id, title, description, category, status, student_id, college_id, incubator_id, reviewed_by, reviewed_at, feedback, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :status, :student_id, :college_id, :incubator_id, :reviewed_by, :reviewed_at, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, idea); err != nil {
		return fmt.Errorf("create idea: %w", err)
	}
	return nil
}

// UpdateContent rewrites the editable fields of an idea. The write is
// scoped to the owning student and restricted to editable statuses by the
// caller; here it only guards against concurrent status changes.
func (r *IdeaRepository) UpdateContent(ctx context.Context, id string, expected models.IdeaStatus, title, description, category string) (bool, error) {
	const query = `UPDATE ideas SET title = $3, description = $4, category = $5, updated_at = $6
        WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, expected, title, description, category, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update idea content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update idea content: %w", err)
	}
	return affected == 1, nil
}

// StatusUpdate carries the fields written together with a transition.
type StatusUpdate struct {
	Target      models.IdeaStatus
	ReviewedBy  string
	ReviewedAt  time.Time
	Feedback    *string
	IncubatorID *string
}

// TransitionStatus performs a conditional status write: the row is only
// updated when its status still equals expected, making the transition
// atomic per idea. Returns false when a concurrent writer got there first.
func (r *IdeaRepository) TransitionStatus(ctx context.Context, id string, expected models.IdeaStatus, update StatusUpdate) (bool, error) {
	const query = `UPDATE ideas
        SET status = $3, reviewed_by = $4, reviewed_at = $5, feedback = COALESCE($6, feedback),
            incubator_id = COALESCE($7, incubator_id), updated_at = $5
        WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, expected, update.Target, update.ReviewedBy, update.ReviewedAt, update.Feedback, update.IncubatorID)
	if err != nil {
		return false, fmt.Errorf("transition idea status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition idea status: %w", err)
	}
	return affected == 1, nil
}

// CountByStatus aggregates ideas per status, optionally scoped to a college.
func (r *IdeaRepository) CountByStatus(ctx context.Context, collegeID string) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*) AS count FROM ideas`
	var args []interface{}
	if collegeID != "" {
		query += ` WHERE college_id = $1`
		args = append(args, collegeID)
	}
	query += ` GROUP BY status ORDER BY status`

	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count ideas by status: %w", err)
	}
	return counts, nil
}
