package models

import "time"

// IdeaStatus represents the lifecycle state of an idea.
type IdeaStatus string

// Canonical idea statuses. The string values are the wire format used by
// clients and stored in the ideas table.
const (
	StatusDraft                IdeaStatus = "draft"
	StatusNewSubmission        IdeaStatus = "new_submission"
	StatusSubmitted            IdeaStatus = "submitted"
	StatusNurture              IdeaStatus = "nurture"
	StatusPendingReview        IdeaStatus = "pending_review"
	StatusUnderReview          IdeaStatus = "under_review"
	StatusNeedsDevelopment     IdeaStatus = "needs_development"
	StatusUpdatedPendingReview IdeaStatus = "updated_pending_review"
	StatusEndorsed             IdeaStatus = "endorsed"
	StatusForwardedToIncubator IdeaStatus = "forwarded_to_incubation"
	StatusIncubated            IdeaStatus = "incubated"
	StatusRejected             IdeaStatus = "rejected"
)

// Idea is a student-submitted innovation proposal tracked through the
// workflow. incubator_id stays null until the idea is forwarded.
type Idea struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Status      IdeaStatus `db:"status" json:"status"`
	StudentID   string     `db:"student_id" json:"student_id"`
	CollegeID   string     `db:"college_id" json:"college_id"`
	IncubatorID *string    `db:"incubator_id" json:"incubator_id,omitempty"`
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Feedback    *string    `db:"feedback" json:"feedback,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IdeaDetail joins contextual names onto an idea row.
type IdeaDetail struct {
	Idea
	StudentName string  `db:"student_name" json:"student_name"`
	CollegeName *string `db:"college_name" json:"college_name,omitempty"`
}

// IdeaFilter captures filtering criteria for listing ideas.
type IdeaFilter struct {
	Status      IdeaStatus
	StudentID   string
	CollegeID   string
	IncubatorID string
	Category    string
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// StatusCount aggregates ideas per lifecycle state for pipeline reports.
type StatusCount struct {
	Status IdeaStatus `db:"status" json:"status"`
	Count  int        `db:"count" json:"count"`
}
