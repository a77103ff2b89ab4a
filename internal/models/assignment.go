package models

import "time"

// AssignmentType distinguishes how an assignment was initiated.
type AssignmentType string

const (
	AssignmentTypeCollege     AssignmentType = "college"
	AssignmentTypeIncubator   AssignmentType = "incubator"
	AssignmentTypeIndependent AssignmentType = "independent"
)

// AssignmentStatus represents the lifecycle of a mentor assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentActive     AssignmentStatus = "active"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentTerminated AssignmentStatus = "terminated"
)

// Terminal reports whether the status ends the assignment.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentTerminated
}

// MentorAssignment links a mentor to a student's idea. At most one record
// with is_active=true may exist per (idea_id, mentor_id, student_id).
type MentorAssignment struct {
	ID             string           `db:"id" json:"id"`
	IdeaID         string           `db:"idea_id" json:"idea_id"`
	MentorID       string           `db:"mentor_id" json:"mentor_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	AssignmentType AssignmentType   `db:"assignment_type" json:"assignment_type"`
	Status         AssignmentStatus `db:"status" json:"status"`
	IsActive       bool             `db:"is_active" json:"is_active"`
	StartDate      *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time       `db:"end_date" json:"end_date,omitempty"`
	Rating         *int             `db:"rating" json:"rating,omitempty"`
	Reason         *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter captures criteria for listing assignments.
type AssignmentFilter struct {
	IdeaID    string
	MentorID  string
	StudentID string
	Status    AssignmentStatus
	Page      int
	PageSize  int
}

// ChatStatus represents the lifecycle of a mentor chat.
type ChatStatus string

const (
	ChatActive   ChatStatus = "active"
	ChatArchived ChatStatus = "archived"
	ChatClosed   ChatStatus = "closed"
)

// MentorChat is created atomically with an accepted assignment; one chat
// per assignment.
type MentorChat struct {
	ID            string     `db:"id" json:"id"`
	IdeaID        string     `db:"idea_id" json:"idea_id"`
	MentorID      string     `db:"mentor_id" json:"mentor_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	AssignmentID  string     `db:"assignment_id" json:"assignment_id"`
	Status        ChatStatus `db:"status" json:"status"`
	MentorUnread  int        `db:"mentor_unread" json:"mentor_unread"`
	StudentUnread int        `db:"student_unread" json:"student_unread"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ChatMessage is an append-only message within a mentor chat.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
