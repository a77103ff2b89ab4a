package models

import "time"

// MentorAvailability mirrors the derived availability of a mentor.
type MentorAvailability string

const (
	MentorAvailable   MentorAvailability = "available"
	MentorUnavailable MentorAvailability = "unavailable"
)

// Mentor carries the capacity counters relevant to assignment flows.
// Invariant: CurrentStudents <= MaxStudents.
type Mentor struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Expertise       string    `db:"expertise" json:"expertise"`
	CollegeID       *string   `db:"college_id" json:"college_id,omitempty"`
	IncubatorID     *string   `db:"incubator_id" json:"incubator_id,omitempty"`
	CurrentStudents int       `db:"current_students" json:"current_students"`
	MaxStudents     int       `db:"max_students" json:"max_students"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsAvailable reports whether the mentor can take another student.
func (m *Mentor) IsAvailable() bool {
	return m.Active && m.CurrentStudents < m.MaxStudents
}

// Availability returns the derived availability label.
func (m *Mentor) Availability() MentorAvailability {
	if m.IsAvailable() {
		return MentorAvailable
	}
	return MentorUnavailable
}
