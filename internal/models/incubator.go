package models

import "time"

// Incubator tracks occupancy against capacity. Occupancy is a soft limit:
// incubation past capacity is permitted but logged.
type Incubator struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Capacity         int       `db:"capacity" json:"capacity"`
	CurrentOccupancy int       `db:"current_occupancy" json:"current_occupancy"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PreIncubatee records an idea/student pairing accepted into an incubator
// program, independent of the idea's status field.
type PreIncubatee struct {
	ID          string    `db:"id" json:"id"`
	IdeaID      string    `db:"idea_id" json:"idea_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	IncubatorID string    `db:"incubator_id" json:"incubator_id"`
	Phase       string    `db:"phase" json:"phase"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
