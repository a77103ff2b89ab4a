// Package workflow is the single source of truth for the idea lifecycle:
// the status registry, the transition table, and the role/scope rules
// deciding who may move an idea between states.
package workflow

import (
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// Transitions is the directed transition graph between idea statuses.
// A transition request is valid iff the target appears under the current
// status. rejected -> new_submission is the only resurrection path.
var Transitions = map[models.IdeaStatus][]models.IdeaStatus{
	models.StatusDraft:                {models.StatusSubmitted},
	models.StatusNewSubmission:        {models.StatusSubmitted, models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected},
	models.StatusSubmitted:            {models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected},
	models.StatusNurture:              {models.StatusPendingReview, models.StatusUnderReview, models.StatusEndorsed, models.StatusRejected},
	models.StatusPendingReview:        {models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected},
	models.StatusUnderReview:          {models.StatusNeedsDevelopment, models.StatusNurture, models.StatusEndorsed, models.StatusRejected},
	models.StatusNeedsDevelopment:     {models.StatusUpdatedPendingReview, models.StatusRejected},
	models.StatusUpdatedPendingReview: {models.StatusUnderReview, models.StatusEndorsed, models.StatusRejected},
	models.StatusEndorsed:             {models.StatusForwardedToIncubator, models.StatusRejected},
	models.StatusForwardedToIncubator: {models.StatusIncubated, models.StatusRejected},
	models.StatusIncubated:            {models.StatusRejected},
	models.StatusRejected:             {models.StatusNewSubmission},
}

// Known reports whether the status is part of the registry.
func Known(status models.IdeaStatus) bool {
	_, ok := Transitions[status]
	return ok
}

// CanTransition reports whether the table permits moving from one status
// to another.
func CanTransition(from, to models.IdeaStatus) bool {
	for _, target := range Transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// TargetsFrom returns the table-legal targets for a status.
func TargetsFrom(from models.IdeaStatus) []models.IdeaStatus {
	targets := Transitions[from]
	out := make([]models.IdeaStatus, len(targets))
	copy(out, targets)
	return out
}

// Statuses lists every status in the registry.
func Statuses() []models.IdeaStatus {
	return []models.IdeaStatus{
		models.StatusDraft,
		models.StatusNewSubmission,
		models.StatusSubmitted,
		models.StatusNurture,
		models.StatusPendingReview,
		models.StatusUnderReview,
		models.StatusNeedsDevelopment,
		models.StatusUpdatedPendingReview,
		models.StatusEndorsed,
		models.StatusForwardedToIncubator,
		models.StatusIncubated,
		models.StatusRejected,
	}
}
