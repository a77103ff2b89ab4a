package workflow

import (
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

// statusSet is a convenience alias for membership checks.
type statusSet map[models.IdeaStatus]struct{}

func newSet(statuses ...models.IdeaStatus) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s statusSet) has(status models.IdeaStatus) bool {
	_, ok := s[status]
	return ok
}

// roleRule bounds the transitions a role may drive: the current status
// must be in from and the target in to.
type roleRule struct {
	from statusSet
	to   statusSet
}

var rolePolicy = map[models.UserRole]roleRule{
	models.RoleStudent: {
		from: newSet(models.StatusDraft, models.StatusNewSubmission, models.StatusNeedsDevelopment, models.StatusRejected),
		to:   newSet(models.StatusSubmitted, models.StatusUpdatedPendingReview, models.StatusNewSubmission),
	},
	models.RoleCollegeAdmin: {
		from: newSet(
			models.StatusNewSubmission,
			models.StatusSubmitted,
			models.StatusNurture,
			models.StatusPendingReview,
			models.StatusUnderReview,
			models.StatusNeedsDevelopment,
			models.StatusUpdatedPendingReview,
			models.StatusEndorsed,
		),
		to: newSet(
			models.StatusUnderReview,
			models.StatusNurture,
			models.StatusPendingReview,
			models.StatusNeedsDevelopment,
			models.StatusEndorsed,
			models.StatusForwardedToIncubator,
			models.StatusRejected,
		),
	},
	models.RoleIncubatorManager: {
		from: newSet(models.StatusForwardedToIncubator, models.StatusIncubated),
		to:   newSet(models.StatusIncubated, models.StatusRejected),
	},
}

// Validate decides whether the actor may move the idea to the target
// status. Table violations yield ErrInvalidTransition; role and scope
// violations yield ErrForbidden. No state is touched here.
func Validate(idea *models.Idea, target models.IdeaStatus, claims *models.JWTClaims) error {
	if !Known(target) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "unknown target status")
	}
	if !CanTransition(idea.Status, target) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			"cannot move idea from "+string(idea.Status)+" to "+string(target))
	}
	return authorize(idea, target, claims)
}

func authorize(idea *models.Idea, target models.IdeaStatus, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}

	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if idea.StudentID != claims.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "idea belongs to another student")
		}
	case models.RoleCollegeAdmin:
		if claims.CollegeID == nil || idea.CollegeID != *claims.CollegeID {
			return appErrors.Clone(appErrors.ErrForbidden, "idea belongs to another college")
		}
	case models.RoleIncubatorManager:
		if claims.IncubatorID == nil || idea.IncubatorID == nil || *idea.IncubatorID != *claims.IncubatorID {
			return appErrors.Clone(appErrors.ErrForbidden, "idea belongs to another incubator")
		}
	default:
		return appErrors.ErrForbidden
	}

	rule, ok := rolePolicy[claims.Role]
	if !ok {
		return appErrors.ErrForbidden
	}
	if !rule.from.has(idea.Status) || !rule.to.has(target) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not perform this transition")
	}
	return nil
}

// TargetsForActor computes the transitions the actor may legally request
// for the idea in its current state. Served with idea detail so clients
// never hold their own copy of the table.
func TargetsForActor(idea *models.Idea, claims *models.JWTClaims) []models.IdeaStatus {
	var targets []models.IdeaStatus
	for _, target := range TargetsFrom(idea.Status) {
		if authorize(idea, target, claims) == nil {
			targets = append(targets, target)
		}
	}
	return targets
}
