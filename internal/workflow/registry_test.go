package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    models.IdeaStatus
		allowed []models.IdeaStatus
	}{
		{models.StatusNewSubmission, []models.IdeaStatus{models.StatusSubmitted, models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusSubmitted, []models.IdeaStatus{models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusNurture, []models.IdeaStatus{models.StatusPendingReview, models.StatusUnderReview, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusPendingReview, []models.IdeaStatus{models.StatusUnderReview, models.StatusNurture, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusUnderReview, []models.IdeaStatus{models.StatusNeedsDevelopment, models.StatusNurture, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusNeedsDevelopment, []models.IdeaStatus{models.StatusUpdatedPendingReview, models.StatusRejected}},
		{models.StatusUpdatedPendingReview, []models.IdeaStatus{models.StatusUnderReview, models.StatusEndorsed, models.StatusRejected}},
		{models.StatusEndorsed, []models.IdeaStatus{models.StatusForwardedToIncubator, models.StatusRejected}},
		{models.StatusForwardedToIncubator, []models.IdeaStatus{models.StatusIncubated, models.StatusRejected}},
		{models.StatusIncubated, []models.IdeaStatus{models.StatusRejected}},
		{models.StatusRejected, []models.IdeaStatus{models.StatusNewSubmission}},
	}

	for _, tc := range cases {
		allowed := make(map[models.IdeaStatus]bool, len(tc.allowed))
		for _, target := range tc.allowed {
			allowed[target] = true
			assert.True(t, CanTransition(tc.from, target), "%s -> %s should be legal", tc.from, target)
		}
		for _, target := range Statuses() {
			if !allowed[target] {
				assert.False(t, CanTransition(tc.from, target), "%s -> %s should be illegal", tc.from, target)
			}
		}
	}
}

func TestNoSelfLoops(t *testing.T) {
	for _, status := range Statuses() {
		assert.False(t, CanTransition(status, status), "%s must not loop onto itself", status)
	}
}

func TestRejectedIsOnlyResurrectionSourceForNewSubmission(t *testing.T) {
	for _, status := range Statuses() {
		if status == models.StatusRejected {
			continue
		}
		assert.False(t, CanTransition(status, models.StatusNewSubmission))
	}
	assert.True(t, CanTransition(models.StatusRejected, models.StatusNewSubmission))
}

func TestTargetsFromCopies(t *testing.T) {
	targets := TargetsFrom(models.StatusSubmitted)
	require.NotEmpty(t, targets)
	targets[0] = models.StatusIncubated
	assert.NotEqual(t, models.StatusIncubated, Transitions[models.StatusSubmitted][0])
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(models.StatusDraft))
	assert.False(t, Known(models.IdeaStatus("archived")))
}
