package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type incubatorFixture struct {
	svc       *IncubatorService
	ideas     *mockWorkflowIdeaRepo
	wfIdeas   *mockIdeaRepo
	incubator *mockIncubatorRepo
	notifier  *mockNotifier
}

func (m *mockIncubatorRepo) ListPreIncubatees(ctx context.Context, incubatorID string) ([]models.PreIncubatee, error) {
	var out []models.PreIncubatee
	for _, rec := range m.preIncubatees {
		if incubatorID != "" && rec.IncubatorID != incubatorID {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func newIncubatorFixture(ideaStatus models.IdeaStatus) *incubatorFixture {
	incID := "inc-1"
	wfIdeaRepo := &mockWorkflowIdeaRepo{ideas: map[string]*models.Idea{
		"idea-1": {ID: "idea-1", Title: "Solar Dryer", Status: ideaStatus, StudentID: "student-1", CollegeID: "college-1", IncubatorID: &incID},
	}}
	incubatorRepo := &mockIncubatorRepo{incubators: map[string]*models.Incubator{
		"inc-1": {ID: "inc-1", Capacity: 2},
	}}
	notifierRec := &mockNotifier{}
	wf := NewWorkflowService(wfIdeaRepo, incubatorRepo, notifierRec, nil, validator.New(), zap.NewNop(), nil)

	listRepo := &mockIdeaRepo{ideas: map[string]*models.Idea{}}
	for id, idea := range wfIdeaRepo.ideas {
		copied := *idea
		listRepo.ideas[id] = &copied
	}

	return &incubatorFixture{
		svc:       NewIncubatorService(listRepo, incubatorRepo, wf, validator.New(), zap.NewNop()),
		ideas:     wfIdeaRepo,
		wfIdeas:   listRepo,
		incubator: incubatorRepo,
		notifier:  notifierRec,
	}
}

func TestReviewQueueScopedToManager(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)

	items, page, err := f.svc.ReviewQueue(context.Background(), 1, 20, managerClaimsFor("inc-1"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "idea-1", items[0].ID)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "inc-1", f.wfIdeas.lastFilter.IncubatorID)
	assert.Equal(t, models.StatusForwardedToIncubator, f.wfIdeas.lastFilter.Status)
}

func TestReviewQueueForbiddenForStudents(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)

	_, _, err := f.svc.ReviewQueue(context.Background(), 1, 20, studentClaimsFor("student-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewIncubateAppliesWorkflow(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)

	detail, err := f.svc.Review(context.Background(), "idea-1", ReviewRequest{Action: "incubate"}, managerClaimsFor("inc-1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusIncubated, detail.Status)
	assert.Equal(t, 1, f.incubator.increments)
	require.Len(t, f.incubator.preIncubatees, 1)
}

func TestReviewRejectAppliesWorkflow(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)
	feedback := "market too narrow"

	detail, err := f.svc.Review(context.Background(), "idea-1", ReviewRequest{Action: "reject", Feedback: &feedback}, managerClaimsFor("inc-1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, detail.Status)
	assert.Equal(t, 0, f.incubator.increments)
}

func TestReviewWrongIncubatorForbidden(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)

	_, err := f.svc.Review(context.Background(), "idea-1", ReviewRequest{Action: "incubate"}, managerClaimsFor("inc-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPreIncubateesScopedToManager(t *testing.T) {
	f := newIncubatorFixture(models.StatusForwardedToIncubator)
	f.incubator.preIncubatees = append(f.incubator.preIncubatees,
		&models.PreIncubatee{ID: "p1", IncubatorID: "inc-1"},
		&models.PreIncubatee{ID: "p2", IncubatorID: "inc-2"},
	)

	records, err := f.svc.PreIncubatees(context.Background(), managerClaimsFor("inc-1"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].ID)
}
