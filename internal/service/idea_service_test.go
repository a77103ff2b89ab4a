package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type mockIdeaRepo struct {
	ideas      map[string]*models.Idea
	lastFilter models.IdeaFilter
}

func (m *mockIdeaRepo) List(ctx context.Context, filter models.IdeaFilter) ([]models.IdeaDetail, int, error) {
	m.lastFilter = filter
	var out []models.IdeaDetail
	for _, idea := range m.ideas {
		if filter.StudentID != "" && idea.StudentID != filter.StudentID {
			continue
		}
		if filter.CollegeID != "" && idea.CollegeID != filter.CollegeID {
			continue
		}
		if filter.Status != "" && idea.Status != filter.Status {
			continue
		}
		out = append(out, models.IdeaDetail{Idea: *idea})
	}
	return out, len(out), nil
}

func (m *mockIdeaRepo) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	idea, ok := m.ideas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *idea
	return &copied, nil
}

func (m *mockIdeaRepo) FindDetailByID(ctx context.Context, id string) (*models.IdeaDetail, error) {
	idea, ok := m.ideas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.IdeaDetail{Idea: *idea, StudentName: "Asha"}, nil
}

func (m *mockIdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	if idea.ID == "" {
		idea.ID = "generated"
	}
	if idea.Status == "" {
		idea.Status = models.StatusDraft
	}
	copied := *idea
	m.ideas[idea.ID] = &copied
	return nil
}

func (m *mockIdeaRepo) UpdateContent(ctx context.Context, id string, expected models.IdeaStatus, title, description, category string) (bool, error) {
	idea, ok := m.ideas[id]
	if !ok || idea.Status != expected {
		return false, nil
	}
	idea.Title = title
	idea.Description = description
	idea.Category = category
	return true, nil
}

func newIdeaFixture() (*IdeaService, *mockIdeaRepo, *mockCache) {
	repo := &mockIdeaRepo{ideas: map[string]*models.Idea{}}
	cache := newMockCache()
	svc := NewIdeaService(repo, cache, validator.New(), zap.NewNop(), nil, time.Minute)
	return svc, repo, cache
}

func collegeStudentClaims(userID, collegeID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent, CollegeID: &collegeID}
}

func TestCreateIdeaDraftByDefault(t *testing.T) {
	svc, repo, _ := newIdeaFixture()

	idea, err := svc.Create(context.Background(), CreateIdeaRequest{
		Title:       "Solar Dryer",
		Description: "A low cost dryer for smallholder farms.",
		Category:    "agritech",
	}, collegeStudentClaims("student-1", "college-1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, idea.Status)
	assert.Equal(t, "college-1", idea.CollegeID)
	assert.Len(t, repo.ideas, 1)
}

func TestCreateIdeaSubmitEntersPipeline(t *testing.T) {
	svc, _, _ := newIdeaFixture()

	idea, err := svc.Create(context.Background(), CreateIdeaRequest{
		Title:       "Solar Dryer",
		Description: "A low cost dryer for smallholder farms.",
		Category:    "agritech",
		Submit:      true,
	}, collegeStudentClaims("student-1", "college-1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNewSubmission, idea.Status)
}

func TestCreateIdeaRequiresStudentRole(t *testing.T) {
	svc, _, _ := newIdeaFixture()

	_, err := svc.Create(context.Background(), CreateIdeaRequest{
		Title:       "Solar Dryer",
		Description: "A low cost dryer for smallholder farms.",
		Category:    "agritech",
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateIdeaOnlyInEditableStatus(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", Status: models.StatusUnderReview, StudentID: "student-1", CollegeID: "college-1"}

	_, err := svc.Update(context.Background(), "idea-1", UpdateIdeaRequest{
		Title:       "Solar Dryer v2",
		Description: "Improved airflow and cheaper materials.",
		Category:    "agritech",
	}, collegeStudentClaims("student-1", "college-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateIdeaByOwner(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", Status: models.StatusNeedsDevelopment, StudentID: "student-1", CollegeID: "college-1"}

	detail, err := svc.Update(context.Background(), "idea-1", UpdateIdeaRequest{
		Title:       "Solar Dryer v2",
		Description: "Improved airflow and cheaper materials.",
		Category:    "agritech",
	}, collegeStudentClaims("student-1", "college-1"))
	require.NoError(t, err)
	assert.Equal(t, "Solar Dryer v2", detail.Title)
}

func TestGetIdeaIncludesAvailableTransitions(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", Status: models.StatusUnderReview, StudentID: "student-1", CollegeID: "college-1"}

	view, err := svc.Get(context.Background(), "idea-1", coordinatorClaimsFor("college-1"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.IdeaStatus{
		models.StatusNurture,
		models.StatusNeedsDevelopment,
		models.StatusEndorsed,
		models.StatusRejected,
	}, view.AvailableTransitions)
}

func TestGetIdeaStudentHasNoReviewerTransitions(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", Status: models.StatusUnderReview, StudentID: "student-1", CollegeID: "college-1"}

	view, err := svc.Get(context.Background(), "idea-1", collegeStudentClaims("student-1", "college-1"))
	require.NoError(t, err)
	assert.Empty(t, view.AvailableTransitions)
}

func TestGetIdeaOutOfScope(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", Status: models.StatusUnderReview, StudentID: "student-1", CollegeID: "college-1"}

	_, err := svc.Get(context.Background(), "idea-1", coordinatorClaimsFor("other-college"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListIdeasScopesStudentToOwn(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", StudentID: "student-1", CollegeID: "college-1"}
	repo.ideas["idea-2"] = &models.Idea{ID: "idea-2", StudentID: "student-2", CollegeID: "college-1"}

	items, page, err := svc.List(context.Background(), models.IdeaFilter{}, collegeStudentClaims("student-1", "college-1"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "idea-1", items[0].ID)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "student-1", repo.lastFilter.StudentID)
}

func TestListIdeasCoordinatorCannotWidenScope(t *testing.T) {
	svc, repo, _ := newIdeaFixture()
	repo.ideas["idea-1"] = &models.Idea{ID: "idea-1", StudentID: "student-1", CollegeID: "college-1"}

	_, _, err := svc.List(context.Background(), models.IdeaFilter{CollegeID: "other-college"}, coordinatorClaimsFor("college-1"))
	require.NoError(t, err)
	assert.Equal(t, "college-1", repo.lastFilter.CollegeID)
}
