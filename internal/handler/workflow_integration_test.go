package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/deshmukhatharva11/innovation-hub-sub003/internal/middleware"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/repository"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/service"
)

func TestStatusRoutesIntegration(t *testing.T) {
	t.Run("status change unauthorized", func(t *testing.T) {
		router, _, _ := buildStatusRouter()
		req, _ := http.NewRequest(http.MethodPut, "/ideas/idea-1/status", bytes.NewBufferString(`{"status":"endorsed"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("coordinator endorses and student is notified", func(t *testing.T) {
		router, ideas, notes := buildStatusRouter()
		req, _ := http.NewRequest(http.MethodPut, "/ideas/idea-1/status", bytes.NewBufferString(`{"status":"endorsed","feedback":"strong market fit"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleCollegeAdmin))
		req.Header.Set("X-Test-College", "college-1")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"endorsed"`)

		require.Len(t, ideas.updates, 1)
		require.Equal(t, models.StatusEndorsed, ideas.updates[0].Target)
		require.Len(t, notes.sent, 1)
		require.Equal(t, "student-1", notes.sent[0].userID)
		require.Contains(t, notes.sent[0].message, "strong market fit")
	})

	t.Run("coordinator from another college forbidden", func(t *testing.T) {
		router, ideas, _ := buildStatusRouter()
		req, _ := http.NewRequest(http.MethodPut, "/ideas/idea-1/status", bytes.NewBufferString(`{"status":"endorsed"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleCollegeAdmin))
		req.Header.Set("X-Test-College", "college-2")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
		require.Empty(t, ideas.updates)
	})

	t.Run("illegal transition rejected", func(t *testing.T) {
		router, ideas, _ := buildStatusRouter()
		ideas.idea.Status = models.StatusDraft
		req, _ := http.NewRequest(http.MethodPut, "/ideas/idea-1/status", bytes.NewBufferString(`{"status":"incubated"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("concurrent reviewer gets conflict", func(t *testing.T) {
		router, ideas, notes := buildStatusRouter()
		ideas.applyResult = false
		req, _ := http.NewRequest(http.MethodPut, "/ideas/idea-1/status", bytes.NewBufferString(`{"status":"endorsed"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleCollegeAdmin))
		req.Header.Set("X-Test-College", "college-1")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
		require.Empty(t, notes.sent)
	})

	t.Run("create idea forbidden for mentors", func(t *testing.T) {
		router, _, _ := buildStatusRouter()
		req, _ := http.NewRequest(http.MethodPost, "/ideas", bytes.NewBufferString(`{"title":"Smart irrigation","description":"Sensor driven irrigation for small farms","category":"agritech"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleMentor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func buildStatusRouter() (*gin.Engine, *workflowIdeaRepoStub, *notifierStub) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			claims := &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			}
			if college := c.GetHeader("X-Test-College"); college != "" {
				claims.CollegeID = &college
			}
			c.Set(internalmiddleware.ContextUserKey, claims)
		}
		c.Next()
	})

	ideas := &workflowIdeaRepoStub{
		idea: &models.Idea{
			ID:        "idea-1",
			Title:     "Solar Dryer",
			Status:    models.StatusUnderReview,
			StudentID: "student-1",
			CollegeID: "college-1",
		},
		applyResult: true,
	}
	notes := &notifierStub{}

	workflowSvc := service.NewWorkflowService(ideas, &incubatorRepoStub{}, notes, nil, nil, zap.NewNop(), nil)
	ideaHandler := NewIdeaHandler(nil, workflowSvc, nil)

	router.PUT("/ideas/:id/status", ideaHandler.ChangeStatus)
	router.POST("/ideas", internalmiddleware.RequireRoles(models.RoleStudent), ideaHandler.Create)

	return router, ideas, notes
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type workflowIdeaRepoStub struct {
	idea        *models.Idea
	applyResult bool
	updates     []repository.StatusUpdate
}

func (s *workflowIdeaRepoStub) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	copied := *s.idea
	return &copied, nil
}

func (s *workflowIdeaRepoStub) FindDetailByID(ctx context.Context, id string) (*models.IdeaDetail, error) {
	return &models.IdeaDetail{Idea: *s.idea, StudentName: "Asha"}, nil
}

func (s *workflowIdeaRepoStub) TransitionStatus(ctx context.Context, id string, expected models.IdeaStatus, update repository.StatusUpdate) (bool, error) {
	if !s.applyResult {
		return false, nil
	}
	s.updates = append(s.updates, update)
	s.idea.Status = update.Target
	return true, nil
}

type incubatorRepoStub struct{}

func (incubatorRepoStub) FindByID(ctx context.Context, id string) (*models.Incubator, error) {
	return &models.Incubator{ID: id, Capacity: 10, Active: true}, nil
}

func (incubatorRepoStub) FindManagers(ctx context.Context, incubatorID string) ([]models.User, error) {
	return nil, nil
}

func (incubatorRepoStub) IncrementOccupancy(ctx context.Context, id string) (int, int, error) {
	return 1, 10, nil
}

func (incubatorRepoStub) DecrementOccupancy(ctx context.Context, id string) error {
	return nil
}

func (incubatorRepoStub) CreatePreIncubatee(ctx context.Context, record *models.PreIncubatee) error {
	return nil
}

type notifierStub struct {
	sent []sentNotice
}

type sentNotice struct {
	userID  string
	title   string
	message string
	kind    models.NotificationType
}

func (s *notifierStub) Notify(userID, title, message string, kind models.NotificationType, relatedType, relatedID string) {
	s.sent = append(s.sent, sentNotice{userID: userID, title: title, message: message, kind: kind})
}
