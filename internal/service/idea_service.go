package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/workflow"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type ideaRepository interface {
	List(ctx context.Context, filter models.IdeaFilter) ([]models.IdeaDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Idea, error)
	FindDetailByID(ctx context.Context, id string) (*models.IdeaDetail, error)
	Create(ctx context.Context, idea *models.Idea) error
	UpdateContent(ctx context.Context, id string, expected models.IdeaStatus, title, description, category string) (bool, error)
}

// CreateIdeaRequest is the payload for registering a new idea.
type CreateIdeaRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10"`
	Category    string `json:"category" validate:"required"`
	Submit      bool   `json:"submit"`
}

// UpdateIdeaRequest rewrites the editable fields of an idea.
type UpdateIdeaRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10"`
	Category    string `json:"category" validate:"required"`
}

// IdeaView is an idea detail annotated with the transitions the requesting
// actor may apply next.
type IdeaView struct {
	models.IdeaDetail
	AvailableTransitions []models.IdeaStatus `json:"available_transitions"`
}

// IdeaService covers idea CRUD and scoped listing. Status changes go
// through the WorkflowService.
type IdeaService struct {
	repo      ideaRepository
	cache     notificationCache
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	detailTTL time.Duration
}

// NewIdeaService constructs an IdeaService.
func NewIdeaService(repo ideaRepository, cache notificationCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, detailTTL time.Duration) *IdeaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IdeaService{repo: repo, cache: cache, validator: validate, logger: logger, metrics: metrics, detailTTL: detailTTL}
}

// Create registers a new idea for the calling student. With Submit set the
// idea enters the review pipeline immediately, otherwise it stays a draft.
func (s *IdeaService) Create(ctx context.Context, req CreateIdeaRequest, claims *models.JWTClaims) (*models.Idea, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid idea payload")
	}
	if claims.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit ideas")
	}
	if claims.CollegeID == nil || *claims.CollegeID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account has no college attached")
	}

	idea := &models.Idea{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      models.StatusDraft,
		StudentID:   claims.UserID,
		CollegeID:   *claims.CollegeID,
	}
	if req.Submit {
		idea.Status = models.StatusNewSubmission
	}
	if err := s.repo.Create(ctx, idea); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create idea")
	}

	s.logger.Info("idea created",
		zap.String("idea_id", idea.ID),
		zap.String("student_id", idea.StudentID),
		zap.String("status", string(idea.Status)))
	return idea, nil
}

// Update rewrites title, description and category. Only the owning student
// may edit and only while the idea sits in an editable status.
func (s *IdeaService) Update(ctx context.Context, id string, req UpdateIdeaRequest, claims *models.JWTClaims) (*models.IdeaDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid idea payload")
	}

	idea, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idea")
	}
	if idea.StudentID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning student can edit an idea")
	}
	if !editableStatus(idea.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "idea cannot be edited in its current status")
	}

	applied, err := s.repo.UpdateContent(ctx, idea.ID, idea.Status, req.Title, req.Description, req.Category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update idea")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "idea status changed concurrently, reload and retry")
	}
	s.invalidateDetail(ctx, idea.ID)

	return s.repo.FindDetailByID(ctx, idea.ID)
}

func editableStatus(status models.IdeaStatus) bool {
	switch status {
	case models.StatusDraft, models.StatusNeedsDevelopment:
		return true
	}
	return false
}

// Get loads an idea detail with the transitions available to the caller.
// The detail is cached; available transitions are computed per actor and
// never cached.
func (s *IdeaService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*IdeaView, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(&detail.Idea, claims); err != nil {
		return nil, err
	}
	return &IdeaView{
		IdeaDetail:           *detail,
		AvailableTransitions: workflow.TargetsForActor(&detail.Idea, claims),
	}, nil
}

func (s *IdeaService) loadDetail(ctx context.Context, id string) (*models.IdeaDetail, error) {
	key := ideaDetailCacheKey(id)
	if s.cache != nil {
		var cached models.IdeaDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idea")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, detail, s.detailTTL); err != nil {
			s.logger.Warn("failed to cache idea detail", zap.Error(err))
		}
	}
	return detail, nil
}

func (s *IdeaService) authorizeRead(idea *models.Idea, claims *models.JWTClaims) error {
	switch claims.Role {
	case models.RoleAdmin, models.RoleMentor:
		return nil
	case models.RoleStudent:
		if idea.StudentID == claims.UserID {
			return nil
		}
	case models.RoleCollegeAdmin:
		if claims.CollegeID != nil && idea.CollegeID == *claims.CollegeID {
			return nil
		}
	case models.RoleIncubatorManager:
		if claims.IncubatorID != nil && idea.IncubatorID != nil && *idea.IncubatorID == *claims.IncubatorID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "idea is outside your scope")
}

// List returns ideas visible to the caller. Filters narrow within the
// caller's scope, never widen it.
func (s *IdeaService) List(ctx context.Context, filter models.IdeaFilter, claims *models.JWTClaims) ([]models.IdeaDetail, *models.Pagination, error) {
	switch claims.Role {
	case models.RoleAdmin, models.RoleMentor:
		// unrestricted
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleCollegeAdmin:
		if claims.CollegeID == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "coordinator account has no college attached")
		}
		filter.CollegeID = *claims.CollegeID
	case models.RoleIncubatorManager:
		if claims.IncubatorID == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "manager account has no incubator attached")
		}
		filter.IncubatorID = *claims.IncubatorID
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot list ideas")
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ideas")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *IdeaService) invalidateDetail(ctx context.Context, ideaID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ideaDetailCacheKey(ideaID)); err != nil {
		s.logger.Warn("failed to invalidate idea detail cache", zap.String("idea_id", ideaID), zap.Error(err))
	}
}
