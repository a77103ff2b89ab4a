package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/repository"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/workflow"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type workflowIdeaRepository interface {
	FindByID(ctx context.Context, id string) (*models.Idea, error)
	FindDetailByID(ctx context.Context, id string) (*models.IdeaDetail, error)
	TransitionStatus(ctx context.Context, id string, expected models.IdeaStatus, update repository.StatusUpdate) (bool, error)
}

type workflowIncubatorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Incubator, error)
	FindManagers(ctx context.Context, incubatorID string) ([]models.User, error)
	IncrementOccupancy(ctx context.Context, id string) (occupancy, capacity int, err error)
	DecrementOccupancy(ctx context.Context, id string) error
	CreatePreIncubatee(ctx context.Context, record *models.PreIncubatee) error
}

type notifier interface {
	Notify(userID, title, message string, kind models.NotificationType, relatedType, relatedID string)
}

// StatusChangeRequest is the payload for moving an idea to a new status.
// IncubatorID is required when forwarding to incubation and ignored
// otherwise.
type StatusChangeRequest struct {
	Status      string  `json:"status" validate:"required"`
	Feedback    *string `json:"feedback,omitempty"`
	IncubatorID *string `json:"incubator_id,omitempty"`
}

// WorkflowService applies status transitions: it validates the move against
// the transition table and the actor's role and scope, performs the write
// conditionally so concurrent reviewers cannot double-apply, and runs the
// side effects the new status requires.
type WorkflowService struct {
	ideas      workflowIdeaRepository
	incubators workflowIncubatorRepository
	notifier   notifier
	cache      notificationCache
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewWorkflowService constructs a WorkflowService.
func NewWorkflowService(ideas workflowIdeaRepository, incubators workflowIncubatorRepository, notifier notifier, cache notificationCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WorkflowService{
		ideas:      ideas,
		incubators: incubators,
		notifier:   notifier,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
	}
}

// ChangeStatus moves an idea to the requested status on behalf of the actor.
// The returned detail reflects the idea after the transition.
func (s *WorkflowService) ChangeStatus(ctx context.Context, ideaID string, req StatusChangeRequest, claims *models.JWTClaims) (*models.IdeaDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status change payload")
	}

	idea, err := s.ideas.FindByID(ctx, ideaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idea")
	}

	target := models.IdeaStatus(req.Status)
	if err := workflow.Validate(idea, target, claims); err != nil {
		return nil, err
	}

	update := repository.StatusUpdate{
		Target:     target,
		ReviewedBy: claims.UserID,
		ReviewedAt: time.Now().UTC(),
		Feedback:   req.Feedback,
	}

	switch target {
	case models.StatusForwardedToIncubator:
		if req.IncubatorID == nil || *req.IncubatorID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "incubator_id is required when forwarding to incubation")
		}
		if _, err := s.incubators.FindByID(ctx, *req.IncubatorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "incubator not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incubator")
		}
		update.IncubatorID = req.IncubatorID
	case models.StatusIncubated:
		if idea.IncubatorID == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "idea has no incubator attached")
		}
	}

	applied, err := s.ideas.TransitionStatus(ctx, idea.ID, idea.Status, update)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update idea status")
	}
	if !applied {
		s.metrics.ObserveTransitionConflict()
		return nil, appErrors.Clone(appErrors.ErrConflict, "idea status changed concurrently, reload and retry")
	}
	s.metrics.ObserveTransition(target)
	s.invalidateIdeaDetail(ctx, idea.ID)

	s.logger.Info("idea status changed",
		zap.String("idea_id", idea.ID),
		zap.String("from", string(idea.Status)),
		zap.String("to", string(target)),
		zap.String("actor_id", claims.UserID),
		zap.String("actor_role", string(claims.Role)))

	switch {
	case target == models.StatusIncubated:
		s.admitToIncubator(ctx, idea)
	case target == models.StatusForwardedToIncubator:
		s.notifyManagers(ctx, idea, *update.IncubatorID)
	case idea.Status == models.StatusIncubated && target == models.StatusRejected:
		s.releaseIncubatorSlot(ctx, idea)
	}
	s.notifyStudent(idea, target, req.Feedback)

	detail, err := s.ideas.FindDetailByID(ctx, idea.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload idea")
	}
	return detail, nil
}

// admitToIncubator bumps the incubator occupancy and records the
// pre-incubatee row. Occupancy is a soft limit: exceeding capacity only
// logs a warning. Failures here never roll back the transition.
func (s *WorkflowService) admitToIncubator(ctx context.Context, idea *models.Idea) {
	occupancy, capacity, err := s.incubators.IncrementOccupancy(ctx, *idea.IncubatorID)
	if err != nil {
		s.logger.Error("failed to increment incubator occupancy",
			zap.String("idea_id", idea.ID),
			zap.String("incubator_id", *idea.IncubatorID),
			zap.Error(err))
		return
	}
	if occupancy > capacity {
		s.logger.Warn("incubator over capacity",
			zap.String("incubator_id", *idea.IncubatorID),
			zap.Int("occupancy", occupancy),
			zap.Int("capacity", capacity))
	}

	record := &models.PreIncubatee{
		ID:          uuid.NewString(),
		IdeaID:      idea.ID,
		StudentID:   idea.StudentID,
		IncubatorID: *idea.IncubatorID,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.incubators.CreatePreIncubatee(ctx, record); err != nil {
		s.logger.Error("failed to create pre-incubatee record",
			zap.String("idea_id", idea.ID),
			zap.Error(err))
	}
}

// transitionNotices maps reviewer-driven targets to the student-facing
// notification emitted when the transition lands.
var transitionNotices = map[models.IdeaStatus]struct {
	Title string
	Body  string
	Kind  models.NotificationType
}{
	models.StatusUnderReview:          {"Idea under review", "Your idea %q is now under review.", models.NotificationInfo},
	models.StatusNurture:              {"Idea selected for nurturing", "Your idea %q was selected for the nurture track.", models.NotificationInfo},
	models.StatusNeedsDevelopment:     {"Idea needs development", "Your idea %q needs further development before it can progress.", models.NotificationWarning},
	models.StatusEndorsed:             {"Idea endorsed", "Congratulations! Your idea %q has been endorsed.", models.NotificationSuccess},
	models.StatusForwardedToIncubator: {"Idea forwarded to incubation", "Your idea %q was forwarded to an incubation centre.", models.NotificationSuccess},
	models.StatusIncubated:            {"Idea accepted for incubation", "Congratulations! Your idea %q has been accepted for incubation.", models.NotificationSuccess},
	models.StatusRejected:             {"Idea not selected", "Your idea %q was not selected to progress.", models.NotificationError},
}

func (s *WorkflowService) notifyStudent(idea *models.Idea, target models.IdeaStatus, feedback *string) {
	notice, ok := transitionNotices[target]
	if !ok || s.notifier == nil {
		return
	}
	body := fmt.Sprintf(notice.Body, idea.Title)
	if feedback != nil && *feedback != "" {
		body = fmt.Sprintf("%s Feedback: %s", body, *feedback)
	}
	s.notifier.Notify(idea.StudentID, notice.Title, body, notice.Kind, "idea", idea.ID)
}

// releaseIncubatorSlot frees the occupancy claimed at incubation when an
// incubated idea is rejected back out of the program.
func (s *WorkflowService) releaseIncubatorSlot(ctx context.Context, idea *models.Idea) {
	if idea.IncubatorID == nil {
		return
	}
	if err := s.incubators.DecrementOccupancy(ctx, *idea.IncubatorID); err != nil {
		s.logger.Error("failed to release incubator occupancy",
			zap.String("idea_id", idea.ID),
			zap.String("incubator_id", *idea.IncubatorID),
			zap.Error(err))
	}
}

// notifyManagers tells the receiving incubator's managers a new idea
// landed in their review queue.
func (s *WorkflowService) notifyManagers(ctx context.Context, idea *models.Idea, incubatorID string) {
	if s.notifier == nil {
		return
	}
	managers, err := s.incubators.FindManagers(ctx, incubatorID)
	if err != nil {
		s.logger.Warn("failed to load incubator managers",
			zap.String("incubator_id", incubatorID), zap.Error(err))
		return
	}
	body := fmt.Sprintf("Idea %q was forwarded to your incubation centre for review.", idea.Title)
	for _, manager := range managers {
		s.notifier.Notify(manager.ID, "Idea forwarded for review", body, models.NotificationInfo, "idea", idea.ID)
	}
}

func (s *WorkflowService) invalidateIdeaDetail(ctx context.Context, ideaID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ideaDetailCacheKey(ideaID)); err != nil {
		s.logger.Warn("failed to invalidate idea detail cache", zap.String("idea_id", ideaID), zap.Error(err))
	}
}

func ideaDetailCacheKey(ideaID string) string {
	return fmt.Sprintf("ideas:detail:%s", ideaID)
}
