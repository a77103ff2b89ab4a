package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type incubatorIdeaLister interface {
	List(ctx context.Context, filter models.IdeaFilter) ([]models.IdeaDetail, int, error)
}

type preIncubateeLister interface {
	ListPreIncubatees(ctx context.Context, incubatorID string) ([]models.PreIncubatee, error)
}

// ReviewRequest is an incubation decision on a forwarded idea.
type ReviewRequest struct {
	Action   string  `json:"action" validate:"required,oneof=incubate reject"`
	Feedback *string `json:"feedback,omitempty"`
}

// IncubatorService serves the incubation centre's review queue. Decisions
// flow through the WorkflowService so the same transition rules and side
// effects apply.
type IncubatorService struct {
	ideas     incubatorIdeaLister
	records   preIncubateeLister
	workflow  *WorkflowService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIncubatorService constructs an IncubatorService.
func NewIncubatorService(ideas incubatorIdeaLister, records preIncubateeLister, workflow *WorkflowService, validate *validator.Validate, logger *zap.Logger) *IncubatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IncubatorService{ideas: ideas, records: records, workflow: workflow, validator: validate, logger: logger}
}

// ReviewQueue lists the forwarded ideas awaiting the manager's decision.
func (s *IncubatorService) ReviewQueue(ctx context.Context, page, pageSize int, claims *models.JWTClaims) ([]models.IdeaDetail, *models.Pagination, error) {
	if claims.Role != models.RoleIncubatorManager && claims.Role != models.RoleAdmin {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only incubation centre managers can review the queue")
	}
	filter := models.IdeaFilter{
		Status:   models.StatusForwardedToIncubator,
		Page:     page,
		PageSize: pageSize,
	}
	if claims.Role == models.RoleIncubatorManager {
		if claims.IncubatorID == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "manager account has no incubator attached")
		}
		filter.IncubatorID = *claims.IncubatorID
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, total, err := s.ideas.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list review queue")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Review applies an incubation decision to a forwarded idea.
func (s *IncubatorService) Review(ctx context.Context, ideaID string, req ReviewRequest, claims *models.JWTClaims) (*models.IdeaDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	target := models.StatusIncubated
	if req.Action == "reject" {
		target = models.StatusRejected
	}
	return s.workflow.ChangeStatus(ctx, ideaID, StatusChangeRequest{
		Status:   string(target),
		Feedback: req.Feedback,
	}, claims)
}

// PreIncubatees lists the admitted ideas for the manager's incubator.
func (s *IncubatorService) PreIncubatees(ctx context.Context, claims *models.JWTClaims) ([]models.PreIncubatee, error) {
	if claims.Role != models.RoleIncubatorManager && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only incubation centre managers can list pre-incubatees")
	}
	incubatorID := ""
	if claims.IncubatorID != nil {
		incubatorID = *claims.IncubatorID
	}
	if claims.Role == models.RoleIncubatorManager && incubatorID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager account has no incubator attached")
	}

	records, err := s.records.ListPreIncubatees(ctx, incubatorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pre-incubatees")
	}
	return records, nil
}
