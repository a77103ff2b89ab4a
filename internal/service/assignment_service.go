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
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.MentorAssignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.MentorAssignment, int, error)
	ExistsActive(ctx context.Context, ideaID, mentorID, studentID string) (bool, error)
	Create(ctx context.Context, assignment *models.MentorAssignment) (bool, error)
	Activate(ctx context.Context, id string, startDate time.Time) (bool, error)
	Terminate(ctx context.Context, id string, reason *string) (bool, error)
	Close(ctx context.Context, id string, status models.AssignmentStatus, rating *int, reason *string) (bool, error)
}

type mentorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Mentor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Mentor, error)
	IncrementStudents(ctx context.Context, id string) (bool, error)
	DecrementStudents(ctx context.Context, id string) error
}

type assignmentIdeaReader interface {
	FindByID(ctx context.Context, id string) (*models.Idea, error)
}

type assignmentChatRepository interface {
	Create(ctx context.Context, chat *models.MentorChat) error
	ArchiveByAssignment(ctx context.Context, assignmentID string) error
}

// AssignRequest directly pairs a mentor with a student's idea.
type AssignRequest struct {
	IdeaID         string `json:"idea_id" validate:"required"`
	MentorID       string `json:"mentor_id" validate:"required"`
	AssignmentType string `json:"assignment_type" validate:"required,oneof=college incubator independent"`
}

// MentorRequestPayload is a student asking a mentor for support.
type MentorRequestPayload struct {
	IdeaID   string `json:"idea_id" validate:"required"`
	MentorID string `json:"mentor_id" validate:"required"`
}

// RespondRequest is a mentor accepting or declining a pending request.
type RespondRequest struct {
	Action string  `json:"action" validate:"required,oneof=accept reject"`
	Reason *string `json:"reason,omitempty"`
}

// CloseRequest completes or terminates an active assignment.
type CloseRequest struct {
	Status string  `json:"status" validate:"required,oneof=completed terminated"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Reason *string `json:"reason,omitempty"`
}

// mentorableStatuses are the idea states in which mentor support applies.
var mentorableStatuses = map[models.IdeaStatus]struct{}{
	models.StatusNurture:          {},
	models.StatusNeedsDevelopment: {},
	models.StatusEndorsed:         {},
}

// AssignmentService manages the mentor assignment sub-flow. Mentor load
// counters move exactly once per assignment: up when it becomes active,
// down when it closes. Pending requests never touch the counter.
type AssignmentService struct {
	assignments assignmentRepository
	mentors     mentorRepository
	ideas       assignmentIdeaReader
	chats       assignmentChatRepository
	notifier    notifier
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments assignmentRepository, mentors mentorRepository, ideas assignmentIdeaReader, chats assignmentChatRepository, notifier notifier, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{
		assignments: assignments,
		mentors:     mentors,
		ideas:       ideas,
		chats:       chats,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// Assign pairs a mentor with an idea immediately: the assignment starts
// active and the mentor's student count is claimed up front. Reserved for
// coordinators, managers and admins.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest, claims *models.JWTClaims) (*models.MentorAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	idea, mentor, err := s.loadPair(ctx, req.IdeaID, req.MentorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPreconditions(ctx, idea, mentor); err != nil {
		return nil, err
	}

	// Claim the mentor slot first; the guarded update loses when the
	// mentor filled up since the availability check.
	claimed, err := s.mentors.IncrementStudents(ctx, mentor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve mentor slot")
	}
	if !claimed {
		return nil, appErrors.Clone(appErrors.ErrMentorAtCapacity, "mentor has reached maximum students")
	}

	now := time.Now().UTC()
	assignment := &models.MentorAssignment{
		ID:             uuid.NewString(),
		IdeaID:         idea.ID,
		MentorID:       mentor.ID,
		StudentID:      idea.StudentID,
		AssignmentType: models.AssignmentType(req.AssignmentType),
		Status:         models.AssignmentActive,
		IsActive:       true,
		StartDate:      &now,
	}
	created, err := s.assignments.Create(ctx, assignment)
	if err != nil || !created {
		// Release the claimed slot so the counter stays truthful.
		if derr := s.mentors.DecrementStudents(ctx, mentor.ID); derr != nil {
			s.logger.Error("failed to release mentor slot after create failure",
				zap.String("mentor_id", mentor.ID), zap.Error(derr))
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
		}
		// The unique index caught a concurrent create for the same triple.
		return nil, appErrors.Clone(appErrors.ErrAlreadyAssigned, "an active assignment already exists for this idea and mentor")
	}
	s.metrics.ObserveAssignmentEvent("assigned")
	s.openChat(ctx, assignment)

	s.notifier.Notify(mentor.UserID, "New mentee assigned",
		fmt.Sprintf("You have been assigned to mentor the idea %q.", idea.Title),
		models.NotificationInfo, "assignment", assignment.ID)
	s.notifier.Notify(idea.StudentID, "Mentor assigned",
		fmt.Sprintf("%s will mentor your idea %q.", mentor.FullName, idea.Title),
		models.NotificationSuccess, "assignment", assignment.ID)

	return assignment, nil
}

// Request files a pending mentor request on behalf of the calling student.
// No counters move until the mentor accepts.
func (s *AssignmentService) Request(ctx context.Context, req MentorRequestPayload, claims *models.JWTClaims) (*models.MentorAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mentor request payload")
	}

	idea, mentor, err := s.loadPair(ctx, req.IdeaID, req.MentorID)
	if err != nil {
		return nil, err
	}
	if idea.StudentID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only request mentors for your own ideas")
	}
	if err := s.checkPreconditions(ctx, idea, mentor); err != nil {
		return nil, err
	}

	assignment := &models.MentorAssignment{
		ID:             uuid.NewString(),
		IdeaID:         idea.ID,
		MentorID:       mentor.ID,
		StudentID:      idea.StudentID,
		AssignmentType: models.AssignmentTypeIndependent,
		Status:         models.AssignmentPending,
		IsActive:       true,
	}
	created, err := s.assignments.Create(ctx, assignment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mentor request")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrAlreadyAssigned, "an active assignment already exists for this idea and mentor")
	}
	s.metrics.ObserveAssignmentEvent("requested")

	s.notifier.Notify(mentor.UserID, "Mentor request received",
		fmt.Sprintf("A student asked you to mentor the idea %q.", idea.Title),
		models.NotificationInfo, "assignment", assignment.ID)

	return assignment, nil
}

// Respond lets the owning mentor accept or decline a pending request.
// Accepting is raced through a conditional activate: of two concurrent
// accepts exactly one wins and the counter moves once.
func (s *AssignmentService) Respond(ctx context.Context, assignmentID string, req RespondRequest, claims *models.JWTClaims) (*models.MentorAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	mentor, err := s.mentorForActor(ctx, claims)
	if err != nil {
		return nil, err
	}
	if assignment.MentorID != mentor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request belongs to another mentor")
	}
	if assignment.Status != models.AssignmentPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is no longer pending")
	}

	if req.Action == "reject" {
		ok, err := s.assignments.Terminate(ctx, assignment.ID, req.Reason)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decline request")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request was handled concurrently")
		}
		s.metrics.ObserveAssignmentEvent("rejected")
		s.notifier.Notify(assignment.StudentID, "Mentor request declined",
			"The mentor declined your request. You can request a different mentor.",
			models.NotificationWarning, "assignment", assignment.ID)
		return s.assignments.FindByID(ctx, assignment.ID)
	}

	now := time.Now().UTC()
	activated, err := s.assignments.Activate(ctx, assignment.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept request")
	}
	if !activated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request was handled concurrently")
	}

	claimed, err := s.mentors.IncrementStudents(ctx, mentor.ID)
	if err == nil && !claimed {
		err = appErrors.Clone(appErrors.ErrMentorAtCapacity, "mentor has reached maximum students")
	}
	if err != nil {
		// Roll the acceptance back so the assignment does not sit active
		// without a claimed slot.
		reason := "mentor at capacity"
		if _, cerr := s.assignments.Close(ctx, assignment.ID, models.AssignmentTerminated, nil, &reason); cerr != nil {
			s.logger.Error("failed to roll back acceptance", zap.String("assignment_id", assignment.ID), zap.Error(cerr))
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve mentor slot")
	}

	s.metrics.ObserveAssignmentEvent("accepted")
	assignment.Status = models.AssignmentActive
	assignment.StartDate = &now
	s.openChat(ctx, assignment)

	s.notifier.Notify(assignment.StudentID, "Mentor request accepted",
		fmt.Sprintf("%s accepted your mentor request.", mentor.FullName),
		models.NotificationSuccess, "assignment", assignment.ID)

	return s.assignments.FindByID(ctx, assignment.ID)
}

// UpdateStatus completes or terminates an active assignment, releasing the
// mentor slot and archiving the chat.
func (s *AssignmentService) UpdateStatus(ctx context.Context, assignmentID string, req CloseRequest, claims *models.JWTClaims) (*models.MentorAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.authorizeClose(ctx, assignment, claims); err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only active assignments can be closed")
	}

	closed, err := s.assignments.Close(ctx, assignment.ID, models.AssignmentStatus(req.Status), req.Rating, req.Reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close assignment")
	}
	if !closed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment was closed concurrently")
	}
	s.metrics.ObserveAssignmentEvent(req.Status)

	if err := s.mentors.DecrementStudents(ctx, assignment.MentorID); err != nil {
		s.logger.Error("failed to release mentor slot",
			zap.String("mentor_id", assignment.MentorID), zap.Error(err))
	}
	if err := s.chats.ArchiveByAssignment(ctx, assignment.ID); err != nil {
		s.logger.Warn("failed to archive assignment chat",
			zap.String("assignment_id", assignment.ID), zap.Error(err))
	}

	s.notifier.Notify(assignment.StudentID, "Mentorship "+req.Status,
		fmt.Sprintf("Your mentorship has been marked %s.", req.Status),
		models.NotificationInfo, "assignment", assignment.ID)

	return s.assignments.FindByID(ctx, assignment.ID)
}

// List returns assignments visible to the caller.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter, claims *models.JWTClaims) ([]models.MentorAssignment, *models.Pagination, error) {
	switch claims.Role {
	case models.RoleAdmin, models.RoleCollegeAdmin, models.RoleIncubatorManager:
		// scope via filters
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleMentor:
		mentor, err := s.mentorForActor(ctx, claims)
		if err != nil {
			return nil, nil, err
		}
		filter.MentorID = mentor.ID
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot list assignments")
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *AssignmentService) loadPair(ctx context.Context, ideaID, mentorID string) (*models.Idea, *models.Mentor, error) {
	idea, err := s.ideas.FindByID(ctx, ideaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idea")
	}
	mentor, err := s.mentors.FindByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "mentor not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
	}
	return idea, mentor, nil
}

func (s *AssignmentService) checkPreconditions(ctx context.Context, idea *models.Idea, mentor *models.Mentor) error {
	if _, ok := mentorableStatuses[idea.Status]; !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "mentor support is only available for nurture, needs_development or endorsed ideas")
	}
	if !mentor.IsAvailable() {
		return appErrors.Clone(appErrors.ErrMentorAtCapacity, "mentor has reached maximum students")
	}
	// Fast-path check only; the partial unique index behind Create is what
	// enforces the one-active rule under concurrency.
	exists, err := s.assignments.ExistsActive(ctx, idea.ID, mentor.ID, idea.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignments")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrAlreadyAssigned, "an active assignment already exists for this idea and mentor")
	}
	return nil
}

func (s *AssignmentService) mentorForActor(ctx context.Context, claims *models.JWTClaims) (*models.Mentor, error) {
	mentor, err := s.mentors.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no mentor profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor profile")
	}
	return mentor, nil
}

func (s *AssignmentService) authorizeClose(ctx context.Context, assignment *models.MentorAssignment, claims *models.JWTClaims) error {
	switch claims.Role {
	case models.RoleAdmin, models.RoleCollegeAdmin, models.RoleIncubatorManager:
		return nil
	case models.RoleMentor:
		mentor, err := s.mentorForActor(ctx, claims)
		if err != nil {
			return err
		}
		if assignment.MentorID == mentor.ID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "assignment is outside your scope")
}

// openChat creates the chat room tied to an activated assignment. The
// insert is idempotent, re-activation never duplicates a room.
func (s *AssignmentService) openChat(ctx context.Context, assignment *models.MentorAssignment) {
	chat := &models.MentorChat{
		ID:           uuid.NewString(),
		IdeaID:       assignment.IdeaID,
		MentorID:     assignment.MentorID,
		StudentID:    assignment.StudentID,
		AssignmentID: assignment.ID,
		Status:       models.ChatActive,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		s.logger.Error("failed to open assignment chat",
			zap.String("assignment_id", assignment.ID), zap.Error(err))
	}
}
