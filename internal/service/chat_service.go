package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type chatRepository interface {
	FindByID(ctx context.Context, id string) (*models.MentorChat, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.MentorChat, error)
	AppendMessage(ctx context.Context, msg *models.ChatMessage, recipientIsMentor bool) error
	ListMessages(ctx context.Context, chatID string, limit int) ([]models.ChatMessage, error)
	ResetUnread(ctx context.Context, chatID string, mentorSide bool) error
	UpdateStatus(ctx context.Context, chatID string, status models.ChatStatus) error
}

type chatMentorReader interface {
	FindByID(ctx context.Context, id string) (*models.Mentor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Mentor, error)
}

// SendMessageRequest is the payload for posting into a chat.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// ChatService manages assignment-scoped mentor chats. Rooms are opened by
// the AssignmentService when an assignment activates.
type ChatService struct {
	chats     chatRepository
	mentors   chatMentorReader
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(chats chatRepository, mentors chatMentorReader, notifier notifier, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChatService{chats: chats, mentors: mentors, notifier: notifier, validator: validate, logger: logger}
}

// List returns the chats the caller participates in.
func (s *ChatService) List(ctx context.Context, claims *models.JWTClaims) ([]models.MentorChat, error) {
	participantID, err := s.participantID(ctx, claims)
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chats")
	}
	return chats, nil
}

// Messages returns the newest messages in a chat and clears the caller's
// unread counter.
func (s *ChatService) Messages(ctx context.Context, chatID string, limit int, claims *models.JWTClaims) ([]models.ChatMessage, error) {
	chat, mentorSide, err := s.loadForParticipant(ctx, chatID, claims)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	messages, err := s.chats.ListMessages(ctx, chat.ID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	if err := s.chats.ResetUnread(ctx, chat.ID, mentorSide); err != nil {
		s.logger.Warn("failed to reset unread counter", zap.String("chat_id", chat.ID), zap.Error(err))
	}
	return messages, nil
}

// Send appends a message and bumps the recipient's unread counter.
func (s *ChatService) Send(ctx context.Context, chatID string, req SendMessageRequest, claims *models.JWTClaims) (*models.ChatMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	chat, senderIsMentor, err := s.loadForParticipant(ctx, chatID, claims)
	if err != nil {
		return nil, err
	}
	if chat.Status != models.ChatActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "chat is not active")
	}

	msg := &models.ChatMessage{
		ID:       uuid.NewString(),
		ChatID:   chat.ID,
		SenderID: claims.UserID,
		Body:     req.Body,
	}
	if err := s.chats.AppendMessage(ctx, msg, !senderIsMentor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	s.notifyRecipient(ctx, chat, senderIsMentor)
	return msg, nil
}

// notifyRecipient pings the other side of the chat about the new message.
// Best effort only, a failed lookup never fails the send.
func (s *ChatService) notifyRecipient(ctx context.Context, chat *models.MentorChat, senderIsMentor bool) {
	if s.notifier == nil {
		return
	}
	if senderIsMentor {
		s.notifier.Notify(chat.StudentID, "New message from your mentor",
			"Your mentor sent a new message in your mentorship chat.",
			models.NotificationInfo, "chat", chat.ID)
		return
	}
	mentor, err := s.mentors.FindByID(ctx, chat.MentorID)
	if err != nil {
		s.logger.Warn("failed to resolve chat mentor for notification",
			zap.String("chat_id", chat.ID), zap.Error(err))
		return
	}
	s.notifier.Notify(mentor.UserID, "New message from your mentee",
		"Your mentee sent a new message in your mentorship chat.",
		models.NotificationInfo, "chat", chat.ID)
}

// Archive closes a chat for both sides. Already-archived chats are left
// untouched.
func (s *ChatService) Archive(ctx context.Context, chatID string, claims *models.JWTClaims) error {
	chat, _, err := s.loadForParticipant(ctx, chatID, claims)
	if err != nil {
		return err
	}
	if chat.Status == models.ChatArchived {
		return nil
	}
	if err := s.chats.UpdateStatus(ctx, chat.ID, models.ChatArchived); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive chat")
	}
	return nil
}

// loadForParticipant resolves the chat and which side of it the caller
// sits on. Non-participants get a not found, not a forbidden, so chat IDs
// do not leak.
func (s *ChatService) loadForParticipant(ctx context.Context, chatID string, claims *models.JWTClaims) (*models.MentorChat, bool, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "chat not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat")
	}

	if chat.StudentID == claims.UserID {
		return chat, false, nil
	}
	if claims.Role == models.RoleMentor {
		mentor, err := s.mentors.FindByUserID(ctx, claims.UserID)
		if err == nil && mentor.ID == chat.MentorID {
			return chat, true, nil
		}
	}
	if claims.Role == models.RoleAdmin {
		return chat, false, nil
	}
	return nil, false, appErrors.Clone(appErrors.ErrNotFound, "chat not found")
}

// participantID maps the caller to the ID chats are keyed by: students use
// their user ID, mentors their mentor profile ID.
func (s *ChatService) participantID(ctx context.Context, claims *models.JWTClaims) (string, error) {
	if claims.Role != models.RoleMentor {
		return claims.UserID, nil
	}
	mentor, err := s.mentors.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no mentor profile for this account")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor profile")
	}
	return mentor.ID, nil
}
