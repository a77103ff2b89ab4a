package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

// ChatRepository handles persistence of mentor chats and their messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatColumns = `id, idea_id, mentor_id, student_id, assignment_id, status, mentor_unread, student_unread, created_at, updated_at`

// Create persists a new chat record.
func (r *ChatRepository) Create(ctx context.Context, chat *models.MentorChat) error {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now
	if chat.Status == "" {
		chat.Status = models.ChatActive
	}
	const query = `INSERT INTO mentor_chats (id, idea_id, mentor_id, student_id, assignment_id, status, mentor_unread, student_unread, created_at, updated_at)
        VALUES (:id, :idea_id, :mentor_id, :student_id, :assignment_id, :status, :mentor_unread, :student_unread, :created_at, :updated_at)
        ON CONFLICT (assignment_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, chat); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

// FindByID returns a chat by its ID.
func (r *ChatRepository) FindByID(ctx context.Context, id string) (*models.MentorChat, error) {
	query := fmt.Sprintf("SELECT %s FROM mentor_chats WHERE id = $1", chatColumns)
	var chat models.MentorChat
	if err := r.db.GetContext(ctx, &chat, query, id); err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByAssignment returns the chat created for an assignment.
func (r *ChatRepository) FindByAssignment(ctx context.Context, assignmentID string) (*models.MentorChat, error) {
	query := fmt.Sprintf("SELECT %s FROM mentor_chats WHERE assignment_id = $1", chatColumns)
	var chat models.MentorChat
	if err := r.db.GetContext(ctx, &chat, query, assignmentID); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListByParticipant returns chats where the user is the mentor or student.
func (r *ChatRepository) ListByParticipant(ctx context.Context, userID string) ([]models.MentorChat, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentor_chats
        WHERE mentor_id = $1 OR student_id = $1 ORDER BY updated_at DESC`, chatColumns)
	var chats []models.MentorChat
	if err := r.db.SelectContext(ctx, &chats, query, userID); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// AppendMessage stores a message and bumps the recipient's unread counter
// in the same round trip.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage, recipientIsMentor bool) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO chat_messages (id, chat_id, sender_id, body, created_at)
        VALUES (:id, :chat_id, :sender_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, msg); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}

	counter := "student_unread"
	if recipientIsMentor {
		counter = "mentor_unread"
	}
	bump := fmt.Sprintf(`UPDATE mentor_chats SET %s = %s + 1, updated_at = $2 WHERE id = $1`, counter, counter)
	if _, err := r.db.ExecContext(ctx, bump, msg.ChatID, msg.CreatedAt); err != nil {
		return fmt.Errorf("bump unread counter: %w", err)
	}
	return nil
}

// ListMessages returns the messages of a chat oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, chat_id, sender_id, body, created_at
        FROM chat_messages WHERE chat_id = $1 ORDER BY created_at ASC LIMIT %d`, limit)
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, chatID); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

// ResetUnread clears the unread counter for one side of the chat.
func (r *ChatRepository) ResetUnread(ctx context.Context, chatID string, mentorSide bool) error {
	counter := "student_unread"
	if mentorSide {
		counter = "mentor_unread"
	}
	query := fmt.Sprintf(`UPDATE mentor_chats SET %s = 0, updated_at = $2 WHERE id = $1`, counter)
	if _, err := r.db.ExecContext(ctx, query, chatID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset unread counter: %w", err)
	}
	return nil
}

// UpdateStatus archives or closes a chat.
func (r *ChatRepository) UpdateStatus(ctx context.Context, chatID string, status models.ChatStatus) error {
	const query = `UPDATE mentor_chats SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, chatID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update chat status: %w", err)
	}
	return nil
}

// ArchiveByAssignment archives the chat belonging to an assignment.
func (r *ChatRepository) ArchiveByAssignment(ctx context.Context, assignmentID string) error {
	const query = `UPDATE mentor_chats SET status = $2, updated_at = $3 WHERE assignment_id = $1`
	if _, err := r.db.ExecContext(ctx, query, assignmentID, models.ChatArchived, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive chat: %w", err)
	}
	return nil
}
