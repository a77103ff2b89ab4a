package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NotificationConfig tunes the delivery queue and unread-count cache.
type NotificationConfig struct {
	Workers        int
	BufferSize     int
	MaxRetries     int
	RetryDelay     time.Duration
	UnreadCountTTL time.Duration
}

// NotificationService persists notifications through a background queue.
// Emission is fire and forget: a failed enqueue is counted and logged but
// never fails the operation that triggered it.
type NotificationService struct {
	repo    notificationRepository
	cache   notificationCache
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
	ttl     time.Duration
}

// NewNotificationService constructs the service and its worker queue. Call
// Start before emitting.
func NewNotificationService(repo notificationRepository, cache notificationCache, logger *zap.Logger, metrics *MetricsService, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		ttl:     cfg.UnreadCountTTL,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues a notification for the given user. Errors are absorbed:
// callers must not fail their own operation because delivery is degraded.
func (s *NotificationService) Notify(userID, title, message string, kind models.NotificationType, relatedType, relatedID string) {
	if userID == "" {
		return
	}
	notification := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if relatedType != "" {
		notification.RelatedType = &relatedType
	}
	if relatedID != "" {
		notification.RelatedID = &relatedID
	}

	err := s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    "notification.create",
		Payload: notification,
	})
	if err != nil {
		s.metrics.ObserveNotificationDropped()
		s.logger.Error("notification dropped",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
		return
	}
	s.metrics.ObserveNotificationEmitted()
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	s.invalidateUnreadCount(ctx, notification.UserID)
	return nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, claims *models.JWTClaims, unreadOnly bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	filter := models.NotificationFilter{
		UserID:     claims.UserID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UnreadCount returns the caller's unread notification count, served from
// cache when fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, claims *models.JWTClaims) (int, error) {
	key := s.unreadCountKey(claims.UserID)
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	count, err := s.repo.CountUnread(ctx, claims.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.ttl); err != nil {
			s.logger.Warn("failed to cache unread count", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flips is_read on a single notification owned by the caller.
func (s *NotificationService) MarkRead(ctx context.Context, claims *models.JWTClaims, id string) error {
	ok, err := s.repo.MarkRead(ctx, id, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	s.invalidateUnreadCount(ctx, claims.UserID)
	return nil
}

// MarkAllRead flips is_read on every unread notification owned by the caller.
func (s *NotificationService) MarkAllRead(ctx context.Context, claims *models.JWTClaims) (int, error) {
	count, err := s.repo.MarkAllRead(ctx, claims.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateUnreadCount(ctx, claims.UserID)
	return count, nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.unreadCountKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate unread count cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *NotificationService) unreadCountKey(userID string) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}
