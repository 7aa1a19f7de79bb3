package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	"github.com/readzone/readzone-server/internal/notifications"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
	"github.com/readzone/readzone-server/pkg/metrics"
)

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	RecipientID string
	SenderID    string // empty for system-generated notices
	Type        models.NotificationType
	Title       string
	Content     string
	RelatedID   string
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	RecipientID string
	Type        models.NotificationType
	IsRead      *bool
	Page        int
	Limit       int
}

// NotificationService owns the notification fan-out and the recipient-side
// inbox operations. Fan-out is strictly best-effort: Create and the Notify*
// helpers absorb every failure into a logged nil result so a side effect can
// never fail the triggering action.
type NotificationService struct {
	db  *gorm.DB
	hub *notifications.Hub
	log *zap.Logger
}

// NewNotificationService constructs a NotificationService. The hub is optional.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:  db,
		hub: hub,
		log: logger.WithModule("notifications"),
	}, nil
}

// Create persists a notification record. It returns nil (without error) when
// the notification is suppressed or cannot be stored: recipients never receive
// self-notifications, and persistence failures are logged and swallowed.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) *models.Notification {
	ctx = ensureContext(ctx)

	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil
	}
	if input.SenderID != "" && input.SenderID == recipientID {
		metrics.NotificationsCreated.WithLabelValues(string(input.Type), "skipped").Inc()
		return nil
	}

	notification := models.Notification{
		RecipientID: recipientID,
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Content:     strings.TrimSpace(input.Content),
	}
	if input.SenderID != "" {
		senderID := input.SenderID
		notification.SenderID = &senderID
	}
	if input.RelatedID != "" {
		relatedID := input.RelatedID
		notification.RelatedID = &relatedID
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		s.log.Error("create notification",
			zap.String("type", string(input.Type)),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		metrics.NotificationsCreated.WithLabelValues(string(input.Type), "failed").Inc()
		return nil
	}

	metrics.NotificationsCreated.WithLabelValues(string(input.Type), "created").Inc()
	s.broadcast(recipientID, "notification.created", &notification)
	return &notification
}

// ListForUser returns notifications for the supplied recipient ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]models.Notification, int64, error) {
	ctx = ensureContext(ctx)
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, 0, errors.New("notification service: recipient id is required")
	}

	page, limit := normalisePage(input.Page, input.Limit)

	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID)
	if input.Type != "" {
		query = query.Where("type = ?", input.Type)
	}
	if input.IsRead != nil {
		query = query.Where("is_read = ?", *input.IsRead)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var rows []models.Notification
	if err := query.
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	return rows, total, nil
}

// UnreadCount returns how many unread notifications the recipient has.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead flips a notification owned by the recipient to read.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Notification not found")
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now

	s.broadcast(recipientID, "notification.read", &notification)
	return &notification, nil
}

// MarkAllRead marks every unread notification for the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(recipientID, "notification.read_all", nil)
	return nil
}

// Delete removes a notification owned by the supplied recipient.
func (s *NotificationService) Delete(ctx context.Context, recipientID, notificationID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Notification not found")
	}

	s.broadcast(recipientID, "notification.deleted", nil)
	return nil
}

func (s *NotificationService) broadcast(recipientID, event string, notification *models.Notification) {
	if s.hub == nil {
		return
	}
	payload := notifications.Event{Event: event}
	if notification != nil {
		payload.Notification = notification
		payload.NotificationID = notification.ID
	}
	s.hub.Broadcast(recipientID, payload)
}
