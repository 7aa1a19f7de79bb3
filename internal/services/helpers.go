package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// commentPreviewRunes bounds the excerpt embedded in comment notifications.
	commentPreviewRunes = 50
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normalisePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func pageOffset(page, limit int) int {
	return (page - 1) * limit
}

// truncateContent produces a bounded preview of user generated text, appending
// an ellipsis when the original exceeds the limit.
func truncateContent(content string, limit int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

// loadActiveUser fetches a user that exists and has not been deactivated.
func loadActiveUser(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("User not found")
		}
		return nil, apperrors.Wrap(err, "load user")
	}
	return &user, nil
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
