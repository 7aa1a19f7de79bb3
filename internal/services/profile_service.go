package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
)

// ProfileStats aggregates the counters shown on a full profile.
type ProfileStats struct {
	Followers  int64 `json:"followers"`
	Following  int64 `json:"following"`
	BooksRead  int64 `json:"books_read"`
	Reviews    int64 `json:"reviews"`
	LikesGiven int64 `json:"likes_given"`
}

// Profile is the aggregated read model for a user page. For a private
// profile viewed by anyone but its owner only the identity fields are
// populated; Stats stays nil and Bio empty, which is how clients tell the
// two projections apart.
type Profile struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Nickname    string        `json:"nickname"`
	DisplayName string        `json:"display_name"`
	Avatar      string        `json:"avatar"`
	Bio         string        `json:"bio,omitempty"`
	IsPublic    bool          `json:"is_public"`
	IsSelf      bool          `json:"is_self"`
	IsFollowing bool          `json:"is_following"`
	IsMutual    bool          `json:"is_mutual_follow"`
	JoinedAt    time.Time     `json:"joined_at"`
	Stats       *ProfileStats `json:"stats,omitempty"`
}

// ProfileService assembles profile pages and user search results. It only
// reads; every write to the underlying tables goes through the owning
// service.
type ProfileService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db, log: logger.WithModule("profile")}, nil
}

// GetProfile returns the profile of subjectID as seen by viewerID. An empty
// viewerID means an unauthenticated request.
func (s *ProfileService) GetProfile(ctx context.Context, viewerID, subjectID string) (*Profile, error) {
	ctx = ensureContext(ctx)

	subject, err := loadActiveUser(ctx, s.db, subjectID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:          subject.ID,
		Username:    subject.Username,
		Nickname:    subject.Nickname,
		DisplayName: subject.DisplayName(),
		Avatar:      subject.Avatar,
		IsPublic:    subject.IsPublic,
		IsSelf:      viewerID != "" && viewerID == subject.ID,
		JoinedAt:    subject.CreatedAt,
	}

	if viewerID != "" && viewerID != subject.ID {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", viewerID, subject.ID).
			Count(&count).Error
		if err != nil {
			return nil, apperrors.Wrap(err, "check follow")
		}
		profile.IsFollowing = count > 0

		if profile.IsFollowing {
			var reverse int64
			err := s.db.WithContext(ctx).
				Model(&models.Follow{}).
				Where("follower_id = ? AND following_id = ?", subject.ID, viewerID).
				Count(&reverse).Error
			if err != nil {
				return nil, apperrors.Wrap(err, "check mutual follow")
			}
			profile.IsMutual = reverse > 0
		}
	}

	// Private profiles expose the limited projection to everyone but the
	// owner. The request itself still succeeds.
	if !subject.IsPublic && !profile.IsSelf {
		return profile, nil
	}

	profile.Bio = subject.Bio
	stats, err := s.collectStats(ctx, subject.ID, profile.IsSelf)
	if err != nil {
		return nil, err
	}
	profile.Stats = stats
	return profile, nil
}

func (s *ProfileService) collectStats(ctx context.Context, userID string, includePrivate bool) (*ProfileStats, error) {
	stats := &ProfileStats{}

	// Non-owners only ever see the public slice of the review count.
	reviews := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(models.Active).Where("user_id = ?", userID)
	if !includePrivate {
		reviews = reviews.Where("is_public = ?", true)
	}

	counters := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Followers, s.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID)},
		{&stats.Following, s.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID)},
		{&stats.BooksRead, s.db.WithContext(ctx).Model(&models.LibraryBook{}).Where("user_id = ? AND status = ?", userID, models.LibraryCompleted)},
		{&stats.Reviews, reviews},
		{&stats.LikesGiven, s.db.WithContext(ctx).Model(&models.Like{}).Where("user_id = ?", userID)},
	}
	for _, counter := range counters {
		if err := counter.query.Count(counter.dest).Error; err != nil {
			return nil, apperrors.Wrap(err, "collect profile stats")
		}
	}
	return stats, nil
}

// SearchUsers matches active users by username or nickname substring. Private
// accounts appear in results with their limited projection semantics applied
// downstream; search itself does not hide them.
func (s *ProfileService) SearchUsers(ctx context.Context, query string, page, limit int) ([]UserSummary, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	pattern := "%" + query + "%"
	base := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_active = ?", true).
		Where("username LIKE ? OR nickname LIKE ?", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count users")
	}

	var users []models.User
	if err := base.
		Order("username ASC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&users).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "search users")
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Nickname: user.Nickname,
			Avatar:   user.Avatar,
			IsPublic: user.IsPublic,
		})
	}
	return summaries, total, nil
}
