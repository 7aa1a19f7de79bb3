package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
	"github.com/readzone/readzone-server/pkg/metrics"
)

// UserSummary is the compact projection used in follower/following listings.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	IsPublic bool   `json:"is_public"`
}

// FollowService is the only component permitted to create or delete follow
// edges. The composite unique index on (follower_id, following_id) is the
// authoritative duplicate guard; the pre-check below is an early exit, not
// the sole enforcement.
type FollowService struct {
	db       *gorm.DB
	notifier *NotificationService
	dispatch func(fn func())
	log      *zap.Logger
}

// FollowOption customises a FollowService.
type FollowOption func(*FollowService)

// WithDispatcher overrides how fan-out side effects are scheduled. The default
// runs them on their own goroutine; tests inject a synchronous dispatcher.
func WithDispatcher(dispatch func(fn func())) FollowOption {
	return func(s *FollowService) {
		if dispatch != nil {
			s.dispatch = dispatch
		}
	}
}

// NewFollowService constructs a FollowService. The notifier is optional;
// without it follow events simply do not fan out.
func NewFollowService(db *gorm.DB, notifier *NotificationService, opts ...FollowOption) (*FollowService, error) {
	if db == nil {
		return nil, errors.New("follow service: db is required")
	}

	svc := &FollowService{
		db:       db,
		notifier: notifier,
		dispatch: func(fn func()) { go fn() },
		log:      logger.WithModule("follow"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Follow creates the directed edge actor -> target.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID string) error {
	ctx = ensureContext(ctx)

	if actorID == targetID {
		return apperrors.ErrSelfFollow
	}

	if _, err := loadActiveUser(ctx, s.db, targetID); err != nil {
		return err
	}

	exists, err := s.edgeExists(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrAlreadyFollowing
	}

	edge := models.Follow{FollowerID: actorID, FollowingID: targetID}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		// A concurrent identical request may win the race; the loser sees the
		// unique index violation and reports the same conflict.
		if isUniqueConstraintError(err) {
			metrics.FollowOperations.WithLabelValues("follow", "conflict").Inc()
			return apperrors.ErrAlreadyFollowing
		}
		metrics.FollowOperations.WithLabelValues("follow", "error").Inc()
		return apperrors.Wrap(err, "create follow")
	}

	metrics.FollowOperations.WithLabelValues("follow", "success").Inc()
	s.log.Info("follow created",
		zap.String("follower_id", actorID),
		zap.String("following_id", targetID),
	)

	if s.notifier != nil {
		// Fire-and-forget: the fan-out runs outside the request path and its
		// failure never unwinds a committed follow.
		s.dispatch(func() {
			s.notifier.NotifyFollow(context.Background(), targetID, actorID)
		})
	}

	return nil
}

// Unfollow removes the directed edge actor -> target. A missing edge is a
// deterministic not-found error, not an idempotent success.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID string) error {
	ctx = ensureContext(ctx)

	if actorID == targetID {
		return apperrors.ErrSelfFollow
	}

	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", actorID, targetID).
		Delete(&models.Follow{})
	if result.Error != nil {
		metrics.FollowOperations.WithLabelValues("unfollow", "error").Inc()
		return apperrors.Wrap(result.Error, "delete follow")
	}
	if result.RowsAffected == 0 {
		metrics.FollowOperations.WithLabelValues("unfollow", "not_found").Inc()
		return apperrors.ErrNotFollowing
	}

	metrics.FollowOperations.WithLabelValues("unfollow", "success").Inc()
	s.log.Info("follow removed",
		zap.String("follower_id", actorID),
		zap.String("following_id", targetID),
	)
	return nil
}

// IsFollowing reports whether the directed edge follower -> following exists.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.edgeExists(ensureContext(ctx), followerID, followingID)
}

// ListFollowers returns the users following the subject, most recent first.
// Follower listings of private profiles are restricted to the owner.
func (s *FollowService) ListFollowers(ctx context.Context, viewerID, subjectID string, page, limit int) ([]UserSummary, int64, error) {
	return s.listEdgeUsers(ctx, viewerID, subjectID, page, limit, "following_id", "follower_id")
}

// ListFollowing returns the users the subject follows, most recent first.
func (s *FollowService) ListFollowing(ctx context.Context, viewerID, subjectID string, page, limit int) ([]UserSummary, int64, error) {
	return s.listEdgeUsers(ctx, viewerID, subjectID, page, limit, "follower_id", "following_id")
}

func (s *FollowService) listEdgeUsers(ctx context.Context, viewerID, subjectID string, page, limit int, matchColumn, selectColumn string) ([]UserSummary, int64, error) {
	ctx = ensureContext(ctx)

	subject, err := loadActiveUser(ctx, s.db, subjectID)
	if err != nil {
		return nil, 0, err
	}
	if !subject.IsPublic && viewerID != subjectID {
		return nil, 0, apperrors.ErrPrivateProfile
	}

	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where(fmt.Sprintf("%s = ?", matchColumn), subjectID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count follows")
	}

	var edges []models.Follow
	if err := base.
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&edges).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list follows")
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if selectColumn == "follower_id" {
			ids = append(ids, edge.FollowerID)
		} else {
			ids = append(ids, edge.FollowingID)
		}
	}

	summaries, err := s.loadSummaries(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *FollowService) loadSummaries(ctx context.Context, ids []string) ([]UserSummary, error) {
	if len(ids) == 0 {
		return []UserSummary{}, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(err, "load users")
	}

	byID := make(map[string]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	// preserve edge ordering
	summaries := make([]UserSummary, 0, len(ids))
	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			continue
		}
		summaries = append(summaries, UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Nickname: user.Nickname,
			Avatar:   user.Avatar,
			IsPublic: user.IsPublic,
		})
	}
	return summaries, nil
}

func (s *FollowService) edgeExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "check follow")
	}
	return count > 0, nil
}
