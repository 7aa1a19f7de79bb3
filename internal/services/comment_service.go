package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
)

// CreateCommentInput captures a new comment or reply on a post.
type CreateCommentInput struct {
	Content  string  `json:"content" binding:"required,max=2000"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// CommentService owns comments and replies. Replies are one level deep: a
// reply always attaches to a top-level comment, never to another reply.
type CommentService struct {
	db       *gorm.DB
	notifier *NotificationService
	dispatch func(fn func())
	log      *zap.Logger
}

func NewCommentService(db *gorm.DB, notifier *NotificationService) (*CommentService, error) {
	if db == nil {
		return nil, errors.New("comment service: db is required")
	}
	return &CommentService{
		db:       db,
		notifier: notifier,
		dispatch: func(fn func()) { go fn() },
		log:      logger.WithModule("comments"),
	}, nil
}

// Create stores a comment on a post and fans out notifications to the post
// owner and, for replies, the parent comment's author.
func (s *CommentService) Create(ctx context.Context, actorID, postID string, input CreateCommentInput) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	var post models.Post
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Post not found")
		}
		return nil, apperrors.Wrap(err, "load post")
	}

	if input.ParentID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).
			Scopes(models.Active).
			Where("id = ? AND post_id = ?", *input.ParentID, postID).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrNotFound.WithMessage("Parent comment not found")
			}
			return nil, apperrors.Wrap(err, "load parent comment")
		}
		if parent.ParentID != nil {
			return nil, apperrors.NewBadRequest("Replies cannot be nested")
		}
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   actorID,
		ParentID: input.ParentID,
		Content:  input.Content,
		Status:   models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, apperrors.Wrap(err, "create comment")
	}

	s.log.Info("comment created",
		zap.String("comment_id", comment.ID),
		zap.String("post_id", postID),
		zap.Bool("is_reply", input.ParentID != nil),
	)

	if s.notifier != nil {
		content := comment.Content
		parentID := comment.ParentID
		s.dispatch(func() {
			s.notifier.NotifyComment(context.Background(), postID, actorID, content, parentID)
		})
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, apperrors.Wrap(err, "reload comment")
	}
	return &comment, nil
}

// ListForPost returns the post's top-level comments oldest first, each with
// its active replies preloaded in the same order.
func (s *CommentService) ListForPost(ctx context.Context, postID string, page, limit int) ([]models.Comment, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Scopes(models.Active).
		Where("post_id = ? AND parent_id IS NULL", postID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count comments")
	}

	var comments []models.Comment
	err := base.
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(models.Active).Order("created_at ASC")
		}).
		Preload("Replies.User").
		Order("created_at ASC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "list comments")
	}
	return comments, total, nil
}

// Update edits a comment's content. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actorID, commentID, content string) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	comment, err := s.loadOwned(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("content", content).Error; err != nil {
		return nil, apperrors.Wrap(err, "update comment")
	}
	comment.Content = content
	return comment, nil
}

// Delete soft-deletes a comment. Replies under a deleted comment disappear
// from listings because the reply preload filters on the active status.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID string) error {
	ctx = ensureContext(ctx)

	comment, err := s.loadOwned(ctx, actorID, commentID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("status", models.StatusDeleted).Error; err != nil {
		return apperrors.Wrap(err, "delete comment")
	}

	s.log.Info("comment deleted", zap.String("comment_id", commentID), zap.String("user_id", actorID))
	return nil
}

func (s *CommentService) loadOwned(ctx context.Context, actorID, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Where("id = ?", commentID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Comment not found")
		}
		return nil, apperrors.Wrap(err, "load comment")
	}
	if comment.UserID != actorID {
		return nil, apperrors.ErrForbidden.WithMessage("You can only modify your own comments")
	}
	return &comment, nil
}
