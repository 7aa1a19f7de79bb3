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

// CreatePostInput captures a new book review.
type CreatePostInput struct {
	BookID   string `json:"book_id" binding:"required,uuid"`
	Title    string `json:"title" binding:"omitempty,max=255"`
	Content  string `json:"content" binding:"required"`
	Rating   int    `json:"rating" binding:"omitempty,min=1,max=5"`
	IsPublic *bool  `json:"is_public"`
}

// UpdatePostInput holds the editable review fields.
type UpdatePostInput struct {
	Title    *string `json:"title" binding:"omitempty,max=255"`
	Content  *string `json:"content"`
	Rating   *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	IsPublic *bool   `json:"is_public"`
}

// ListPostsInput filters the review feed.
type ListPostsInput struct {
	ViewerID string
	UserID   string
	BookID   string
	Page     int
	Limit    int
}

// PostService owns book reviews and their likes. Deletion is a soft
// transition to the deleted status; rows stay behind for retention cleanup.
type PostService struct {
	db       *gorm.DB
	notifier *NotificationService
	dispatch func(fn func())
	log      *zap.Logger
}

func NewPostService(db *gorm.DB, notifier *NotificationService) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}
	return &PostService{
		db:       db,
		notifier: notifier,
		dispatch: func(fn func()) { go fn() },
		log:      logger.WithModule("posts"),
	}, nil
}

// Create stores a new review for the given book.
func (s *PostService) Create(ctx context.Context, authorID string, input CreatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	var book models.Book
	if err := s.db.WithContext(ctx).Where("id = ?", input.BookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Book not found")
		}
		return nil, apperrors.Wrap(err, "load book")
	}

	post := models.Post{
		UserID:   authorID,
		BookID:   input.BookID,
		Title:    input.Title,
		Content:  input.Content,
		Rating:   input.Rating,
		IsPublic: true,
		Status:   models.StatusActive,
	}
	if input.IsPublic != nil {
		post.IsPublic = *input.IsPublic
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, apperrors.Wrap(err, "create post")
	}

	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("user_id", authorID))
	return s.Get(ctx, authorID, post.ID)
}

// Get loads a single active review visible to the viewer.
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	ctx = ensureContext(ctx)

	var post models.Post
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("User").
		Preload("Book").
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Post not found")
		}
		return nil, apperrors.Wrap(err, "load post")
	}

	if !post.IsPublic && post.UserID != viewerID {
		return nil, apperrors.ErrNotFound.WithMessage("Post not found")
	}
	return &post, nil
}

// List returns active reviews, newest first, optionally filtered by author or
// book. Private reviews only surface for their author.
func (s *PostService) List(ctx context.Context, input ListPostsInput) ([]models.Post, int64, error) {
	ctx = ensureContext(ctx)
	page, limit := normalisePage(input.Page, input.Limit)

	query := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(models.Active)
	if input.UserID != "" {
		query = query.Where("user_id = ?", input.UserID)
	}
	if input.BookID != "" {
		query = query.Where("book_id = ?", input.BookID)
	}
	if input.ViewerID == "" {
		query = query.Where("is_public = ?", true)
	} else {
		query = query.Where("is_public = ? OR user_id = ?", true, input.ViewerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count posts")
	}

	var posts []models.Post
	if err := query.
		Preload("User").
		Preload("Book").
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&posts).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list posts")
	}
	return posts, total, nil
}

// Update edits a review. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actorID, postID string, input UpdatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	post, err := s.loadOwned(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(err, "update post")
		}
	}
	return s.Get(ctx, actorID, postID)
}

// Delete soft-deletes a review. The row and its likes stay behind until the
// retention cleaner removes them.
func (s *PostService) Delete(ctx context.Context, actorID, postID string) error {
	ctx = ensureContext(ctx)

	post, err := s.loadOwned(ctx, actorID, postID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(post).Update("status", models.StatusDeleted).Error; err != nil {
		return apperrors.Wrap(err, "delete post")
	}

	s.log.Info("post deleted", zap.String("post_id", postID), zap.String("user_id", actorID))
	return nil
}

// Like records that the actor liked the post and fans out a notification to
// the post owner. Liking twice is a conflict.
func (s *PostService) Like(ctx context.Context, actorID, postID string) error {
	ctx = ensureContext(ctx)

	post, err := s.Get(ctx, actorID, postID)
	if err != nil {
		return err
	}

	like := models.Like{UserID: actorID, PostID: post.ID}
	if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return apperrors.ErrAlreadyLiked
		}
		return apperrors.Wrap(err, "create like")
	}

	if s.notifier != nil {
		s.dispatch(func() {
			s.notifier.NotifyLike(context.Background(), post.ID, actorID)
		})
	}
	return nil
}

// Unlike removes the actor's like. A missing like is a not-found error.
func (s *PostService) Unlike(ctx context.Context, actorID, postID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", actorID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "delete like")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Like not found")
	}
	return nil
}

// LikeCount returns how many likes an active post has.
func (s *PostService) LikeCount(ctx context.Context, postID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "count likes")
	}
	return count, nil
}

func (s *PostService) loadOwned(ctx context.Context, actorID, postID string) (*models.Post, error) {
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
	if post.UserID != actorID {
		return nil, apperrors.ErrForbidden.WithMessage("You can only modify your own posts")
	}
	return &post, nil
}
