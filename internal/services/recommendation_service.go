package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
)

const (
	topCategoryCount = 5
	topAuthorCount   = 3
	// authorWeight makes a shared author count double a shared category when
	// scoring candidate books.
	authorWeight = 2
)

// RecommendInput captures a direct user-to-user book tip.
type RecommendInput struct {
	ToUserID string `json:"to_user_id" binding:"required,uuid"`
	BookID   string `json:"book_id" binding:"required,uuid"`
	Reason   string `json:"reason" binding:"omitempty,max=2000"`
}

// RecommendationFeedbackInput carries the recipient's response to a tip.
type RecommendationFeedbackInput struct {
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback" binding:"omitempty,max=2000"`
}

// ScoredBook pairs a catalogue entry with its personal relevance score.
type ScoredBook struct {
	Book  models.Book `json:"book"`
	Score int         `json:"score"`
}

// RecommendationService handles direct book tips between users and the
// personalised suggestion feed derived from a user's library.
type RecommendationService struct {
	db       *gorm.DB
	notifier *NotificationService
	dispatch func(fn func())
	log      *zap.Logger
}

func NewRecommendationService(db *gorm.DB, notifier *NotificationService) (*RecommendationService, error) {
	if db == nil {
		return nil, errors.New("recommendation service: db is required")
	}
	return &RecommendationService{
		db:       db,
		notifier: notifier,
		dispatch: func(fn func()) { go fn() },
		log:      logger.WithModule("recommendations"),
	}, nil
}

// Recommend records a tip from the actor to another user. A user may tip a
// given book to the same recipient only once.
func (s *RecommendationService) Recommend(ctx context.Context, actorID string, input RecommendInput) (*models.BookRecommendation, error) {
	ctx = ensureContext(ctx)

	if actorID == input.ToUserID {
		return nil, apperrors.ErrSelfRecommend
	}

	if _, err := loadActiveUser(ctx, s.db, input.ToUserID); err != nil {
		return nil, err
	}

	var book models.Book
	if err := s.db.WithContext(ctx).Where("id = ?", input.BookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Book not found")
		}
		return nil, apperrors.Wrap(err, "load book")
	}

	reco := models.BookRecommendation{
		FromUserID: actorID,
		ToUserID:   input.ToUserID,
		BookID:     input.BookID,
		Reason:     input.Reason,
	}
	if err := s.db.WithContext(ctx).Create(&reco).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("You already recommended this book to this user")
		}
		return nil, apperrors.Wrap(err, "create recommendation")
	}

	s.log.Info("recommendation created",
		zap.String("from_user_id", actorID),
		zap.String("to_user_id", input.ToUserID),
		zap.String("book_id", input.BookID),
	)

	if s.notifier != nil {
		recoID := reco.ID
		s.dispatch(func() {
			s.notifyRecommendation(context.Background(), recoID, actorID, input.ToUserID, book.Title)
		})
	}

	reco.Book = &book
	return &reco, nil
}

// SubmitFeedback records the recipient's reaction and tells the sender.
func (s *RecommendationService) SubmitFeedback(ctx context.Context, actorID, recommendationID string, input RecommendationFeedbackInput) (*models.BookRecommendation, error) {
	ctx = ensureContext(ctx)

	var reco models.BookRecommendation
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("id = ? AND to_user_id = ?", recommendationID, actorID).
		First(&reco).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Recommendation not found")
		}
		return nil, apperrors.Wrap(err, "load recommendation")
	}

	updates := map[string]interface{}{
		"feedback": input.Feedback,
		"is_read":  true,
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if err := s.db.WithContext(ctx).Model(&reco).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(err, "update recommendation")
	}

	reco.Feedback = input.Feedback
	reco.Rating = input.Rating
	reco.IsRead = true

	if s.notifier != nil {
		senderID := reco.FromUserID
		recipientID := reco.ToUserID
		recoID := reco.ID
		title := ""
		if reco.Book != nil {
			title = reco.Book.Title
		}
		s.dispatch(func() {
			s.notifyFeedback(context.Background(), recoID, recipientID, senderID, title)
		})
	}

	return &reco, nil
}

// MarkRead flags a received tip as seen without submitting feedback.
func (s *RecommendationService) MarkRead(ctx context.Context, actorID, recommendationID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.BookRecommendation{}).
		Where("id = ? AND to_user_id = ?", recommendationID, actorID).
		Update("is_read", true)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "mark recommendation read")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Recommendation not found")
	}
	return nil
}

// ListReceived returns the tips sent to the actor, newest first.
func (s *RecommendationService) ListReceived(ctx context.Context, actorID string, page, limit int) ([]models.BookRecommendation, int64, error) {
	return s.list(ctx, "to_user_id", actorID, page, limit)
}

// ListSent returns the tips the actor sent, newest first.
func (s *RecommendationService) ListSent(ctx context.Context, actorID string, page, limit int) ([]models.BookRecommendation, int64, error) {
	return s.list(ctx, "from_user_id", actorID, page, limit)
}

func (s *RecommendationService) list(ctx context.Context, column, userID string, page, limit int) ([]models.BookRecommendation, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.BookRecommendation{}).
		Where(fmt.Sprintf("%s = ?", column), userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count recommendations")
	}

	var recos []models.BookRecommendation
	if err := base.
		Preload("Book").
		Preload("FromUser").
		Preload("ToUser").
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&recos).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list recommendations")
	}
	return recos, total, nil
}

// Personalized suggests catalogue books based on the actor's library. It
// tallies category and author frequencies over the library, keeps the top
// categories and authors, and scores every book the user has not shelved.
// Users with an empty library fall back to the most reviewed books.
func (s *RecommendationService) Personalized(ctx context.Context, actorID string, limit int) ([]ScoredBook, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 10
	}

	var shelved []models.LibraryBook
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", actorID).
		Find(&shelved).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "load library")
	}

	if len(shelved) == 0 {
		return s.popular(ctx, nil, limit)
	}

	categoryFreq := map[string]int{}
	authorFreq := map[string]int{}
	shelvedIDs := make([]string, 0, len(shelved))
	for _, entry := range shelved {
		shelvedIDs = append(shelvedIDs, entry.BookID)
		if entry.Book == nil {
			continue
		}
		for _, category := range entry.Book.Categories {
			categoryFreq[category]++
		}
		for _, author := range entry.Book.Authors {
			authorFreq[author]++
		}
	}

	topCategories := topKeys(categoryFreq, topCategoryCount)
	topAuthors := topKeys(authorFreq, topAuthorCount)

	var candidates []models.Book
	err = s.db.WithContext(ctx).
		Where("id NOT IN ?", shelvedIDs).
		Find(&candidates).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "load candidates")
	}

	scored := make([]ScoredBook, 0, len(candidates))
	for _, book := range candidates {
		score := 0
		for _, category := range book.Categories {
			if _, ok := topCategories[category]; ok {
				score++
			}
		}
		for _, author := range book.Authors {
			if _, ok := topAuthors[author]; ok {
				score += authorWeight
			}
		}
		if score > 0 {
			scored = append(scored, ScoredBook{Book: book, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Book.CreatedAt.After(scored[j].Book.CreatedAt)
	})

	if len(scored) == 0 {
		return s.popular(ctx, shelvedIDs, limit)
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// popular ranks books by active review count, excluding already shelved ones.
func (s *RecommendationService) popular(ctx context.Context, excludeIDs []string, limit int) ([]ScoredBook, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Select("books.*, COUNT(posts.id) AS review_count").
		Joins("LEFT JOIN posts ON posts.book_id = books.id AND posts.status = ?", models.StatusActive).
		Group("books.id").
		Order("review_count DESC, books.created_at DESC").
		Limit(limit)
	if len(excludeIDs) > 0 {
		query = query.Where("books.id NOT IN ?", excludeIDs)
	}

	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, apperrors.Wrap(err, "load popular books")
	}

	scored := make([]ScoredBook, 0, len(books))
	for _, book := range books {
		scored = append(scored, ScoredBook{Book: book})
	}
	return scored, nil
}

func (s *RecommendationService) notifyRecommendation(ctx context.Context, recoID, fromUserID, toUserID, bookTitle string) {
	sender, err := loadActiveUser(ctx, s.db, fromUserID)
	if err != nil {
		s.log.Warn("recommendation fan-out: load sender", zap.String("user_id", fromUserID), zap.Error(err))
		return
	}
	s.notifier.Create(ctx, CreateNotificationInput{
		RecipientID: toUserID,
		SenderID:    fromUserID,
		Type:        models.NotificationRecommendation,
		Title:       "New book recommendation",
		Content:     fmt.Sprintf("%s recommended %q to you.", sender.DisplayName(), bookTitle),
		RelatedID:   recoID,
	})
}

func (s *RecommendationService) notifyFeedback(ctx context.Context, recoID, fromUserID, toUserID, bookTitle string) {
	responder, err := loadActiveUser(ctx, s.db, fromUserID)
	if err != nil {
		s.log.Warn("feedback fan-out: load responder", zap.String("user_id", fromUserID), zap.Error(err))
		return
	}
	s.notifier.Create(ctx, CreateNotificationInput{
		RecipientID: toUserID,
		SenderID:    fromUserID,
		Type:        models.NotificationRecommendationFeedback,
		Title:       "Feedback on your recommendation",
		Content:     fmt.Sprintf("%s responded to your recommendation of %q.", responder.DisplayName(), bookTitle),
		RelatedID:   recoID,
	})
}

// topKeys keeps the k highest-frequency keys. Ties resolve alphabetically so
// the selection is deterministic.
func topKeys(freq map[string]int, k int) map[string]struct{} {
	type pair struct {
		key   string
		count int
	}
	pairs := make([]pair, 0, len(freq))
	for key, count := range freq {
		pairs = append(pairs, pair{key, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].key < pairs[j].key
	})
	if len(pairs) > k {
		pairs = pairs[:k]
	}

	keys := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		keys[p.key] = struct{}{}
	}
	return keys
}
