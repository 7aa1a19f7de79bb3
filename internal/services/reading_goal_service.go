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

const (
	minGoalYear = 2020
	maxGoalYear = 2030

	defaultBooksTarget = 12
	defaultPagesTarget = 3000
)

// SetGoalInput carries the yearly targets. Omitted fields keep their current
// value (or the defaults on first set).
type SetGoalInput struct {
	BooksTarget *int `json:"books_target" binding:"omitempty,min=0,max=1000"`
	PagesTarget *int `json:"pages_target" binding:"omitempty,min=0,max=100000"`
}

// GoalProgress is the derived completion state of a yearly goal.
type GoalProgress struct {
	BooksRead       int64 `json:"books_read"`
	PagesRead       int64 `json:"pages_read"`
	BooksProgress   int   `json:"books_progress"`
	PagesProgress   int   `json:"pages_progress"`
	OverallProgress int   `json:"overall_progress"`
}

// GoalWithProgress pairs a stored goal with its live progress.
type GoalWithProgress struct {
	models.ReadingGoal
	Progress GoalProgress `json:"progress"`
}

// ReadingGoalService manages per-year reading targets. Progress is always
// recomputed from the library; nothing derived is persisted.
type ReadingGoalService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReadingGoalService(db *gorm.DB) (*ReadingGoalService, error) {
	if db == nil {
		return nil, errors.New("reading goal service: db is required")
	}
	return &ReadingGoalService{db: db, log: logger.WithModule("goals")}, nil
}

// Get returns the goal for a year, creating one with default targets when the
// user has not set any yet.
func (s *ReadingGoalService) Get(ctx context.Context, userID string, year int) (*GoalWithProgress, error) {
	ctx = ensureContext(ctx)

	if err := validateGoalYear(year); err != nil {
		return nil, err
	}

	var goal models.ReadingGoal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		goal = models.ReadingGoal{
			UserID:      userID,
			Year:        year,
			BooksTarget: defaultBooksTarget,
			PagesTarget: defaultPagesTarget,
		}
		if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
			return nil, apperrors.Wrap(err, "create default goal")
		}
	} else if err != nil {
		return nil, apperrors.Wrap(err, "load goal")
	}

	return s.withProgress(ctx, goal)
}

// Set creates or updates the targets for a year.
func (s *ReadingGoalService) Set(ctx context.Context, userID string, year int, input SetGoalInput) (*GoalWithProgress, error) {
	ctx = ensureContext(ctx)

	if err := validateGoalYear(year); err != nil {
		return nil, err
	}

	var goal models.ReadingGoal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&goal).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		goal = models.ReadingGoal{
			UserID:      userID,
			Year:        year,
			BooksTarget: defaultBooksTarget,
			PagesTarget: defaultPagesTarget,
		}
		if input.BooksTarget != nil {
			goal.BooksTarget = *input.BooksTarget
		}
		if input.PagesTarget != nil {
			goal.PagesTarget = *input.PagesTarget
		}
		if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
			return nil, apperrors.Wrap(err, "create goal")
		}
	case err == nil:
		updates := map[string]interface{}{}
		if input.BooksTarget != nil {
			updates["books_target"] = *input.BooksTarget
			goal.BooksTarget = *input.BooksTarget
		}
		if input.PagesTarget != nil {
			updates["pages_target"] = *input.PagesTarget
			goal.PagesTarget = *input.PagesTarget
		}
		if len(updates) > 0 {
			if err := s.db.WithContext(ctx).Model(&goal).Updates(updates).Error; err != nil {
				return nil, apperrors.Wrap(err, "update goal")
			}
		}
	default:
		return nil, apperrors.Wrap(err, "load goal")
	}

	s.log.Info("reading goal set",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("books_target", goal.BooksTarget),
		zap.Int("pages_target", goal.PagesTarget),
	)
	return s.withProgress(ctx, goal)
}

// List returns all of the user's goals, newest year first.
func (s *ReadingGoalService) List(ctx context.Context, userID string, page, limit int) ([]GoalWithProgress, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.ReadingGoal{}).
		Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count goals")
	}

	var goals []models.ReadingGoal
	if err := base.
		Order("year DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&goals).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list goals")
	}

	results := make([]GoalWithProgress, 0, len(goals))
	for _, goal := range goals {
		withProgress, err := s.withProgress(ctx, goal)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *withProgress)
	}
	return results, total, nil
}

// Delete removes the goal for a year.
func (s *ReadingGoalService) Delete(ctx context.Context, userID string, year int) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		Delete(&models.ReadingGoal{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "delete goal")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Reading goal not found")
	}
	return nil
}

func (s *ReadingGoalService) withProgress(ctx context.Context, goal models.ReadingGoal) (*GoalWithProgress, error) {
	booksRead, pagesRead, err := yearlyReadingTotals(ctx, s.db, goal.UserID, goal.Year)
	if err != nil {
		return nil, err
	}

	progress := GoalProgress{
		BooksRead:     booksRead,
		PagesRead:     pagesRead,
		BooksProgress: progressPercent(booksRead, goal.BooksTarget),
		PagesProgress: progressPercent(pagesRead, goal.PagesTarget),
	}
	progress.OverallProgress = (progress.BooksProgress + progress.PagesProgress) / 2

	return &GoalWithProgress{ReadingGoal: goal, Progress: progress}, nil
}

// yearlyReadingTotals counts the books finished within a calendar year and
// sums their page counts.
func yearlyReadingTotals(ctx context.Context, db *gorm.DB, userID string, year int) (int64, int64, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	base := db.WithContext(ctx).
		Model(&models.LibraryBook{}).
		Where("user_id = ? AND status = ?", userID, models.LibraryCompleted).
		Where("finished_at >= ? AND finished_at < ?", start, end)

	var books int64
	if err := base.Count(&books).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "count finished books")
	}

	var pages int64
	err := db.WithContext(ctx).
		Model(&models.LibraryBook{}).
		Select("COALESCE(SUM(books.page_count), 0)").
		Joins("JOIN books ON books.id = library_books.book_id").
		Where("library_books.user_id = ? AND library_books.status = ?", userID, models.LibraryCompleted).
		Where("library_books.finished_at >= ? AND library_books.finished_at < ?", start, end).
		Scan(&pages).Error
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "sum finished pages")
	}

	return books, pages, nil
}

func progressPercent(done int64, target int) int {
	if target <= 0 {
		return 0
	}
	return int(float64(done)/float64(target)*100 + 0.5)
}

func validateGoalYear(year int) error {
	if year < minGoalYear || year > maxGoalYear {
		return apperrors.NewBadRequest("Year is outside the supported range")
	}
	return nil
}
