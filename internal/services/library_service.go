package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
)

// AddBookInput describes a catalogue entry to register.
type AddBookInput struct {
	ISBN        string   `json:"isbn" binding:"omitempty,min=10,max=13"`
	Title       string   `json:"title" binding:"required,max=255"`
	Authors     []string `json:"authors"`
	Categories  []string `json:"categories"`
	Publisher   string   `json:"publisher" binding:"omitempty,max=255"`
	Thumbnail   string   `json:"thumbnail"`
	Description string   `json:"description"`
	PageCount   int      `json:"page_count" binding:"omitempty,min=0,max=100000"`
}

// ShelveInput places a book on the caller's shelf with a reading status.
type ShelveInput struct {
	BookID string               `json:"book_id" binding:"required,uuid"`
	Status models.LibraryStatus `json:"status" binding:"required,oneof=want_to_read reading completed"`
}

// LibraryService owns the book catalogue and each user's personal shelf.
type LibraryService struct {
	db  *gorm.DB
	now func() time.Time
	log *zap.Logger
}

func NewLibraryService(db *gorm.DB) (*LibraryService, error) {
	if db == nil {
		return nil, errors.New("library service: db is required")
	}
	return &LibraryService{db: db, now: time.Now, log: logger.WithModule("library")}, nil
}

// AddBook registers a catalogue entry. When the ISBN is already known the
// existing entry is returned instead of a conflict; the catalogue is shared
// and clients routinely re-submit books found via external search.
func (s *LibraryService) AddBook(ctx context.Context, input AddBookInput) (*models.Book, error) {
	ctx = ensureContext(ctx)

	isbn := strings.TrimSpace(input.ISBN)
	if isbn != "" {
		var existing models.Book
		err := s.db.WithContext(ctx).Where("isbn = ?", isbn).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(err, "load book")
		}
	}

	book := models.Book{
		ISBN:        isbn,
		Title:       strings.TrimSpace(input.Title),
		Authors:     input.Authors,
		Categories:  input.Categories,
		Publisher:   input.Publisher,
		Thumbnail:   input.Thumbnail,
		Description: input.Description,
		PageCount:   input.PageCount,
	}
	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost the race to a concurrent submit of the same ISBN.
			var existing models.Book
			if lookupErr := s.db.WithContext(ctx).Where("isbn = ?", isbn).First(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
			return nil, apperrors.ErrConflict.WithMessage("Book already registered")
		}
		return nil, apperrors.Wrap(err, "create book")
	}

	s.log.Info("book registered", zap.String("book_id", book.ID), zap.String("isbn", isbn))
	return &book, nil
}

// GetBook loads a catalogue entry.
func (s *LibraryService) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	ctx = ensureContext(ctx)

	var book models.Book
	if err := s.db.WithContext(ctx).Where("id = ?", bookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Book not found")
		}
		return nil, apperrors.Wrap(err, "load book")
	}
	return &book, nil
}

// SearchBooks matches catalogue entries by title substring.
func (s *LibraryService) SearchBooks(ctx context.Context, query string, page, limit int) ([]models.Book, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("title LIKE ?", "%"+strings.TrimSpace(query)+"%")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count books")
	}

	var books []models.Book
	if err := base.
		Order("title ASC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&books).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "search books")
	}
	return books, total, nil
}

// Shelve adds a book to the caller's library or updates its reading status
// when already shelved.
func (s *LibraryService) Shelve(ctx context.Context, userID string, input ShelveInput) (*models.LibraryBook, error) {
	ctx = ensureContext(ctx)

	if _, err := s.GetBook(ctx, input.BookID); err != nil {
		return nil, err
	}

	var entry models.LibraryBook
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, input.BookID).
		First(&entry).Error
	switch {
	case err == nil:
		if entry.Status != input.Status {
			updates := map[string]interface{}{"status": input.Status}
			s.stampTransition(&entry, input.Status, updates)
			if err := s.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
				return nil, apperrors.Wrap(err, "update shelf entry")
			}
			entry.Status = input.Status
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.LibraryBook{UserID: userID, BookID: input.BookID, Status: input.Status}
		s.stampTransition(&entry, input.Status, nil)
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.ErrConflict.WithMessage("Book already on your shelf")
			}
			return nil, apperrors.Wrap(err, "create shelf entry")
		}
	default:
		return nil, apperrors.Wrap(err, "load shelf entry")
	}

	if err := s.db.WithContext(ctx).Preload("Book").First(&entry, "id = ?", entry.ID).Error; err != nil {
		return nil, apperrors.Wrap(err, "reload shelf entry")
	}
	return &entry, nil
}

// stampTransition records when reading started or finished. Timestamps are
// set once and kept if the status later moves away, so goal and statistics
// history survives reshuffling the shelf. When updates is non-nil the stamps
// are also mirrored there for the column update path.
func (s *LibraryService) stampTransition(entry *models.LibraryBook, status models.LibraryStatus, updates map[string]interface{}) {
	now := s.now()
	switch status {
	case models.LibraryReading:
		if entry.StartedAt == nil {
			entry.StartedAt = &now
			if updates != nil {
				updates["started_at"] = &now
			}
		}
	case models.LibraryCompleted:
		if entry.StartedAt == nil {
			entry.StartedAt = &now
			if updates != nil {
				updates["started_at"] = &now
			}
		}
		if entry.FinishedAt == nil {
			entry.FinishedAt = &now
			if updates != nil {
				updates["finished_at"] = &now
			}
		}
	}
}

// Unshelve removes a book from the caller's library.
func (s *LibraryService) Unshelve(ctx context.Context, userID, bookID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.LibraryBook{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "delete shelf entry")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("Book is not on your shelf")
	}
	return nil
}

// ListShelf returns the user's library, optionally filtered by status.
func (s *LibraryService) ListShelf(ctx context.Context, userID string, status models.LibraryStatus, page, limit int) ([]models.LibraryBook, int64, error) {
	ctx = ensureContext(ctx)
	page, limit = normalisePage(page, limit)

	base := s.db.WithContext(ctx).
		Model(&models.LibraryBook{}).
		Where("user_id = ?", userID)
	if status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count shelf entries")
	}

	var entries []models.LibraryBook
	if err := base.
		Preload("Book").
		Order("updated_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&entries).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list shelf entries")
	}
	return entries, total, nil
}
