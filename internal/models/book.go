package models

import (
	"time"

	"gorm.io/datatypes"
)

// Book is a catalogue entry reviews and recommendations refer to.
type Book struct {
	BaseModel

	ISBN        string                      `gorm:"type:varchar(13);uniqueIndex" json:"isbn"`
	Title       string                      `gorm:"type:varchar(255);not null" json:"title"`
	Authors     datatypes.JSONSlice[string] `json:"authors"`
	Categories  datatypes.JSONSlice[string] `json:"categories"`
	Publisher   string                      `gorm:"type:varchar(255)" json:"publisher"`
	Thumbnail   string                      `gorm:"type:text" json:"thumbnail"`
	Description string                      `gorm:"type:text" json:"description"`
	PageCount   int                         `gorm:"default:0" json:"page_count"`
}

func (Book) TableName() string { return "books" }

// LibraryStatus tracks reading progress within a personal library.
type LibraryStatus string

const (
	LibraryWantToRead LibraryStatus = "want_to_read"
	LibraryReading    LibraryStatus = "reading"
	LibraryCompleted  LibraryStatus = "completed"
)

// LibraryBook records a book a user keeps in their personal library.
// StartedAt and FinishedAt capture when the reading status transitioned; they
// feed reading goals and statistics.
type LibraryBook struct {
	BaseModel

	UserID string        `gorm:"type:uuid;not null;index;uniqueIndex:ux_library_user_book" json:"user_id"`
	BookID string        `gorm:"type:uuid;not null;uniqueIndex:ux_library_user_book" json:"book_id"`
	Status LibraryStatus `gorm:"type:varchar(16);default:'want_to_read';index" json:"status"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"index" json:"finished_at,omitempty"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (LibraryBook) TableName() string { return "library_books" }
