package models

// ReadingGoal is a per-year target of books and pages a user wants to finish.
// Progress is derived from the library on read, never stored.
type ReadingGoal struct {
	BaseModel

	UserID      string `gorm:"type:uuid;not null;index;uniqueIndex:ux_goal_user_year" json:"user_id"`
	Year        int    `gorm:"not null;uniqueIndex:ux_goal_user_year" json:"year"`
	BooksTarget int    `gorm:"default:12" json:"books_target"`
	PagesTarget int    `gorm:"default:3000" json:"pages_target"`
}

func (ReadingGoal) TableName() string { return "reading_goals" }
