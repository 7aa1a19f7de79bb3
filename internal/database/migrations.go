package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Book{},
		&models.LibraryBook{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Notification{},
		&models.BookRecommendation{},
		&models.Group{},
		&models.GroupMember{},
		&models.ReadingGoal{},
	)
}

// SeedData populates a small starter book catalogue for fresh installs.
func SeedData(db *gorm.DB) error {
	books := []models.Book{
		{
			BaseModel:  models.BaseModel{ID: "seed-book-demian"},
			ISBN:       "9780060931919",
			Title:      "Demian",
			Authors:    datatypes.NewJSONSlice([]string{"Hermann Hesse"}),
			Categories: datatypes.NewJSONSlice([]string{"Fiction", "Classics"}),
		},
		{
			BaseModel:  models.BaseModel{ID: "seed-book-vegetarian"},
			ISBN:       "9781101906118",
			Title:      "The Vegetarian",
			Authors:    datatypes.NewJSONSlice([]string{"Han Kang"}),
			Categories: datatypes.NewJSONSlice([]string{"Fiction", "Contemporary"}),
		},
		{
			BaseModel:  models.BaseModel{ID: "seed-book-pachinko"},
			ISBN:       "9781455563937",
			Title:      "Pachinko",
			Authors:    datatypes.NewJSONSlice([]string{"Min Jin Lee"}),
			Categories: datatypes.NewJSONSlice([]string{"Fiction", "Historical"}),
		},
	}

	for _, book := range books {
		if err := db.Where(models.Book{ISBN: book.ISBN}).Attrs(book).FirstOrCreate(&models.Book{}).Error; err != nil {
			return err
		}
	}

	return nil
}
