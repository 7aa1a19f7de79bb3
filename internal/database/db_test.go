package database

import (
	"testing"

	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var bookCount int64
	if err := db.Model(&models.Book{}).Count(&bookCount).Error; err != nil {
		t.Fatalf("count books: %v", err)
	}
	if bookCount < 3 {
		t.Fatalf("expected at least 3 seeded books, got %d", bookCount)
	}

	// seeding twice must not duplicate
	if err := SeedData(db); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var after int64
	if err := db.Model(&models.Book{}).Count(&after).Error; err != nil {
		t.Fatalf("count books: %v", err)
	}
	if after != bookCount {
		t.Fatalf("expected idempotent seed, got %d then %d", bookCount, after)
	}
}

func TestFollowPairUniqueIndex(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	first := models.Follow{FollowerID: "user-a", FollowingID: "user-b"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create follow: %v", err)
	}

	dup := models.Follow{FollowerID: "user-a", FollowingID: "user-b"}
	if err := db.Create(&dup).Error; err == nil {
		t.Fatal("expected duplicate follow edge to violate unique index")
	}

	// reverse direction is a distinct edge
	reverse := models.Follow{FollowerID: "user-b", FollowingID: "user-a"}
	if err := db.Create(&reverse).Error; err != nil {
		t.Fatalf("create reverse follow: %v", err)
	}
}
