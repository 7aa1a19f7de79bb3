package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

func TestStatisticsService_Overview(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")

	march := createPagedBook(t, db, "March Read", 200)
	august := createPagedBook(t, db, "August Read", 350)
	finishBook(t, db, alice, march,
		time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC))
	finishBook(t, db, alice, august,
		time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC))

	reading := createTestBook(t, db, "In Progress", []string{"Author"}, nil)
	require.NoError(t, db.Create(&models.LibraryBook{
		UserID: alice.ID,
		BookID: reading.ID,
		Status: models.LibraryReading,
	}).Error)
	queued := createTestBook(t, db, "Someday", []string{"Author"}, nil)
	require.NoError(t, db.Create(&models.LibraryBook{
		UserID: alice.ID,
		BookID: queued.ID,
		Status: models.LibraryWantToRead,
	}).Error)

	overview, err := svc.Overview(context.Background(), alice.ID, 2025)
	require.NoError(t, err)

	require.EqualValues(t, 4, overview.Summary.Total)
	require.EqualValues(t, 2, overview.Summary.Completed)
	require.EqualValues(t, 1, overview.Summary.Reading)
	require.EqualValues(t, 1, overview.Summary.WantToRead)

	require.Len(t, overview.Monthly, 12)
	require.Equal(t, 1, overview.Monthly[2].Count)
	require.Equal(t, "March Read", overview.Monthly[2].Books[0].Title)
	require.Equal(t, 1, overview.Monthly[7].Count)
	require.Zero(t, overview.Monthly[0].Count)

	// no goal set, so no snapshot
	require.Nil(t, overview.Goal)
}

func TestStatisticsService_OverviewGoalSnapshotIsYearScoped(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")

	current := createPagedBook(t, db, "This Year", 200)
	older := createPagedBook(t, db, "Last Year", 200)
	finishBook(t, db, alice, current,
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC))
	finishBook(t, db, alice, older,
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC))

	require.NoError(t, db.Create(&models.ReadingGoal{
		UserID:      alice.ID,
		Year:        2025,
		BooksTarget: 4,
		PagesTarget: 1000,
	}).Error)

	overview, err := svc.Overview(context.Background(), alice.ID, 2025)
	require.NoError(t, err)
	require.NotNil(t, overview.Goal)
	require.Equal(t, 4, overview.Goal.Target)
	require.EqualValues(t, 1, overview.Goal.Completed)
	require.Equal(t, 25, overview.Goal.Percentage)
}

func TestStatisticsService_OverviewDefaultsToCurrentYear(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) }

	alice := createTestUser(t, db, "alice")

	overview, err := svc.Overview(context.Background(), alice.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 2026, overview.Year)
}

func TestStatisticsService_TrendsBucketsAndSpeed(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)

	now := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	alice := createTestUser(t, db, "alice")

	recent := createPagedBook(t, db, "Recent", 300)
	finishBook(t, db, alice, recent, now.AddDate(0, 0, -12), now.AddDate(0, 0, -2))

	stale := createPagedBook(t, db, "Stale", 400)
	finishBook(t, db, alice, stale, now.AddDate(0, -8, 0), now.AddDate(0, -7, 0))

	trends, err := svc.Trends(context.Background(), alice.ID, TrendThreeMonths)
	require.NoError(t, err)
	require.Equal(t, TrendThreeMonths, trends.Period)
	require.Len(t, trends.Buckets, 13)

	var counted int
	for _, bucket := range trends.Buckets {
		counted += bucket.Count
	}
	// only the recent finish falls inside the window
	require.Equal(t, 1, counted)

	require.Len(t, trends.Speeds, 1)
	require.Equal(t, "Recent", trends.Speeds[0].Title)
	require.Equal(t, 10, trends.Speeds[0].Days)
	require.InDelta(t, 30.0, trends.Speeds[0].PagesPerDay, 0.01)
	require.InDelta(t, 30.0, trends.AveragePagesPerDay, 0.01)
}

func TestStatisticsService_TrendsOneYearUsesMonthlyBuckets(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)

	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	alice := createTestUser(t, db, "alice")
	book := createPagedBook(t, db, "Winter Read", 250)
	finishBook(t, db, alice, book,
		time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC))

	trends, err := svc.Trends(context.Background(), alice.ID, TrendOneYear)
	require.NoError(t, err)
	require.Len(t, trends.Buckets, 12)

	// December 2024 sits six buckets before June 2025
	require.Equal(t, 1, trends.Buckets[5].Count)
}

func TestStatisticsService_TrendsRejectsUnknownPeriod(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewStatisticsService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")

	_, err = svc.Trends(context.Background(), alice.ID, "decade")
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)
}
