package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

// TrendPeriod selects the lookback window for reading trends.
type TrendPeriod string

const (
	TrendThreeMonths TrendPeriod = "3months"
	TrendSixMonths   TrendPeriod = "6months"
	TrendOneYear     TrendPeriod = "1year"
)

// LibrarySummary counts a user's library entries by status.
type LibrarySummary struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Reading    int64 `json:"reading"`
	WantToRead int64 `json:"want_to_read"`
}

// FinishedBook is the slim projection used inside monthly buckets.
type FinishedBook struct {
	Title      string     `json:"title"`
	Authors    []string   `json:"authors"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	FinishedAt *time.Time `json:"finished_at"`
}

// MonthlyBucket groups books finished within one calendar month.
type MonthlyBucket struct {
	Month time.Month     `json:"month"`
	Count int            `json:"count"`
	Books []FinishedBook `json:"books"`
}

// GoalSnapshot summarises yearly goal attainment for the overview.
type GoalSnapshot struct {
	Target     int   `json:"target"`
	Completed  int64 `json:"completed"`
	Percentage int   `json:"percentage"`
}

// Overview is the per-year statistics payload.
type Overview struct {
	Year    int             `json:"year"`
	Summary LibrarySummary  `json:"summary"`
	Monthly []MonthlyBucket `json:"monthly"`
	Goal    *GoalSnapshot   `json:"goal,omitempty"`
}

// TrendBucket counts books finished within one trend interval.
type TrendBucket struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

// ReadingSpeed describes how quickly a single book was read. Days is at
// least one so a same-day finish still yields a rate.
type ReadingSpeed struct {
	Title       string  `json:"title"`
	Days        int     `json:"days"`
	PagesPerDay float64 `json:"pages_per_day"`
}

// Trends is the rolling-window statistics payload.
type Trends struct {
	Period             TrendPeriod    `json:"period"`
	Buckets            []TrendBucket  `json:"buckets"`
	Speeds             []ReadingSpeed `json:"speeds"`
	AveragePagesPerDay float64        `json:"average_pages_per_day"`
}

// StatisticsService derives reading statistics from the library. It stores
// nothing of its own.
type StatisticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatisticsService(db *gorm.DB) (*StatisticsService, error) {
	if db == nil {
		return nil, errors.New("statistics service: db is required")
	}
	return &StatisticsService{db: db, now: time.Now}, nil
}

// Overview builds the yearly view: status counts, one bucket per month of
// finished books, and goal attainment when the user has a goal for the year.
func (s *StatisticsService) Overview(ctx context.Context, userID string, year int) (*Overview, error) {
	ctx = ensureContext(ctx)

	if year == 0 {
		year = s.now().Year()
	}
	if err := validateGoalYear(year); err != nil {
		return nil, err
	}

	summary, err := s.librarySummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	finished, err := s.finishedBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	monthly := make([]MonthlyBucket, 12)
	for i := range monthly {
		monthly[i] = MonthlyBucket{Month: time.Month(i + 1), Books: []FinishedBook{}}
	}
	for _, entry := range finished {
		idx := int(entry.FinishedAt.UTC().Month()) - 1
		book := FinishedBook{FinishedAt: entry.FinishedAt}
		if entry.Book != nil {
			book.Title = entry.Book.Title
			book.Authors = entry.Book.Authors
			book.Thumbnail = entry.Book.Thumbnail
		}
		monthly[idx].Books = append(monthly[idx].Books, book)
		monthly[idx].Count++
	}

	overview := &Overview{Year: year, Summary: summary, Monthly: monthly}

	var goal models.ReadingGoal
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&goal).Error
	switch {
	case err == nil:
		completed := int64(len(finished))
		overview.Goal = &GoalSnapshot{
			Target:     goal.BooksTarget,
			Completed:  completed,
			Percentage: progressPercent(completed, goal.BooksTarget),
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no goal set for the year
	default:
		return nil, apperrors.Wrap(err, "load goal")
	}

	return overview, nil
}

// Trends reports finish counts over a rolling window plus per-book reading
// speed for the most recently finished books. Short windows use weekly
// buckets; the one-year window uses monthly buckets.
func (s *StatisticsService) Trends(ctx context.Context, userID string, period TrendPeriod) (*Trends, error) {
	ctx = ensureContext(ctx)

	var (
		lookback time.Duration
		bucket   time.Duration
		buckets  int
		monthly  bool
	)
	switch period {
	case TrendThreeMonths, "":
		period, lookback, bucket, buckets = TrendThreeMonths, 91*24*time.Hour, 7*24*time.Hour, 13
	case TrendSixMonths:
		lookback, bucket, buckets = 182*24*time.Hour, 7*24*time.Hour, 26
	case TrendOneYear:
		monthly, buckets = true, 12
	default:
		return nil, apperrors.NewBadRequest("Unknown trend period")
	}

	now := s.now().UTC()
	var start time.Time
	if monthly {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	} else {
		start = now.Add(-lookback)
	}

	finished, err := s.finishedBetween(ctx, userID, start, now.Add(time.Second))
	if err != nil {
		return nil, err
	}

	trends := &Trends{Period: period, Buckets: make([]TrendBucket, buckets)}
	for i := range trends.Buckets {
		if monthly {
			bucketStart := start.AddDate(0, i, 0)
			trends.Buckets[i] = TrendBucket{Start: bucketStart, End: bucketStart.AddDate(0, 1, 0)}
		} else {
			bucketStart := start.Add(time.Duration(i) * bucket)
			trends.Buckets[i] = TrendBucket{Start: bucketStart, End: bucketStart.Add(bucket)}
		}
	}
	for _, entry := range finished {
		at := entry.FinishedAt.UTC()
		for i := range trends.Buckets {
			if !at.Before(trends.Buckets[i].Start) && at.Before(trends.Buckets[i].End) {
				trends.Buckets[i].Count++
				break
			}
		}
	}

	trends.Speeds, trends.AveragePagesPerDay = readingSpeeds(finished)
	return trends, nil
}

func (s *StatisticsService) librarySummary(ctx context.Context, userID string) (LibrarySummary, error) {
	var summary LibrarySummary

	count := func(status *models.LibraryStatus, dest *int64) error {
		query := s.db.WithContext(ctx).
			Model(&models.LibraryBook{}).
			Where("user_id = ?", userID)
		if status != nil {
			query = query.Where("status = ?", *status)
		}
		return query.Count(dest).Error
	}

	if err := count(nil, &summary.Total); err != nil {
		return summary, apperrors.Wrap(err, "count library")
	}
	for status, dest := range map[models.LibraryStatus]*int64{
		models.LibraryCompleted:  &summary.Completed,
		models.LibraryReading:    &summary.Reading,
		models.LibraryWantToRead: &summary.WantToRead,
	} {
		status := status
		if err := count(&status, dest); err != nil {
			return summary, apperrors.Wrap(err, "count library")
		}
	}
	return summary, nil
}

func (s *StatisticsService) finishedBetween(ctx context.Context, userID string, start, end time.Time) ([]models.LibraryBook, error) {
	var entries []models.LibraryBook
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status = ?", userID, models.LibraryCompleted).
		Where("finished_at >= ? AND finished_at < ?", start, end).
		Order("finished_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "load finished books")
	}
	return entries, nil
}

// readingSpeeds derives pages-per-day figures for up to the ten most
// recently finished books that carry both timestamps and a page count.
func readingSpeeds(finished []models.LibraryBook) ([]ReadingSpeed, float64) {
	speeds := make([]ReadingSpeed, 0, 10)
	var sum float64
	for _, entry := range finished {
		if len(speeds) == 10 {
			break
		}
		if entry.StartedAt == nil || entry.FinishedAt == nil || entry.Book == nil || entry.Book.PageCount <= 0 {
			continue
		}
		days := int(math.Ceil(entry.FinishedAt.Sub(*entry.StartedAt).Hours() / 24))
		if days < 1 {
			days = 1
		}
		rate := float64(entry.Book.PageCount) / float64(days)
		speeds = append(speeds, ReadingSpeed{
			Title:       entry.Book.Title,
			Days:        days,
			PagesPerDay: math.Round(rate*10) / 10,
		})
		sum += rate
	}
	if len(speeds) == 0 {
		return speeds, 0
	}
	return speeds, math.Round(sum/float64(len(speeds))*10) / 10
}
