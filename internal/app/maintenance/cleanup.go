package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	"github.com/readzone/readzone-server/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 90
	defaultContentRetentionDays      = 30
	defaultNotificationSpec          = "@daily"
	defaultContentSpec               = "@daily"
)

// Cleaner coordinates background maintenance: pruning read notifications past
// their retention window and hard-deleting content that was soft-deleted long
// enough ago that nothing references it anymore.
type Cleaner struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	notificationRetention int
	contentRetention      int
	notificationSchedule  string
	contentSchedule       string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithNotificationRetentionDays adjusts how long read notifications are kept.
func WithNotificationRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.notificationRetention = days
		}
	}
}

// WithContentRetentionDays adjusts how long soft-deleted content lingers
// before it is removed for good.
func WithContentRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.contentRetention = days
		}
	}
}

// WithNotificationSchedule overrides the cron specification for notification pruning.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// WithContentSchedule overrides the cron specification for content purging.
func WithContentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.contentSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                    db,
		now:                   time.Now,
		notificationRetention: defaultNotificationRetentionDays,
		contentRetention:      defaultContentRetentionDays,
		notificationSchedule:  defaultNotificationSpec,
		contentSchedule:       defaultContentSpec,
		log:                   logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.notificationSchedule, func() {
		if _, err := PruneReadNotifications(context.Background(), c.db, c.cutoff(c.notificationRetention)); err != nil {
			c.log.Warn("notification cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := c.cron.AddFunc(c.contentSchedule, func() {
		if _, err := PurgeDeletedContent(context.Background(), c.db, c.cutoff(c.contentRetention)); err != nil {
			c.log.Warn("content cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.db == nil {
		return nil
	}

	var errs error

	if _, err := PruneReadNotifications(ctx, c.db, c.cutoff(c.notificationRetention)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := PurgeDeletedContent(ctx, c.db, c.cutoff(c.contentRetention)); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

func (c *Cleaner) cutoff(days int) time.Time {
	return c.now().AddDate(0, 0, -days)
}

// PruneReadNotifications removes notifications that were read before the cutoff.
func PruneReadNotifications(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("prune notifications: db is required")
	}

	result := db.WithContext(ctx).
		Where("is_read = ? AND read_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ContentPurgeStats counts rows removed per table.
type ContentPurgeStats struct {
	Posts    int64
	Comments int64
	Likes    int64
}

// PurgeDeletedContent hard-deletes posts and comments that were soft-deleted
// before the cutoff, along with likes that pointed at purged posts.
func PurgeDeletedContent(ctx context.Context, db *gorm.DB, cutoff time.Time) (ContentPurgeStats, error) {
	if db == nil {
		return ContentPurgeStats{}, errors.New("purge content: db is required")
	}

	stats := ContentPurgeStats{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).
			Where("status = ? AND updated_at < ?", models.StatusDeleted, cutoff).
			Pluck("id", &postIDs).Error; err != nil {
			return fmt.Errorf("collect deleted posts: %w", err)
		}

		if len(postIDs) > 0 {
			if result := tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}); result.Error != nil {
				return fmt.Errorf("purge likes: %w", result.Error)
			} else {
				stats.Likes = result.RowsAffected
			}
			if result := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}); result.Error != nil {
				return fmt.Errorf("purge post comments: %w", result.Error)
			} else {
				stats.Comments += result.RowsAffected
			}
			if result := tx.Where("id IN ?", postIDs).Delete(&models.Post{}); result.Error != nil {
				return fmt.Errorf("purge posts: %w", result.Error)
			} else {
				stats.Posts = result.RowsAffected
			}
		}

		if result := tx.Where("status = ? AND updated_at < ?", models.StatusDeleted, cutoff).
			Delete(&models.Comment{}); result.Error != nil {
			return fmt.Errorf("purge comments: %w", result.Error)
		} else {
			stats.Comments += result.RowsAffected
		}

		return nil
	})
	if err != nil {
		return ContentPurgeStats{}, err
	}

	return stats, nil
}
