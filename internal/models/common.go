package models

import "gorm.io/gorm"

// ContentStatus tracks the lifecycle of user generated content. Soft-deleted
// rows stay in the table so counters and moderation keep working, but every
// read path must filter through Active.
type ContentStatus string

const (
	StatusActive  ContentStatus = "active"
	StatusDeleted ContentStatus = "deleted"
)

// Active is the single visibility predicate for soft-deletable content.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", StatusActive)
}
