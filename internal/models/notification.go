package models

import "time"

// NotificationType enumerates the social events that fan out notifications.
type NotificationType string

const (
	NotificationLike                   NotificationType = "like"
	NotificationComment                NotificationType = "comment"
	NotificationFollow                 NotificationType = "follow"
	NotificationMention                NotificationType = "mention"
	NotificationRecommendation         NotificationType = "recommendation"
	NotificationRecommendationFeedback NotificationType = "recommendation_feedback"
	NotificationGroupJoin              NotificationType = "group_join"
)

// Notification is a single fan-out message to one recipient about one event.
// Title and Content are pre-rendered strings; they are never edited after
// creation. SenderID is nil for system-generated notices.
type Notification struct {
	BaseModel

	RecipientID string           `gorm:"type:uuid;not null;index" json:"recipient_id"`
	SenderID    *string          `gorm:"type:uuid" json:"sender_id,omitempty"`
	Type        NotificationType `gorm:"type:varchar(32);not null;index" json:"type"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Content     string           `gorm:"type:text" json:"content"`
	RelatedID   *string          `gorm:"type:uuid" json:"related_id,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
