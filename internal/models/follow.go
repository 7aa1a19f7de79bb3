package models

// Follow is a directed edge meaning "follower subscribes to following".
// The composite unique index is the authoritative duplicate-follow guard;
// existence of the row is the sole source of truth for the relationship.
type Follow struct {
	BaseModel

	FollowerID  string `gorm:"type:uuid;not null;index;uniqueIndex:ux_follow_pair" json:"follower_id"`
	FollowingID string `gorm:"type:uuid;not null;index;uniqueIndex:ux_follow_pair" json:"following_id"`

	Follower  *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following *User `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}

func (Follow) TableName() string { return "follows" }
