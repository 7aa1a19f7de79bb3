package models

import "time"

// GroupRole describes a member's standing inside a reading group.
type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "admin"
	GroupRoleMember GroupRole = "member"
)

// MemberStatus tracks whether a membership is live or abandoned. Rows are
// never deleted on leave so a rejoin can restore history.
type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

// Group is a reading group users join to read together.
type Group struct {
	BaseModel

	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsPublic    bool   `gorm:"default:true" json:"is_public"`
	IsActive    bool   `gorm:"default:true;index" json:"is_active"`
	MaxMembers  int    `gorm:"default:50" json:"max_members"`
	CreatorID   string `gorm:"type:uuid;not null;index" json:"creator_id"`

	Creator *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

func (Group) TableName() string { return "reading_groups" }

// GroupMember is the membership edge between a user and a group. At most one
// row per (group, user); leaving flips Status instead of removing the row.
type GroupMember struct {
	BaseModel

	GroupID string       `gorm:"type:uuid;not null;index;uniqueIndex:ux_group_member" json:"group_id"`
	UserID  string       `gorm:"type:uuid;not null;uniqueIndex:ux_group_member" json:"user_id"`
	Role    GroupRole    `gorm:"type:varchar(16);default:'member'" json:"role"`
	Status  MemberStatus `gorm:"type:varchar(16);default:'active';index" json:"status"`

	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupMember) TableName() string { return "group_members" }
