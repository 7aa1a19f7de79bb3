package models

// Comment belongs to a post and may reply to another comment on the same post.
type Comment struct {
	BaseModel

	PostID   string  `gorm:"type:uuid;not null;index" json:"post_id"`
	UserID   string  `gorm:"type:uuid;not null;index" json:"user_id"`
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Content string        `gorm:"type:text;not null" json:"content"`
	Status  ContentStatus `gorm:"type:varchar(16);default:'active';index" json:"-"`

	User    *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

func (Comment) TableName() string { return "comments" }
