package models

// Post is a book review written by a user.
type Post struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID string `gorm:"type:uuid;not null;index" json:"book_id"`

	Title    string        `gorm:"type:varchar(255)" json:"title"`
	Content  string        `gorm:"type:text;not null" json:"content"`
	Rating   int           `gorm:"default:0" json:"rating"`
	IsPublic bool          `gorm:"default:true" json:"is_public"`
	Status   ContentStatus `gorm:"type:varchar(16);default:'active';index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Post) TableName() string { return "posts" }

// Like marks that a user liked a post. At most one like per (user, post).
type Like struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;uniqueIndex:ux_like_user_post" json:"user_id"`
	PostID string `gorm:"type:uuid;not null;index;uniqueIndex:ux_like_user_post" json:"post_id"`
}

func (Like) TableName() string { return "likes" }
