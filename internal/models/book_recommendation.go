package models

// BookRecommendation is a direct user-to-user book tip. A user may recommend
// a given book to another user at most once.
type BookRecommendation struct {
	BaseModel

	FromUserID string `gorm:"type:uuid;not null;index;uniqueIndex:ux_reco_triple" json:"from_user_id"`
	ToUserID   string `gorm:"type:uuid;not null;index;uniqueIndex:ux_reco_triple" json:"to_user_id"`
	BookID     string `gorm:"type:uuid;not null;uniqueIndex:ux_reco_triple" json:"book_id"`

	Reason   string `gorm:"type:text" json:"reason"`
	Rating   *int   `json:"rating,omitempty"`
	Feedback string `gorm:"type:text" json:"feedback"`
	IsRead   bool   `gorm:"default:false" json:"is_read"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
	Book     *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (BookRecommendation) TableName() string { return "book_recommendations" }
