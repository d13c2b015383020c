package models

import "time"

// Post is a feed entry authored by exactly one user. The creator is assigned
// at creation time and never reassigned; ownership checks compare CreatorID.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageURL  string    `gorm:"size:512;not null" json:"imageUrl"`
	CreatorID uint      `gorm:"index;not null" json:"creatorId"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Creator   *User     `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator,omitempty"`
}
