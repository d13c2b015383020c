package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account that owns posts. Passwords are stored as bcrypt hashes
// only. The Posts relation is keyed by posts.creator_id, so the owned list
// always mirrors exactly the rows whose creator is this user.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"_id"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Name         string         `gorm:"size:64;not null" json:"name"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Status       string         `gorm:"size:255" json:"status,omitempty"`
	CreatedAt    time.Time      `json:"-"`
	UpdatedAt    time.Time      `json:"-"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Posts        []Post         `gorm:"foreignKey:CreatorID" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
