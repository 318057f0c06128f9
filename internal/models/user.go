package models

import "time"

// User represents a registered account. It is created on registration and never updated.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"` // bcrypt, never exposed in JSON
	Name         string    `gorm:"column:nom;size:100;not null" json:"nom"`
	Organization string    `gorm:"column:entreprise;size:255;not null" json:"entreprise"`
}

// TableName keeps the historical table name.
func (User) TableName() string {
	return "utilisateurs"
}
