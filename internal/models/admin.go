package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is the single account allowed to manage site content.
type AdminUser struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	PasswordHash    string    `db:"password" json:"-"` // never serialized
	ProfileImageURL *string   `db:"profile_image_url" json:"profileImageUrl"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
