package models

import (
	"time"

	"github.com/google/uuid"
)

// Album группирует снимки пользователя
type Album struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	CoverPhotoID *uuid.UUID `json:"cover_photo_id,omitempty" db:"cover_photo_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type AlbumWithPhotos struct {
	Album
	Photos []Photo `json:"photos"`
}
