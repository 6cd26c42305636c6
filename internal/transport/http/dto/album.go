package dto

import "github.com/google/uuid"

type CreateAlbumRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type SetCoverRequest struct {
	PhotoID uuid.UUID `json:"photo_id" validate:"required"`
}
