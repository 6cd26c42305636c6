package dto

import (
	"mime/multipart"

	"polaroida/internal/domain/models"

	"github.com/google/uuid"
)

// PhotoUploadInput поля multipart-формы POST /photos. Числа и даты приходят строками.
type PhotoUploadInput struct {
	OwnerID     uuid.UUID             `json:"-"`
	File        *multipart.FileHeader `json:"-" form:"file"`
	Caption     string                `json:"caption" form:"caption" validate:"max=280"`
	Lat         string                `json:"lat" form:"lat"`
	Lng         string                `json:"lng" form:"lng"`
	TakenAt     string                `json:"taken_at" form:"taken_at"`
	Device      string                `json:"device" form:"device" validate:"max=200"`
	Filter      string                `json:"filter" form:"filter" validate:"max=50"`
	AlbumID     string                `json:"album_id" form:"album_id" validate:"omitempty,uuid"`
	Tags        string                `json:"tags" form:"tags" validate:"max=1000"`
	StyleConfig string                `json:"style_config" form:"style_config"`
}

type PhotoUploadResponse struct {
	Success    bool          `json:"success"`
	Photo      *models.Photo `json:"photo"`
	Message    string        `json:"message"`
	FailedTags []string      `json:"failed_tags,omitempty"`
}

// UpdateCaptionRequest отсутствующее поле остаётся без изменений
type UpdateCaptionRequest struct {
	Caption      *string `json:"caption" validate:"omitempty,max=280"`
	LocationName *string `json:"location_name" validate:"omitempty,max=100"`
}

type ComposeStyleRequest struct {
	Filter     string `json:"filter"`
	Brightness int    `json:"brightness"`
	Contrast   int    `json:"contrast"`
	Warmth     int    `json:"warmth"`
	Vignette   int    `json:"vignette"`
	Grain      bool   `json:"grain"`
}

func (r ComposeStyleRequest) ToDomain() models.StyleConfig {
	return models.StyleConfig{
		Filter:     r.Filter,
		Brightness: r.Brightness,
		Contrast:   r.Contrast,
		Warmth:     r.Warmth,
		Vignette:   r.Vignette,
		Grain:      r.Grain,
	}
}

type ComposeStyleResponse struct {
	Config          models.StyleConfig `json:"config"`
	Filter          string             `json:"filter"`
	VignetteOverlay string             `json:"vignette_overlay,omitempty"`
	Grain           bool               `json:"grain"`
}
