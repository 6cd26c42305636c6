package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDevice       = "Unknown Camera"
	DefaultFilter       = "normal"
	UnknownLocationName = "Unknown Location"
)

// Photo представляет снимок в журнале пользователя
type Photo struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	ImageURL     string       `json:"image_url" db:"image_url"`
	StoragePath  string       `json:"storage_path" db:"storage_path"`
	Caption      string       `json:"caption" db:"caption"`
	TakenAt      time.Time    `json:"taken_at" db:"taken_at"`
	LocationName string       `json:"location_name" db:"location_name"`
	LocationLat  *float64     `json:"location_lat" db:"location_lat"`
	LocationLng  *float64     `json:"location_lng" db:"location_lng"`
	DeviceInfo   string       `json:"device_info" db:"device_info"`
	Weather      string       `json:"weather" db:"weather"`
	FrameStyle   FrameStyle   `json:"frame_style" db:"frame_style"`
	FilterStyle  string       `json:"filter_style" db:"filter_style"`
	StyleConfig  *StyleConfig `json:"style_config,omitempty" db:"style_config"`
	AlbumID      *uuid.UUID   `json:"album_id,omitempty" db:"album_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	Tags         []string     `json:"tags,omitempty" db:"-"`
}

// HasCoordinates сообщает, что у снимка заданы обе координаты
func (p *Photo) HasCoordinates() bool {
	return p.LocationLat != nil && p.LocationLng != nil
}

// StyleConfig хранит выбранный фильтр и настройки ползунков
type StyleConfig struct {
	Filter     string `json:"filter"`
	Brightness int    `json:"brightness"`
	Contrast   int    `json:"contrast"`
	Warmth     int    `json:"warmth"`
	Vignette   int    `json:"vignette"`
	Grain      bool   `json:"grain"`
}

// Value реализует интерфейс driver.Valuer для сериализации StyleConfig в JSONB
func (s StyleConfig) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan реализует интерфейс sql.Scanner для десериализации JSONB в StyleConfig
func (s *StyleConfig) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StyleConfig{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("style config: unsupported type %T", value)
	}
}

// PhotoUpdate частичное изменение снимка, поле со значением nil не меняется
type PhotoUpdate struct {
	Caption      *string
	LocationName *string
}

func (u PhotoUpdate) Empty() bool {
	return u.Caption == nil && u.LocationName == nil
}

// PhotoFilter ограничивает выборку ленты
type PhotoFilter struct {
	Tag     string
	AlbumID *uuid.UUID
	Limit   uint64
}
