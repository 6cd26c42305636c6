package models

import (
	"time"

	"github.com/google/uuid"
)

type ThemePreference string

const (
	ThemeLight ThemePreference = "light"
	ThemeDark  ThemePreference = "dark"
	ThemeAuto  ThemePreference = "auto"
)

type FrameStyle string

const (
	FrameClassic FrameStyle = "classic"
	FrameBlack   FrameStyle = "black"
	FrameMint    FrameStyle = "mint"
	FrameBlush   FrameStyle = "blush"
	FrameSky     FrameStyle = "sky"
	FrameStriped FrameStyle = "striped"
)

type UIThemeStyle string

const (
	UIThemeClassic    UIThemeStyle = "classic"
	UIThemeVintage    UIThemeStyle = "vintage"
	UIThemeMinimal    UIThemeStyle = "minimal"
	UIThemePastel     UIThemeStyle = "pastel"
	UIThemeDarkroom   UIThemeStyle = "darkroom"
	UIThemeMonochrome UIThemeStyle = "monochrome"
)

func (f FrameStyle) Valid() bool {
	switch f {
	case FrameClassic, FrameBlack, FrameMint, FrameBlush, FrameSky, FrameStriped:
		return true
	}
	return false
}

func (u UIThemeStyle) Valid() bool {
	switch u {
	case UIThemeClassic, UIThemeVintage, UIThemeMinimal, UIThemePastel, UIThemeDarkroom, UIThemeMonochrome:
		return true
	}
	return false
}

func (t ThemePreference) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// Profile настройки отображения пользователя
type Profile struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	FullName        string          `json:"full_name" db:"full_name"`
	ThemePreference ThemePreference `json:"theme_preference" db:"theme_preference"`
	FrameStyle      FrameStyle      `json:"frame_style" db:"frame_style"`
	UIThemeStyle    UIThemeStyle    `json:"ui_theme_style" db:"ui_theme_style"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Fallback        bool            `json:"fallback,omitempty" db:"-"`
}

// UpdateState состояние двухфазного изменения настроек профиля
type UpdateState string

const (
	UpdatePending   UpdateState = "pending"
	UpdateConfirmed UpdateState = "confirmed"
	UpdateReverted  UpdateState = "reverted"
)

// ProfileChange результат изменения одного поля профиля
type ProfileChange struct {
	UserID    uuid.UUID   `json:"user_id"`
	Field     string      `json:"field"`
	Previous  string      `json:"previous"`
	Requested string      `json:"requested"`
	Effective string      `json:"effective"`
	State     UpdateState `json:"state"`
	At        time.Time   `json:"at"`
}
