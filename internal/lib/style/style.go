// Package style собирает CSS-выражение фильтра из пресета и ползунков.
package style

import (
	"fmt"

	"polaroida/internal/domain/models"
)

const DefaultFilter = "normal"

// Filter описание пресета для клиента
type Filter struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Base  string `json:"base"`
}

var baseStyles = map[string]string{
	"normal":      "brightness(100%) contrast(100%) saturate(100%) sepia(0%)",
	"kodak":       "contrast(110%) saturate(120%) brightness(105%) sepia(20%) hue-rotate(-5deg)",
	"fujifilm":    "saturate(110%) contrast(105%) brightness(105%) hue-rotate(5deg) sepia(10%)",
	"polaroid600": "contrast(120%) saturate(90%) brightness(110%) sepia(15%)",
	"bw":          "grayscale(100%) contrast(110%) brightness(100%)",
	"sepia":       "sepia(70%) contrast(90%) brightness(95%)",
	"pastel":      "brightness(115%) contrast(85%) saturate(80%) sepia(10%)",
}

// порядок отображения пресетов
var filters = []Filter{
	{ID: "normal", Label: "Normal"},
	{ID: "kodak", Label: "Kodak Gold"},
	{ID: "fujifilm", Label: "Fujifilm"},
	{ID: "polaroid600", Label: "Polaroid 600"},
	{ID: "bw", Label: "B&W"},
	{ID: "sepia", Label: "Sepia"},
	{ID: "pastel", Label: "Pastel"},
}

// Диапазоны ползунков
const (
	BrightnessLimit = 50
	ContrastLimit   = 30
	WarmthLimit     = 50
	VignetteMax     = 80
)

// Filters возвращает пресеты в порядке отображения
func Filters() []Filter {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		f.Base = baseStyles[f.ID]
		out[i] = f
	}
	return out
}

// Known сообщает, есть ли пресет с таким id
func Known(id string) bool {
	_, ok := baseStyles[id]
	return ok
}

// Base возвращает базовое выражение пресета, для неизвестного id используется normal
func Base(id string) string {
	if base, ok := baseStyles[id]; ok {
		return base
	}
	return baseStyles[DefaultFilter]
}

// Compose собирает итоговое CSS-выражение filter
func Compose(cfg models.StyleConfig) string {
	return fmt.Sprintf("%s brightness(%d%%) contrast(%d%%) saturate(%d%%)",
		Base(cfg.Filter),
		100+cfg.Brightness,
		100+cfg.Contrast,
		100+cfg.Warmth,
	)
}

// Normalize приводит конфиг к допустимым значениям
func Normalize(cfg models.StyleConfig) models.StyleConfig {
	if !Known(cfg.Filter) {
		cfg.Filter = DefaultFilter
	}
	cfg.Brightness = clamp(cfg.Brightness, -BrightnessLimit, BrightnessLimit)
	cfg.Contrast = clamp(cfg.Contrast, -ContrastLimit, ContrastLimit)
	cfg.Warmth = clamp(cfg.Warmth, -WarmthLimit, WarmthLimit)
	cfg.Vignette = clamp(cfg.Vignette, 0, VignetteMax)
	return cfg
}

// VignetteOverlay возвращает фон затемняющего слоя, пустую строку при vignette <= 0
func VignetteOverlay(vignette int) string {
	if vignette <= 0 {
		return ""
	}
	return fmt.Sprintf("radial-gradient(circle, transparent 40%%, rgba(0,0,0,%g) 100%%)", float64(vignette)/100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
