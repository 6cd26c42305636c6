package dto

type UpdateThemeRequest struct {
	UIThemeStyle string `json:"ui_theme_style" validate:"required,oneof=classic vintage minimal pastel darkroom monochrome"`
}

type UpdateFrameRequest struct {
	FrameStyle string `json:"frame_style" validate:"required,oneof=classic black mint blush sky striped"`
}
