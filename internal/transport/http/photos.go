package http

import (
	"errors"
	"log/slog"
	"net/http"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/lib/style"
	"polaroida/internal/middleware"
	photoservice "polaroida/internal/services/photo_service"
	"polaroida/internal/storage"
	"polaroida/internal/transport/http/dto"
	"polaroida/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UploadPhoto godoc
// @Summary Загрузка снимка
// @Description Загружает файл в хранилище, определяет место съёмки по координатам, сохраняет снимок и привязывает теги.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл изображения"
// @Param caption formData string false "Подпись (до 280 символов)"
// @Param lat formData number false "Широта"
// @Param lng formData number false "Долгота"
// @Param taken_at formData string false "Время съёмки (RFC3339)"
// @Param device formData string false "Камера"
// @Param filter formData string false "Фильтр"
// @Param album_id formData string false "UUID альбома" format(uuid)
// @Param tags formData string false "Теги через пробел, например #sunset #ocean"
// @Param style_config formData string false "Настройки стиля в JSON"
// @Success 200 {object} dto.PhotoUploadResponse
// @Failure 400 {object} response.ErrorResponse "Нет файла или некорректные поля"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 429 {object} response.ErrorResponse "Слишком много загрузок"
// @Failure 500 {object} response.ErrorResponse "Ошибка загрузки или сохранения"
// @Security ApiKeyAuth
// @Router /api/v1/photos [post]
func (r *Routers) UploadPhoto(c echo.Context) error {
	const op = "http.routers.UploadPhoto"

	log := r.log.With(
		slog.String("op", op),
	)

	principal, _ := middleware.PrincipalFrom(c)

	input := dto.PhotoUploadInput{
		OwnerID:     principal.UserID,
		Caption:     c.FormValue("caption"),
		Lat:         c.FormValue("lat"),
		Lng:         c.FormValue("lng"),
		TakenAt:     c.FormValue("taken_at"),
		Device:      c.FormValue("device"),
		Filter:      c.FormValue("filter"),
		AlbumID:     c.FormValue("album_id"),
		Tags:        c.FormValue("tags"),
		StyleConfig: c.FormValue("style_config"),
	}

	if file, err := c.FormFile("file"); err == nil {
		input.File = file
		log.Debug("got file for upload",
			slog.String("filename", file.Filename),
			slog.Int64("size", file.Size),
		)
	}

	if input.OwnerID != uuid.Nil && input.File != nil {
		if err := c.Validate(input); err != nil {
			log.Warn("validation failed", sl.Err(err))
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
		}
	}

	res, err := r.PhotoService.Ingest(c.Request().Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, photoservice.ErrUnauthorized):
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		case errors.Is(err, photoservice.ErrNoFile):
			return c.JSON(http.StatusBadRequest, response.ErrNoFile)
		case errors.Is(err, photoservice.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
		case errors.Is(err, photoservice.ErrUploadFailed):
			return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("upload_failed", "Failed to upload file"))
		default:
			log.Error("ingest failed", sl.Err(err))
			return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("persist_failed", "Failed to save photo"))
		}
	}

	return c.JSON(http.StatusOK, dto.PhotoUploadResponse{
		Success:    true,
		Photo:      res.Photo,
		Message:    res.Message,
		FailedTags: res.FailedTags,
	})
}

// ListPhotos godoc
// @Summary Лента снимков
// @Description Возвращает до 20 последних снимков пользователя по времени съёмки
// @Tags photos
// @Produce json
// @Param tag query string false "Фильтр по тегу"
// @Success 200 {array} models.Photo
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/photos [get]
func (r *Routers) ListPhotos(c echo.Context) error {
	const op = "http.routers.ListPhotos"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	photos, err := r.PhotoService.List(c.Request().Context(), principal.UserID, c.QueryParam("tag"))
	if err != nil {
		r.log.Error("failed to list photos", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, photos)
}

// GetPhoto godoc
// @Summary Получить снимок
// @Tags photos
// @Produce json
// @Param id path string true "UUID снимка" format(uuid)
// @Success 200 {object} models.Photo
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/photos/{id} [get]
func (r *Routers) GetPhoto(c echo.Context) error {
	const op = "http.routers.GetPhoto"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid photo ID format"))
	}

	photo, err := r.PhotoService.Get(c.Request().Context(), principal.UserID, photoID)
	if err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPhotoNotFound)
		}
		r.log.Error("failed to get photo", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, photo)
}

// UpdatePhotoCaption godoc
// @Summary Изменить подпись и место
// @Tags photos
// @Accept json
// @Produce json
// @Param id path string true "UUID снимка" format(uuid)
// @Param request body dto.UpdateCaptionRequest true "Подпись и место"
// @Success 200 {object} models.Photo
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/photos/{id} [patch]
func (r *Routers) UpdatePhotoCaption(c echo.Context) error {
	const op = "http.routers.UpdatePhotoCaption"

	log := r.log.With(
		slog.String("op", op),
	)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid photo ID format"))
	}

	var req dto.UpdateCaptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	photo, err := r.PhotoService.UpdateCaption(c.Request().Context(), principal.UserID, photoID, models.PhotoUpdate{
		Caption:      req.Caption,
		LocationName: req.LocationName,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPhotoNotFound):
			return c.JSON(http.StatusNotFound, response.ErrPhotoNotFound)
		case errors.Is(err, photoservice.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
		}
		log.Error("failed to update caption", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, photo)
}

// DeletePhoto godoc
// @Summary Удалить снимок
// @Description Удаляет снимок владельца вместе с привязками тегов
// @Tags photos
// @Param id path string true "UUID снимка" format(uuid)
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/photos/{id} [delete]
func (r *Routers) DeletePhoto(c echo.Context) error {
	const op = "http.routers.DeletePhoto"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid photo ID format"))
	}

	if err := r.PhotoService.Delete(c.Request().Context(), principal.UserID, photoID); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPhotoNotFound)
		}
		r.log.Error("failed to delete photo", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListFilters godoc
// @Summary Пресеты фильтров
// @Tags styles
// @Produce json
// @Success 200 {array} style.Filter
// @Router /api/v1/filters [get]
func (r *Routers) ListFilters(c echo.Context) error {
	return c.JSON(http.StatusOK, style.Filters())
}

// ComposeStyle godoc
// @Summary Собрать CSS-фильтр
// @Description Нормализует настройки ползунков и возвращает итоговое выражение filter и слой виньетки
// @Tags styles
// @Accept json
// @Produce json
// @Param request body dto.ComposeStyleRequest true "Фильтр и ползунки"
// @Success 200 {object} dto.ComposeStyleResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/filters/compose [post]
func (r *Routers) ComposeStyle(c echo.Context) error {
	var req dto.ComposeStyleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	cfg := style.Normalize(req.ToDomain())

	return c.JSON(http.StatusOK, dto.ComposeStyleResponse{
		Config:          cfg,
		Filter:          style.Compose(cfg),
		VignetteOverlay: style.VignetteOverlay(cfg.Vignette),
		Grain:           cfg.Grain,
	})
}
