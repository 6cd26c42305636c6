package http

import (
	"errors"
	"log/slog"
	"net/http"

	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/middleware"
	albumservice "polaroida/internal/services/album_service"
	"polaroida/internal/storage"
	"polaroida/internal/transport/http/dto"
	"polaroida/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ListAlbums godoc
// @Summary Альбомы пользователя
// @Tags albums
// @Produce json
// @Success 200 {array} models.Album
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/albums [get]
func (r *Routers) ListAlbums(c echo.Context) error {
	const op = "http.routers.ListAlbums"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	albums, err := r.AlbumService.List(c.Request().Context(), principal.UserID)
	if err != nil {
		r.log.Error("failed to list albums", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, albums)
}

// CreateAlbum godoc
// @Summary Создать альбом
// @Tags albums
// @Accept json
// @Produce json
// @Param request body dto.CreateAlbumRequest true "Название и описание"
// @Success 201 {object} models.Album
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/albums [post]
func (r *Routers) CreateAlbum(c echo.Context) error {
	const op = "http.routers.CreateAlbum"

	log := r.log.With(
		slog.String("op", op),
	)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req dto.CreateAlbumRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	album, err := r.AlbumService.Create(c.Request().Context(), principal.UserID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, albumservice.ErrEmptyTitle) {
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Title is required"))
		}
		log.Error("failed to create album", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusCreated, album)
}

// GetAlbum godoc
// @Summary Альбом со снимками
// @Tags albums
// @Produce json
// @Param id path string true "UUID альбома" format(uuid)
// @Success 200 {object} models.AlbumWithPhotos
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/albums/{id} [get]
func (r *Routers) GetAlbum(c echo.Context) error {
	const op = "http.routers.GetAlbum"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	albumID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid album ID format"))
	}

	album, err := r.AlbumService.Get(c.Request().Context(), principal.UserID, albumID)
	if err != nil {
		if errors.Is(err, storage.ErrAlbumNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrAlbumNotFound)
		}
		r.log.Error("failed to get album", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, album)
}

// SetAlbumCover godoc
// @Summary Назначить обложку альбома
// @Tags albums
// @Accept json
// @Param id path string true "UUID альбома" format(uuid)
// @Param request body dto.SetCoverRequest true "UUID снимка"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/albums/{id}/cover [put]
func (r *Routers) SetAlbumCover(c echo.Context) error {
	const op = "http.routers.SetAlbumCover"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	albumID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid album ID format"))
	}

	var req dto.SetCoverRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	if err := r.AlbumService.SetCover(c.Request().Context(), principal.UserID, albumID, req.PhotoID); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlbumNotFound):
			return c.JSON(http.StatusNotFound, response.ErrAlbumNotFound)
		case errors.Is(err, storage.ErrPhotoNotFound):
			return c.JSON(http.StatusNotFound, response.ErrPhotoNotFound)
		}
		r.log.Error("failed to set cover", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}
