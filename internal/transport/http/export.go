package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/middleware"
	"polaroida/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ExportJournal godoc
// @Summary Выгрузка журнала в PDF
// @Description Все снимки пользователя в порядке съёмки
// @Tags export
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/export/journal.pdf [get]
func (r *Routers) ExportJournal(c echo.Context) error {
	const op = "http.routers.ExportJournal"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var buf bytes.Buffer
	if err := r.JournalService.Render(c.Request().Context(), principal.UserID, &buf); err != nil {
		r.log.Error("failed to export journal", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", r.JournalService.Filename()))

	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
