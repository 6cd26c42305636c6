package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/middleware"
	profileservice "polaroida/internal/services/profile_service"
	"polaroida/internal/transport/http/dto"
	"polaroida/internal/transport/http/dto/response"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
}

// originChecker пропускает запросы без Origin, со своего хоста и из списка разрешённых
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[normalizeOrigin(o)] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}

		_, ok := set[normalizeOrigin(origin)]
		return ok
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// GetProfile godoc
// @Summary Профиль пользователя
// @Description Возвращает настройки отображения. Если профиль недоступен, возвращается профиль по умолчанию с fallback=true.
// @Tags profile
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/profile [get]
func (r *Routers) GetProfile(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	profile, err := r.ProfileService.Get(c.Request().Context(), principal.UserID, principal.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, profile)
}

// UpdateProfileTheme godoc
// @Summary Сменить тему интерфейса
// @Description Изменение проходит состояния pending -> confirmed | reverted. В ответе итоговое состояние и действующее значение.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body dto.UpdateThemeRequest true "Тема"
// @Success 200 {object} response.Response{data=models.ProfileChange}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.Response{data=models.ProfileChange} "Изменение отменено"
// @Security ApiKeyAuth
// @Router /api/v1/profile/theme [patch]
func (r *Routers) UpdateProfileTheme(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req dto.UpdateThemeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	change, err := r.ProfileService.UpdateUITheme(c.Request().Context(), principal.UserID, req.UIThemeStyle)

	return r.profileChangeResponse(c, change, err)
}

// UpdateProfileFrame godoc
// @Summary Сменить рамку снимков
// @Description Изменение проходит состояния pending -> confirmed | reverted. В ответе итоговое состояние и действующее значение.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body dto.UpdateFrameRequest true "Рамка"
// @Success 200 {object} response.Response{data=models.ProfileChange}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.Response{data=models.ProfileChange} "Изменение отменено"
// @Security ApiKeyAuth
// @Router /api/v1/profile/frame [patch]
func (r *Routers) UpdateProfileFrame(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req dto.UpdateFrameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	change, err := r.ProfileService.UpdateFrame(c.Request().Context(), principal.UserID, req.FrameStyle)

	return r.profileChangeResponse(c, change, err)
}

func (r *Routers) profileChangeResponse(c echo.Context, change models.ProfileChange, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, response.SuccessResponse(change))
	case errors.Is(err, profileservice.ErrInvalidValue):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	case errors.Is(err, profileservice.ErrUpdateReverted):
		return c.JSON(http.StatusInternalServerError, response.Response{
			Status:  response.StatusError,
			Data:    change,
			Message: "Profile update reverted",
		})
	case errors.Is(err, profileservice.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	r.log.Error("profile update failed", sl.Err(err))
	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

// StreamProfile godoc
// @Summary Поток изменений профиля
// @Description WebSocket: присылает подтверждённые изменения профиля текущего пользователя
// @Tags profile
// @Success 101
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/profile/stream [get]
func (r *Routers) StreamProfile(c echo.Context) error {
	const op = "http.routers.StreamProfile"

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	log := r.log.With(
		slog.String("op", op),
		slog.String("user_id", principal.UserID.String()),
	)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	changes, err := r.ProfileStream.Subscribe(ctx, principal.UserID)
	if err != nil {
		log.Error("failed to subscribe", sl.Err(err))
		return c.JSON(http.StatusServiceUnavailable, response.ErrorResponseWithDetails("stream_unavailable", "Realtime updates are unavailable"))
	}

	ws, err := r.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return nil
	}
	defer ws.Close()

	// чтение нужно только для обработки close и pong
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(change); err != nil {
				log.Debug("websocket write failed", sl.Err(err))
				return nil
			}
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
