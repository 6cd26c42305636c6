package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/middleware"
	photoservice "polaroida/internal/services/photo_service"
	userservice "polaroida/internal/services/user_service"
	"polaroida/internal/transport/http/dto"
	"polaroida/internal/transport/http/dto/request"
	"polaroida/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	_ "polaroida/docs"
)

type UserService interface {
	RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
}

type PhotoService interface {
	Ingest(ctx context.Context, input dto.PhotoUploadInput) (*photoservice.IngestResult, error)
	List(ctx context.Context, ownerID uuid.UUID, tag string) ([]models.Photo, error)
	Get(ctx context.Context, ownerID, photoID uuid.UUID) (*models.Photo, error)
	UpdateCaption(ctx context.Context, ownerID, photoID uuid.UUID, upd models.PhotoUpdate) (*models.Photo, error)
	Delete(ctx context.Context, ownerID, photoID uuid.UUID) error
}

type AlbumService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error)
	Create(ctx context.Context, ownerID uuid.UUID, title string, description *string) (*models.Album, error)
	Get(ctx context.Context, ownerID, albumID uuid.UUID) (*models.AlbumWithPhotos, error)
	SetCover(ctx context.Context, ownerID, albumID, photoID uuid.UUID) error
}

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID, email string) (models.Profile, error)
	UpdateUITheme(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error)
	UpdateFrame(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error)
}

type ProfileStream interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan models.ProfileChange, error)
}

type JournalService interface {
	Filename() string
	Render(ctx context.Context, ownerID uuid.UUID, w io.Writer) error
}

type Routers struct {
	log            *slog.Logger
	UserService    UserService
	PhotoService   PhotoService
	AlbumService   AlbumService
	ProfileService ProfileService
	ProfileStream  ProfileStream
	JournalService JournalService

	upgrader websocket.Upgrader
}

type RouterOption func(*Routers)

// WithAllowedOrigins задаёт Origin, которым разрешено открывать поток профиля
func WithAllowedOrigins(origins []string) RouterOption {
	return func(r *Routers) {
		r.upgrader = newUpgrader(origins)
	}
}

func NewRouter(
	log *slog.Logger,
	userService UserService,
	photoService PhotoService,
	albumService AlbumService,
	profileService ProfileService,
	profileStream ProfileStream,
	journalService JournalService,
	opts ...RouterOption,
) *Routers {
	r := &Routers{
		log:            log,
		UserService:    userService,
		PhotoService:   photoService,
		AlbumService:   albumService,
		ProfileService: profileService,
		ProfileStream:  profileStream,
		JournalService: journalService,
		upgrader:       newUpgrader(nil),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Вход в систему по email и паролю. Возвращает пару JWT-токенов и устанавливает cookie сессии.
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=map[string]string} "Успешный вход (токены)"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} response.ErrorResponse "Ошибка аутентификации"
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	user, tokens, err := r.UserService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userservice.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails("authentication_failed", "Invalid email or password"))
		}
		log.Error("login failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	sess, err := session.Get(middleware.SessionName, c)
	if err == nil {
		sess.Values["user_id"] = user.ID.String()
		sess.Values["email"] = user.Email
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to save session", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.Response{
		Status: response.StatusSuccess,
		Data: map[string]string{
			"user_id":       user.ID.String(),
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
		},
	})
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Description Создание аккаунта и профиля. Возвращает ID пользователя.
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UserRegisterInput true "Данные для регистрации"
// @Success 201 {object} response.Response{data=object{user_id=string}} "Успешная регистрация"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/register [post]
func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.UserRegisterInput

	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRegisterRequest)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_register_request", err.Error()))
	}

	userID, err := r.UserService.RegisterNewUser(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, userservice.ErrUserExist) {
			log.Warn("user already exists", slog.String("email", req.Email))
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}

		log.Error("registration failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Status:  response.StatusError,
			Error:   "internal_error",
			Details: "Internal server error",
		})
	}

	log.Info("user registered successfully", slog.String("user_id", userID.String()))

	return c.JSON(http.StatusCreated, response.Response{
		Status: response.StatusSuccess,
		Data: map[string]uuid.UUID{
			"user_id": userID,
		},
	})
}

// Refresh godoc
// @Summary Обновление токенов
// @Description Обменивает refresh-токен на новую пару токенов
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.RefreshRequest true "Refresh-токен"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.RefreshRequest

	if err := c.Bind(&req); err != nil {
		log.Error("validation bind", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	newTokens, err := r.UserService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		log.Info("error refresh tokens", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails("invalid_refresh_token", "Refresh token is invalid or expired"))
	}

	return c.JSON(http.StatusOK, newTokens)
}

// Logout godoc
// @Summary Выход
// @Description Отзывает refresh-токен (или все токены пользователя, если он не передан) и очищает сессию
// @Tags users
// @Accept json
// @Param request body object{refresh_token=string} false "Refresh-токен"
// @Success 204
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)

	if err := r.UserService.Logout(c.Request().Context(), principal.UserID, req.RefreshToken); err != nil {
		log.Error("failed to logout", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	if sess, err := session.Get(middleware.SessionName, c); err == nil {
		sess.Options.MaxAge = -1
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to clear session", sl.Err(err))
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func parseIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
