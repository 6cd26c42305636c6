package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"polaroida/internal/config"
	"polaroida/internal/middleware"
	httprouters "polaroida/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m        *http.ServeMux
	log      *slog.Logger
	e        *echo.Echo
	routers  *httprouters.Routers
	auth     middleware.AccessTokenParser
	limiter  *middleware.KeyedRateLimiter
	cfg      config.HTTPConfig
	ingest   config.IngestConfig
	staticFS string
}

type Option func(*Server)

// WithStaticUploads раздаёт файлы локального хранилища по /uploads
func WithStaticUploads(dir string) Option {
	return func(s *Server) {
		s.staticFS = dir
	}
}

func New(
	log *slog.Logger,
	cfg config.HTTPConfig,
	ingest config.IngestConfig,
	auth middleware.AccessTokenParser,
	limiter *middleware.KeyedRateLimiter,
	routers *httprouters.Routers,
	opts ...Option,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.SessionSecret))))

	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(echomw.CORS())
	}
	e.Use(echomw.Recover())
	e.Use(middleware.PrometheusMetrics)

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogMethod:   true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	s := &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		auth:    auth,
		limiter: limiter,
		cfg:     cfg,
		ingest:  ingest,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler нужен для тестов через httptest
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) BuildRouters() {
	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if s.staticFS != "" {
		s.e.Static("/uploads", s.staticFS)
	}

	api := s.e.Group("/api/v1")
	{
		api.POST("/register", s.routers.Register)
		api.POST("/login", s.routers.Login)
		api.POST("/refresh", s.routers.Refresh)

		api.GET("/filters", s.routers.ListFilters)
		api.POST("/filters/compose", s.routers.ComposeStyle)

		authed := api.Group("", middleware.RequireAuth(s.auth))
		{
			authed.POST("/logout", s.routers.Logout)

			photos := authed.Group("/photos")
			{
				photos.GET("", s.routers.ListPhotos)
				photos.POST("", s.routers.UploadPhoto,
					middleware.RateLimit(s.limiter),
					echomw.BodyLimit(strconv.FormatInt(s.ingest.MaxUploadBytes, 10)),
				)
				photos.GET("/:id", s.routers.GetPhoto)
				photos.PATCH("/:id", s.routers.UpdatePhotoCaption)
				photos.DELETE("/:id", s.routers.DeletePhoto)
			}

			albums := authed.Group("/albums")
			{
				albums.GET("", s.routers.ListAlbums)
				albums.POST("", s.routers.CreateAlbum)
				albums.GET("/:id", s.routers.GetAlbum)
				albums.PUT("/:id/cover", s.routers.SetAlbumCover)
			}

			profile := authed.Group("/profile")
			{
				profile.GET("", s.routers.GetProfile)
				profile.PATCH("/theme", s.routers.UpdateProfileTheme)
				profile.PATCH("/frame", s.routers.UpdateProfileFrame)
				profile.GET("/stream", s.routers.StreamProfile)
			}

			authed.GET("/export/journal.pdf", s.routers.ExportJournal)
		}
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	s.e.Server.ReadTimeout = s.cfg.Timeout
	s.e.Server.WriteTimeout = s.cfg.Timeout

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}
