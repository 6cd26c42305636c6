package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpapp "polaroida/internal/app/http"
	"polaroida/internal/config"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/middleware"
	"polaroida/internal/realtime"
	"polaroida/internal/repository"
	albumservice "polaroida/internal/services/album_service"
	"polaroida/internal/services/geocode"
	journalservice "polaroida/internal/services/journal_service"
	photoservice "polaroida/internal/services/photo_service"
	profileservice "polaroida/internal/services/profile_service"
	tokenservice "polaroida/internal/services/token_service"
	userservice "polaroida/internal/services/user_service"
	"polaroida/internal/storage/objectstore"
	redisapp "polaroida/internal/storage/redis"
	"polaroida/internal/sweeper"
	httprouters "polaroida/internal/transport/http"
)

const limiterCleanupInterval = 5 * time.Minute

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	Sweeper    *sweeper.Sweeper

	repo   *repository.Repository
	redis  *redisapp.Client
	cancel context.CancelFunc
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	repo, err := repository.NewRepository(ctx, cfg.DSN, cfg.AutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := redisClient.HealthCheck(ctx); err != nil {
		log.Warn("redis is unavailable, realtime and token refresh will fail", sl.Err(err))
	}

	store, err := objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		repo.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hub := realtime.NewHub(log, redisClient.Client)

	tokenService := tokenservice.NewTokenService(
		repository.NewRedisTokenRepo(redisClient),
		cfg.JWT.Secret,
		cfg.JWT.AccessTTL,
		cfg.JWT.RefreshTTL,
	)
	profileService := profileservice.NewProfileService(log, repo.Profile, hub)
	userService := userservice.NewUserService(log, repo.User, tokenService, profileService)
	photoService := photoservice.NewPhotoService(
		log,
		repo.Photo,
		repo.Tag,
		store,
		geocode.New(log, cfg.Geocoder),
		photoservice.WithExifFallback(cfg.Ingest.ExifFallback),
	)
	albumService := albumservice.NewAlbumService(log, repo.Album, repo.Photo)
	journalService := journalservice.NewJournalService(log, photoService, store)

	routers := httprouters.NewRouter(
		log, userService, photoService, albumService, profileService, hub, journalService,
		httprouters.WithAllowedOrigins(cfg.HTTP.AllowedOrigins),
	)

	limiter := middleware.NewKeyedRateLimiter(cfg.Ingest.UploadsPerMinute, cfg.Ingest.UploadsPerMinute)

	var opts []httpapp.Option
	if cfg.ObjectStore.Driver == "" || cfg.ObjectStore.Driver == objectstore.DriverLocal {
		opts = append(opts, httpapp.WithStaticUploads(cfg.ObjectStore.BaseDir))
	}

	server := httpapp.New(log, cfg.HTTP, cfg.Ingest, tokenService, limiter, routers, opts...)
	server.BuildRouters()

	bgCtx, cancel := context.WithCancel(context.Background())
	go limiter.RunCleanup(bgCtx, limiterCleanupInterval)

	a := &App{
		log:        log,
		HTTPServer: server,
		repo:       repo,
		redis:      redisClient,
		cancel:     cancel,
	}

	if cfg.Sweeper.Enabled {
		a.Sweeper = sweeper.New(log, store, repo.Photo, cfg.Sweeper.GracePeriod)
		if err := a.Sweeper.Start(cfg.Sweeper.Schedule); err != nil {
			a.Stop()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return a, nil
}

// Stop останавливает фоновые задачи и закрывает соединения, HTTP-сервер останавливается отдельно
func (a *App) Stop() {
	a.cancel()

	if a.Sweeper != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		a.Sweeper.Stop(ctx)
		cancel()
	}

	if err := a.redis.Close(); err != nil {
		a.log.Warn("failed to close redis", sl.Err(err))
	}

	a.repo.Close()
}
