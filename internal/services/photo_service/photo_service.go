package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/exifmeta"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/lib/style"
	"polaroida/internal/metrics"
	"polaroida/internal/repository"
	"polaroida/internal/storage"
	"polaroida/internal/storage/objectstore"
	"polaroida/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	FeedLimit       = 20
	MaxCaptionLen   = 280
	MaxLocationLen  = 100
	defaultFileExt  = "jpg"
	uploadedMessage = "Photo uploaded successfully"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoFile        = errors.New("no file provided")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUploadFailed  = errors.New("upload failed")
	ErrPersistFailed = errors.New("persist failed")
)

// Geocoder возвращает название места по координатам
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// IngestResult сохранённый снимок и теги, которые не удалось привязать
type IngestResult struct {
	Photo      *models.Photo
	FailedTags []string
	Message    string
}

type PhotoService struct {
	log          *slog.Logger
	photos       repository.PhotoRepository
	tags         repository.TagRepository
	store        objectstore.Store
	geocoder     Geocoder
	exifFallback bool
	sanitizer    *bluemonday.Policy
	now          func() time.Time
}

type Option func(*PhotoService)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *PhotoService) { s.now = now }
}

// WithExifFallback включает чтение EXIF, когда клиент не прислал камеру или время съёмки
func WithExifFallback(enabled bool) Option {
	return func(s *PhotoService) { s.exifFallback = enabled }
}

func NewPhotoService(
	log *slog.Logger,
	photos repository.PhotoRepository,
	tags repository.TagRepository,
	store objectstore.Store,
	geocoder Geocoder,
	opts ...Option,
) *PhotoService {
	s := &PhotoService{
		log:       log,
		photos:    photos,
		tags:      tags,
		store:     store,
		geocoder:  geocoder,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest загружает файл, определяет место съёмки, сохраняет снимок и привязывает теги.
// Шаги выполняются строго последовательно.
func (s *PhotoService) Ingest(ctx context.Context, input dto.PhotoUploadInput) (*IngestResult, error) {
	const op = "photo_service.Ingest"

	log := s.log.With(slog.String("op", op))

	if input.OwnerID == uuid.Nil {
		metrics.PhotosIngested.WithLabelValues("unauthorized").Inc()
		return nil, ErrUnauthorized
	}

	log = log.With(slog.String("owner_id", input.OwnerID.String()))

	if input.File == nil {
		metrics.PhotosIngested.WithLabelValues("bad_request").Inc()
		return nil, ErrNoFile
	}

	caption := s.sanitize(input.Caption)
	if utf8.RuneCountInString(caption) > MaxCaptionLen {
		metrics.PhotosIngested.WithLabelValues("bad_request").Inc()
		return nil, fmt.Errorf("%s: %w: caption longer than %d characters", op, ErrInvalidInput, MaxCaptionLen)
	}

	var albumID *uuid.UUID
	if raw := strings.TrimSpace(input.AlbumID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			metrics.PhotosIngested.WithLabelValues("bad_request").Inc()
			return nil, fmt.Errorf("%s: %w: album_id", op, ErrInvalidInput)
		}
		albumID = &id
	}

	src, err := input.File.Open()
	if err != nil {
		log.Error("failed to open uploaded file", sl.Err(err))
		metrics.PhotosIngested.WithLabelValues("upload_failed").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUploadFailed, err)
	}
	defer src.Close()

	now := s.now()
	path := StoragePath(input.OwnerID, now, input.File.Filename)

	if err := s.store.Upload(ctx, path, src, input.File.Size, input.File.Header.Get("Content-Type")); err != nil {
		log.Error("failed to upload file", slog.String("path", path), sl.Err(err))
		metrics.PhotosIngested.WithLabelValues("upload_failed").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUploadFailed, err)
	}

	imageURL := s.store.PublicURL(path)

	device := strings.TrimSpace(input.Device)
	takenAt, takenAtOK := parseTakenAt(input.TakenAt)

	if s.exifFallback && (device == "" || !takenAtOK) {
		meta, err := exifmeta.Extract(src)
		switch {
		case err == nil:
			if device == "" {
				device = meta.Device
			}
			if !takenAtOK && meta.TakenAt != nil {
				takenAt, takenAtOK = *meta.TakenAt, true
			}
		case errors.Is(err, exifmeta.ErrNoExif):
		default:
			log.Debug("exif read failed", sl.Err(err))
		}
	}

	if device == "" {
		device = models.DefaultDevice
	}
	if !takenAtOK {
		if input.TakenAt != "" {
			log.Warn("unparseable taken_at, using upload time", slog.String("taken_at", input.TakenAt))
		}
		takenAt = now
	}

	filter := strings.TrimSpace(input.Filter)
	if filter == "" {
		filter = models.DefaultFilter
	}

	lat, lng := ParseCoordinates(input.Lat, input.Lng)

	locationName := models.UnknownLocationName
	if lat != nil && lng != nil {
		locationName = s.resolveLocation(ctx, log, *lat, *lng)
	}

	photo := &models.Photo{
		UserID:       input.OwnerID,
		ImageURL:     imageURL,
		StoragePath:  path,
		Caption:      caption,
		TakenAt:      takenAt.UTC(),
		LocationName: locationName,
		LocationLat:  lat,
		LocationLng:  lng,
		DeviceInfo:   device,
		Weather:      "",
		FrameStyle:   models.FrameClassic,
		FilterStyle:  filter,
		StyleConfig:  s.parseStyleConfig(log, input.StyleConfig, filter),
		AlbumID:      albumID,
	}

	created, err := s.photos.CreatePhoto(ctx, photo)
	if err != nil {
		// Удаляем файл если не удалось сохранить в БД, остатки подчистит sweeper
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			log.Warn("failed to remove uploaded object", slog.String("path", path), sl.Err(delErr))
		}

		if errors.Is(err, storage.ErrAlbumNotFound) {
			log.Warn("album not found for owner", slog.String("album_id", input.AlbumID))
			metrics.PhotosIngested.WithLabelValues("bad_request").Inc()
			return nil, fmt.Errorf("%s: %w: album_id: %w", op, ErrInvalidInput, err)
		}

		log.Error("failed to save photo to database", sl.Err(err))
		metrics.PhotosIngested.WithLabelValues("persist_failed").Inc()

		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistFailed, err)
	}

	linked, failed := s.linkTags(ctx, log, created.ID, ParseTags(input.Tags))
	created.Tags = linked

	metrics.PhotosIngested.WithLabelValues("ok").Inc()
	log.Info("photo ingested", slog.String("photo_id", created.ID.String()), slog.Int("tags", len(linked)))

	return &IngestResult{
		Photo:      created,
		FailedTags: failed,
		Message:    uploadedMessage,
	}, nil
}

func (s *PhotoService) resolveLocation(ctx context.Context, log *slog.Logger, lat, lng float64) string {
	if s.geocoder == nil {
		return models.UnknownLocationName
	}

	name, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil || strings.TrimSpace(name) == "" {
		metrics.EnrichmentSkipped.Inc()
		if err != nil {
			log.Warn("reverse geocoding skipped", sl.Err(err))
		}
		return models.UnknownLocationName
	}

	if utf8.RuneCountInString(name) > MaxLocationLen {
		name = string([]rune(name)[:MaxLocationLen])
	}

	return name
}

// linkTags обрабатывает каждый тег независимо, ошибка одного не прерывает остальные
func (s *PhotoService) linkTags(ctx context.Context, log *slog.Logger, photoID uuid.UUID, names []string) (linked, failed []string) {
	for _, name := range names {
		tagID, err := s.tags.UpsertTag(ctx, name)
		if err == nil {
			err = s.tags.LinkPhotoTag(ctx, photoID, tagID)
		}
		if err != nil {
			log.Warn("failed to link tag", slog.String("tag", name), sl.Err(err))
			metrics.TagLinkFailures.Inc()
			failed = append(failed, name)
			continue
		}
		linked = append(linked, name)
	}

	return linked, failed
}

func (s *PhotoService) parseStyleConfig(log *slog.Logger, raw, filter string) *models.StyleConfig {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var cfg models.StyleConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		log.Warn("ignoring malformed style_config", sl.Err(err))
		return nil
	}

	if cfg.Filter == "" {
		cfg.Filter = filter
	}

	cfg = style.Normalize(cfg)

	return &cfg
}

// sanitize: сущности раскодируются до очистки, результат хранится в виде bluemonday
func (s *PhotoService) sanitize(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(html.UnescapeString(text)))
}

// List возвращает ленту владельца: не более FeedLimit последних по дате съёмки
func (s *PhotoService) List(ctx context.Context, ownerID uuid.UUID, tag string) ([]models.Photo, error) {
	const op = "photo_service.List"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	photos, err := s.photos.ListPhotos(ctx, ownerID, models.PhotoFilter{
		Tag:   strings.TrimPrefix(strings.TrimSpace(tag), "#"),
		Limit: FeedLimit,
	})
	if err != nil {
		s.log.Error("failed to list photos", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photos, nil
}

func (s *PhotoService) ListByAlbum(ctx context.Context, ownerID, albumID uuid.UUID) ([]models.Photo, error) {
	const op = "photo_service.ListByAlbum"

	photos, err := s.photos.ListPhotos(ctx, ownerID, models.PhotoFilter{AlbumID: &albumID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photos, nil
}

func (s *PhotoService) Get(ctx context.Context, ownerID, photoID uuid.UUID) (*models.Photo, error) {
	const op = "photo_service.Get"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	photo, err := s.photos.PhotoByID(ctx, ownerID, photoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// Timeline все снимки владельца от старых к новым
func (s *PhotoService) Timeline(ctx context.Context, ownerID uuid.UUID) ([]models.Photo, error) {
	const op = "photo_service.Timeline"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	photos, err := s.photos.Timeline(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photos, nil
}

// UpdateCaption меняет подпись и/или место. Непереданное поле сохраняет прежнее значение.
func (s *PhotoService) UpdateCaption(ctx context.Context, ownerID, photoID uuid.UUID, upd models.PhotoUpdate) (*models.Photo, error) {
	const op = "photo_service.UpdateCaption"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	if upd.Empty() {
		return nil, fmt.Errorf("%s: %w: nothing to update", op, ErrInvalidInput)
	}

	if upd.Caption != nil {
		caption := s.sanitize(*upd.Caption)
		if utf8.RuneCountInString(caption) > MaxCaptionLen {
			return nil, fmt.Errorf("%s: %w: caption longer than %d characters", op, ErrInvalidInput, MaxCaptionLen)
		}
		upd.Caption = &caption
	}
	if upd.LocationName != nil {
		locationName := s.sanitize(*upd.LocationName)
		if utf8.RuneCountInString(locationName) > MaxLocationLen {
			return nil, fmt.Errorf("%s: %w: location longer than %d characters", op, ErrInvalidInput, MaxLocationLen)
		}
		upd.LocationName = &locationName
	}

	photo, err := s.photos.UpdateCaption(ctx, ownerID, photoID, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// Delete удаляет снимок владельца. Объект в хранилище удаляется без гарантий.
func (s *PhotoService) Delete(ctx context.Context, ownerID, photoID uuid.UUID) error {
	const op = "photo_service.Delete"

	log := s.log.With(slog.String("op", op), slog.String("photo_id", photoID.String()))

	if ownerID == uuid.Nil {
		return ErrUnauthorized
	}

	path, err := s.photos.DeletePhoto(ctx, ownerID, photoID)
	if err != nil {
		if !errors.Is(err, storage.ErrPhotoNotFound) {
			log.Error("failed to delete photo", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Delete(ctx, path); err != nil {
		log.Warn("failed to remove stored object", slog.String("path", path), sl.Err(err))
	}

	log.Info("photo deleted")

	return nil
}

// StoragePath путь объекта: {ownerId}/{epochMillis}.{ext}
func StoragePath(ownerID uuid.UUID, now time.Time, filename string) string {
	ext := defaultFileExt
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = filename[i+1:]
	}

	return fmt.Sprintf("%s/%d.%s", ownerID, now.UnixMilli(), ext)
}

// ParseCoordinates возвращает обе координаты или ни одной
func ParseCoordinates(rawLat, rawLng string) (*float64, *float64) {
	lat, okLat := parseCoordinate(rawLat, 90)
	lng, okLng := parseCoordinate(rawLng, 180)
	if !okLat || !okLng {
		return nil, nil
	}

	return &lat, &lng
}

func parseCoordinate(raw string, limit float64) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}

	return v, true
}

func parseTakenAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseTags разбирает строку вида "#sunset #ocean": убирает один ведущий #, пустые и повторы
func ParseTags(raw string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, token := range strings.Fields(raw) {
		name := strings.TrimPrefix(token, "#")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}
