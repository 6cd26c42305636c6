package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/repository"
	"polaroida/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyTitle   = errors.New("album title is required")
)

type AlbumService struct {
	log    *slog.Logger
	albums repository.AlbumRepository
	photos repository.PhotoRepository
}

func NewAlbumService(log *slog.Logger, albums repository.AlbumRepository, photos repository.PhotoRepository) *AlbumService {
	return &AlbumService{
		log:    log,
		albums: albums,
		photos: photos,
	}
}

func (s *AlbumService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error) {
	const op = "album_service.List"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	albums, err := s.albums.AlbumsByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error("failed to list albums", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return albums, nil
}

func (s *AlbumService) Create(ctx context.Context, ownerID uuid.UUID, title string, description *string) (*models.Album, error) {
	const op = "album_service.Create"

	log := s.log.With(slog.String("op", op), slog.String("owner_id", ownerID.String()))

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyTitle)
	}

	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			description = nil
		} else {
			description = &d
		}
	}

	album, err := s.albums.CreateAlbum(ctx, &models.Album{
		UserID:      ownerID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		log.Error("failed to create album", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("album created", slog.String("album_id", album.ID.String()))

	return album, nil
}

// Get возвращает альбом вместе со снимками, новые сверху
func (s *AlbumService) Get(ctx context.Context, ownerID, albumID uuid.UUID) (*models.AlbumWithPhotos, error) {
	const op = "album_service.Get"

	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	album, err := s.albums.AlbumByID(ctx, ownerID, albumID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	photos, err := s.photos.ListPhotos(ctx, ownerID, models.PhotoFilter{AlbumID: &albumID})
	if err != nil {
		s.log.Error("failed to list album photos", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AlbumWithPhotos{Album: *album, Photos: photos}, nil
}

func (s *AlbumService) SetCover(ctx context.Context, ownerID, albumID, photoID uuid.UUID) error {
	const op = "album_service.SetCover"

	if ownerID == uuid.Nil {
		return ErrUnauthorized
	}

	if err := s.albums.SetCover(ctx, ownerID, albumID, photoID); err != nil {
		if !errors.Is(err, storage.ErrAlbumNotFound) && !errors.Is(err, storage.ErrPhotoNotFound) {
			s.log.Error("failed to set album cover", slog.String("op", op), sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
