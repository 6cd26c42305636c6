package repository

import (
	"context"
	"time"

	"polaroida/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, email string, passHash []byte) (uuid.UUID, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

type PhotoRepository interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	PhotoByID(ctx context.Context, ownerID, photoID uuid.UUID) (*models.Photo, error)
	ListPhotos(ctx context.Context, ownerID uuid.UUID, filter models.PhotoFilter) ([]models.Photo, error)
	Timeline(ctx context.Context, ownerID uuid.UUID) ([]models.Photo, error)
	UpdateCaption(ctx context.Context, ownerID, photoID uuid.UUID, upd models.PhotoUpdate) (*models.Photo, error)
	DeletePhoto(ctx context.Context, ownerID, photoID uuid.UUID) (string, error)
	ExistingStoragePaths(ctx context.Context, paths []string) (map[string]bool, error)
}

type TagRepository interface {
	UpsertTag(ctx context.Context, name string) (uuid.UUID, error)
	LinkPhotoTag(ctx context.Context, photoID, tagID uuid.UUID) error
}

type AlbumRepository interface {
	CreateAlbum(ctx context.Context, album *models.Album) (*models.Album, error)
	AlbumsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error)
	AlbumByID(ctx context.Context, ownerID, albumID uuid.UUID) (*models.Album, error)
	SetCover(ctx context.Context, ownerID, albumID, photoID uuid.UUID) error
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile models.Profile) error
	ProfileByID(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpdateProfileField(ctx context.Context, userID uuid.UUID, field, value string) (models.Profile, error)
}
