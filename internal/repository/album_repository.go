package repository

import (
	"context"
	"errors"
	"fmt"

	"polaroida/internal/domain/models"
	"polaroida/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type AlbumRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewAlbumRepository(db *pgxpool.Pool) *AlbumRepo {
	return &AlbumRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AlbumRepo) CreateAlbum(ctx context.Context, album *models.Album) (*models.Album, error) {
	const op = "repository.album_repository.CreateAlbum"

	query, args, err := r.sb.Insert("albums").
		Columns("user_id", "title", "description").
		Values(album.UserID, album.Title, album.Description).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	created := *album
	if err := r.db.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

func (r *AlbumRepo) AlbumsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error) {
	const op = "repository.album_repository.AlbumsByOwner"

	query, args, err := r.sb.Select("id", "user_id", "title", "description", "cover_photo_id", "created_at").
		From("albums").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	albums := make([]models.Album, 0)
	for rows.Next() {
		var a models.Album
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.CoverPhotoID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		albums = append(albums, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return albums, nil
}

func (r *AlbumRepo) AlbumByID(ctx context.Context, ownerID, albumID uuid.UUID) (*models.Album, error) {
	const op = "repository.album_repository.AlbumByID"

	query, args, err := r.sb.Select("id", "user_id", "title", "description", "cover_photo_id", "created_at").
		From("albums").
		Where(sq.Eq{"id": albumID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var a models.Album
	err = r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.CoverPhotoID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlbumNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &a, nil
}

// SetCover назначает обложку альбома. Снимок должен принадлежать тому же владельцу.
func (r *AlbumRepo) SetCover(ctx context.Context, ownerID, albumID, photoID uuid.UUID) error {
	const op = "repository.album_repository.SetCover"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var photoExists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1 AND user_id = $2)`,
		photoID, ownerID).Scan(&photoExists)
	if err != nil {
		return fmt.Errorf("%s: failed to check photo existence: %w", op, err)
	}
	if !photoExists {
		return fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
	}

	query, args, err := r.sb.Update("albums").
		Set("cover_photo_id", photoID).
		Where(sq.Eq{"id": albumID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	res, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrAlbumNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
