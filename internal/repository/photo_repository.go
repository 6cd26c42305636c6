package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"polaroida/internal/domain/models"
	"polaroida/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

// photoColumns порядок совпадает со scanPhoto
var photoColumns = []string{
	"p.id",
	"p.user_id",
	"p.image_url",
	"p.storage_path",
	"p.caption",
	"p.taken_at",
	"p.location_name",
	"p.location_lat",
	"p.location_lng",
	"p.device_info",
	"p.weather",
	"p.frame_style",
	"p.filter_style",
	"p.style_config",
	"p.album_id",
	"p.created_at",
	`COALESCE((
		SELECT array_agg(t.name ORDER BY t.name)
		FROM photo_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.photo_id = p.id
	), '{}') AS tags`,
}

type PhotoRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PhotoRepo) CreatePhoto(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	const op = "repository.photo_repository.CreatePhoto"

	styleConfig, err := styleConfigParam(photo.StyleConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if photo.AlbumID != nil {
		if err := r.checkAlbumOwner(ctx, photo.UserID, *photo.AlbumID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	query, args, err := r.sb.Insert("photos").
		Columns(
			"user_id",
			"image_url",
			"storage_path",
			"caption",
			"taken_at",
			"location_name",
			"location_lat",
			"location_lng",
			"device_info",
			"weather",
			"frame_style",
			"filter_style",
			"style_config",
			"album_id",
		).
		Values(
			photo.UserID,
			photo.ImageURL,
			photo.StoragePath,
			photo.Caption,
			photo.TakenAt,
			photo.LocationName,
			photo.LocationLat,
			photo.LocationLng,
			photo.DeviceInfo,
			photo.Weather,
			string(photo.FrameStyle),
			photo.FilterStyle,
			styleConfig,
			photo.AlbumID,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	created := *photo
	if err := r.db.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation && photo.AlbumID != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlbumNotFound)
		}
		return nil, fmt.Errorf("%s: failed to create photo: %w", op, err)
	}

	return &created, nil
}

// checkAlbumOwner: альбом чужого пользователя считается несуществующим
func (r *PhotoRepo) checkAlbumOwner(ctx context.Context, ownerID, albumID uuid.UUID) error {
	query, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("albums").
		Where(sq.Eq{"id": albumID, "user_id": ownerID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check album: %w", err)
	}
	if !exists {
		return storage.ErrAlbumNotFound
	}

	return nil
}

func (r *PhotoRepo) PhotoByID(ctx context.Context, ownerID, photoID uuid.UUID) (*models.Photo, error) {
	const op = "repository.photo_repository.PhotoByID"

	query, args, err := r.sb.Select(photoColumns...).
		From("photos p").
		Where(sq.Eq{"p.id": photoID, "p.user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	photo, err := scanPhoto(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// ListPhotos возвращает снимки владельца, новые по дате съёмки первыми
func (r *PhotoRepo) ListPhotos(ctx context.Context, ownerID uuid.UUID, filter models.PhotoFilter) ([]models.Photo, error) {
	const op = "repository.photo_repository.ListPhotos"

	qb := r.sb.Select(photoColumns...).
		From("photos p").
		Where(sq.Eq{"p.user_id": ownerID}).
		OrderBy("p.taken_at DESC", "p.created_at DESC")

	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	if filter.AlbumID != nil {
		qb = qb.Where(sq.Eq{"p.album_id": *filter.AlbumID})
	}
	if filter.Tag != "" {
		qb = qb.Where(`EXISTS (
			SELECT 1 FROM photo_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.photo_id = p.id AND t.name = ?
		)`, filter.Tag)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	return r.queryPhotos(ctx, op, query, args...)
}

// Timeline возвращает все снимки владельца в порядке съёмки
func (r *PhotoRepo) Timeline(ctx context.Context, ownerID uuid.UUID) ([]models.Photo, error) {
	const op = "repository.photo_repository.Timeline"

	query, args, err := r.sb.Select(photoColumns...).
		From("photos p").
		Where(sq.Eq{"p.user_id": ownerID}).
		OrderBy("p.taken_at ASC", "p.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	return r.queryPhotos(ctx, op, query, args...)
}

// UpdateCaption меняет только переданные поля
func (r *PhotoRepo) UpdateCaption(ctx context.Context, ownerID, photoID uuid.UUID, upd models.PhotoUpdate) (*models.Photo, error) {
	const op = "repository.photo_repository.UpdateCaption"

	if upd.Empty() {
		return r.PhotoByID(ctx, ownerID, photoID)
	}

	qb := r.sb.Update("photos").
		Where(sq.Eq{"id": photoID, "user_id": ownerID})
	if upd.Caption != nil {
		qb = qb.Set("caption", *upd.Caption)
	}
	if upd.LocationName != nil {
		qb = qb.Set("location_name", *upd.LocationName)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
	}

	return r.PhotoByID(ctx, ownerID, photoID)
}

// DeletePhoto удаляет снимок владельца и возвращает путь объекта в хранилище.
// Связи с тегами удаляются каскадно.
func (r *PhotoRepo) DeletePhoto(ctx context.Context, ownerID, photoID uuid.UUID) (string, error) {
	const op = "repository.photo_repository.DeletePhoto"

	query, args, err := r.sb.Delete("photos").
		Where(sq.Eq{"id": photoID, "user_id": ownerID}).
		Suffix("RETURNING storage_path").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var path string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return path, nil
}

// ExistingStoragePaths отмечает пути, на которые ссылается хотя бы один снимок
func (r *PhotoRepo) ExistingStoragePaths(ctx context.Context, paths []string) (map[string]bool, error) {
	const op = "repository.photo_repository.ExistingStoragePaths"

	found := make(map[string]bool, len(paths))
	if len(paths) == 0 {
		return found, nil
	}

	query, args, err := r.sb.Select("DISTINCT storage_path").
		From("photos").
		Where("storage_path = ANY(?)", pq.Array(paths)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		found[p] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return found, nil
}

func (r *PhotoRepo) queryPhotos(ctx context.Context, op, query string, args ...interface{}) ([]models.Photo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		photos = append(photos, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return photos, nil
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var (
		p          models.Photo
		frameStyle string
		styleRaw   []byte
		tags       []string
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ImageURL,
		&p.StoragePath,
		&p.Caption,
		&p.TakenAt,
		&p.LocationName,
		&p.LocationLat,
		&p.LocationLng,
		&p.DeviceInfo,
		&p.Weather,
		&frameStyle,
		&p.FilterStyle,
		&styleRaw,
		&p.AlbumID,
		&p.CreatedAt,
		pq.Array(&tags),
	)
	if err != nil {
		return nil, err
	}

	p.FrameStyle = models.FrameStyle(frameStyle)
	p.Tags = tags

	if len(styleRaw) > 0 {
		var sc models.StyleConfig
		if err := json.Unmarshal(styleRaw, &sc); err != nil {
			return nil, fmt.Errorf("invalid style_config: %w", err)
		}
		p.StyleConfig = &sc
	}

	return &p, nil
}

func styleConfigParam(sc *models.StyleConfig) (interface{}, error) {
	if sc == nil {
		return nil, nil
	}

	raw, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}

	return string(raw), nil
}
