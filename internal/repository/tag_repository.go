package repository

import (
	"context"
	"fmt"

	"polaroida/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type TagRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewTagRepository(db *pgxpool.Pool) *TagRepo {
	return &TagRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertTag возвращает id тега с таким именем, создавая его при необходимости.
// Одновременные вставки одного имени получают один и тот же id.
func (r *TagRepo) UpsertTag(ctx context.Context, name string) (uuid.UUID, error) {
	const op = "repository.tag_repository.UpsertTag"

	query, args, err := r.sb.Insert("tags").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *TagRepo) LinkPhotoTag(ctx context.Context, photoID, tagID uuid.UUID) error {
	const op = "repository.tag_repository.LinkPhotoTag"

	query, args, err := r.sb.Insert("photo_tags").
		Columns("photo_id", "tag_id").
		Values(photoID, tagID).
		Suffix("ON CONFLICT (photo_id, tag_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *TagRepo) TagsByPhoto(ctx context.Context, photoID uuid.UUID) ([]string, error) {
	const op = "repository.tag_repository.TagsByPhoto"

	query, args, err := r.sb.Select("t.name").
		From("tags t").
		Join("photo_tags pt ON pt.tag_id = t.id").
		Where(sq.Eq{"pt.photo_id": photoID}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return names, nil
}
