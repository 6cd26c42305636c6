package repository

import (
	"context"
	"errors"
	"fmt"

	"polaroida/internal/storage/postgresql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	db      *pgxpool.Pool
	User    UserRepository
	Photo   PhotoRepository
	Tag     TagRepository
	Album   AlbumRepository
	Profile ProfileRepository
}

func NewRepository(ctx context.Context, dsn string, migrate bool) (*Repository, error) {
	db, err := postgresql.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return NewRepositoryFromPool(db), nil
}

func NewRepositoryFromPool(db *pgxpool.Pool) *Repository {
	return &Repository{
		db:      db,
		User:    NewUserRepository(db),
		Photo:   NewPhotoRepository(db),
		Tag:     NewTagRepository(db),
		Album:   NewAlbumRepository(db),
		Profile: NewProfileRepository(db),
	}
}

func (r *Repository) Close() {
	r.db.Close()
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
