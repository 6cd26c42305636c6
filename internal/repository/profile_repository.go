package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var ErrUnknownProfileField = errors.New("unknown profile field")

// изменяемые поля профиля
var profileFields = map[string]bool{
	"theme_preference": true,
	"frame_style":      true,
	"ui_theme_style":   true,
	"full_name":        true,
}

type ProfileRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProfileRepo) CreateProfile(ctx context.Context, profile models.Profile) error {
	const op = "repository.profile_repository.CreateProfile"

	query, args, err := r.sb.Insert("profiles").
		Columns("id", "full_name", "theme_preference", "frame_style", "ui_theme_style").
		Values(
			profile.ID,
			profile.FullName,
			string(profile.ThemePreference),
			string(profile.FrameStyle),
			string(profile.UIThemeStyle),
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ProfileRepo) ProfileByID(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	const op = "repository.profile_repository.ProfileByID"

	query, args, err := r.sb.Select("id", "full_name", "theme_preference", "frame_style", "ui_theme_style", "updated_at").
		From("profiles").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
		}
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// UpdateProfileField меняет одно поле и возвращает сохранённый профиль
func (r *ProfileRepo) UpdateProfileField(ctx context.Context, userID uuid.UUID, field, value string) (models.Profile, error) {
	const op = "repository.profile_repository.UpdateProfileField"

	if !profileFields[field] {
		return models.Profile{}, fmt.Errorf("%s: %w: %s", op, ErrUnknownProfileField, field)
	}

	query, args, err := r.sb.Update("profiles").
		Set(field, value).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": userID}).
		Suffix("RETURNING id, full_name, theme_preference, frame_style, ui_theme_style, updated_at").
		ToSql()
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
		}
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var p models.Profile
	var theme, frame, uiTheme string

	if err := row.Scan(&p.ID, &p.FullName, &theme, &frame, &uiTheme, &p.UpdatedAt); err != nil {
		return models.Profile{}, err
	}

	p.ThemePreference = models.ThemePreference(theme)
	p.FrameStyle = models.FrameStyle(frame)
	p.UIThemeStyle = models.UIThemeStyle(uiTheme)

	return p, nil
}
