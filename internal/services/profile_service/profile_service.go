package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/metrics"
	"polaroida/internal/repository"

	"github.com/google/uuid"
)

const (
	FieldUITheme = "ui_theme_style"
	FieldFrame   = "frame_style"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidValue   = errors.New("invalid profile value")
	ErrUpdateReverted = errors.New("profile update reverted")
)

// ChangePublisher доставляет подтверждённые изменения подписчикам
type ChangePublisher interface {
	Publish(ctx context.Context, change models.ProfileChange) error
}

type ProfileService struct {
	log       *slog.Logger
	profiles  repository.ProfileRepository
	publisher ChangePublisher
	now       func() time.Time
}

func NewProfileService(log *slog.Logger, profiles repository.ProfileRepository, publisher ChangePublisher) *ProfileService {
	return &ProfileService{
		log:       log,
		profiles:  profiles,
		publisher: publisher,
		now:       time.Now,
	}
}

// DefaultProfile профиль, который видит пользователь, пока строка в БД не прочитана
func DefaultProfile(userID uuid.UUID, email string) models.Profile {
	name, _, _ := strings.Cut(email, "@")

	return models.Profile{
		ID:              userID,
		FullName:        name,
		ThemePreference: models.ThemeLight,
		FrameStyle:      models.FrameClassic,
		UIThemeStyle:    models.UIThemeClassic,
	}
}

func (s *ProfileService) Create(ctx context.Context, userID uuid.UUID, fullName, email string) error {
	const op = "profile_service.Create"

	profile := DefaultProfile(userID, email)
	if name := strings.TrimSpace(fullName); name != "" {
		profile.FullName = name
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Get возвращает профиль пользователя. Если строку прочитать не удалось, отдаётся профиль по умолчанию с Fallback=true.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID, email string) (models.Profile, error) {
	const op = "profile_service.Get"

	if userID == uuid.Nil {
		return models.Profile{}, ErrUnauthorized
	}

	profile, err := s.profiles.ProfileByID(ctx, userID)
	if err != nil {
		s.log.Warn("profile unavailable, using fallback",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			sl.Err(err),
		)

		fallback := DefaultProfile(userID, email)
		fallback.Fallback = true

		return fallback, nil
	}

	return profile, nil
}

func (s *ProfileService) UpdateUITheme(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error) {
	if !models.UIThemeStyle(value).Valid() {
		return models.ProfileChange{}, fmt.Errorf("profile_service.UpdateUITheme: %w: %q", ErrInvalidValue, value)
	}
	return s.update(ctx, userID, FieldUITheme, value)
}

func (s *ProfileService) UpdateFrame(ctx context.Context, userID uuid.UUID, value string) (models.ProfileChange, error) {
	if !models.FrameStyle(value).Valid() {
		return models.ProfileChange{}, fmt.Errorf("profile_service.UpdateFrame: %w: %q", ErrInvalidValue, value)
	}
	return s.update(ctx, userID, FieldFrame, value)
}

// update проводит изменение через pending к confirmed или reverted.
// При reverted Effective содержит прежнее значение.
func (s *ProfileService) update(ctx context.Context, userID uuid.UUID, field, requested string) (models.ProfileChange, error) {
	const op = "profile_service.update"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.String("field", field),
	)

	if userID == uuid.Nil {
		return models.ProfileChange{}, ErrUnauthorized
	}

	previous := fieldValue(DefaultProfile(userID, ""), field)
	if current, err := s.profiles.ProfileByID(ctx, userID); err == nil {
		previous = fieldValue(current, field)
	} else {
		log.Warn("failed to read current profile", sl.Err(err))
	}

	change := models.ProfileChange{
		UserID:    userID,
		Field:     field,
		Previous:  previous,
		Requested: requested,
		Effective: requested,
		State:     models.UpdatePending,
		At:        s.now().UTC(),
	}
	log.Debug("profile change pending", slog.String("requested", requested))

	updated, err := s.profiles.UpdateProfileField(ctx, userID, field, requested)
	if err != nil {
		change.State = models.UpdateReverted
		change.Effective = previous
		metrics.ProfileChanges.WithLabelValues(field, string(change.State)).Inc()
		log.Error("profile change reverted", sl.Err(err))

		return change, fmt.Errorf("%s: %w: %w", op, ErrUpdateReverted, err)
	}

	change.State = models.UpdateConfirmed
	change.Effective = fieldValue(updated, field)
	metrics.ProfileChanges.WithLabelValues(field, string(change.State)).Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, change); err != nil {
			log.Warn("failed to publish profile change", sl.Err(err))
		}
	}

	log.Info("profile change confirmed", slog.String("effective", change.Effective))

	return change, nil
}

func fieldValue(p models.Profile, field string) string {
	switch field {
	case FieldUITheme:
		return string(p.UIThemeStyle)
	case FieldFrame:
		return string(p.FrameStyle)
	case "theme_preference":
		return string(p.ThemePreference)
	case "full_name":
		return p.FullName
	}
	return ""
}
