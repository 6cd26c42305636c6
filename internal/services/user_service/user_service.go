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
	"polaroida/internal/transport/http/dto"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExist          = errors.New("user already exist")
	ErrUserNotFound       = errors.New("user not found")
)

type TokenIssuer interface {
	GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Revoke(ctx context.Context, userID, refreshToken string) error
}

type ProfileCreator interface {
	Create(ctx context.Context, userID uuid.UUID, fullName, email string) error
}

type UserService struct {
	log      *slog.Logger
	repo     repository.UserRepository
	tokens   TokenIssuer
	profiles ProfileCreator
}

func NewUserService(log *slog.Logger, repo repository.UserRepository, tokens TokenIssuer, profiles ProfileCreator) *UserService {
	return &UserService{
		log:      log,
		repo:     repo,
		tokens:   tokens,
		profiles: profiles,
	}
}

// RegisterNewUser создаёт пользователя и его профиль
func (s *UserService) RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error) {
	const op = "user_service.RegisterNewUser"

	email := strings.ToLower(strings.TrimSpace(input.Email))

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("register user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SaveUser(ctx, email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exist", sl.Err(err))

			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserExist)
		}

		log.Error("failed to save user", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	// без строки профиля пользователь получит профиль по умолчанию
	if err := s.profiles.Create(ctx, id, input.FullName, email); err != nil {
		log.Warn("failed to create profile", sl.Err(err))
	}

	log.Info("user registered", slog.String("user_id", id.String()))

	return id, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error) {
	const op = "user_service.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", email),
	)

	log.Info("attempting to login user")

	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))

			return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tokens, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		log.Error("failed to generate tokens", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return user, tokens, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "user_service.Refresh"

	tokens, err := s.tokens.RefreshTokens(ctx, refreshToken)
	if err != nil {
		s.log.Info("refresh rejected", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, nil
}

func (s *UserService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	const op = "user_service.Logout"

	if err := s.tokens.Revoke(ctx, userID.String(), refreshToken); err != nil {
		s.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *UserService) UserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "user_service.UserByID"

	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
