package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/jwt"
	"polaroida/internal/repository"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenNotInStorage = errors.New("token not found in storage")
)

type TokenService struct {
	repo       repository.TokenRepository
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(repo repository.TokenRepository, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		repo:       repo,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	const op = "token_service.GenerateTokens"

	accessToken, err := jwt.NewToken(user, s.secret, jwt.KindAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := jwt.NewToken(user, s.secret, jwt.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID.String(), refreshToken, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens обменивает refresh-токен на новую пару. Старый токен удаляется.
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "token_service.RefreshTokens"

	claims, err := jwt.Parse(refreshToken, s.secret, jwt.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID := claims.UserID.String()

	exists, err := s.repo.GetRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotInStorage)
	}

	if err := s.repo.DeleteRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GenerateTokens(ctx, models.User{ID: claims.UserID, Email: claims.Email})
}

// ParseAccess проверяет access-токен и возвращает его claims
func (s *TokenService) ParseAccess(accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.Parse(accessToken, s.secret, jwt.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("token_service.ParseAccess: %w", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke удаляет refresh-токен. Пустой токен означает выход со всех устройств.
func (s *TokenService) Revoke(ctx context.Context, userID, refreshToken string) error {
	const op = "token_service.Revoke"

	if refreshToken == "" {
		if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	if err := s.repo.DeleteRefreshToken(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
