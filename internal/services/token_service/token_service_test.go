package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error {
	args := m.Called(ctx, userID, token, exp)
	return args.Error(0)
}

func (m *MockTokenRepository) GetRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	args := m.Called(ctx, userID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

const testSecret = "test-secret"

var (
	testUser = models.User{
		ID:    uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		Email: "test@example.com",
	}
	testCtx = context.Background()
)

func newTestService(repo *MockTokenRepository) *TokenService {
	return NewTokenService(repo, testSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestGenerateTokens_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, 7*24*time.Hour).
		Return(nil)

	tokens, err := service.GenerateTokens(testCtx, testUser)

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := service.ParseAccess(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.UserID)

	_, err = service.ParseAccess(tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	repo.AssertExpectations(t)
}

func TestGenerateTokens_RepoError(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	expectedErr := errors.New("storage error")
	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(expectedErr)

	tokens, err := service.GenerateTokens(testCtx, testUser)

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, tokens)
	repo.AssertExpectations(t)
}

func TestRefreshTokens_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	refresh, err := jwt.NewToken(testUser, testSecret, jwt.KindRefresh, time.Hour)
	require.NoError(t, err)

	repo.On("GetRefreshToken", testCtx, testUser.ID.String(), refresh).Return(true, nil).Once()
	repo.On("DeleteRefreshToken", testCtx, testUser.ID.String(), refresh).Return(nil).Once()
	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).Return(nil).Once()

	tokens, err := service.RefreshTokens(testCtx, refresh)

	require.NoError(t, err)
	assert.NotEqual(t, refresh, tokens.RefreshToken)
	repo.AssertExpectations(t)
}

func TestRefreshTokens_NotInStorage(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	refresh, err := jwt.NewToken(testUser, testSecret, jwt.KindRefresh, time.Hour)
	require.NoError(t, err)

	repo.On("GetRefreshToken", testCtx, testUser.ID.String(), refresh).Return(false, nil).Once()

	_, err = service.RefreshTokens(testCtx, refresh)

	assert.ErrorIs(t, err, ErrTokenNotInStorage)
	repo.AssertNotCalled(t, "DeleteRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshTokens_RejectsAccessToken(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	access, err := jwt.NewToken(testUser, testSecret, jwt.KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = service.RefreshTokens(testCtx, access)

	assert.ErrorIs(t, err, ErrInvalidToken)
	repo.AssertNotCalled(t, "GetRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshTokens_WrongSecret(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	refresh, err := jwt.NewToken(testUser, "other-secret", jwt.KindRefresh, time.Hour)
	require.NoError(t, err)

	_, err = service.RefreshTokens(testCtx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("DeleteRefreshToken", testCtx, "u1", "tok").Return(nil).Once()
	repo.On("DeleteAllUserTokens", testCtx, "u1").Return(nil).Once()

	require.NoError(t, service.Revoke(testCtx, "u1", "tok"))
	require.NoError(t, service.Revoke(testCtx, "u1", ""))
	repo.AssertExpectations(t)
}
