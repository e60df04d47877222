package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"imagetales/internal/domain/models"
	"imagetales/internal/lib/jwt"

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
	testLog = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func newTestService(repo *MockTokenRepository) *TokenService {
	return NewTokenService(testLog, repo, testSecret, 15*time.Minute, time.Hour)
}

func TestGenerateTokens_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, time.Hour).
		Return(nil)

	tokens, err := service.GenerateTokens(testCtx, testUser)

	require.NoError(t, err)
	assert.Equal(t, testUser.ID, tokens.UserID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := jwt.Parse(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	uid, err := jwt.UserID(claims)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID.String(), uid)

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

func TestRefreshTokens(t *testing.T) {
	refreshToken, err := jwt.NewToken(testUser, testSecret, jwt.TypeRefresh, time.Hour)
	require.NoError(t, err)

	foreignToken, err := jwt.NewToken(testUser, "other-secret", jwt.TypeRefresh, time.Hour)
	require.NoError(t, err)

	accessToken, err := jwt.NewToken(testUser, testSecret, jwt.TypeAccess, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		setup   func(repo *MockTokenRepository)
		wantErr error
	}{
		{
			name:  "success",
			token: refreshToken,
			setup: func(repo *MockTokenRepository) {
				repo.On("GetRefreshToken", testCtx, testUser.ID.String(), refreshToken).Return(true, nil)
				repo.On("DeleteRefreshToken", testCtx, testUser.ID.String(), refreshToken).Return(nil)
				repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, time.Hour).Return(nil)
			},
		},
		{
			name:    "garbage token",
			token:   "invalid.token.string",
			setup:   func(repo *MockTokenRepository) {},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "foreign signature",
			token:   foreignToken,
			setup:   func(repo *MockTokenRepository) {},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "access token",
			token:   accessToken,
			setup:   func(repo *MockTokenRepository) {},
			wantErr: ErrInvalidToken,
		},
		{
			name:  "already rotated",
			token: refreshToken,
			setup: func(repo *MockTokenRepository) {
				repo.On("GetRefreshToken", testCtx, testUser.ID.String(), refreshToken).Return(false, nil)
			},
			wantErr: ErrTokenNotInStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTokenRepository)
			tt.setup(repo)
			service := newTestService(repo)

			tokens, err := service.RefreshTokens(testCtx, tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, tokens.AccessToken)
				assert.Equal(t, testUser.ID, tokens.UserID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRefreshTokens_RotatesImmediately(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	var saved []string
	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, time.Hour).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.String(2))
		}).
		Return(nil)

	pair, err := service.GenerateTokens(testCtx, testUser)
	require.NoError(t, err)

	repo.On("GetRefreshToken", testCtx, testUser.ID.String(), pair.RefreshToken).Return(true, nil).Once()
	repo.On("DeleteRefreshToken", testCtx, testUser.ID.String(), pair.RefreshToken).Return(nil).Once()

	rotated, err := service.RefreshTokens(testCtx, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.Equal(t, []string{pair.RefreshToken, rotated.RefreshToken}, saved)

	claims, err := jwt.Parse(rotated.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, jwt.TypeRefresh, jwt.Type(claims))

	repo.AssertExpectations(t)
}

func TestRevokeAll(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("DeleteAllUserTokens", testCtx, testUser.ID.String()).Return(nil)

	require.NoError(t, service.RevokeAll(testCtx, testUser.ID.String()))
	repo.AssertExpectations(t)
}
