package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"imagetales/internal/domain/models"
	"imagetales/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) UserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	email := gofakeit.Email()
	username := gofakeit.Username()

	tests := []struct {
		name    string
		setup   func(repo *MockUserRepository, tokens *MockTokenIssuer)
		wantErr error
	}{
		{
			name: "success",
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("SaveUser", ctx, mock.MatchedBy(func(u models.User) bool {
					return u.Email == email &&
						u.Username == username &&
						u.Plan == models.DefaultPlan &&
						bcrypt.CompareHashAndPassword(u.Password, []byte("secret123")) == nil
				})).Return(userID, nil)
				tokens.On("GenerateTokens", ctx, mock.MatchedBy(func(u models.User) bool {
					return u.ID == userID
				})).Return(&models.TokenPair{UserID: userID, AccessToken: "a", RefreshToken: "r"}, nil)
			},
		},
		{
			name: "duplicate email",
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("SaveUser", ctx, mock.Anything).Return(uuid.Nil, storage.ErrUserExists)
			},
			wantErr: ErrUserExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tokens := new(MockTokenIssuer)
			tt.setup(repo, tokens)

			service := NewUserService(testLog, repo, tokens)
			pair, err := service.Register(ctx, username, email, "secret123")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, pair.UserID)
			}
			repo.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	testPassword := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	testUser := models.User{
		ID:       uuid.New(),
		Email:    "test@example.com",
		Password: hashedPassword,
	}

	tests := []struct {
		name     string
		password string
		setup    func(repo *MockUserRepository, tokens *MockTokenIssuer)
		wantErr  error
	}{
		{
			name:     "success",
			password: testPassword,
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil)
				repo.On("TouchLastLogin", ctx, testUser.ID).Return(nil)
				tokens.On("GenerateTokens", ctx, testUser).
					Return(&models.TokenPair{UserID: testUser.ID, AccessToken: "a", RefreshToken: "r"}, nil)
			},
		},
		{
			name:     "last login failure is not fatal",
			password: testPassword,
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil)
				repo.On("TouchLastLogin", ctx, testUser.ID).Return(errors.New("db down"))
				tokens.On("GenerateTokens", ctx, testUser).
					Return(&models.TokenPair{UserID: testUser.ID}, nil)
			},
		},
		{
			name:     "wrong password",
			password: "wrong",
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(testUser, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			password: testPassword,
			setup: func(repo *MockUserRepository, tokens *MockTokenIssuer) {
				repo.On("UserByEmail", ctx, testUser.Email).Return(models.User{}, storage.ErrUserNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tokens := new(MockTokenIssuer)
			tt.setup(repo, tokens)

			service := NewUserService(testLog, repo, tokens)
			pair, err := service.Login(ctx, testUser.Email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
			} else {
				require.NoError(t, err)
				assert.Equal(t, testUser.ID, pair.UserID)
			}
			repo.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("default plan", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserById", ctx, id).Return(models.User{ID: id, Username: "neo"}, nil)

		user, err := NewUserService(testLog, repo, nil).Profile(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultPlan, user.Plan)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserById", ctx, id).Return(models.User{}, storage.ErrUserNotFound)

		_, err := NewUserService(testLog, repo, nil).Profile(ctx, id)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
