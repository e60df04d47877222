package repository

import (
	"context"
	"time"

	"imagetales/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID) error
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

type ImageRepository interface {
	CreateImage(ctx context.Context, image models.Image) (string, error)
	GetImageByID(ctx context.Context, id string) (models.Image, error)
	GetImages(ctx context.Context, categories []string, limit uint64) ([]models.Image, error)
	GetImagesByUser(ctx context.Context, userID string, limit uint64) ([]models.Image, error)
	ToggleLike(ctx context.Context, imageID, userID string) (models.LikeResult, error)
	DeleteImage(ctx context.Context, imageID, userID string) error
	BackfillCreatedAt(ctx context.Context) (int64, error)
}
