package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"imagetales/internal/domain/models"
	"imagetales/internal/lib/jwt"
	"imagetales/internal/lib/logger/sl"
	"imagetales/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenNotInStorage = errors.New("token not found in storage")
)

type TokenService struct {
	log        *slog.Logger
	repo       repository.TokenRepository
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(
	log *slog.Logger,
	repo repository.TokenRepository,
	secret string,
	accessTTL, refreshTTL time.Duration,
) *TokenService {
	return &TokenService{
		log:        log,
		repo:       repo,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateTokens выпускает пару access/refresh и запоминает refresh в хранилище
func (s *TokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	const op = "services.TokenService.GenerateTokens"

	accessToken, err := jwt.NewToken(user, s.secret, jwt.TypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := jwt.NewToken(user, s.secret, jwt.TypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID.String(), refreshToken, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens меняет действующий refresh-токен на новую пару.
// Старый refresh-токен после этого недействителен.
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "services.TokenService.RefreshTokens"

	log := s.log.With(slog.String("op", op))

	claims, err := jwt.Parse(refreshToken, s.secret)
	if err != nil {
		log.Warn("failed to parse refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if jwt.Type(claims) != jwt.TypeRefresh {
		log.Warn("not a refresh token", slog.String("typ", jwt.Type(claims)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID, err := jwt.UserID(claims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	exists, err := s.repo.GetRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		log.Error("failed to check refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotInStorage)
	}

	if err := s.repo.DeleteRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	email, _ := claims[jwt.ClaimEmail].(string)

	return s.GenerateTokens(ctx, models.User{ID: id, Email: email})
}

// RevokeAll удаляет все refresh-токены пользователя
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	const op = "services.TokenService.RevokeAll"

	if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
