// Package localstore постоянное key/value хранилище клиента на SQLite.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"imagetales/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const (
	KeyUserID       = "user_id"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"

	kvTable = "kv"
)

var ErrKeyNotFound = errors.New("key not found")

type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open открывает (или создает) базу по пути path
func Open(ctx context.Context, path string) (*Store, error) {
	const op = "localstore.Open"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "localstore.Store.Get"

	var value string
	err := s.sb.Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		QueryRowContext(ctx).
		Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %s: %w", op, key, ErrKeyNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "localstore.Store.Set"

	_, err := s.sb.Insert(kvTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	const op = "localstore.Store.Delete"

	if len(keys) == 0 {
		return nil
	}

	if _, err := s.sb.Delete(kvTable).Where(sq.Eq{"key": keys}).ExecContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserID текущий пользователь или пустая строка для анонимного
func (s *Store) UserID(ctx context.Context) (string, error) {
	id, err := s.Get(ctx, KeyUserID)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return id, err
}

// AccessToken реализует galleryapi.TokenSource
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	token, err := s.Get(ctx, KeyAccessToken)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	token, err := s.Get(ctx, KeyRefreshToken)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

// SaveTokens сохраняет обновленную пару, пользователь сессии не меняется.
// Вместе с AccessToken и RefreshToken реализует galleryapi.Session.
func (s *Store) SaveTokens(ctx context.Context, pair *models.TokenPair) error {
	if err := s.Set(ctx, KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	return s.Set(ctx, KeyRefreshToken, pair.RefreshToken)
}

// SaveSession запоминает пользователя и его токены
func (s *Store) SaveSession(ctx context.Context, userID, accessToken, refreshToken string) error {
	for key, value := range map[string]string{
		KeyUserID:       userID,
		KeyAccessToken:  accessToken,
		KeyRefreshToken: refreshToken,
	} {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeyUserID, KeyAccessToken, KeyRefreshToken)
}

func (s *Store) Close() error {
	return s.db.Close()
}
