package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	db    *pgxpool.Pool
	User  UserRepository
	Image ImageRepository
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewRepositoryFromPool(db), nil
}

func NewRepositoryFromPool(db *pgxpool.Pool) *Repository {
	return &Repository{
		db:    db,
		User:  NewUserRepository(db),
		Image: NewImageRepo(db),
	}
}

// EnsureSchema создает таблицы, если их еще нет
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repository) Close() {
	r.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	username TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password BYTEA NOT NULL,
	credits INT NOT NULL DEFAULT 0,
	plan TEXT NOT NULL DEFAULT 'Free',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS images (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	category TEXT NOT NULL,
	url TEXT NOT NULL,
	prompt TEXT,
	likes INT NOT NULL DEFAULT 0 CHECK (likes >= 0),
	liked_by TEXT[] NOT NULL DEFAULT '{}',
	views INT NOT NULL DEFAULT 0,
	is_generated BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS images_created_at_idx ON images (created_at DESC);
CREATE INDEX IF NOT EXISTS images_user_id_idx ON images (user_id);
`
