package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"imagetales/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Get(ctx, KeyUserID)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, KeyUserID, "u1"))
	got, err := store.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	require.NoError(t, store.Set(ctx, KeyUserID, "u2"))
	got, err = store.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u2", got)
}

func TestStore_Session(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.UserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SaveSession(ctx, "u1", "access", "refresh"))

	id, err = store.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	token, err = store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", token)

	require.NoError(t, store.ClearSession(ctx))

	_, err = store.Get(ctx, KeyRefreshToken)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStore_SaveTokens(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, refresh)

	require.NoError(t, store.SaveSession(ctx, "u1", "old-access", "old-refresh"))

	require.NoError(t, store.SaveTokens(ctx, &models.TokenPair{
		UserID:       uuid.New(),
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
	}))

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)

	refresh, err = store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", refresh)

	id, err := store.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyUserID, "u1"))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
}
