package session_test

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/session"
	"github.com/beregond/contactboard/internal/storage"
)

func newDBStore(t *testing.T) (*session.DB, *storage.DB) {
	t.Helper()
	cfg := config.Default()
	cfg.DBFilepath = filepath.Join(t.TempDir(), "db.sqlite")
	appStore, err := storage.NewDB(t.Context(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = appStore.Close() })
	return session.NewDB(appStore.Handle()), appStore
}

func TestDBStore(t *testing.T) {
	t.Parallel()

	store, appStore := newDBStore(t)
	const userID uint64 = 42

	t.Run("create and resolve", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		resolved, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, userID, resolved)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := store.Create(t.Context(), userID)
		require.NoError(t, err)
		b, err := store.Create(t.Context(), userID)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("unknown token resolves to none", func(t *testing.T) {
		_, ok, err := store.Resolve(t.Context(), "deadbeef")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("destroyed session never resolves", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)

		require.NoError(t, store.Destroy(t.Context(), token))
		_, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		assert.False(t, ok)

		// idempotent
		require.NoError(t, store.Destroy(t.Context(), token))
	})

	t.Run("expired session resolves to none", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)

		_, err = appStore.Handle().ExecContext(t.Context(),
			`UPDATE sessions SET expires_at = ? WHERE token = ?`,
			time.Now().UTC().Add(-time.Minute), token)
		require.NoError(t, err)

		_, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		assert.False(t, ok)

		// the lazy eviction dropped the row
		var count int
		err = appStore.Handle().QueryRowContext(t.Context(),
			`SELECT count(*) FROM sessions WHERE token = ?`, token).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := session.NewRedis(t.Context(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	const userID uint64 = 7

	t.Run("create and resolve", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)

		resolved, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, userID, resolved)
	})

	t.Run("unknown token resolves to none", func(t *testing.T) {
		_, ok, err := store.Resolve(t.Context(), "deadbeef")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("destroy is idempotent", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)

		require.NoError(t, store.Destroy(t.Context(), token))
		_, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Destroy(t.Context(), token))
	})

	t.Run("session expires after TTL", func(t *testing.T) {
		token, err := store.Create(t.Context(), userID)
		require.NoError(t, err)

		mr.FastForward(session.TTL + time.Second)
		_, ok, err := store.Resolve(t.Context(), token)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNewRedis_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := session.NewRedis(t.Context(), "127.0.0.1:1", "")
	require.Error(t, err)
}
