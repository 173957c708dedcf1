package storage

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beregond/contactboard/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := config.Default()
	cfg.DBFilepath = filepath.Join(t.TempDir(), "db.sqlite")
	store, err := NewDB(t.Context(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDB_Users(t *testing.T) {
	t.Parallel()

	store := newTestDB(t)

	user, err := store.CreateUser(t.Context(), "alice", []byte("hash"), false)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("lookup", func(t *testing.T) {
		actual, err := store.GetUser(t.Context(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", actual.Username)

		actual, err = store.GetUserByName(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, actual.ID)

		_, err = store.GetUser(t.Context(), 0)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = store.GetUserByName(t.Context(), "not a real user")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := store.CreateUser(t.Context(), "alice", []byte("other"), false)
		require.ErrorIs(t, err, ErrAlreadyExists)

		n, err := store.queries.CountUsersByName(t.Context(), "alice")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("invalid usernames", func(t *testing.T) {
		_, err := store.CreateUser(t.Context(), "ab", []byte("hash"), false)
		require.ErrorIs(t, err, ErrInvalidUsername)

		_, err = store.CreateUser(t.Context(), "invalid/name", []byte("hash"), false)
		require.ErrorIs(t, err, ErrInvalidUsername)
	})

	t.Run("list", func(t *testing.T) {
		_, err := store.CreateUser(t.Context(), "bob", []byte("hash"), true)
		require.NoError(t, err)

		users, err := store.ListUsers(t.Context())
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(users), 2)
		assert.Equal(t, "alice", users[0].Username)
	})

	t.Run("promote", func(t *testing.T) {
		carol, err := store.CreateUser(t.Context(), "carol", []byte("hash"), false)
		require.NoError(t, err)
		assert.False(t, carol.IsAdmin)

		require.NoError(t, store.PromoteUser(t.Context(), carol.ID))

		carol, err = store.GetUser(t.Context(), carol.ID)
		require.NoError(t, err)
		assert.True(t, carol.IsAdmin)
	})
}

// The uniqueness constraint must hold without the advisory check-then-insert
// fast path: concurrent registrations of the same name leave exactly one row.
func TestDB_ConcurrentDuplicateRegistration(t *testing.T) {
	t.Parallel()

	store := newTestDB(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.CreateUser(t.Context(), "dupe", []byte("hash"), false)
		}()
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			require.ErrorIs(t, err, ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, created)

	n, err := store.queries.CountUsersByName(t.Context(), "dupe")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDB_Messages(t *testing.T) {
	t.Parallel()

	store := newTestDB(t)
	author, err := store.CreateUser(t.Context(), "writer", []byte("hash"), false)
	require.NoError(t, err)

	t.Run("missing fields reject without a write", func(t *testing.T) {
		for _, msg := range [][4]string{
			{"", "a@b.c", "subj", "body"},
			{"name", "", "subj", "body"},
			{"name", "a@b.c", "", "body"},
			{"name", "a@b.c", "subj", ""},
		} {
			_, err := store.AppendMessage(t.Context(), nil, msg[0], msg[1], msg[2], msg[3])
			require.ErrorIs(t, err, ErrInvalidMessage)
		}

		msgs, err := store.ListRecentMessages(t.Context(), 0)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("anonymous and authored", func(t *testing.T) {
		anon, err := store.AppendMessage(t.Context(), nil, "Anon", "anon@example.com", "hi", "hello")
		require.NoError(t, err)
		assert.False(t, anon.AuthorID.Valid)

		authored, err := store.AppendMessage(t.Context(), &author.ID, "Writer", "w@example.com", "hi", "hello")
		require.NoError(t, err)
		require.True(t, authored.AuthorID.Valid)
		assert.Equal(t, author.ID, authored.AuthorID.V)
	})

	t.Run("newest first, bounded", func(t *testing.T) {
		msgs, err := store.ListRecentMessages(t.Context(), MaxMessageLimit)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		// same-timestamp inserts fall back to insertion order of ids
		assert.Equal(t, "Writer", msgs[0].Name)
		assert.Equal(t, "Anon", msgs[1].Name)

		msgs, err = store.ListRecentMessages(t.Context(), 1)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)

		// out-of-range limits clamp rather than going unbounded
		msgs, err = store.ListRecentMessages(t.Context(), MaxMessageLimit+100)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})
}
