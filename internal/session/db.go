package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DB is a [Store] backed by the sessions table of the application's SQLite
// database. Expiry is lazy: expired rows are dropped when they are next
// resolved.
type DB struct {
	db *sql.DB
}

// NewDB returns a session store sharing the given database handle. The
// handle stays open after Close; it belongs to the application store.
func NewDB(handle *sql.DB) *DB {
	return &DB{db: handle}
}

// Create satisfies the [Store] interface.
func (d *DB) Create(ctx context.Context, userID uint64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC().Add(TTL))
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return token, nil
}

// Resolve satisfies the [Store] interface.
func (d *DB) Resolve(ctx context.Context, token string) (uint64, bool, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ?`, token)

	var userID uint64
	var expiresAt time.Time
	switch err := row.Scan(&userID, &expiresAt); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("failed to look up session: %w", err)
	}

	if !expiresAt.After(time.Now().UTC()) {
		// Lazy eviction; a failed delete still leaves the session dead.
		_ = d.Destroy(ctx, token)
		return 0, false, nil
	}
	return userID, true, nil
}

// Destroy satisfies the [Store] interface.
func (d *DB) Destroy(ctx context.Context, token string) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close satisfies the [Store] interface. The shared handle is closed by the
// application store, not here.
func (d *DB) Close() error { return nil }

var _ Store = (*DB)(nil)
