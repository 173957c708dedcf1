package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/influxdata/influxdb/pkg/snowflake"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/storage/db"
)

// Username validation constraints.
const (
	minUsernameLen = 3
	maxUsernameLen = 64
)

// MaxMessageLimit bounds ListRecentMessages result sets.
const MaxMessageLimit = 50

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validateUsername validates that a username meets the requirements:
// 3-64 characters, alphanumeric and underscores only.
func validateUsername(name string) bool {
	return len(name) >= minUsernameLen &&
		len(name) <= maxUsernameLen &&
		usernameRegex.MatchString(name)
}

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, cfg.DBFilepath)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// Handle exposes the underlying connection so the session store can share
// the same database file.
func (d *DB) Handle() *sql.DB {
	return d.db
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByName satisfies the [Users] interface.
func (d *DB) GetUserByName(ctx context.Context, username string) (db.User, error) {
	user, err := d.queries.GetUserByName(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// CreateUser satisfies the [Users] interface.
func (d *DB) CreateUser(ctx context.Context, username string, passwordHash []byte, isAdmin bool) (db.User, error) {
	if !validateUsername(username) {
		return db.User{}, ErrInvalidUsername
	}
	user := db.User{
		ID:           d.ids.Next(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	switch err := d.queries.CreateUser(ctx, user); {
	case isUniqueViolation(err):
		return db.User{}, ErrAlreadyExists
	case err != nil:
		return db.User{}, fmt.Errorf("failed to insert user: %w", err)
	default:
		return user, nil
	}
}

// PromoteUser grants the admin role to an existing user. Not part of the
// request-facing [Users] interface; the web app never mutates users. The
// change is visible from the user's next session resolution.
func (d *DB) PromoteUser(ctx context.Context, userID uint64) error {
	if err := d.queries.PromoteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	return nil
}

// ListUsers satisfies the [Users] interface.
func (d *DB) ListUsers(ctx context.Context) ([]db.User, error) {
	return d.queries.GetUsers(ctx)
}

// AppendMessage satisfies the [Messages] interface.
func (d *DB) AppendMessage(ctx context.Context, authorID *uint64, name, email, subject, body string) (db.Message, error) {
	if name == "" || email == "" || subject == "" || body == "" {
		return db.Message{}, ErrInvalidMessage
	}
	msg := db.Message{
		ID:        d.ids.Next(),
		Name:      name,
		Email:     email,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if authorID != nil {
		msg.AuthorID = sql.Null[uint64]{V: *authorID, Valid: true}
	}
	if err := d.queries.InsertMessage(ctx, msg); err != nil {
		return db.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// ListRecentMessages satisfies the [Messages] interface.
func (d *DB) ListRecentMessages(ctx context.Context, limit int) ([]db.Message, error) {
	if limit <= 0 || limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	return d.queries.GetMessages(ctx, int64(limit))
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

var _ Store = (*DB)(nil)
