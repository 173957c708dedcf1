package db

import (
	"context"
	"database/sql"
	"time"
)

// User is a row in the users table.
type User struct {
	ID           uint64
	Username     string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
}

// Message is a row in the messages table. AuthorID is invalid when the
// message was submitted anonymously.
type Message struct {
	ID        uint64
	AuthorID  sql.Null[uint64]
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}

// DBTX is the subset of [sql.DB] and [sql.Tx] the queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New returns a Queries bound to the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries exposes the statements run against the application database.
// Every method is a single atomic statement.
type Queries struct {
	db DBTX
}

const createUser = `
INSERT INTO users (id, username, password_hash, is_admin, created_at)
VALUES (?, ?, ?, ?, ?)`

// CreateUser inserts a user row. The unique index on username makes a
// duplicate insert fail with a constraint error.
func (q *Queries) CreateUser(ctx context.Context, user User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		user.ID, user.Username, user.PasswordHash, user.IsAdmin, user.CreatedAt)
	return err
}

const getUser = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE id = ?`

// GetUser returns the user row with the given id.
func (q *Queries) GetUser(ctx context.Context, id uint64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

const getUserByName = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE username = ?`

// GetUserByName returns the user row with the given username.
func (q *Queries) GetUserByName(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByName, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

const getUsers = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
ORDER BY created_at, id`

// GetUsers returns all user rows, oldest first.
func (q *Queries) GetUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, getUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const promoteUser = `
UPDATE users SET is_admin = TRUE WHERE id = ?`

// PromoteUser sets the admin flag on a user row.
func (q *Queries) PromoteUser(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, promoteUser, id)
	return err
}

const countUsersByName = `
SELECT count(*) FROM users WHERE username = ?`

// CountUsersByName returns the number of rows holding username.
func (q *Queries) CountUsersByName(ctx context.Context, username string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersByName, username).Scan(&n)
	return n, err
}

const insertMessage = `
INSERT INTO messages (id, author_id, name, email, subject, body, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// InsertMessage appends a message row.
func (q *Queries) InsertMessage(ctx context.Context, msg Message) error {
	_, err := q.db.ExecContext(ctx, insertMessage,
		msg.ID, msg.AuthorID, msg.Name, msg.Email, msg.Subject, msg.Body, msg.CreatedAt)
	return err
}

const getMessages = `
SELECT id, author_id, name, email, subject, body, created_at
FROM messages
ORDER BY created_at DESC, id DESC
LIMIT ?`

// GetMessages returns up to limit message rows, newest first.
func (q *Queries) GetMessages(ctx context.Context, limit int64) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx, getMessages, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.AuthorID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
