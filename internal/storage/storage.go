// Package storage provides the state management for users and contact
// messages.
package storage

import (
	"context"

	"github.com/beregond/contactboard/internal/storage/db"
)

const (
	// ErrNotFound is returned when a user cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if the username is already taken.
	ErrAlreadyExists Error = "already exists"
	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername Error = "username must be 3-64 characters, alphanumeric and underscores only"
	// ErrInvalidMessage is returned when a contact message is missing a
	// required field.
	ErrInvalidMessage Error = "name, email, subject, and body must all be set"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying users.
type Users interface {
	// GetUser returns a single user with the specified ID. An [ErrNotFound]
	// is returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByName returns a single user with the specified username. An
	// [ErrNotFound] is returned if the username does not exist.
	GetUserByName(ctx context.Context, username string) (db.User, error)
	// CreateUser inserts a new user, assigning its ID and creation time. An
	// [ErrAlreadyExists] error is returned if the username is already in
	// use; the store's uniqueness constraint is the guarantee, so this holds
	// under concurrent duplicate registrations.
	CreateUser(ctx context.Context, username string, passwordHash []byte, isAdmin bool) (db.User, error)
	// ListUsers returns all users, oldest first.
	ListUsers(ctx context.Context) ([]db.User, error)
}

// Messages are the methods on a storage implementation that are responsible
// for the append-only contact messages.
type Messages interface {
	// AppendMessage inserts a contact message, assigning its ID and creation
	// time. authorID is nil for anonymous submissions. An [ErrInvalidMessage]
	// is returned, and nothing written, if any field is empty.
	AppendMessage(ctx context.Context, authorID *uint64, name, email, subject, body string) (db.Message, error)
	// ListRecentMessages returns up to limit messages, newest first. Limits
	// outside (0, MaxMessageLimit] are clamped to [MaxMessageLimit].
	ListRecentMessages(ctx context.Context, limit int) ([]db.Message, error)
}

// Store is the combination interface for [Users] and [Messages].
type Store interface {
	Users
	Messages
	// Close releases any resources held by the store. An error is returned
	// if the store cannot be cleanly closed.
	Close() error
}
