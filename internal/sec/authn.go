package sec

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/beregond/contactboard/internal/storage"
	"github.com/beregond/contactboard/internal/storage/db"
)

// ErrBadCredentials is returned for both an unknown username and a wrong
// password. Callers must not surface anything more specific to the client.
var ErrBadCredentials = errors.New("invalid username or password")

// Authenticate resolves a login attempt against the user store. It returns
// the matching user on success, [ErrBadCredentials] on rejection, and any
// other error when the store or hasher faulted. The plaintext password is
// never logged or retained.
func Authenticate(ctx context.Context, users storage.Users, username, password string) (db.User, error) {
	user, err := users.GetUserByName(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return db.User{}, ErrBadCredentials
	} else if err != nil {
		return db.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := ComparePassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return db.User{}, ErrBadCredentials
		}
		return db.User{}, fmt.Errorf("failed to verify password: %w", err)
	}
	return user, nil
}
