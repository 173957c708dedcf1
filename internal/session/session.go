// Package session issues, resolves, and destroys the server-side sessions
// referenced by the client's opaque cookie value.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// TTL is the fixed session lifetime, measured from creation. It is not
// sliding; a busy session still expires 24 hours after login.
const TTL = 24 * time.Hour

// tokenBytes sizes the random session token (hex-encoded on the wire).
const tokenBytes = 32

// Store persists sessions in a shared store, separate in principle from the
// application data.
type Store interface {
	// Create allocates a new session for userID and returns its opaque
	// token. The session expires [TTL] from now.
	Create(ctx context.Context, userID uint64) (string, error)
	// Resolve maps a token to the user ID it was created for. Unknown and
	// expired tokens resolve to (0, false, nil); an expired session never
	// resolves to a live principal.
	Resolve(ctx context.Context, token string) (uint64, bool, error)
	// Destroy removes the session. Destroying a session that is already
	// gone is not an error.
	Destroy(ctx context.Context, token string) error
	// Close releases the store's resources.
	Close() error
}

// newToken returns a fresh opaque session token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
