// Package sec provides the credential verification primitives for the web
// application.
//
// # Authentication
//
// Login form credentials are validated against bcrypt password hashes stored
// in the database. An unknown username and a wrong password both resolve to
// [ErrBadCredentials] so that login responses cannot be used to enumerate
// usernames. Store or hasher faults are reported as distinct errors, never
// as a rejection.
//
// # Components
//
//   - [Authenticate]: Validates a username/password pair against the user store
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec
