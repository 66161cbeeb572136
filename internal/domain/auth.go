package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidEmail    = errors.New("email is malformed")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("account already exists")
	ErrAlreadyVerified = errors.New("account is already verified")
	ErrTokenInvalid    = errors.New("token is invalid or expired")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// User is the identity record. The magic-link token triple
// (TokenHash, TokenExpiresAt, TokenUsed) is embedded in the user row.
// At most one active token exists per user; issuing a new one
// overwrites the previous one.
type User struct {
	ID       string
	Email    string
	Name     string
	Verified bool

	TokenHash      *string
	TokenExpiresAt *time.Time
	TokenUsed      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasActiveToken reports whether the user holds an unused, unexpired token.
func (u *User) HasActiveToken(now time.Time) bool {
	return u.TokenHash != nil && !u.TokenUsed &&
		u.TokenExpiresAt != nil && now.Before(*u.TokenExpiresAt)
}
