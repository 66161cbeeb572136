package repository

import (
	"context"
	"time"

	"github.com/hallpass/hallpass/internal/domain"
)

// UserRepository is the persistence contract for identity records and
// their embedded magic-link token state.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, email, name string) (*domain.User, error)
	UpdateName(ctx context.Context, id, name string) error

	// SetToken overwrites the user's token triple with a fresh hash and
	// expiry and resets the used flag. Any previously active token for
	// the user is invalidated by the overwrite.
	SetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// ClaimActiveToken atomically consumes the token matching tokenHash:
	// it marks the owner verified, flags the token used and clears the
	// stored hash and expiry in a single conditional update. Exactly one
	// of any set of concurrent callers presenting the same valid token
	// succeeds; all others get domain.ErrTokenInvalid, the same error a
	// wrong, used or expired token produces.
	ClaimActiveToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// ClearExpiredTokens clears the token triple for every user whose
	// stored token has expired, returning how many rows were touched.
	ClearExpiredTokens(ctx context.Context) (int64, error)
}
