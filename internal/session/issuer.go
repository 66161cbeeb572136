// Package session mints and validates the signed credential issued
// after a successful magic-link verification.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hallpass/hallpass/internal/domain"
)

// DefaultTTL is the session credential validity window, independent of
// the 15-minute magic-link token expiry.
const DefaultTTL = 7 * 24 * time.Hour

// CookieName is the cookie carrying the credential between requests.
const CookieName = "hallpass_session"

// Identity is what a validated credential asserts.
type Identity struct {
	UserID string
	Email  string
}

// Issuer signs HS256 JWTs with a server-held secret. Credentials are
// stateless: Validate never consults the store.
type Issuer struct {
	key []byte
	ttl time.Duration
}

func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key, ttl: DefaultTTL}
}

// TTL returns the credential validity window, used to size the session
// cookie's max-age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Mint signs a credential binding the user id and email.
func (i *Issuer) Mint(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(i.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the bound identity.
// Any failure maps to domain.ErrUnauthenticated.
func (i *Issuer) Validate(credential string) (Identity, error) {
	t, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	})
	if err != nil || !t.Valid {
		return Identity{}, domain.ErrUnauthenticated
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, domain.ErrUnauthenticated
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userID == "" || email == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return Identity{UserID: userID, Email: email}, nil
}
