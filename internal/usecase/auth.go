package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hallpass/hallpass/internal/domain"
	"github.com/hallpass/hallpass/internal/email"
	"github.com/hallpass/hallpass/internal/metrics"
	"github.com/hallpass/hallpass/internal/repository"
	"github.com/hallpass/hallpass/internal/session"
	"github.com/hallpass/hallpass/internal/token"
)

const defaultTokenTTL = 15 * time.Minute

// MagicLinkService owns the token lifecycle: it issues single-use
// links on signup/login/resend and consumes them on verification.
type MagicLinkService struct {
	users    repository.UserRepository
	notifier email.Notifier
	sessions *session.Issuer
	validate *validator.Validate
	tokenTTL time.Duration
	baseURL  string
}

func NewMagicLinkService(users repository.UserRepository, notifier email.Notifier, sessions *session.Issuer, baseURL string) *MagicLinkService {
	return &MagicLinkService{
		users:    users,
		notifier: notifier,
		sessions: sessions,
		validate: validator.New(),
		tokenTTL: defaultTokenTTL,
		baseURL:  baseURL,
	}
}

// RequestSignup creates or revives a pending account and emails a
// fresh magic link. Signup on an already verified account is rejected.
func (s *MagicLinkService) RequestSignup(ctx context.Context, emailAddr, name string) (*domain.User, error) {
	emailAddr, err := s.normalizeEmail(emailAddr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if user.Verified {
			return nil, domain.ErrUserExists
		}
		if name != "" && name != user.Name {
			if err := s.users.UpdateName(ctx, user.ID, name); err != nil {
				return nil, fmt.Errorf("update name: %w", err)
			}
			user.Name = name
		}
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.users.Create(ctx, emailAddr, name)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.issue(ctx, user, "signup"); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestLogin issues a magic link to an existing verified account.
func (s *MagicLinkService) RequestLogin(ctx context.Context, emailAddr string) (*domain.User, error) {
	emailAddr, err := s.normalizeEmail(emailAddr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Verified {
		return nil, domain.ErrUserNotFound
	}

	if err := s.issue(ctx, user, "login"); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestResend re-issues the signup link for a still-pending account.
func (s *MagicLinkService) RequestResend(ctx context.Context, emailAddr string) (*domain.User, error) {
	emailAddr, err := s.normalizeEmail(emailAddr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Verified {
		return nil, domain.ErrAlreadyVerified
	}

	if err := s.issue(ctx, user, "resend"); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify atomically consumes the presented token and mints a session
// credential. Wrong, already-used and expired tokens all fail with the
// same domain.ErrTokenInvalid.
func (s *MagicLinkService) Verify(ctx context.Context, rawToken string) (*domain.User, string, error) {
	if rawToken == "" {
		return nil, "", domain.ErrTokenInvalid
	}

	user, err := s.users.ClaimActiveToken(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			metrics.VerifyTotal.WithLabelValues("rejected").Inc()
			return nil, "", domain.ErrTokenInvalid
		}
		return nil, "", fmt.Errorf("claim token: %w", err)
	}

	credential, err := s.sessions.Mint(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("mint session: %w", err)
	}

	metrics.VerifyTotal.WithLabelValues("verified").Inc()
	return user, credential, nil
}

// CurrentUser re-fetches the user behind a validated session so the
// response reflects the live record, not the credential snapshot.
func (s *MagicLinkService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// issue generates a token, persists it (overwriting any prior active
// token) and only then dispatches the link, so any link the user
// receives is already valid in the store. Dispatch failure fails the
// whole request.
func (s *MagicLinkService) issue(ctx context.Context, user *domain.User, flow string) error {
	raw, hash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	if err := s.users.SetToken(ctx, user.ID, hash, time.Now().Add(s.tokenTTL)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	url := s.baseURL + "/auth/verify?token=" + raw
	if err := s.notifier.SendLoginLink(ctx, user.Email, user.Name, url); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	metrics.LinksIssuedTotal.WithLabelValues(flow).Inc()
	return nil
}

// normalizeEmail lowercases and syntax-checks the address. All entry
// points normalize, so lookups are effectively case-insensitive.
func (s *MagicLinkService) normalizeEmail(emailAddr string) (string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if err := s.validate.Var(emailAddr, "required,email"); err != nil {
		return "", domain.ErrInvalidEmail
	}
	return emailAddr, nil
}
