package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallpass/hallpass/internal/domain"
	"github.com/hallpass/hallpass/internal/session"
)

// magicLinker is the subset of MagicLinkService the handler needs.
// Defined here (point of use) so tests can inject a fake.
type magicLinker interface {
	RequestSignup(ctx context.Context, email, name string) (*domain.User, error)
	RequestLogin(ctx context.Context, email string) (*domain.User, error)
	RequestResend(ctx context.Context, email string) (*domain.User, error)
	Verify(ctx context.Context, rawToken string) (*domain.User, string, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

type AuthHandler struct {
	svc           magicLinker
	logger        *slog.Logger
	cookieTTL     time.Duration
	secureCookies bool
}

// NewAuthHandler builds the auth endpoints. secureCookies should be
// true everywhere except local development.
func NewAuthHandler(svc magicLinker, logger *slog.Logger, cookieTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		svc:           svc,
		logger:        logger.With("component", "auth_handler"),
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

type signupRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type accountResponse struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.RequestSignup(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidEmail.Error()})
		case errors.Is(err, domain.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": errUserExists})
		default:
			h.logger.ErrorContext(c.Request.Context(), "signup", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, accountResponse{Email: user.Email, Name: user.Name})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.RequestLogin(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidEmail.Error()})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		default:
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, accountResponse{Email: user.Email, Name: user.Name})
}

// POST /auth/resend-verification
func (h *AuthHandler) Resend(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.RequestResend(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidEmail.Error()})
		case errors.Is(err, domain.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"error": errAlreadyVerified})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		default:
			h.logger.ErrorContext(c.Request.Context(), "resend verification", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, accountResponse{Email: user.Email, Name: user.Name})
}

// GET /auth/verify?token=<raw>
// On success sets the session cookie and returns the verified user.
// Wrong, used and expired tokens are indistinguishable to the caller.
func (h *AuthHandler) Verify(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
		return
	}

	user, credential, err := h.svc.Verify(c.Request.Context(), rawToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "verify magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.setSessionCookie(c, credential, int(h.cookieTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusOK)
}

// GET /me
// Runs behind the Auth middleware; re-fetches the user so the response
// reflects the current record rather than the credential snapshot.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")

	user, err := h.svc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthenticated})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "current user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.secureCookies, true)
}
