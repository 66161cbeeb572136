package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallpass/hallpass/internal/domain"
	"github.com/hallpass/hallpass/internal/session"
	"github.com/hallpass/hallpass/internal/transport/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMagicLinker implements the handler's unexported magicLinker
// interface via method matching.
type fakeMagicLinker struct {
	requestSignup func(ctx context.Context, email, name string) (*domain.User, error)
	requestLogin  func(ctx context.Context, email string) (*domain.User, error)
	requestResend func(ctx context.Context, email string) (*domain.User, error)
	verify        func(ctx context.Context, rawToken string) (*domain.User, string, error)
	currentUser   func(ctx context.Context, userID string) (*domain.User, error)
}

func (f *fakeMagicLinker) RequestSignup(ctx context.Context, email, name string) (*domain.User, error) {
	return f.requestSignup(ctx, email, name)
}

func (f *fakeMagicLinker) RequestLogin(ctx context.Context, email string) (*domain.User, error) {
	return f.requestLogin(ctx, email)
}

func (f *fakeMagicLinker) RequestResend(ctx context.Context, email string) (*domain.User, error) {
	return f.requestResend(ctx, email)
}

func (f *fakeMagicLinker) Verify(ctx context.Context, rawToken string) (*domain.User, string, error) {
	return f.verify(ctx, rawToken)
}

func (f *fakeMagicLinker) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return f.currentUser(ctx, userID)
}

func newTestEngine(svc *fakeMagicLinker) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewAuthHandler(svc, logger, 7*24*time.Hour, false)

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/verify", h.Verify)
	r.POST("/auth/resend-verification", h.Resend)
	r.POST("/auth/logout", h.Logout)
	r.GET("/me", func(c *gin.Context) { c.Set("userID", "user-1") }, h.Me)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

var verifiedUser = &domain.User{
	ID: "user-1", Email: "a@x.com", Name: "Ada", Verified: true, CreatedAt: time.Now(),
}

// ---- Signup ----

func TestSignup_InvalidJSON_Returns400(t *testing.T) {
	w := postJSON(t, newTestEngine(&fakeMagicLinker{}), "/auth/signup", `{bad json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_MalformedEmail_Returns400(t *testing.T) {
	w := postJSON(t, newTestEngine(&fakeMagicLinker{}), "/auth/signup", `{"email":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_VerifiedAccount_Returns409(t *testing.T) {
	svc := &fakeMagicLinker{
		requestSignup: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	w := postJSON(t, newTestEngine(svc), "/auth/signup", `{"email":"a@x.com"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSignup_Success_ReturnsAccount(t *testing.T) {
	svc := &fakeMagicLinker{
		requestSignup: func(_ context.Context, email, name string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: email, Name: name}, nil
		},
	}
	w := postJSON(t, newTestEngine(svc), "/auth/signup", `{"email":"a@x.com","name":"Ada"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"email":"a@x.com"`) {
		t.Errorf("body %q does not echo the email", w.Body.String())
	}
}

func TestSignup_ServiceFailure_Returns500Generic(t *testing.T) {
	svc := &fakeMagicLinker{
		requestSignup: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, errors.New("resend: 503")
		},
	}
	w := postJSON(t, newTestEngine(svc), "/auth/signup", `{"email":"a@x.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "resend") {
		t.Error("internal error detail leaked to the client")
	}
}

// ---- Login ----

func TestLogin_UnknownAccount_Returns404(t *testing.T) {
	svc := &fakeMagicLinker{
		requestLogin: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	w := postJSON(t, newTestEngine(svc), "/auth/login", `{"email":"unknown@x.com"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---- Resend ----

func TestResend_AlreadyVerified_Returns400(t *testing.T) {
	svc := &fakeMagicLinker{
		requestResend: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrAlreadyVerified
		},
	}
	w := postJSON(t, newTestEngine(svc), "/auth/resend-verification", `{"email":"a@x.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---- Verify ----

func TestVerify_MissingToken_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	newTestEngine(&fakeMagicLinker{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerify_InvalidToken_Returns400(t *testing.T) {
	svc := &fakeMagicLinker{
		verify: func(_ context.Context, _ string) (*domain.User, string, error) {
			return nil, "", domain.ErrTokenInvalid
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=bad", nil)
	newTestEngine(svc).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerify_Success_SetsSessionCookie(t *testing.T) {
	svc := &fakeMagicLinker{
		verify: func(_ context.Context, _ string) (*domain.User, string, error) {
			return verifiedUser, "signed-credential", nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=good", nil)
	newTestEngine(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "signed-credential" {
		t.Errorf("cookie value = %q, want the minted credential", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP-only")
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Errorf("cookie max-age = %d, want the credential TTL", cookie.MaxAge)
	}
}

// ---- Logout ----

func TestLogout_ClearsSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	newTestEngine(&fakeMagicLinker{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("logout did not touch the session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie not cleared: value=%q max-age=%d", cookie.Value, cookie.MaxAge)
	}
}

// ---- Me ----

func TestMe_UnknownUser_Returns401(t *testing.T) {
	svc := &fakeMagicLinker{
		currentUser: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUnauthenticated
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	newTestEngine(svc).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestMe_ReturnsLiveUserRecord(t *testing.T) {
	svc := &fakeMagicLinker{
		currentUser: func(_ context.Context, userID string) (*domain.User, error) {
			if userID != "user-1" {
				t.Errorf("looked up %q, want user-1", userID)
			}
			return verifiedUser, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	newTestEngine(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"verified":true`) {
		t.Errorf("body %q does not include the verified flag", w.Body.String())
	}
}
