package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/api/middleware"
	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, actor, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) EnsureAdmin(context.Context, ports.AdminSeed) (bool, error) {
	return false, nil
}

// newJSONContext builds an echo context with the validator installed and,
// when p is non-nil, a bound principal.
func newJSONContext(method, target, body string, p *domain.Principal) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, p)
	}
	return e, c, rec
}

var adminPrincipal = &domain.Principal{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
			if actor.UserID != "admin-1" {
				t.Fatalf("actor not forwarded: %+v", actor)
			}
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Role != "WRITE_READ" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: domain.RoleWriteRead, PasswordHash: "secret-hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	_, c, rec := newJSONContext(http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"s3cret-pass","role":"WRITE_READ"}`, adminPrincipal)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u1" || resp["email"] != "alice@example.com" || resp["role"] != "WRITE_READ" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatal("password hash leaked into the response")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	_, c, _ := newJSONContext(http.MethodPost, "/auth/register",
		`{"name":"Bob","email":"bob@example.com","password":"long-enough","role":"READ_ONLY"}`, adminPrincipal)

	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	e, c, rec := newJSONContext(http.MethodPost, "/auth/register", "not-json", adminPrincipal)
	if err := handler.Register(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_ValidationFails(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	_, c, _ := newJSONContext(http.MethodPost, "/auth/register",
		`{"name":"Bob","email":"not-an-email","password":"short","role":"READ_ONLY"}`, adminPrincipal)

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "email must be a valid email") || !strings.Contains(err.Error(), "password must be at least 8") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAuthHandler_Register_RequiresPrincipal(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})
	_, c, _ := newJSONContext(http.MethodPost, "/auth/register", `{}`, nil)

	if err := handler.Register(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{
				Token:     "token123",
				ExpiresAt: expires,
				User:      &domain.User{ID: "u1", Name: "Alice", Email: email, Role: domain.RoleWriteRead},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	_, c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`, nil)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	if !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, resp.ExpiresAt)
	}
	if resp.User.ID != "u1" || resp.User.Role != domain.RoleWriteRead {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrTooManyAttempts} {
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
				return nil, want
			},
		}
		handler := NewAuthHandler(stub)

		_, c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"bad"}`, nil)
		if err := handler.Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	e, c, rec := newJSONContext(http.MethodPost, "/auth/login", "{", nil)
	if err := handler.Login(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})
	p := &domain.Principal{UserID: "u1", Email: "alice@example.com", Role: domain.RoleReadOnly, Authorities: []string{"ROLE_READ_ONLY"}}
	_, c, rec := newJSONContext(http.MethodGet, "/auth/me", "", p)

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got domain.Principal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.UserID != "u1" || got.Role != domain.RoleReadOnly || len(got.Authorities) != 1 {
		t.Fatalf("unexpected principal: %+v", got)
	}
}

func TestLoginOutcome(t *testing.T) {
	cases := map[error]string{
		domain.ErrInvalidCredentials: "invalid_credentials",
		domain.ErrTooManyAttempts:    "throttled",
		errors.New("boom"):           "error",
	}
	for err, want := range cases {
		if got := loginOutcome(err); got != want {
			t.Fatalf("loginOutcome(%v) = %q, want %q", err, got, want)
		}
	}
}
