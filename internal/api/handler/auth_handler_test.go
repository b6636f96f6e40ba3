package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubVerification struct {
	ports.VerificationService
	sent     []string
	verifyFn func(email, code string) (string, error)
}

func (s *stubVerification) SendCode(_ context.Context, email string) error {
	s.sent = append(s.sent, email)
	return nil
}

func (s *stubVerification) VerifyCode(_ context.Context, email, code string) (string, error) {
	return s.verifyFn(email, code)
}

// newTestEcho returns an echo instance configured like the real router.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// serve runs h against a JSON request and routes any returned error through
// echo's error handler, as the router would.
func serve(e *echo.Echo, h echo.HandlerFunc, method, target, body string, setup func(c echo.Context)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

// ---------------------------------------------------------------------------

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "alice@example.com" || in.VerificationToken != "vtok" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Username: in.Username, Role: domain.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(stub, &stubVerification{})

	rec := serve(e, h.Register, http.MethodPost, "/auth/register",
		`{"name":"Alice","username":"alice","email":"alice@example.com","password":"longenough","verification_token":"vtok"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" || user["role"] != domain.RoleCustomer {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Register_ValidationFails(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, &stubVerification{})

	rec := serve(e, h.Register, http.MethodPost, "/auth/register",
		`{"name":"Alice","username":"alice","email":"alice@example.com","password":"short"}`, nil)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "password") || !strings.Contains(rec.Body.String(), "verification_token") {
		t.Fatalf("expected json field names in message, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubVerification{})

	rec := serve(e, h.Register, http.MethodPost, "/auth/register", "not-json", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{Username: "alice", Role: domain.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(stub, &stubVerification{})

	rec := serve(e, h.Login, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
}

func TestAuthHandler_Login_ErrorIsReturned(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, &stubVerification{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"bad"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.Login(c); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for the error handler, got %v", err)
	}
}

func TestAuthHandler_SendCode(t *testing.T) {
	e := newTestEcho()
	verification := &stubVerification{}
	h := NewAuthHandler(&stubAuthService{}, verification)

	rec := serve(e, h.SendCode, http.MethodPost, "/auth/verification", `{"email":"ana@example.com"}`, nil)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(verification.sent) != 1 || verification.sent[0] != "ana@example.com" {
		t.Fatalf("code not requested: %v", verification.sent)
	}

	rec = serve(e, h.SendCode, http.MethodPost, "/auth/verification", `{"email":"not-an-email"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad email, got %d", rec.Code)
	}
}

func TestAuthHandler_ConfirmCode(t *testing.T) {
	e := newTestEcho()
	verification := &stubVerification{
		verifyFn: func(email, code string) (string, error) {
			if code != "042137" {
				t.Fatalf("code = %q", code)
			}
			return "vtok", nil
		},
	}
	h := NewAuthHandler(&stubAuthService{}, verification)

	rec := serve(e, h.ConfirmCode, http.MethodPost, "/auth/verification/confirm", `{"email":"ana@example.com","code":"042137"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp verificationTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.VerificationToken != "vtok" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = serve(e, h.ConfirmCode, http.MethodPost, "/auth/verification/confirm", `{"email":"ana@example.com","code":"12ab"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed code, got %d", rec.Code)
	}
}
