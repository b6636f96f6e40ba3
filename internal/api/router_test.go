package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/api/handler"
	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

const testSecret = "router-secret"

type stubUserRepo struct {
	ports.UserRepository
	users map[string]*domain.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type stubNotifications struct {
	ports.NotificationService
	gotUser string
}

func (s *stubNotifications) List(_ context.Context, userID string, _ bool, _ int) (*ports.NotificationList, error) {
	s.gotUser = userID
	return &ports.NotificationList{Items: []*domain.Notification{{ID: "n1", ReceiverID: userID}}, UnreadCount: 1}, nil
}

func newTestRouter(t *testing.T) (*stubNotifications, http.Handler) {
	t.Helper()
	notifications := &stubNotifications{}
	e := NewRouter(RouterConfig{
		JWTSecret: testSecret,
		Logger:    zerolog.Nop(),
		Services:  Services{Notifications: notifications},
		UserRepo: &stubUserRepo{users: map[string]*domain.User{
			"cust": {ID: "cust", Role: domain.RoleCustomer, Status: domain.UserStatusActive},
			"root": {ID: "root", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
			"ag":   {ID: "ag", Role: domain.RoleAgent, Status: domain.UserStatusActive},
		}},
		Readiness: map[string]handler.Pinger{
			"mongodb": func(context.Context) error { return nil },
		},
		Registry: prometheus.NewRegistry(),
	})
	return notifications, e
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

// ---------------------------------------------------------------------------

func TestRouter_HealthIsPublic(t *testing.T) {
	_, r := newTestRouter(t)
	for _, path := range []string{"/health", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_V1RequiresToken(t *testing.T) {
	_, r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_AuthenticatedInbox(t *testing.T) {
	notifications, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications?unread=true", nil)
	req.Header.Set("Authorization", bearer(t, "cust", domain.RoleCustomer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if notifications.gotUser != "cust" {
		t.Errorf("inbox listed for %q, want cust", notifications.gotUser)
	}
	var body struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.UnreadCount != 1 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_AdminRoutesRejectCustomers(t *testing.T) {
	_, r := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/modules"},
		{http.MethodDelete, "/v1/applications/ABC-123456"},
		{http.MethodPut, "/v1/users/u1/status"},
		{http.MethodGet, "/v1/sub-agents"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, "cust", domain.RoleCustomer))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouter_RoleRestrictedRoutes(t *testing.T) {
	_, r := newTestRouter(t)
	for _, tc := range []struct{ method, path, sub, role string }{
		{http.MethodGet, "/v1/sub-agents", "root", domain.RoleAdmin},
		{http.MethodPost, "/v1/sub-agents", "root", domain.RoleAdmin},
		{http.MethodPost, "/v1/applications/ABC-123456/delete-request", "ag", domain.RoleAgent},
		{http.MethodPost, "/v1/applications/ABC-123456/delete-request", "root", domain.RoleAdmin},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.sub, tc.role))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as %s: expected 403, got %d", tc.method, tc.path, tc.role, rec.Code)
		}
	}
}
