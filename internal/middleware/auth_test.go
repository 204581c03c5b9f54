package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/token"
)

type stubLoader struct {
	user *model.User
}

func (s *stubLoader) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if s.user == nil {
		return nil, repository.ErrUserNotFound
	}
	return s.user, nil
}

func newTestMiddleware(user *model.User) (*AuthMiddleware, *token.Manager) {
	tokens := token.NewManager("test-access", "test-refresh")
	return NewAuthMiddleware(tokens, &stubLoader{user: user}), tokens
}

func accessCookie(t *testing.T, tokens *token.Manager, user *model.User) *http.Cookie {
	t.Helper()

	access, _, err := tokens.NewPair(user)
	if err != nil {
		t.Fatalf("new token pair: %v", err)
	}
	return &http.Cookie{Name: AccessCookieName, Value: access}
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	user := &model.User{ID: 42, Roles: []model.Role{model.RoleUser}}
	m, tokens := newTestMiddleware(user)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Fatalf("user not in context")
		}
		if got.ID != 42 {
			t.Fatalf("user id from context = %d, want 42", got.ID)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(accessCookie(t, tokens, user))

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithBearerHeader(t *testing.T) {
	user := &model.User{ID: 7, Roles: []model.Role{model.RoleUser}}
	m, tokens := newTestMiddleware(user)

	access, _, err := tokens.NewPair(user)
	if err != nil {
		t.Fatalf("new token pair: %v", err)
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+access)

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutToken(t *testing.T) {
	m, _ := newTestMiddleware(nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RejectsRefreshTokenAsAccess(t *testing.T) {
	user := &model.User{ID: 1, Roles: []model.Role{model.RoleUser}}
	m, tokens := newTestMiddleware(user)

	_, refresh, err := tokens.NewPair(user)
	if err != nil {
		t.Fatalf("new token pair: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: refresh})

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_BannedUser(t *testing.T) {
	user := &model.User{ID: 1, Banned: true, Roles: []model.Role{model.RoleUser}}
	m, tokens := newTestMiddleware(user)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(accessCookie(t, tokens, user))

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := &model.User{ID: 1, Roles: []model.Role{model.RoleAdmin}}
	m, tokens := newTestMiddleware(admin)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(accessCookie(t, tokens, admin))

	handler := m.Middleware(m.RequireAdmin(next))
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called for admin")
	}

	user := &model.User{ID: 2, Roles: []model.Role{model.RoleUser, model.RoleWholesaler}}
	m, tokens = newTestMiddleware(user)

	w := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(accessCookie(t, tokens, user))

	handler = m.Middleware(m.RequireAdmin(next))
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}
