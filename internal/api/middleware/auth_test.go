package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levijcl/Wei-sub002/internal/auth"
)

func newJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-that-is-long-enough!", time.Hour)
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders/order-1", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ============================================
// Extract Token Tests
// ============================================

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc123", ExtractToken(bearerRequest("abc123")))
	assert.Empty(t, ExtractToken(bearerRequest("")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, ExtractToken(req), "only bearer tokens are accepted")
}

// ============================================
// Auth Middleware Tests
// ============================================

func TestAuthMiddleware_ValidToken(t *testing.T) {
	svc := newJWTService()
	token, _, err := svc.GenerateToken("op-1", "alice", auth.RoleOperator)
	require.NoError(t, err)

	var seen *auth.Claims
	handler := AuthMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetOperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Name)
	assert.Equal(t, auth.RoleOperator, seen.Role)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := AuthMiddleware(newJWTService())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := AuthMiddleware(newJWTService())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest("not.a.token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================
// Require Role Tests
// ============================================

func roleChain(t *testing.T, svc *auth.JWTService, role string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	token, _, err := svc.GenerateToken("op-1", "alice", role)
	require.NoError(t, err)
	return httptest.NewRecorder(), bearerRequest(token)
}

func TestRequireRole_Allowed(t *testing.T) {
	svc := newJWTService()
	called := false
	handler := AuthMiddleware(svc)(RequireRole(auth.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	rec, req := roleChain(t, svc, auth.RoleOperator)
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
}

func TestRequireRole_Forbidden(t *testing.T) {
	svc := newJWTService()
	handler := AuthMiddleware(svc)(RequireRole(auth.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("viewer must not reach an operator-only handler")
	})))

	rec, req := roleChain(t, svc, auth.RoleViewer)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_ViewerEndpointsAcceptOperators(t *testing.T) {
	svc := newJWTService()
	called := false
	handler := AuthMiddleware(svc)(RequireRole(auth.RoleOperator, auth.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	rec, req := roleChain(t, svc, auth.RoleOperator)
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(auth.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without claims in context")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetOperatorName_NoClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetOperatorName(req.Context()))
}
