package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theroutercompany/problem"
	"github.com/theroutercompany/problem/config"
)

const testSecret = "unit-test-secret"

func newAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New(config.AuthConfig{Secret: testSecret, Issuer: "issuer"})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func signedToken(t *testing.T, scope string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "issuer",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if scope != "" {
		claims["scope"] = scope
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func problemStatus(t *testing.T, err error) int {
	t.Helper()
	var p problem.Problem
	if !errors.As(err, &p) {
		t.Fatalf("expected problem error, got %v", err)
	}
	return p.StatusCode()
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	a := newAuthenticator(t)

	principal, err := a.Authenticate(requestWithToken(signedToken(t, "trade:read")))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", principal.Subject)
	}
	if len(principal.Scopes) != 1 || principal.Scopes[0] != "trade:read" {
		t.Fatalf("unexpected scopes: %v", principal.Scopes)
	}
}

func TestAuthenticateMissingHeader(t *testing.T) {
	a := newAuthenticator(t)

	_, err := a.Authenticate(requestWithToken(""))
	if status := problemStatus(t, err); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 problem, got %d", status)
	}
}

func TestAuthenticateBadSignature(t *testing.T) {
	a := newAuthenticator(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, authErr := a.Authenticate(requestWithToken(token))
	if status := problemStatus(t, authErr); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 problem, got %d", status)
	}
}

func TestRequireScopesAllowsOwnedScope(t *testing.T) {
	a := newAuthenticator(t)

	_, err := a.RequireScopes(requestWithToken(signedToken(t, "trade:read task:write")), []string{"trade:read"})
	if err != nil {
		t.Fatalf("expected scope to pass: %v", err)
	}
}

func TestRequireScopesReportsExtension(t *testing.T) {
	a := newAuthenticator(t)

	_, err := a.RequireScopes(requestWithToken(signedToken(t, "task:write")), []string{"trade:read"})
	if status := problemStatus(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403 problem, got %d", status)
	}

	var details problem.Details[ScopeExtensions]
	if !errors.As(err, &details) {
		t.Fatalf("expected scope extensions, got %v", err)
	}
	if len(details.Extensions.RequiredScopes) != 1 || details.Extensions.RequiredScopes[0] != "trade:read" {
		t.Fatalf("unexpected extensions: %+v", details.Extensions)
	}
}
