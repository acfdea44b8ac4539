package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/cors"

	"github.com/theroutercompany/problem"
	"github.com/theroutercompany/problem/auth"
	"github.com/theroutercompany/problem/config"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem.Details[problem.Map] {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != problem.ContentTypeJSON {
		t.Fatalf("expected %s, got %s", problem.ContentTypeJSON, ct)
	}
	var d problem.Details[problem.Map]
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return d
}

func TestErrorBoundaryRendersProblemErrors(t *testing.T) {
	handler := ErrorBoundary(nil, nil)(func(http.ResponseWriter, *http.Request) error {
		return problem.FromStatus(http.StatusConflict).WithDetail("already exists")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	d := decodeProblem(t, rec)
	if d.Detail != "already exists" {
		t.Fatalf("unexpected detail: %q", d.Detail)
	}
}

func TestErrorBoundaryWrapsPlainErrors(t *testing.T) {
	handler := ErrorBoundary(nil, nil)(func(http.ResponseWriter, *http.Request) error {
		return errors.New("database exploded")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	d := decodeProblem(t, rec)
	if strings.Contains(d.Detail, "database exploded") {
		t.Fatalf("internal error text must not leak: %q", d.Detail)
	}
}

func TestErrorBoundaryPassesSuccessThrough(t *testing.T) {
	handler := ErrorBoundary(nil, nil)(func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRecoverRendersPanicsAsProblems(t *testing.T) {
	handler := Recover(nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	decodeProblem(t, rec)
}

func TestBodyLimitRejectsOversizedRequests(t *testing.T) {
	handler := BodyLimit(8, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way more than eight bytes"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	d := decodeProblem(t, rec)
	if d.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status member 413, got %d", d.Status)
	}
}

func TestRateLimitRejectsExcessRequests(t *testing.T) {
	handler := RateLimit(time.Minute, 1, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	decodeProblem(t, second)
}

func TestCORSRejectsDisallowedOrigin(t *testing.T) {
	c := cors.New(cors.Options{AllowedOrigins: []string{"https://good.example"}})
	handler := CORS(c, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	d := decodeProblem(t, rec)
	if d.Title != "Not allowed by CORS" {
		t.Fatalf("unexpected title: %q", d.Title)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	c := cors.New(cors.Options{AllowedOrigins: []string{"https://good.example"}})
	handler := CORS(c, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://good.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticateStoresPrincipal(t *testing.T) {
	a, err := auth.New(config.AuthConfig{Secret: "mw-secret"})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-9",
		"scope": "trade:read",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("mw-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	var principal *auth.Principal
	handler := Authenticate(a, []string{"trade:read"}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if principal == nil || principal.Subject != "user-9" {
		t.Fatalf("expected principal in context, got %+v", principal)
	}
}

func TestAuthenticateRendersProblem(t *testing.T) {
	a, err := auth.New(config.AuthConfig{Secret: "mw-secret"})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}

	handler := Authenticate(a, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	d := decodeProblem(t, rec)
	if d.Title != "Authentication Required" {
		t.Fatalf("unexpected title: %q", d.Title)
	}
}
