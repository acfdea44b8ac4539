// Package middleware renders the usual HTTP edge rejections — errors
// escaping handlers, panics, oversized bodies, rate limits, CORS and
// authentication failures — as problem details responses.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/theroutercompany/problem"
	"github.com/theroutercompany/problem/auth"
)

// Logger represents the subset of logging behaviour required by the
// middleware. Satisfied by zap's SugaredLogger.
type Logger interface {
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Handler is an http.Handler that may fail. A returned problem document is
// rendered as-is; any other error becomes a default-status problem.
type Handler func(http.ResponseWriter, *http.Request) error

type contextKey int

const principalKey contextKey = iota

// PrincipalFromContext returns the principal stored by Authenticate.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(principalKey).(*auth.Principal)
	return principal
}

// ErrorBoundary converts errors returned by a handler into problem
// responses. This is the generic error-to-response boundary: handlers return
// problem documents through the ordinary error path and the boundary renders
// them.
func ErrorBoundary(rn *problem.Renderer, logger Logger) func(Handler) http.Handler {
	rn = ensureRenderer(rn)
	return func(next Handler) http.Handler {
		if next == nil {
			return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := next(w, r)
			if err == nil {
				return
			}

			var p problem.Problem
			if errors.As(err, &p) {
				if logger != nil {
					logger.Warnw("request failed", "path", r.URL.Path, "error", err.Error())
				}
				rn.Write(w, r, p)
				return
			}

			if logger != nil {
				logger.Errorw("unhandled error", "path", r.URL.Path, "error", err.Error())
			}
			rn.Write(w, r, problem.New())
		})
	}
}

// Recover renders panics as default-status problems instead of letting the
// connection drop.
func Recover(rn *problem.Renderer, logger Logger) func(http.Handler) http.Handler {
	rn = ensureRenderer(rn)
	return func(next http.Handler) http.Handler {
		if next == nil {
			return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.Errorw("panic recovered", "path", r.URL.Path, "panic", fmt.Sprint(rec))
					}
					rn.Write(w, r, problem.New())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit rejects requests exceeding the limit with a 413 problem and caps
// readable bytes for the rest.
func BodyLimit(limit int64, rn *problem.Renderer) func(http.Handler) http.Handler {
	rn = ensureRenderer(rn)
	return func(next http.Handler) http.Handler {
		if next == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				rn.Write(w, r, problem.FromStatus(http.StatusRequestEntityTooLarge).
					WithDetail(fmt.Sprintf("Request body exceeds %d bytes", limit)))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit enforces per-client limiting and rejects excess requests with a
// 429 problem. Clients are keyed by remote IP.
func RateLimit(window time.Duration, max int, rn *problem.Renderer) func(http.Handler) http.Handler {
	rn = ensureRenderer(rn)
	limiter := newRateLimiter(window, max)
	return func(next http.Handler) http.Handler {
		if next == nil || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if limiter.allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			rn.Write(w, r, problem.FromStatus(http.StatusTooManyRequests).
				WithDetail("Rate limit exceeded"))
		})
	}
}

// CORS applies the configured cors handler and rejects disallowed origins
// with a 403 problem response.
func CORS(handler *cors.Cors, rn *problem.Renderer) func(http.Handler) http.Handler {
	rn = ensureRenderer(rn)
	return func(next http.Handler) http.Handler {
		if handler == nil || next == nil {
			return next
		}
		corsHandler := handler.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !handler.OriginAllowed(r) {
				rn.Write(w, r, problem.FromStatus(http.StatusForbidden).
					WithTitle("Not allowed by CORS").
					WithDetail(fmt.Sprintf("Origin %s is not allowed", origin)))
				return
			}
			corsHandler.ServeHTTP(w, r)
		})
	}
}

// Authenticate validates bearer tokens and renders authentication failures
// as 401/403 problems. The principal is stored on the request context.
func Authenticate(a *auth.Authenticator, scopes []string, rn *problem.Renderer) func(http.Handler) http.Handler {
	rn = ensureRenderer(rn)
	return func(next http.Handler) http.Handler {
		if a == nil || next == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.RequireScopes(r, scopes)
			if err != nil {
				var p problem.Problem
				if !errors.As(err, &p) {
					p = problem.FromStatus(http.StatusUnauthorized)
				}
				rn.Write(w, r, p)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ensureRenderer(rn *problem.Renderer) *problem.Renderer {
	if rn == nil {
		return problem.NewRenderer()
	}
	return rn
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
