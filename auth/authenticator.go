// Package auth validates JWT bearer tokens and reports failures as problem
// details documents, so middleware can render them at the response boundary
// without translation.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theroutercompany/problem"
	"github.com/theroutercompany/problem/config"
)

// Principal represents the authenticated caller.
type Principal struct {
	Subject string
	Scopes  []string
	Token   string
}

// ScopeExtensions carries the scope requirement on insufficient-scope
// problems as extension members.
type ScopeExtensions struct {
	RequiredScopes []string `json:"requiredScopes"`
}

func unauthorized(detail string) error {
	return problem.FromStatus(http.StatusUnauthorized).
		WithTitle("Authentication Required").
		WithDetail(detail)
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	secret    []byte
	audiences []string
	issuer    string
}

// New constructs an authenticator from configuration.
func New(cfg config.AuthConfig) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret not configured")
	}

	return &Authenticator{
		secret:    []byte(cfg.Secret),
		audiences: cfg.Audiences,
		issuer:    cfg.Issuer,
	}, nil
}

// Authenticate validates the request's bearer token. Failures are returned
// as problem documents implementing error.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, unauthorized("Malformed authorization header")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, unauthorized("Malformed authorization header")
	}

	principal, err := a.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	principal.Token = tokenString
	return principal, nil
}

// RequireScopes validates the token and checks that the caller owns at least
// one of the required scopes, reporting a 403 problem with a requiredScopes
// extension member otherwise.
func (a *Authenticator) RequireScopes(r *http.Request, scopes []string) (*Principal, error) {
	principal, err := a.Authenticate(r)
	if err != nil {
		return nil, err
	}
	if len(scopes) > 0 && !principal.HasAnyScope(scopes) {
		return nil, problem.WithExtensions(
			problem.FromStatus(http.StatusForbidden).
				WithTitle("Insufficient Scope").
				WithDetail("Requires one of scopes: "+strings.Join(scopes, ", ")),
			ScopeExtensions{RequiredScopes: scopes},
		)
	}
	return principal, nil
}

func (a *Authenticator) parseToken(tokenString string) (*Principal, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if len(a.audiences) > 0 {
		options = append(options, jwt.WithAudience(a.audiences...))
	}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	parser := jwt.NewParser(options...)
	claims := &tokenClaims{}

	token, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}
	if !token.Valid {
		return nil, unauthorized("Invalid or expired token")
	}

	return &Principal{
		Subject: claims.Subject,
		Scopes:  claims.ScopeList(),
	}, nil
}

// HasAnyScope reports whether the principal owns at least one required scope.
func (p *Principal) HasAnyScope(required []string) bool {
	for _, scope := range required {
		for _, owned := range p.Scopes {
			if scope == owned {
				return true
			}
		}
	}
	return false
}

type tokenClaims struct {
	Scope string   `json:"scope"`
	Scp   []string `json:"scp"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) ScopeList() []string {
	if len(c.Scp) > 0 {
		return c.Scp
	}
	if c.Scope == "" {
		return nil
	}
	return strings.Fields(c.Scope)
}
