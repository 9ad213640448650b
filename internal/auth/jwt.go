// Package auth provides sessions, passwords, GitHub sign-in and role-based
// access control for the API.
//
// SESSION FLOW:
//  1. A user signs in with email + password (POST /auth/login) or through
//     GitHub (/auth/github/login → /auth/github/callback).
//  2. The server issues a signed JWT carrying the account ID ("sub") and the
//     account's role ("role"). It is returned in the body and as an HttpOnly
//     cookie.
//  3. Authenticate reads the token from the Authorization header or the
//     cookie and stores a Principal in the request context.
//  4. Authorize checks the Principal's role against the policy for the
//     resource being accessed.
//
// The role is only ever read from a verified token. A role supplied in a
// query string or body is never trusted.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/macromates/nutribuddy/internal/model"
)

const (
	issuer = "nutribuddy"

	// DefaultTokenTTL is used when no lifetime is configured.
	DefaultTokenTTL = 15 * time.Minute
)

// ErrTokenExpired is returned by Validate for a well-formed token whose
// lifetime is over.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload: the registered claims plus the account role.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate issues a token for the account that expires after TTL.
func (s *TokenService) Generate(accountID string, role model.Role) (string, error) {
	return s.GenerateWithDuration(accountID, role, s.ttl)
}

// GenerateWithDuration issues a token with an explicit lifetime. A negative
// duration yields an already expired token, which the tests rely on.
func (s *TokenService) GenerateWithDuration(accountID string, role model.Role, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, issuer and expiry of tokenStr and returns
// the principal it identifies.
func (s *TokenService) Validate(tokenStr string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}

	role := model.Role(c.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("auth: token carries unknown role %q", c.Role)
	}

	return &Principal{AccountID: c.Subject, Role: role}, nil
}
