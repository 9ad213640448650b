package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/macromates/nutribuddy/internal/model"
)

// CookieName is the HttpOnly cookie the session token is stored in.
const CookieName = "token"

// Principal is the verified identity behind a request.
type Principal struct {
	AccountID string
	Role      model.Role
}

// contextKey is unexported so no other package can read or overwrite the
// principal stored in a request context.
type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by Authenticate, or
// (nil, false) for an anonymous request.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// Authenticate attaches the principal of a valid session token to the request
// context. The token is read from "Authorization: Bearer <jwt>" first and
// from the session cookie otherwise.
//
// A missing or invalid token does not end the request here: the request
// continues anonymously and Authorize decides whether that is enough.
//
//	r.Use(auth.Authenticate(tokens))
//	r.With(auth.Authorize(policy, "clients")).Get("/clients", h.HandleList)
func Authenticate(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := tokenFromRequest(r); raw != "" {
				if p, err := tokens.Validate(raw); err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize rejects requests whose principal may not access resource with
// the request method: 401 without a principal, 403 when the policy has no
// matching grant.
func Authorize(policy *Policy, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if !policy.Allows(p.Role, resource, AccessFor(r.Method)) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "your role does not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests without consulting the policy.
// Used for routes every signed-in role may reach, such as /auth/me.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// writeAuthError mirrors the API error body so clients parse a 401/403 the
// same way as every other error.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
