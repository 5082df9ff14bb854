package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Capabilities that open the dashboard. Holding either one is enough.
const (
	CapabilityManageStore   = "manage_store"
	CapabilityManageOptions = "manage_options"
)

// AuthorizationContext answers capability checks for the current caller.
type AuthorizationContext interface {
	HasCapability(name string) bool
}

// CapabilitySet is an AuthorizationContext backed by a fixed list.
type CapabilitySet map[string]bool

func NewCapabilitySet(names ...string) CapabilitySet {
	set := make(CapabilitySet, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (s CapabilitySet) HasCapability(name string) bool {
	return s[name]
}

type authContextKey struct{}

// WithAuthorization returns a copy of ctx carrying auth.
func WithAuthorization(ctx context.Context, auth AuthorizationContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthorizationFromContext returns the caller's authorization, or an
// empty capability set for anonymous callers.
func AuthorizationFromContext(ctx context.Context) AuthorizationContext {
	if v, ok := ctx.Value(authContextKey{}).(AuthorizationContext); ok && v != nil {
		return v
	}
	return CapabilitySet{}
}

// Claims is the JWT payload accepted by the dashboard.
type Claims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// Authenticate verifies an HS256 token from the Authorization header or
// the auth_token cookie and stores the caller's capabilities on the
// request context. Requests without a token pass through anonymously; a
// token that fails verification is rejected with 401.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, r, "invalid or expired token", codeAuthentication, http.StatusUnauthorized)
				return
			}

			ctx := WithAuthorization(r.Context(), NewCapabilitySet(claims.Capabilities...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects callers holding none of the given
// capabilities with 403.
func RequireCapability(anyOf ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := AuthorizationFromContext(r.Context())
			for _, c := range anyOf {
				if auth.HasCapability(c) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, "insufficient permissions", codeAuthorization, http.StatusForbidden)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
