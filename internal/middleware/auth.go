// Package middleware provides HTTP middleware for admin authentication.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAdmin guards mutating routes with a bearer token. It accepts:
// 1. Authorization: Bearer <token>
// 2. X-Admin-Token header (for curl-friendly service calls)
//
// An empty configured token disables the check; config.Validate refuses that
// outside development.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := presentedToken(r)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing or invalid admin token"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func presentedToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	return strings.TrimSpace(r.Header.Get("X-Admin-Token"))
}
