package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminProtectedHandler(token string) http.Handler {
	return RequireAdmin(token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestRequireAdmin(t *testing.T) {
	t.Run("passes through when no token is configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		rec := httptest.NewRecorder()

		adminProtectedHandler("").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		rec := httptest.NewRecorder()

		adminProtectedHandler("secret").ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing or invalid admin token"}`, rec.Body.String())
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()

		adminProtectedHandler("secret").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()

		adminProtectedHandler("secret").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("accepts X-Admin-Token header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		req.Header.Set("X-Admin-Token", "secret")
		rec := httptest.NewRecorder()

		adminProtectedHandler("secret").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("malformed authorization header does not fall back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/importers/seo-toolkit/import", nil)
		req.Header.Set("Authorization", "Basic secret")
		req.Header.Set("X-Admin-Token", "secret")
		rec := httptest.NewRecorder()

		adminProtectedHandler("secret").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
