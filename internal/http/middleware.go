package http

import (
	"net/http"
	"strings"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/slogx"
)

// AuthnMiddleware gates a route on a valid access token. The token is read
// from the accessToken cookie, falling back to an Authorization bearer
// header, and the authenticated user id is placed on the request context.
func AuthnMiddleware(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessTokenFrom(r)
			if raw == "" {
				writeError(w, r, service.ErrInvalidCredentials, "missing access token")
				return
			}

			userID, err := tokens.VerifyAccess(raw)
			if err != nil {
				writeError(w, r, err, "invalid access token")
				return
			}

			ctx := httpx.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(cookieAccessToken); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RecoverMiddleware converts handler panics into a 500 envelope instead of
// tearing down the connection.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slogx.FromContext(r.Context()).Error("handler panic",
					"panic", rec, "method", r.Method, "path", r.URL.Path)
				httpx.WriteJSON(w, http.StatusInternalServerError, apiError{
					StatusCode: http.StatusInternalServerError,
					Message:    "internal server error",
					Success:    false,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
