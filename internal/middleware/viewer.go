package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayush/pinboard/backend/internal/auth"
)

// TokenParser verifies a session token.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// Viewer reads an optional "Authorization: Bearer <token>" header and,
// when the token verifies, stores its claims in the request context.
// Requests without a valid token continue anonymously.
func Viewer(tokens TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ParseToken(raw)
			if err != nil {
				log.DebugContext(r.Context(), "ignoring invalid bearer token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireViewer rejects requests that Viewer did not authenticate.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Not authenticated"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
