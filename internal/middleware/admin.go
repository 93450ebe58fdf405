package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mineos/landing/internal/auth"
)

// AdminAuthConfig holds configuration for the admin token middleware.
type AdminAuthConfig struct {
	Logger    *slog.Logger
	TokenHash string // Argon2id PHC string
}

// AdminAuth returns middleware that requires "Authorization: Bearer <token>"
// matching the configured admin token hash.
func AdminAuth(cfg AdminAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("admin_auth_failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeUnauthorized(w)
				return
			}

			// Format check precedes the argon2id derivation.
			if !auth.ValidateTokenFormat(token) {
				cfg.Logger.Warn("admin_auth_failed",
					slog.String("reason", "malformed_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeUnauthorized(w)
				return
			}

			ok, err := auth.VerifyToken(token, cfg.TokenHash)
			if err != nil {
				cfg.Logger.Error("admin_auth_failed",
					slog.String("reason", "bad_hash"),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeUnauthorized(w)
				return
			}
			if !ok {
				cfg.Logger.Warn("admin_auth_failed",
					slog.String("reason", "invalid_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken returns the token from an Authorization: Bearer header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeUnauthorized uses one message for every failure.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
}
