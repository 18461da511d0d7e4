package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/service"
)

// PublicKeyHeader carries the deployment's public client key.
const PublicKeyHeader = "apikey"

// Verifier resolves a bearer token to the identity of a live session.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier Verifier
}

// Auth returns a middleware that authenticates requests with a bearer
// session token and injects the caller identity into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w, "Not authenticated")
				return
			}

			identity, err := cfg.Verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					logAuthFailure(cfg.Logger, r, "invalid_session")
				} else if cfg.Logger != nil {
					cfg.Logger.Error("session lookup failed during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				writeAuthError(w, "Not authenticated")
				return
			}

			annotateUser(r.Context(), identity.UserID)
			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePublicKey rejects requests whose apikey header does not match key.
// An empty key disables the check.
func RequirePublicKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(PublicKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeAuthError(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken extracts the session token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message, "UNAUTHORIZED")
}

// writeError writes the standard {error, code} body.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
