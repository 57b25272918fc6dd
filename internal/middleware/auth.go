package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type authContextKey string

const (
	adminIDKey      authContextKey = "admin_id"
	sessionTokenKey authContextKey = "session_token"
)

// SessionResolver maps a session token to the admin it belongs to.
type SessionResolver interface {
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
}

// RequireAuth rejects requests without a live session cookie with 401. On
// success the admin id and session token are attached to the request context.
func RequireAuth(sessions SessionResolver, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			adminID, ok, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("session lookup failed", "error", err, "request_id", GetRequestID(r.Context()))
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := WithSession(r.Context(), adminID, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession attaches an authenticated admin to ctx.
func WithSession(ctx context.Context, adminID uuid.UUID, token string) context.Context {
	ctx = context.WithValue(ctx, adminIDKey, adminID)
	return context.WithValue(ctx, sessionTokenKey, token)
}

// AdminIDFromContext returns the admin attached by RequireAuth.
func AdminIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(adminIDKey).(uuid.UUID)
	return id, ok
}

// SessionTokenFromContext returns "" outside an authenticated request.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey).(string)
	return token
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
