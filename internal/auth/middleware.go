package auth

import (
	"context"
	"net/http"

	"bom-tracker/internal/logger"
	"bom-tracker/internal/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RequireSession rejects requests without a logged-in user with 401 and puts
// the user id into the request context otherwise.
func (s *Sessions) RequireSession(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := s.CurrentUser(r)
			if !ok {
				log.LogSecurity("UNAUTHORIZED", r.Method+" "+r.URL.Path)
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the user id set by RequireSession; 0 when absent.
func UserID(ctx context.Context) int64 {
	if uid, ok := ctx.Value(userIDKey).(int64); ok {
		return uid
	}
	return 0
}
