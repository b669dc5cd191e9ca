package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

// Identity reads the caller's user id from the X-User-ID header. Session and
// token verification happen upstream; the backend only needs the identity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "X-User-ID header is required",
				},
				"correlationId": GetCorrelationID(r.Context()),
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserKey).(string); ok {
		return id
	}
	return ""
}
